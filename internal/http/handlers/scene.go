package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/levelsnap-backend/internal/http/response"
	"github.com/yungbote/levelsnap-backend/internal/pipeline"
	"github.com/yungbote/levelsnap-backend/internal/platform/ctxutil"
	"github.com/yungbote/levelsnap-backend/internal/platform/logger"
	"github.com/yungbote/levelsnap-backend/internal/scene"
	"github.com/yungbote/levelsnap-backend/internal/services"
)

type SceneHandler struct {
	log    *logger.Logger
	scenes services.SceneService
}

func NewSceneHandler(log *logger.Logger, scenes services.SceneService) *SceneHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SceneHandler{
		log:    log.With("handler", "SceneHandler"),
		scenes: scenes,
	}
}

type SceneResponse struct {
	RunID      string       `json:"run_id"`
	Scene      *scene.Scene `json:"scene"`
	Provenance string       `json:"provenance"`
	DurationMs int64        `json:"duration_ms"`
	ModelCalls int          `json:"model_calls"`
	Cached     bool         `json:"cached"`
}

// POST /v1/scenes
func (h *SceneHandler) Generate(c *gin.Context) {
	up, err := readUpload(c.Request)
	if err != nil {
		respondBodyError(c, err)
		return
	}
	switch up.Kind {
	case UploadEmpty:
		response.RespondError(c, http.StatusBadRequest, "missing_image", errors.New("request has no image"))
		return
	case UploadMany:
		response.RespondError(c, http.StatusBadRequest, "too_many_images", fmt.Errorf("expected one image, got %d", up.Files))
		return
	}

	width, err := dimension(up.Field("width"))
	if err != nil {
		response.RespondParamError(c, "width", fmt.Errorf("width %w", err))
		return
	}
	height, err := dimension(up.Field("height"))
	if err != nil {
		response.RespondParamError(c, "height", fmt.Errorf("height %w", err))
		return
	}

	out := h.scenes.Generate(c.Request.Context(), services.GenerateInput{
		Image:    up.Image,
		MimeType: up.MimeType,
		Width:    width,
		Height:   height,
	})
	if out.Provenance == pipeline.ProvenanceFallback {
		h.log.Warn("served fallback scene",
			"request_id", ctxutil.RequestID(c.Request.Context()),
			"run_id", out.RunID.String(),
			"errors", out.Errors,
		)
	}

	response.RespondOK(c, SceneResponse{
		RunID:      out.RunID.String(),
		Scene:      out.Scene,
		Provenance: string(out.Provenance),
		DurationMs: out.DurationMs,
		ModelCalls: out.ModelCalls,
		Cached:     out.Cached,
	})
}

type ValidationErrors struct {
	Structural scene.FieldErrors `json:"structural"`
	Semantic   scene.FieldErrors `json:"semantic"`
}

type ValidateResponse struct {
	Valid             bool              `json:"valid"`
	Scene             *scene.Scene      `json:"scene,omitempty"`
	EnemySpawnAnchors []string          `json:"enemy_spawn_anchors,omitempty"`
	Errors            *ValidationErrors `json:"errors,omitempty"`
}

// POST /v1/scenes/validate
//
// The body is checked the same way a model reply is: fences and prose are
// stripped before the JSON is validated.
func (h *SceneHandler) Validate(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondBodyError(c, err)
		return
	}

	sc, err := validateText(string(body))
	if err != nil {
		var verr *scene.ValidationError
		errs := &ValidationErrors{}
		if errors.As(err, &verr) {
			errs.Structural = verr.Structural
			errs.Semantic = verr.Semantic
		} else {
			errs.Structural = scene.FieldErrors{{Message: err.Error()}}
		}
		if errs.Structural == nil {
			errs.Structural = scene.FieldErrors{}
		}
		if errs.Semantic == nil {
			errs.Semantic = scene.FieldErrors{}
		}
		c.JSON(http.StatusUnprocessableEntity, ValidateResponse{Valid: false, Errors: errs})
		return
	}

	anchors := scene.EnemySpawnAnchors(sc.Objects)
	ids := make([]string, 0, len(anchors))
	for _, o := range anchors {
		ids = append(ids, o.ID)
	}
	response.RespondOK(c, ValidateResponse{Valid: true, Scene: sc, EnemySpawnAnchors: ids})
}

func validateText(text string) (*scene.Scene, error) {
	raw, err := pipeline.ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	return scene.ValidateJSON(raw)
}

// GET /v1/scenes/fallback
func (h *SceneHandler) Fallback(c *gin.Context) {
	response.RespondOK(c, gin.H{"scene": scene.Fallback()})
}

func respondBodyError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "request_too_large",
			fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
		return
	}
	response.RespondError(c, http.StatusBadRequest, "invalid_request_body", err)
}
