package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/levelsnap-backend/internal/http/response"
	"github.com/yungbote/levelsnap-backend/internal/services"
	"github.com/yungbote/levelsnap-backend/internal/store"
)

type RunHandler struct {
	scenes services.SceneService
}

func NewRunHandler(scenes services.SceneService) *RunHandler {
	return &RunHandler{scenes: scenes}
}

// GET /v1/runs?limit=n
func (h *RunHandler) ListRuns(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.RespondParamError(c, "limit", errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}
	runs, err := h.scenes.ListRuns(c.Request.Context(), limit)
	if err != nil {
		respondRunError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"runs": runs})
}

// GET /v1/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_run_id", err)
		return
	}
	run, err := h.scenes.GetRun(c.Request.Context(), id)
	if err != nil {
		respondRunError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"run": run})
}

func respondRunError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRunsDisabled):
		response.RespondError(c, http.StatusNotFound, "runs_disabled", err)
	case errors.Is(err, store.ErrNotFound):
		response.RespondError(c, http.StatusNotFound, "run_not_found", err)
	default:
		_ = c.Error(err)
		response.RespondError(c, http.StatusInternalServerError, "run_lookup_failed", errors.New("run lookup failed"))
	}
}
