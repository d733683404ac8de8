package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/levelsnap-backend/internal/cache"
	"github.com/yungbote/levelsnap-backend/internal/imageinfo"
	"github.com/yungbote/levelsnap-backend/internal/observability"
	"github.com/yungbote/levelsnap-backend/internal/pipeline"
	"github.com/yungbote/levelsnap-backend/internal/platform/logger"
	"github.com/yungbote/levelsnap-backend/internal/scene"
	"github.com/yungbote/levelsnap-backend/internal/store"
)

var ErrRunsDisabled = errors.New("run history is disabled")

type GenerateInput struct {
	Image    []byte
	MimeType string
	// Width and Height override the size read from the image header when > 0.
	Width  int
	Height int
}

type GenerateOutput struct {
	RunID      uuid.UUID
	Scene      *scene.Scene
	Provenance pipeline.Provenance
	DurationMs int64
	ModelCalls int
	Cached     bool
	Errors     []string
}

type SceneService interface {
	Generate(ctx context.Context, in GenerateInput) *GenerateOutput
	GetRun(ctx context.Context, id uuid.UUID) (*store.GenerationRun, error)
	ListRuns(ctx context.Context, limit int) ([]*store.GenerationRun, error)
}

type SceneServiceOptions struct {
	Model        string
	MaxImageSide int
}

type sceneService struct {
	log      *logger.Logger
	pipeline *pipeline.Pipeline
	cache    cache.SceneCache
	runs     store.RunRepo
	metrics  *observability.Metrics
	opts     SceneServiceOptions
}

// NewSceneService wires the pipeline to its optional collaborators. A nil
// cache disables caching, a nil run repo disables history and nil metrics
// record nothing.
func NewSceneService(log *logger.Logger, p *pipeline.Pipeline, c cache.SceneCache, runs store.RunRepo, m *observability.Metrics, opts SceneServiceOptions) SceneService {
	if log == nil {
		log = logger.Nop()
	}
	if c == nil {
		c = cache.Nop{}
	}
	return &sceneService{
		log:      log.With("service", "SceneService"),
		pipeline: p,
		cache:    c,
		runs:     runs,
		metrics:  m,
		opts:     opts,
	}
}

func (s *sceneService) Generate(ctx context.Context, in GenerateInput) *GenerateOutput {
	start := time.Now()
	req := s.prepare(in)
	key := cache.Key(s.opts.Model, in.Image, req.MimeType, req.Width, req.Height)

	out := &GenerateOutput{RunID: uuid.New()}
	if sc, prov, ok := s.lookup(ctx, key); ok {
		out.Scene = sc
		out.Provenance = pipeline.Provenance(prov)
		out.Cached = true
	} else {
		res := s.pipeline.Generate(ctx, req)
		out.Scene = res.Scene
		out.Provenance = res.Provenance
		out.ModelCalls = res.ModelCalls
		out.Errors = res.Errors

		if res.Provenance != pipeline.ProvenanceFallback {
			if err := s.cache.Set(ctx, key, res.Scene, string(res.Provenance)); err != nil {
				s.log.Warn("scene cache write failed", "error", err)
			}
		}
	}
	out.DurationMs = time.Since(start).Milliseconds()

	s.metrics.ObserveScene(s.opts.Model, string(out.Provenance), out.ModelCalls, time.Since(start))
	s.record(ctx, in.Image, req, out)
	return out
}

// prepare fills in mime type and size from the image header and shrinks
// oversized photos. Unreadable images are passed through as-is and left to
// the model.
func (s *sceneService) prepare(in GenerateInput) pipeline.Request {
	req := pipeline.Request{Image: in.Image, MimeType: in.MimeType, Width: in.Width, Height: in.Height}

	info, err := imageinfo.Detect(in.Image)
	if err != nil {
		s.log.Warn("image header unreadable", "error", err, "mime_type", in.MimeType, "bytes", len(in.Image))
		return req
	}
	req.MimeType = info.MimeType
	if req.Width <= 0 || req.Height <= 0 {
		req.Width, req.Height = info.Width, info.Height
	}

	fitted, fittedInfo, err := imageinfo.Fit(in.Image, info, s.opts.MaxImageSide)
	if err != nil {
		s.log.Warn("image downscale failed, sending original", "error", err)
		return req
	}
	req.Image = fitted
	req.MimeType = fittedInfo.MimeType
	return req
}

func (s *sceneService) lookup(ctx context.Context, key string) (*scene.Scene, string, bool) {
	sc, prov, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.metrics.ObserveCache("error")
		s.log.Warn("scene cache read failed", "error", err)
		return nil, "", false
	case sc == nil:
		s.metrics.ObserveCache("miss")
		return nil, "", false
	default:
		s.metrics.ObserveCache("hit")
		return sc, prov, true
	}
}

func (s *sceneService) record(ctx context.Context, image []byte, req pipeline.Request, out *GenerateOutput) {
	if s.runs == nil {
		return
	}
	sum := sha256.Sum256(image)
	sceneJSON, err := json.Marshal(out.Scene)
	if err != nil {
		s.log.Error("marshal scene for run history failed", "error", err)
		return
	}
	errs := out.Errors
	if errs == nil {
		errs = []string{}
	}
	errsJSON, _ := json.Marshal(errs)

	// The run is recorded even when the client has gone away.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err = s.runs.Create(wctx, &store.GenerationRun{
		ID:          out.RunID,
		ImageSHA256: hex.EncodeToString(sum[:]),
		MimeType:    req.MimeType,
		Width:       req.Width,
		Height:      req.Height,
		Model:       s.opts.Model,
		Provenance:  string(out.Provenance),
		Cached:      out.Cached,
		DurationMs:  out.DurationMs,
		ModelCalls:  out.ModelCalls,
		Errors:      datatypes.JSON(errsJSON),
		Scene:       datatypes.JSON(sceneJSON),
	})
	s.metrics.ObserveRunWrite(err)
	if err != nil {
		s.log.Warn("run history write failed", "run_id", out.RunID.String(), "error", err)
	}
}

func (s *sceneService) GetRun(ctx context.Context, id uuid.UUID) (*store.GenerationRun, error) {
	if s.runs == nil {
		return nil, ErrRunsDisabled
	}
	return s.runs.Get(ctx, id)
}

func (s *sceneService) ListRuns(ctx context.Context, limit int) ([]*store.GenerationRun, error) {
	if s.runs == nil {
		return nil, ErrRunsDisabled
	}
	return s.runs.ListRecent(ctx, limit)
}
