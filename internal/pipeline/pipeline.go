package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/levelsnap-backend/internal/inference/engine"
	"github.com/yungbote/levelsnap-backend/internal/platform/logger"
	"github.com/yungbote/levelsnap-backend/internal/scene"
)

type Provenance string

const (
	ProvenanceAI       Provenance = "ai"
	ProvenanceRepaired Provenance = "ai_repaired"
	ProvenanceFallback Provenance = "fallback"
)

// MaxModelCalls is the first attempt plus the single repair.
const MaxModelCalls = 2

type Request struct {
	Image    []byte
	MimeType string
	Width    int
	Height   int
}

type Result struct {
	Scene      *scene.Scene
	Provenance Provenance
	Duration   time.Duration
	ModelCalls int
	// Errors lists every problem seen on the way, first attempt first.
	Errors []string
	Stages []StageRecord
}

func (r Result) DurationMs() int64 { return r.Duration.Milliseconds() }

// MinHistoryMessages is the smallest history that still fits a repair request:
// system prompt, original user turn with the image, rejected reply and the
// error list.
const MinHistoryMessages = 4

type Options struct {
	Temperature     float64
	MaxOutputTokens int
	// MaxHistoryMessages bounds the repair conversation. Positive values below
	// MinHistoryMessages are raised to it; <= 0 leaves the history unbounded.
	MaxHistoryMessages int
	MaxEchoBytes       int

	// OnStage observes every stage record. It must not block.
	OnStage func(StageRecord)
}

// Pipeline turns a photo into a valid scene. It holds no per-request state and
// is safe for concurrent use.
type Pipeline struct {
	eng    engine.Engine
	model  string
	log    *logger.Logger
	opts   Options
	tracer trace.Tracer
}

func New(eng engine.Engine, model string, log *logger.Logger, opts Options) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	if opts.MaxHistoryMessages > 0 && opts.MaxHistoryMessages < MinHistoryMessages {
		opts.MaxHistoryMessages = MinHistoryMessages
	}
	return &Pipeline{
		eng:    eng,
		model:  model,
		log:    log.With("component", "pipeline", "model", model),
		opts:   opts,
		tracer: otel.Tracer("levelsnap/pipeline"),
	}
}

// run carries the state of a single Generate call.
type run struct {
	p     *Pipeline
	span  trace.Span
	start time.Time
	mark  time.Time
	res   Result
}

func (r *run) stage(name string, prov Provenance, err error) {
	now := time.Now()
	rec := StageRecord{
		Stage:      name,
		Duration:   now.Sub(r.mark),
		Provenance: prov,
		ErrorClass: Classify(err),
		Errors:     errorMessages(err),
	}
	r.mark = now
	r.res.Stages = append(r.res.Stages, rec)
	r.res.Errors = append(r.res.Errors, rec.Errors...)

	if err != nil {
		r.p.log.Warn("pipeline stage failed", rec.logKVs()...)
	} else {
		r.p.log.Debug("pipeline stage", rec.logKVs()...)
	}
	rec.spanEvent(r.span)
	r.p.notify(rec)
}

func (p *Pipeline) notify(rec StageRecord) {
	if p.opts.OnStage == nil {
		return
	}
	defer func() {
		if rv := recover(); rv != nil {
			p.log.Error("stage hook panicked", "stage", rec.Stage, "panic", fmt.Sprint(rv))
		}
	}()
	p.opts.OnStage(rec)
}

// Generate never fails: every path ends in a valid scene with its provenance.
// At most MaxModelCalls engine calls are made, sequentially. A cancelled ctx
// sends the run straight to the fallback scene.
func (p *Pipeline) Generate(ctx context.Context, req Request) (res Result) {
	ctx, span := p.tracer.Start(ctx, "pipeline.generate", trace.WithAttributes(
		attribute.String("model", p.model),
		attribute.String("mime_type", req.MimeType),
		attribute.Int("image_bytes", len(req.Image)),
	))
	now := time.Now()
	r := &run{p: p, span: span, start: now, mark: now}

	defer func() {
		if rv := recover(); rv != nil {
			p.log.Error("pipeline panicked, serving fallback", "panic", fmt.Sprint(rv))
			r.fallback(fmt.Errorf("internal error: %v", rv))
		}
		r.res.Duration = time.Since(r.start)
		span.SetAttributes(
			attribute.String("provenance", string(r.res.Provenance)),
			attribute.Int("model_calls", r.res.ModelCalls),
		)
		if r.res.Provenance == ProvenanceFallback {
			span.SetStatus(codes.Error, "fallback scene served")
		}
		span.End()
		p.log.Info("scene generated",
			"provenance", string(r.res.Provenance),
			"model_calls", r.res.ModelCalls,
			"duration_ms", r.res.Duration.Milliseconds(),
			"error_count", len(r.res.Errors),
		)
		res = r.res
	}()

	if err := checkRequest(req); err != nil {
		r.stage(StageRequest, "", err)
		r.fallback(nil)
		return
	}
	r.stage(StageRequest, "", nil)

	conv := NewConversation(systemPrompt, p.opts.MaxHistoryMessages, p.opts.MaxEchoBytes)
	conv.AddUser(userPrompt(req), engine.Image{Bytes: req.Image, MimeType: req.MimeType})

	raw, err := r.call(ctx, conv)
	if err != nil {
		r.stage(StageGenerate, "", err)
		r.fallback(nil)
		return
	}
	r.stage(StageGenerate, "", nil)

	sc, err := parseScene(raw)
	if err == nil {
		r.stage(StageValidate, ProvenanceAI, nil)
		r.done(sc, ProvenanceAI)
		return
	}
	r.stage(StageValidate, "", err)

	if cerr := ctx.Err(); cerr != nil {
		r.fallback(cerr)
		return
	}

	conv.AddReply(raw)
	conv.AddUser(repairPrompt(errorMessages(err)))

	raw, err = r.call(ctx, conv)
	if err != nil {
		r.stage(StageRepair, "", err)
		r.fallback(nil)
		return
	}
	r.stage(StageRepair, "", nil)

	sc, err = parseScene(raw)
	if err != nil {
		r.stage(StageRevalidate, "", err)
		r.fallback(nil)
		return
	}
	r.stage(StageRevalidate, ProvenanceRepaired, nil)
	r.done(sc, ProvenanceRepaired)
	return
}

func (r *run) call(ctx context.Context, conv *Conversation) (string, error) {
	if r.res.ModelCalls >= MaxModelCalls {
		return "", errors.New("model call budget exhausted")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.res.ModelCalls++

	p := r.p
	raw, err := p.eng.GenerateText(ctx, p.model, conv.Messages(), engine.GenerateOptions{
		Temperature:     p.opts.Temperature,
		MaxOutputTokens: p.opts.MaxOutputTokens,
		JSONSchema: &engine.JSONSchema{
			Name:   "scene",
			Schema: scene.JSONSchema(),
			Strict: true,
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &TransportError{Err: err}
	}
	p.log.Debug("model response", "call", r.res.ModelCalls, "raw", raw)
	return raw, nil
}

func (r *run) done(sc *scene.Scene, prov Provenance) {
	r.res.Scene = sc
	r.res.Provenance = prov
	r.stage(StageDone, prov, nil)
}

// fallback serves the static scene. A non-nil cause is recorded on the
// fallback stage itself.
func (r *run) fallback(cause error) {
	r.res.Scene = scene.Fallback()
	r.res.Provenance = ProvenanceFallback
	r.stage(StageFallback, ProvenanceFallback, cause)
	r.stage(StageDone, ProvenanceFallback, nil)
}

func parseScene(raw string) (*scene.Scene, error) {
	obj, err := ExtractJSON(raw)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	v, err := scene.Decode(obj)
	if err != nil {
		return nil, &ExtractionError{Err: err}
	}
	return scene.Validate(v)
}

func checkRequest(req Request) error {
	if len(req.Image) == 0 {
		return errors.New("request has no image bytes")
	}
	if req.Width < 0 || req.Height < 0 {
		return fmt.Errorf("invalid image size %dx%d", req.Width, req.Height)
	}
	if m := strings.TrimSpace(req.MimeType); m != "" && !strings.HasPrefix(m, "image/") {
		return fmt.Errorf("unsupported mime type %q", m)
	}
	return nil
}
