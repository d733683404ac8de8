package pipeline

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	StageRequest    = "request"
	StageGenerate   = "generate"
	StageValidate   = "validate"
	StageRepair     = "repair"
	StageRevalidate = "revalidate"
	StageFallback   = "fallback"
	StageDone       = "done"
)

// StageRecord is an advisory diagnostic emitted once per pipeline stage.
type StageRecord struct {
	Stage      string        `json:"stage"`
	Duration   time.Duration `json:"duration_ns"`
	Provenance Provenance    `json:"provenance,omitempty"`
	ErrorClass string        `json:"error_class,omitempty"`
	Errors     []string      `json:"errors,omitempty"`
}

func (r StageRecord) logKVs() []interface{} {
	kv := []interface{}{"stage", r.Stage, "duration_ms", r.Duration.Milliseconds()}
	if r.Provenance != "" {
		kv = append(kv, "provenance", string(r.Provenance))
	}
	if r.ErrorClass != "" {
		kv = append(kv, "error_class", r.ErrorClass, "errors", r.Errors)
	}
	return kv
}

func (r StageRecord) spanEvent(span trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.Int64("duration_ms", r.Duration.Milliseconds()),
	}
	if r.Provenance != "" {
		attrs = append(attrs, attribute.String("provenance", string(r.Provenance)))
	}
	if r.ErrorClass != "" {
		attrs = append(attrs,
			attribute.String("error_class", r.ErrorClass),
			attribute.Int("error_count", len(r.Errors)),
		)
	}
	span.AddEvent(r.Stage, trace.WithAttributes(attrs...))
}
