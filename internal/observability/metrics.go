package observability

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/yungbote/levelsnap-backend/internal/platform/envutil"
)

// Metrics holds the service's Prometheus series. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	apiRequests  *CounterVec
	apiLatency   *HistogramVec
	apiInflight  *Gauge
	scenes       *CounterVec
	sceneLatency *HistogramVec
	modelCalls   *CounterVec
	stageErrors  *CounterVec
	cacheLookups *CounterVec
	runWrites    *CounterVec
}

// MetricsEnabled reports whether METRICS_ENABLED asks for a /metrics endpoint.
func MetricsEnabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("levelsnap_api_requests_total", "HTTP requests by method, route and status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec("levelsnap_api_request_seconds", "HTTP request latency.", []string{"method", "route"},
			[]float64{0.005, 0.05, 0.25, 1, 5, 15, 30, 60}),
		apiInflight: NewGauge("levelsnap_api_inflight_requests", "HTTP requests currently being served."),
		scenes:      NewCounterVec("levelsnap_scenes_total", "Scenes served by provenance.", []string{"provenance"}),
		sceneLatency: NewHistogramVec("levelsnap_scene_generation_seconds", "Scene generation latency by provenance.", []string{"provenance"},
			[]float64{0.5, 1, 2.5, 5, 10, 20, 40, 60}),
		modelCalls:   NewCounterVec("levelsnap_model_calls_total", "Upstream model calls.", []string{"model"}),
		stageErrors:  NewCounterVec("levelsnap_pipeline_stage_errors_total", "Failed pipeline stages by error class.", []string{"stage", "class"}),
		cacheLookups: NewCounterVec("levelsnap_scene_cache_lookups_total", "Scene cache lookups by result.", []string{"result"}),
		runWrites:    NewCounterVec("levelsnap_run_writes_total", "Run history writes by status.", []string{"status"}),
	}
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveScene(model, provenance string, calls int, dur time.Duration) {
	if m == nil {
		return
	}
	m.scenes.Inc(provenance)
	m.sceneLatency.Observe(dur.Seconds(), provenance)
	if calls > 0 {
		m.modelCalls.Add(float64(calls), model)
	}
}

func (m *Metrics) ObserveStageError(stage, class string) {
	if m == nil || class == "" {
		return
	}
	m.stageErrors.Inc(stage, class)
}

// ObserveCache records a lookup result: "hit", "miss" or "error".
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.Inc(result)
}

func (m *Metrics) ObserveRunWrite(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.runWrites.Inc(status)
}

// SceneCount returns how many scenes were served with the given provenance.
func (m *Metrics) SceneCount(provenance string) float64 {
	if m == nil {
		return 0
	}
	return m.scenes.Value(provenance)
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, s := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.scenes, m.sceneLatency, m.modelCalls,
		m.stageErrors, m.cacheLookups, m.runWrites,
	} {
		if err := s.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

// StatusLabel renders an HTTP status code as a metric label.
func StatusLabel(code int) string {
	if code <= 0 {
		return "0"
	}
	return strconv.Itoa(code)
}
