package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/levelsnap-backend/internal/http/handlers"
	httpMW "github.com/yungbote/levelsnap-backend/internal/http/middleware"
	"github.com/yungbote/levelsnap-backend/internal/observability"
	"github.com/yungbote/levelsnap-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	ServiceName     string
	CORSOrigins     []string
	MaxRequestBytes int64
	RequestTimeout  time.Duration

	HealthHandler *httpH.HealthHandler
	SceneHandler  *httpH.SceneHandler
	RunHandler    *httpH.RunHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Recovery(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.ReadyCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/v1")
	api.Use(httpMW.BodyLimit(cfg.MaxRequestBytes))
	{
		// Scenes
		if cfg.SceneHandler != nil {
			api.POST("/scenes", httpMW.Timeout(cfg.RequestTimeout), cfg.SceneHandler.Generate)
			api.POST("/scenes/validate", cfg.SceneHandler.Validate)
			api.GET("/scenes/fallback", cfg.SceneHandler.Fallback)
		}

		// Run history
		if cfg.RunHandler != nil {
			api.GET("/runs", cfg.RunHandler.ListRuns)
			api.GET("/runs/:id", cfg.RunHandler.GetRun)
		}
	}

	return r
}
