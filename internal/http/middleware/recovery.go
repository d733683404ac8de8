package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/levelsnap-backend/internal/http/response"
	"github.com/yungbote/levelsnap-backend/internal/platform/ctxutil"
	"github.com/yungbote/levelsnap-backend/internal/platform/logger"
)

func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if log != nil {
				log.Error("panic recovered",
					"request_id", ctxutil.RequestID(c.Request.Context()),
					"panic", rec,
					"stack", string(debug.Stack()),
				)
			}
			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("internal server error"))
			c.Abort()
		}()
		c.Next()
	}
}
