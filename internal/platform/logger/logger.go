package logger

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yungbote/levelsnap-backend/internal/platform/envutil"
)

// Logger is a sugared zap logger that scrubs credentials, raw image bytes
// and oversized model output from key/value pairs before they are written.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
}

// New builds a JSON logger for "prod"/"production" and a console logger
// otherwise. LOG_LEVEL overrides the mode's default level.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	level := zapcore.DebugLevel
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		level = zapcore.InfoLevel
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	if v := envutil.String("LOG_LEVEL", ""); v != "" {
		parsed, err := zapcore.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		level = parsed
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

// Nop discards everything; used by tests and library callers without a logger.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, sanitizeKVs(keysAndValues)...)
}
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(sanitizeKVs(keysAndValues)...)}
}

// maxLoggedBytes bounds model output echoed into logs.
const maxLoggedBytes = 2048

var (
	scrubOnce    sync.Once
	scrubEnabled bool
)

func scrubbing() bool {
	scrubOnce.Do(func() {
		scrubEnabled = envutil.Bool("LOG_REDACTION_ENABLED", true)
	})
	return scrubEnabled
}

func sanitizeKVs(kv []interface{}) []interface{} {
	if len(kv) == 0 || !scrubbing() {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		name := fmt.Sprint(kv[i])
		out = append(out, name, sanitizeValue(strings.ToLower(strings.TrimSpace(name)), kv[i+1]))
	}
	return out
}

func sanitizeValue(key string, val interface{}) interface{} {
	switch {
	case key == "":
		return val
	case isSecretKey(key):
		return "[REDACTED]"
	case isModelOutputKey(key):
		return truncateValue(val)
	}
	switch v := val.(type) {
	case []byte:
		// Image payloads never reach the log, only their size.
		return fmt.Sprintf("[%d bytes]", len(v))
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = sanitizeValue(strings.ToLower(strings.TrimSpace(k)), inner)
		}
		return out
	case string:
		if strings.HasPrefix(v, "data:image/") {
			return fmt.Sprintf("[data url, %d bytes]", len(v))
		}
		return v
	default:
		return val
	}
}

func isSecretKey(key string) bool {
	for _, s := range []string{"api_key", "apikey", "authorization", "password", "secret", "token", "redis_password"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return strings.HasSuffix(key, "dsn")
}

func isModelOutputKey(key string) bool {
	return key == "raw" || key == "response" || strings.HasSuffix(key, "_raw") || strings.HasSuffix(key, "_response")
}

func truncateValue(val interface{}) interface{} {
	var s string
	switch v := val.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return val
	}
	if len(s) <= maxLoggedBytes {
		return s
	}
	return fmt.Sprintf("%s...[truncated %d bytes]", s[:maxLoggedBytes], len(s)-maxLoggedBytes)
}
