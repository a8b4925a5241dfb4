// Package requestlog writes one structured access log line per request.
package requestlog

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"go.uber.org/zap"
)

// Middleware logs method, path, status, bytes and duration. The wrapped
// writer keeps http.Hijacker so socket upgrades pass through it. The
// reported duration of an upgraded request covers the whole connection.
func Middleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			level := zap.InfoLevel
			switch {
			case m.Code >= 500:
				level = zap.ErrorLevel
			case r.URL.Path == "/health":
				level = zap.DebugLevel
			}
			if ce := logger.Check(level, "handled"); ce != nil {
				ce.Write(
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", m.Code),
					zap.Int64("bytes", m.Written),
					zap.Duration("duration", m.Duration),
					zap.String("remote", r.RemoteAddr),
				)
			}
		})
	}
}
