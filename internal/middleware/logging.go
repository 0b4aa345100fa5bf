package middleware

import (
	"net/http"
	"time"

	"github.com/ghaggin/estate/internal/logging"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// LogRequest logs each request and hands handlers a logger already tagged
// with the request path and id.
func LogRequest(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			begin := time.Now()

			reqLog := log.With(
				zap.String("path", r.URL.Path),
				zap.String("request_id", chimw.GetReqID(r.Context())),
			)

			next.ServeHTTP(ww, r.WithContext(logging.WithContext(r.Context(), reqLog)))

			reqLog.Debug("request",
				zap.String("method", r.Method),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(begin)),
				zap.String("remote", r.RemoteAddr),
			)
		})
	}
}
