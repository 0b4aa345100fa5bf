package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/ghaggin/estate/internal/metrics"
	"go.uber.org/zap"
)

// PanicRecovery turns a panic into a logged, generic 500. Nothing about the
// failure reaches the client.
func PanicRecovery(log *zap.Logger, metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				log.Error("panic serving request",
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}

				http.Error(w, "An error occurred. Please try again later.", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
