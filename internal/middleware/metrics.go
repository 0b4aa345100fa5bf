package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ghaggin/estate/internal/metrics"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics counts every request by method and status. A handler that
// panics is counted as a 500.
func RequestMetrics(m *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			begin := time.Now()
			completed := false

			defer func() {
				status := ww.Status()
				switch {
				case !completed:
					status = http.StatusInternalServerError
				case status == 0:
					status = http.StatusOK
				}

				m.HistRequestDuration.Observe(time.Since(begin).Seconds())
				m.CounterRequests.With(
					prometheus.Labels{
						"method": r.Method,
						"status": strconv.Itoa(status),
					},
				).Inc()
			}()

			next.ServeHTTP(ww, r)
			completed = true
		})
	}
}
