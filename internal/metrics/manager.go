package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	LoginSuccess = "success"
	LoginInvalid = "invalid"
	LoginError   = "error"

	LeadCreated   = "created"
	LeadDuplicate = "duplicate"
	LeadInvalid   = "invalid"
)

type Manager struct {
	gatherer prometheus.Gatherer

	// counters
	CounterRequests           *prometheus.CounterVec
	CounterLogins             *prometheus.CounterVec
	CounterLeads              *prometheus.CounterVec
	CounterHandleRequestPanic prometheus.Counter

	// histograms
	HistRequestDuration prometheus.Histogram
}

// New is the fx constructor. It registers on a private registry so the
// app can be constructed more than once in one process.
func New() *Manager {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewManager("estate", "site", reg, reg)
}

func NewTestManager() *Manager {
	reg := prometheus.NewRegistry()
	return NewManager("estate", "test", reg, reg)
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer, gatherer prometheus.Gatherer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		gatherer: gatherer,
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		CounterLogins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "login",
			Help:      "Login attempts by result",
		}, []string{"result"}),
		CounterLeads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "lead",
			Help:      "Submitted lead emails by result",
		}, []string{"result"}),
		CounterHandleRequestPanic: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "handle_request_panic",
			Help:      "The total number of serve request panics",
		}),
		HistRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Handler serves the exposition format for this manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
