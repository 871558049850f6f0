package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AlertFetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safecircle",
		Subsystem: "alerts",
		Name:      "fetch_total",
		Help:      "Alert synchronizer fetches by result.",
	}, []string{"result"})

	ChangeEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safecircle",
		Subsystem: "alerts",
		Name:      "change_events_total",
		Help:      "Change-stream events received per entity.",
	}, []string{"entity"})

	EscalationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safecircle",
		Subsystem: "escalations",
		Name:      "requests_total",
		Help:      "Escalation attempts by result.",
	}, []string{"result"})

	ETAEstimatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safecircle",
		Subsystem: "eta",
		Name:      "estimates_total",
		Help:      "ETA estimates by result.",
	}, []string{"result"})

	TriggersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safecircle",
		Subsystem: "panic",
		Name:      "triggers_total",
		Help:      "Classified emergency triggers per context.",
	}, []string{"context"})
)

// Result labels
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"
	ResultStale   = "stale"
)

// Register registers metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AlertFetchTotal,
			ChangeEventsTotal,
			EscalationsTotal,
			ETAEstimatesTotal,
			TriggersTotal,
		)
	})
}
