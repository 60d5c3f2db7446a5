package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry core. Counters split by
// transition kind; rejections split by error code so authorization failures
// are visible separately from state conflicts.
type Metrics struct {
	CertificatesIssued  prometheus.Counter
	CertificatesUpdated prometheus.Counter
	CertificatesRevoked prometheus.Counter
	IssuerSetChanges    prometheus.Counter
	TransitionsRejected *prometheus.CounterVec
	TransitionDuration  prometheus.Histogram
}

// New creates and registers all registry metrics. Call once per process;
// promauto registers against the default registerer.
func New() *Metrics {
	return &Metrics{
		CertificatesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certledger_certificates_issued_total",
			Help: "Total number of certificates issued",
		}),
		CertificatesUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certledger_certificates_updated_total",
			Help: "Total number of certificate content updates",
		}),
		CertificatesRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certledger_certificates_revoked_total",
			Help: "Total number of certificates revoked",
		}),
		IssuerSetChanges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certledger_issuer_set_changes_total",
			Help: "Total number of committed issuer add/remove transitions",
		}),
		TransitionsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certledger_transitions_rejected_total",
			Help: "Total number of rejected transitions by error code",
		}, []string{"code"}),
		TransitionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "certledger_transition_duration_seconds",
			Help:    "Duration of validate-then-apply for committed transitions",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
	}
}

// ObserveTransition records the duration of a committed transition.
// Call with time.Now() from the start of the operation.
func (m *Metrics) ObserveTransition(start time.Time) {
	m.TransitionDuration.Observe(time.Since(start).Seconds())
}
