package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives settlement counters. Implementations must be non-blocking
// and must never fail; the engine fires and forgets.
type Recorder interface {
	IncLedgerEntries(opType string)
	AddLedgerAmount(opType string, amount int64)
}

// Values of the `type` label on ledger counters.
const (
	OpEarn             = "earn"
	OpReferralRollback = "referral_rollback"
)

// PromRecorder exports ledger counters through Prometheus.
type PromRecorder struct {
	entries *prometheus.CounterVec
	amount  *prometheus.CounterVec
}

func NewPromRecorder(reg prometheus.Registerer) *PromRecorder {
	f := promauto.With(reg)
	return &PromRecorder{
		entries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_ledger_entries_total",
			Help: "Number of double-entry ledger records written.",
		}, []string{"type"}),
		amount: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_ledger_amount_total",
			Help: "Sum of point amounts mirrored to the ledger.",
		}, []string{"type"}),
	}
}

func (r *PromRecorder) IncLedgerEntries(opType string) {
	r.entries.WithLabelValues(opType).Inc()
}

func (r *PromRecorder) AddLedgerAmount(opType string, amount int64) {
	r.amount.WithLabelValues(opType).Add(float64(amount))
}

// Noop discards all counters.
type Noop struct{}

func (Noop) IncLedgerEntries(string)       {}
func (Noop) AddLedgerAmount(string, int64) {}
