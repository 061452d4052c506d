package metrics

import (
	"time"

	"github.com/Luismorlan/ledger_in_go/ledger"
	"github.com/Luismorlan/ledger_in_go/model"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ledger"

// Recorder counts what a full node does. It implements full_node.Recorder.
type Recorder struct {
	blocksMined  prometheus.Counter
	hashAttempts prometheus.Counter
	txAdmitted   prometheus.Counter
	txRejected   *prometheus.CounterVec
	rewardsPaid  prometheus.Counter
	sealDuration prometheus.Histogram
}

func NewRecorder() *Recorder {
	return &Recorder{
		blocksMined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blocks",
			Name:      "mined_total",
			Help:      "Number of blocks appended to the chain",
		}),
		hashAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blocks",
			Name:      "hash_attempts_total",
			Help:      "Number of nonces tried by successful seals",
		}),
		txAdmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transactions",
			Name:      "admitted_total",
			Help:      "Number of transactions added to the pending pool",
		}),
		txRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transactions",
			Name:      "rejected_total",
			Help:      "Number of submitted transactions refused, by reason",
		}, []string{"reason"}),
		rewardsPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blocks",
			Name:      "rewards_paid_total",
			Help:      "Sum of mining rewards",
		}),
		sealDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "blocks",
			Name:      "seal_duration_seconds",
			Help:      "Time spent sealing a block",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}

// Collectors returns every metric owned by the recorder, for registration.
func (r *Recorder) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		r.blocksMined,
		r.hashAttempts,
		r.txAdmitted,
		r.txRejected,
		r.rewardsPaid,
		r.sealDuration,
	}
}

func (r *Recorder) TransactionAdmitted() {
	r.txAdmitted.Inc()
}

func (r *Recorder) TransactionRejected(err error) {
	r.txRejected.WithLabelValues(rejectReason(err)).Inc()
}

func (r *Recorder) BlockMined(block *model.Block, elapsed time.Duration) {
	r.blocksMined.Inc()
	r.hashAttempts.Add(float64(block.Nonce + 1))
	if block.Coinbase != nil {
		r.rewardsPaid.Add(block.Coinbase.Amount)
	}
	r.sealDuration.Observe(elapsed.Seconds())
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrUnknownAddress):
		return "unknown_address"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, model.ErrInvalidTransaction):
		return "invalid"
	default:
		return "other"
	}
}
