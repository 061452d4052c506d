package metrics

import (
	"github.com/Luismorlan/ledger_in_go/model"
	"github.com/prometheus/client_golang/prometheus"
)

// ChainSource is the part of a full node the collector reads.
type ChainSource interface {
	GetHeight() int64
	GetPending() []model.Transaction
	IsChainValid() bool
}

// ChainCollector reports the state of the chain on every scrape.
type ChainCollector struct {
	source  ChainSource
	height  *prometheus.Desc
	pending *prometheus.Desc
	valid   *prometheus.Desc
}

func NewChainCollector(source ChainSource) *ChainCollector {
	return &ChainCollector{
		source: source,
		height: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "height"),
			"Index of the tail block",
			nil, nil,
		),
		pending: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "transactions", "pending"),
			"Transactions waiting for the next block",
			nil, nil,
		),
		valid: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "chain", "valid"),
			"1 if every block passes validation",
			nil, nil,
		),
	}
}

func (c *ChainCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.height
	ch <- c.pending
	ch <- c.valid
}

func (c *ChainCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.height, prometheus.GaugeValue, float64(c.source.GetHeight()))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(len(c.source.GetPending())))
	valid := 0.0
	if c.source.IsChainValid() {
		valid = 1
	}
	ch <- prometheus.MustNewConstMetric(c.valid, prometheus.GaugeValue, valid)
}
