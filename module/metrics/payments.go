// Package metrics provides the Prometheus collectors of the node.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "indexer"

// PaymentCollector implements module.PaymentMetrics and module.RefreshMetrics
// on Prometheus.
type PaymentCollector struct {
	receiptsReserved  prometheus.Counter
	receiptsRejected  *prometheus.CounterVec
	appraisalsPending prometheus.Gauge
	snapshotRefreshes *prometheus.CounterVec
	refreshFailures   *prometheus.CounterVec
}

func NewPaymentCollector(registerer prometheus.Registerer) *PaymentCollector {
	factory := promauto.With(registerer)
	return &PaymentCollector{
		receiptsReserved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "receipts_reserved_total",
			Help:      "receipts that passed all checks and were persisted",
		}),
		receiptsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "receipts_rejected_total",
			Help:      "receipts rejected by the check pipeline, by reason",
		}, []string{"reason"}),
		appraisalsPending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "payments",
			Name:      "appraisals_pending",
			Help:      "appraisals awaiting their paired receipt",
		}),
		snapshotRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reference",
			Name:      "snapshot_refreshes_total",
			Help:      "successful reference table refreshes, by table",
		}, []string{"table"}),
		refreshFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reference",
			Name:      "snapshot_refresh_failures_total",
			Help:      "failed reference table refresh attempts, by table",
		}, []string{"table"}),
	}
}

func (c *PaymentCollector) ReceiptReserved() {
	c.receiptsReserved.Inc()
}

func (c *PaymentCollector) ReceiptRejected(reason string) {
	c.receiptsRejected.WithLabelValues(reason).Inc()
}

func (c *PaymentCollector) AppraisalsPending(size uint) {
	c.appraisalsPending.Set(float64(size))
}

func (c *PaymentCollector) SnapshotRefreshed(table string) {
	c.snapshotRefreshes.WithLabelValues(table).Inc()
}

func (c *PaymentCollector) SnapshotRefreshFailed(table string) {
	c.refreshFailures.WithLabelValues(table).Inc()
}
