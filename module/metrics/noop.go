package metrics

// NoopCollector satisfies the metrics interfaces while recording nothing.
// Used in tests and when metrics are disabled.
type NoopCollector struct{}

func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (nc *NoopCollector) ReceiptReserved()                   {}
func (nc *NoopCollector) ReceiptRejected(reason string)      {}
func (nc *NoopCollector) AppraisalsPending(size uint)        {}
func (nc *NoopCollector) SnapshotRefreshed(table string)     {}
func (nc *NoopCollector) SnapshotRefreshFailed(table string) {}
