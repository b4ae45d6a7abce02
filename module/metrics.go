package module

// PaymentMetrics records outcomes of the receipt validation pipeline.
type PaymentMetrics interface {
	// ReceiptReserved is called each time a receipt reaches the reserved
	// state and is persisted.
	ReceiptReserved()

	// ReceiptRejected is called with the failed check's name (or kind) each
	// time a receipt is rejected.
	ReceiptRejected(reason string)

	// AppraisalsPending reports the current size of the appraisal store.
	AppraisalsPending(size uint)
}

// RefreshMetrics records reference-table refresh outcomes.
type RefreshMetrics interface {
	// SnapshotRefreshed is called after each successful refresh of the
	// named reference table.
	SnapshotRefreshed(table string)

	// SnapshotRefreshFailed is called after each failed refresh attempt.
	SnapshotRefreshFailed(table string)
}
