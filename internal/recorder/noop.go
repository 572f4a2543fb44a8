package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordDeposit(_ *DepositEvent) error         { return nil }
func (n *NoopRecorder) RecordSpend(_ *SpendEvent) error             { return nil }
func (n *NoopRecorder) RecordLimitChange(_ *LimitChangeEvent) error { return nil }
func (n *NoopRecorder) RecordWhitelist(_ *WhitelistEvent) error     { return nil }
func (n *NoopRecorder) RecentSpends(_ int) ([]SpendEvent, error)    { return nil, nil }
func (n *NoopRecorder) Close() error                                { return nil }
