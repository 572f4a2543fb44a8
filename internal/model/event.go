package model

// EventType identifies the ledger operation an audit record describes.
type EventType string

const (
	EventDeposit     EventType = "DEPOSIT"
	EventSpend       EventType = "SPEND"
	EventLimitChange EventType = "LIMIT_CHANGE"
	EventWhitelist   EventType = "WHITELIST"
)
