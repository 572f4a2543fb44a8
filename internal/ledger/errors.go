package ledger

import "errors"

var (
	// ErrInsufficientFunds means the spend is larger than the pool balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrDailyCapExceeded means a non-whitelisted recipient would go over the daily limit.
	ErrDailyCapExceeded = errors.New("daily cap exceeded")
	// ErrCooldownActive means the daily limit was changed less than 24h ago.
	ErrCooldownActive = errors.New("limit change cooldown active")

	ErrInvalidAmount   = errors.New("amount must be a non-negative integer")
	ErrTransferFailed  = errors.New("transfer failed")
	ErrIndexOutOfRange = errors.New("index out of range")
)

const (
	msgSendConditions = "send conditions not valid"
	msgCooldown       = "timeout currently enforced"
)
