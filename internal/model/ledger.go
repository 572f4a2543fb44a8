package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RecipientRecord tracks what a recipient has been sent in its current 24h window.
type RecipientRecord struct {
	AmountSpentToday *big.Int  `json:"amount_spent_today"`
	WindowStart      time.Time `json:"window_start"`
}

// LedgerState is a serializable snapshot of the spend ledger.
type LedgerState struct {
	Balance         *big.Int                           `json:"balance"`
	DailySendLimit  *big.Int                           `json:"daily_send_limit"`
	LastLimitChange time.Time                          `json:"last_limit_change"`
	LimitChanged    bool                               `json:"limit_changed"`
	Records         map[common.Address]RecipientRecord `json:"records"`
	Whitelist       []common.Address                   `json:"whitelist"`
	PaidAddresses   []common.Address                   `json:"paid_addresses"`
	UpdatedAt       time.Time                          `json:"updated_at"`
}

// AddressInfo is the per-address view exposed to callers.
type AddressInfo struct {
	Address          common.Address
	Whitelisted      bool
	AmountSpentToday *big.Int
	WindowStart      time.Time
}
