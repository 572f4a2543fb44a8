package recorder

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// DepositEvent records value entering the pool.
type DepositEvent struct {
	From         common.Address
	Amount       *big.Int
	BalanceAfter *big.Int
	At           time.Time
}

// SpendEvent records a directed-spend attempt, accepted or not.
type SpendEvent struct {
	Recipient    common.Address
	Amount       *big.Int
	Whitelisted  bool
	Accepted     bool
	Reason       string // empty when accepted
	BalanceAfter *big.Int
	At           time.Time
}

// LimitChangeEvent records an attempt to change the daily send limit.
type LimitChangeEvent struct {
	Caller   string
	OldLimit *big.Int
	NewLimit *big.Int
	Accepted bool
	Reason   string
	At       time.Time
}

// WhitelistEvent records a whitelist addition.
type WhitelistEvent struct {
	Caller  string
	Address common.Address
	Added   bool // false when the address was already whitelisted
	At      time.Time
}

// Recorder persists ledger history for audit.
type Recorder interface {
	RecordDeposit(evt *DepositEvent) error
	RecordSpend(evt *SpendEvent) error
	RecordLimitChange(evt *LimitChangeEvent) error
	RecordWhitelist(evt *WhitelistEvent) error
	RecentSpends(limit int) ([]SpendEvent, error)
	Close() error
}
