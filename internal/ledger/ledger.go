// Package ledger implements the spend ledger: a custodied pool with a
// per-recipient daily send limit, a whitelist that bypasses the limit and a
// 24h cooldown on limit changes.
//
// Time is always passed in by the caller. A Ledger is not safe for
// concurrent use; callers serialize access.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Window is the length of both the per-recipient spend window and the
// limit-change cooldown.
const Window = 24 * time.Hour

// Transferer moves value out of the pool to a recipient.
type Transferer interface {
	Transfer(ctx context.Context, to common.Address, amount *big.Int) error
}

type record struct {
	spent       *big.Int
	windowStart time.Time
}

// Ledger holds the pool balance and all spend-control state.
type Ledger struct {
	balance         *big.Int
	limit           *big.Int
	lastLimitChange time.Time
	limitChanged    bool
	records         map[common.Address]*record
	whitelist       map[common.Address]struct{}
	paid            []common.Address
	transferer      Transferer
}

// New creates an empty ledger with the given daily send limit.
func New(initialLimit *big.Int, t Transferer) (*Ledger, error) {
	if err := checkAmount(initialLimit); err != nil {
		return nil, fmt.Errorf("initial limit: %w", err)
	}
	if t == nil {
		return nil, errors.New("nil transferer")
	}
	return &Ledger{
		balance:    new(big.Int),
		limit:      new(big.Int).Set(initialLimit),
		records:    make(map[common.Address]*record),
		whitelist:  make(map[common.Address]struct{}),
		transferer: t,
	}, nil
}

func checkAmount(v *big.Int) error {
	if v == nil || v.Sign() < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Deposit adds amount to the pool. from is only used in error messages;
// the ledger does not track depositors.
func (l *Ledger) Deposit(from common.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return fmt.Errorf("deposit from %s: %w", from.Hex(), err)
	}
	l.balance.Add(l.balance, amount)
	return nil
}

// SendTo spends amount from the pool to recipient.
//
// Checks run before anything changes. A rejected or failed send leaves the
// balance, the recipient's window and the paid log exactly as they were.
func (l *Ledger) SendTo(ctx context.Context, recipient common.Address, amount *big.Int, now time.Time) error {
	if err := checkAmount(amount); err != nil {
		return fmt.Errorf("send to %s: %w", recipient.Hex(), err)
	}

	if amount.Cmp(l.balance) > 0 {
		return fmt.Errorf("%s: %w", msgSendConditions, ErrInsufficientFunds)
	}

	whitelisted := l.IsWhitelisted(recipient)
	var spent *big.Int
	var start time.Time
	if !whitelisted {
		spent, start = l.window(recipient, now)
		spent.Add(spent, amount)
		if spent.Cmp(l.limit) > 0 {
			return fmt.Errorf("%s: %w", msgSendConditions, ErrDailyCapExceeded)
		}
	}

	if err := l.transferer.Transfer(ctx, recipient, amount); err != nil {
		return fmt.Errorf("send to %s: %w: %w", recipient.Hex(), ErrTransferFailed, err)
	}

	l.balance.Sub(l.balance, amount)
	if !whitelisted {
		l.records[recipient] = &record{spent: spent, windowStart: start}
	}
	l.paid = append(l.paid, recipient)
	return nil
}

// window returns a copy of the amount already sent to addr in the window
// that a spend at now falls into, and that window's start. A missing or
// expired record yields a fresh window starting at now. Nothing is stored.
func (l *Ledger) window(addr common.Address, now time.Time) (*big.Int, time.Time) {
	r, ok := l.records[addr]
	if !ok || !now.Before(r.windowStart.Add(Window)) {
		return new(big.Int), now
	}
	return new(big.Int).Set(r.spent), r.windowStart
}

// SetDailySendLimit replaces the daily limit unless the previous change was
// less than Window ago. Existing recipient windows are left alone.
func (l *Ledger) SetDailySendLimit(newLimit *big.Int, now time.Time) error {
	if err := checkAmount(newLimit); err != nil {
		return fmt.Errorf("set daily send limit: %w", err)
	}
	if ends := l.CooldownEndsAt(); l.limitChanged && now.Before(ends) {
		return fmt.Errorf("%s until %s: %w", msgCooldown, ends.UTC().Format(time.RFC3339), ErrCooldownActive)
	}
	l.limit = new(big.Int).Set(newLimit)
	l.lastLimitChange = now
	l.limitChanged = true
	return nil
}

// WhitelistAddress exempts addr from the daily limit. It reports whether the
// address was newly added.
func (l *Ledger) WhitelistAddress(addr common.Address) bool {
	if _, ok := l.whitelist[addr]; ok {
		return false
	}
	l.whitelist[addr] = struct{}{}
	return true
}

// IsWhitelisted reports whether addr bypasses the daily limit.
func (l *Ledger) IsWhitelisted(addr common.Address) bool {
	_, ok := l.whitelist[addr]
	return ok
}

// Balance returns the pool balance.
func (l *Ledger) Balance() *big.Int {
	return new(big.Int).Set(l.balance)
}

// DailySendLimit returns the limit currently in effect.
func (l *Ledger) DailySendLimit() *big.Int {
	return new(big.Int).Set(l.limit)
}

// LastLimitChange returns when the limit was last changed. The bool is false
// if it never was.
func (l *Ledger) LastLimitChange() (time.Time, bool) {
	return l.lastLimitChange, l.limitChanged
}

// CooldownEndsAt returns the earliest time the limit may change again, or
// the zero time if it has never changed.
func (l *Ledger) CooldownEndsAt() time.Time {
	if !l.limitChanged {
		return time.Time{}
	}
	return l.lastLimitChange.Add(Window)
}

// Remaining returns how much more addr can receive in the window a spend at
// now would fall into. It returns nil for whitelisted addresses.
func (l *Ledger) Remaining(addr common.Address, now time.Time) *big.Int {
	if l.IsWhitelisted(addr) {
		return nil
	}
	spent, _ := l.window(addr, now)
	left := new(big.Int).Sub(l.limit, spent)
	if left.Sign() < 0 {
		return new(big.Int)
	}
	return left
}
