package ledger

import (
	"fmt"
	"math/big"
	"sort"

	"SpendGuard/internal/model"

	"github.com/ethereum/go-ethereum/common"
)

// AddressData returns the stored spend record and whitelist flag for addr.
// The record is returned as stored; it is not rolled over to the current window.
func (l *Ledger) AddressData(addr common.Address) model.AddressInfo {
	info := model.AddressInfo{
		Address:          addr,
		Whitelisted:      l.IsWhitelisted(addr),
		AmountSpentToday: new(big.Int),
	}
	if r, ok := l.records[addr]; ok {
		info.AmountSpentToday.Set(r.spent)
		info.WindowStart = r.windowStart
	}
	return info
}

// PaidAddress returns the i-th entry of the paid-address log.
func (l *Ledger) PaidAddress(i int) (common.Address, error) {
	if i < 0 || i >= len(l.paid) {
		return common.Address{}, fmt.Errorf("paid address %d of %d: %w", i, len(l.paid), ErrIndexOutOfRange)
	}
	return l.paid[i], nil
}

// PaidAddresses returns a copy of the paid-address log in send order.
func (l *Ledger) PaidAddresses() []common.Address {
	out := make([]common.Address, len(l.paid))
	copy(out, l.paid)
	return out
}

// Whitelist returns the whitelisted addresses sorted by byte value.
func (l *Ledger) Whitelist() []common.Address {
	out := make([]common.Address, 0, len(l.whitelist))
	for addr := range l.whitelist {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// Snapshot returns a deep copy of the ledger state.
func (l *Ledger) Snapshot() model.LedgerState {
	records := make(map[common.Address]model.RecipientRecord, len(l.records))
	for addr, r := range l.records {
		records[addr] = model.RecipientRecord{
			AmountSpentToday: new(big.Int).Set(r.spent),
			WindowStart:      r.windowStart,
		}
	}
	return model.LedgerState{
		Balance:         l.Balance(),
		DailySendLimit:  l.DailySendLimit(),
		LastLimitChange: l.lastLimitChange,
		LimitChanged:    l.limitChanged,
		Records:         records,
		Whitelist:       l.Whitelist(),
		PaidAddresses:   l.PaidAddresses(),
	}
}

// Restore rebuilds a ledger from a snapshot.
func Restore(state model.LedgerState, t Transferer) (*Ledger, error) {
	l, err := New(state.DailySendLimit, t)
	if err != nil {
		return nil, err
	}
	if state.Balance != nil {
		if err := checkAmount(state.Balance); err != nil {
			return nil, fmt.Errorf("restore balance: %w", err)
		}
		l.balance.Set(state.Balance)
	}
	l.lastLimitChange = state.LastLimitChange
	l.limitChanged = state.LimitChanged || !state.LastLimitChange.IsZero()
	for addr, r := range state.Records {
		if err := checkAmount(r.AmountSpentToday); err != nil {
			return nil, fmt.Errorf("restore record %s: %w", addr.Hex(), err)
		}
		l.records[addr] = &record{
			spent:       new(big.Int).Set(r.AmountSpentToday),
			windowStart: r.WindowStart,
		}
	}
	for _, addr := range state.Whitelist {
		l.whitelist[addr] = struct{}{}
	}
	l.paid = append(l.paid, state.PaidAddresses...)
	return l, nil
}
