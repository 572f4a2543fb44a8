// Package transfer provides value-transfer primitives for the spend ledger.
package transfer

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Book is an in-memory transfer primitive that credits recipients in a map.
type Book struct {
	mu       sync.Mutex
	received map[common.Address]*big.Int
	failNext error
}

// NewBook creates an empty Book.
func NewBook() *Book {
	return &Book{received: make(map[common.Address]*big.Int)}
}

// Transfer credits amount to to, unless a failure was queued with FailNext.
func (b *Book) Transfer(ctx context.Context, to common.Address, amount *big.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.failNext; err != nil {
		b.failNext = nil
		return err
	}
	cur, ok := b.received[to]
	if !ok {
		cur = new(big.Int)
		b.received[to] = cur
	}
	cur.Add(cur, amount)
	return nil
}

// Received returns the total credited to addr.
func (b *Book) Received(addr common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if v, ok := b.received[addr]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// FailNext makes the next Transfer return err without crediting anyone.
func (b *Book) FailNext(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext = err
}
