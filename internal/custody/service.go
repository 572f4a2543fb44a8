// Package custody hosts a single spend ledger for the daemon: it serializes
// calls, supplies the clock, checks owner identity, persists snapshots and
// records history.
package custody

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"SpendGuard/internal/ledger"
	"SpendGuard/internal/model"
	"SpendGuard/internal/recorder"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// configCaller is the caller identity recorded for whitelist entries seeded from config.
const configCaller = "config"

const (
	alertQueueSize = 64
	alertTimeout   = 30 * time.Second
)

// Alerter is told about rejected spends and limit changes.
type Alerter interface {
	SpendRejected(ctx context.Context, evt *recorder.SpendEvent)
	LimitChanged(ctx context.Context, evt *recorder.LimitChangeEvent)
}

// Options configures a Service.
type Options struct {
	StateFile    string // empty disables snapshot persistence
	InitialLimit *big.Int
	Whitelist    []common.Address
	Authorizer   Authorizer
	Transferer   ledger.Transferer
	Recorder     recorder.Recorder
	Alerter      Alerter
	Clock        func() time.Time
	Logger       *zap.Logger
}

// Service owns one ledger and is safe for concurrent use.
//
// Alerts are delivered in order by a single background worker, so a slow
// Alerter never holds up ledger operations. Close stops the worker.
type Service struct {
	mu       sync.Mutex
	ledger   *ledger.Ledger
	auth     Authorizer
	rec      recorder.Recorder
	alerter  Alerter
	now      func() time.Time
	filePath string
	logger   *zap.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	alertMu    sync.Mutex
	closed     bool
	alerts     chan func(context.Context)
	alertsDone chan struct{}
	pending    sync.WaitGroup
}

// NewService loads the ledger from the state file, or creates a fresh one
// with opts.InitialLimit, then seeds the configured whitelist.
func NewService(opts Options) (*Service, error) {
	if opts.Authorizer == nil {
		return nil, errors.New("custody: authorizer is required")
	}
	if opts.Transferer == nil {
		return nil, errors.New("custody: transferer is required")
	}
	s := &Service{
		auth:     opts.Authorizer,
		rec:      opts.Recorder,
		alerter:  opts.Alerter,
		now:      opts.Clock,
		filePath: opts.StateFile,
		logger:   opts.Logger,
	}
	if s.rec == nil {
		s.rec = recorder.NewNoopRecorder()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	var state *model.LedgerState
	if s.filePath != "" {
		var err error
		if state, err = LoadState(s.filePath); err != nil {
			return nil, fmt.Errorf("load state: %w", err)
		}
	}

	var err error
	if state != nil {
		s.ledger, err = ledger.Restore(*state, opts.Transferer)
	} else {
		s.ledger, err = ledger.New(opts.InitialLimit, opts.Transferer)
	}
	if err != nil {
		return nil, err
	}
	if state != nil {
		s.logger.Info("ledger restored", zap.String("file", s.filePath), zap.Stringer("balance", s.ledger.Balance()))
	}

	now := s.now()
	for _, addr := range opts.Whitelist {
		if s.ledger.WhitelistAddress(addr) {
			s.recordWhitelist(configCaller, addr, true, now)
		}
	}

	if err := s.save(); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.alerts = make(chan func(context.Context), alertQueueSize)
	s.alertsDone = make(chan struct{})
	go s.alertLoop()
	return s, nil
}

// Close stops accepting alerts and waits for queued ones to be delivered.
// When ctx expires first, delivery of the rest is cancelled.
func (s *Service) Close(ctx context.Context) error {
	s.alertMu.Lock()
	if !s.closed {
		s.closed = true
		close(s.alerts)
	}
	s.alertMu.Unlock()

	defer s.cancel()
	select {
	case <-s.alertsDone:
		return nil
	case <-ctx.Done():
		s.cancel()
		<-s.alertsDone
		return ctx.Err()
	}
}

func (s *Service) alertLoop() {
	defer close(s.alertsDone)
	for fn := range s.alerts {
		ctx, cancel := context.WithTimeout(s.ctx, alertTimeout)
		fn(ctx)
		cancel()
		s.pending.Done()
	}
}

// alert queues fn for the alert worker. It never blocks; alerts are dropped
// when the queue is full or the service is closed.
func (s *Service) alert(fn func(ctx context.Context)) {
	if s.alerter == nil {
		return
	}
	s.alertMu.Lock()
	defer s.alertMu.Unlock()
	if s.closed {
		return
	}
	s.pending.Add(1)
	select {
	case s.alerts <- fn:
	default:
		s.pending.Done()
		s.logger.Warn("alert queue full, dropping alert")
	}
}

// Deposit credits amount to the pool on behalf of caller, who must be the owner.
func (s *Service) Deposit(caller string, from common.Address, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.auth.IsOwner(caller) {
		s.logger.Warn("deposit rejected", zap.String("caller", caller), zap.String("from", from.Hex()))
		return fmt.Errorf("deposit from %s: %w", from.Hex(), ErrNotOwner)
	}
	if err := s.ledger.Deposit(from, amount); err != nil {
		return err
	}
	now := s.now()
	balance := s.ledger.Balance()
	s.persist()

	if err := s.rec.RecordDeposit(&recorder.DepositEvent{
		From: from, Amount: new(big.Int).Set(amount), BalanceAfter: balance, At: now,
	}); err != nil {
		s.logger.Error("record deposit", zap.Error(err))
	}
	s.logger.Info("deposit", zap.String("from", from.Hex()), zap.Stringer("amount", amount), zap.Stringer("balance", balance))
	return nil
}

// Send spends amount from the pool to recipient at the current clock time on
// behalf of caller, who must be the owner.
func (s *Service) Send(ctx context.Context, caller string, to common.Address, amount *big.Int) error {
	evt, err := s.send(ctx, caller, to, amount)
	if err != nil && evt != nil {
		s.alert(func(ctx context.Context) { s.alerter.SpendRejected(ctx, evt) })
	}
	return err
}

func (s *Service) send(ctx context.Context, caller string, to common.Address, amount *big.Int) (*recorder.SpendEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkAmount(amount); err != nil {
		return nil, fmt.Errorf("send to %s: %w", to.Hex(), err)
	}

	now := s.now()
	whitelisted := s.ledger.IsWhitelisted(to)
	var err error
	if !s.auth.IsOwner(caller) {
		err = fmt.Errorf("send to %s: %w", to.Hex(), ErrNotOwner)
	} else {
		err = s.ledger.SendTo(ctx, to, amount, now)
	}

	evt := &recorder.SpendEvent{
		Recipient:    to,
		Amount:       new(big.Int).Set(amount),
		Whitelisted:  whitelisted,
		Accepted:     err == nil,
		BalanceAfter: s.ledger.Balance(),
		At:           now,
	}
	fields := []zap.Field{
		zap.String("caller", caller),
		zap.String("to", to.Hex()),
		zap.Stringer("amount", amount),
		zap.Bool("whitelisted", whitelisted),
		zap.Stringer("balance", evt.BalanceAfter),
	}
	if err != nil {
		evt.Reason = err.Error()
		s.logger.Warn("send rejected", append(fields, zap.Error(err))...)
	} else {
		s.persist()
		s.logger.Info("send", fields...)
	}

	if rerr := s.rec.RecordSpend(evt); rerr != nil {
		s.logger.Error("record spend", zap.Error(rerr))
	}
	return evt, err
}

// SetDailySendLimit changes the limit on behalf of caller, who must be the owner.
func (s *Service) SetDailySendLimit(ctx context.Context, caller string, limit *big.Int) error {
	evt, err := s.setLimit(caller, limit)
	if evt != nil {
		s.alert(func(ctx context.Context) { s.alerter.LimitChanged(ctx, evt) })
	}
	return err
}

func (s *Service) setLimit(caller string, limit *big.Int) (*recorder.LimitChangeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkAmount(limit); err != nil {
		return nil, fmt.Errorf("set daily send limit: %w", err)
	}

	now := s.now()
	old := s.ledger.DailySendLimit()

	var err error
	if !s.auth.IsOwner(caller) {
		err = fmt.Errorf("set daily send limit: %w", ErrNotOwner)
	} else {
		err = s.ledger.SetDailySendLimit(limit, now)
	}

	evt := &recorder.LimitChangeEvent{
		Caller:   caller,
		OldLimit: old,
		NewLimit: new(big.Int).Set(limit),
		Accepted: err == nil,
		At:       now,
	}
	if err != nil {
		evt.Reason = err.Error()
		s.logger.Warn("limit change rejected", zap.String("caller", caller), zap.Stringer("limit", limit), zap.Error(err))
	} else {
		s.persist()
		s.logger.Info("limit changed", zap.String("caller", caller), zap.Stringer("old", old), zap.Stringer("new", limit))
	}

	if rerr := s.rec.RecordLimitChange(evt); rerr != nil {
		s.logger.Error("record limit change", zap.Error(rerr))
	}
	return evt, err
}

// WhitelistAddress exempts addr from the daily limit on behalf of caller, who
// must be the owner. It reports whether the address was newly added.
func (s *Service) WhitelistAddress(caller string, addr common.Address) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.auth.IsOwner(caller) {
		s.logger.Warn("whitelist rejected", zap.String("caller", caller), zap.String("address", addr.Hex()))
		return false, fmt.Errorf("whitelist %s: %w", addr.Hex(), ErrNotOwner)
	}
	added := s.ledger.WhitelistAddress(addr)
	if added {
		s.persist()
	}
	s.recordWhitelist(caller, addr, added, s.now())
	return added, nil
}

func (s *Service) recordWhitelist(caller string, addr common.Address, added bool, at time.Time) {
	if err := s.rec.RecordWhitelist(&recorder.WhitelistEvent{
		Caller: caller, Address: addr, Added: added, At: at,
	}); err != nil {
		s.logger.Error("record whitelist", zap.Error(err))
	}
	s.logger.Info("whitelist", zap.String("caller", caller), zap.String("address", addr.Hex()), zap.Bool("added", added))
}

// Status returns a snapshot of the ledger stamped with the current time.
func (s *Service) Status() model.LedgerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.ledger.Snapshot()
	state.UpdatedAt = s.now()
	return state
}

// AddressData returns the stored record and whitelist flag for addr.
func (s *Service) AddressData(addr common.Address) model.AddressInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.AddressData(addr)
}

// Remaining returns what addr may still receive now; nil means unlimited.
func (s *Service) Remaining(addr common.Address) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Remaining(addr, s.now())
}

// CooldownEndsAt returns when the next limit change will be accepted.
func (s *Service) CooldownEndsAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.CooldownEndsAt()
}

// Flush writes the current snapshot to the state file.
func (s *Service) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// persist saves after a committed mutation. The in-memory ledger stays
// authoritative if the write fails.
func (s *Service) persist() {
	if err := s.save(); err != nil {
		s.logger.Error("failed to save ledger state", zap.Error(err))
	}
}

func checkAmount(v *big.Int) error {
	if v == nil || v.Sign() < 0 {
		return ledger.ErrInvalidAmount
	}
	return nil
}

func (s *Service) save() error {
	if s.filePath == "" {
		return nil
	}
	state := s.ledger.Snapshot()
	state.UpdatedAt = s.now()
	return SaveState(s.filePath, &state)
}
