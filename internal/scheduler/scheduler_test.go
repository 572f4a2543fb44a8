package scheduler

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"SpendGuard/internal/custody"
	"SpendGuard/internal/recorder"
	"SpendGuard/internal/transfer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	owner = "42"
	alice = "0x00000000000000000000000000000000000000a1"
	bob   = "0x00000000000000000000000000000000000000b2"
)

func newTestScheduler(t *testing.T, rec recorder.Recorder) *Scheduler {
	t.Helper()
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, err := custody.NewService(custody.Options{
		StateFile:    filepath.Join(t.TempDir(), "state.json"),
		InitialLimit: big.NewInt(100),
		Authorizer:   custody.SingleOwner(owner),
		Transferer:   transfer.NewBook(),
		Recorder:     rec,
		Clock:        func() time.Time { return now },
		Logger:       zap.NewNop(),
	})
	require.NoError(t, err)
	return NewScheduler(context.Background(), svc, nil, rec, zap.NewNop())
}

func TestHandleCommand_DepositSendStatus(t *testing.T) {
	s := newTestScheduler(t, nil)
	ctx := context.Background()

	assert.Contains(t, s.HandleCommand(ctx, owner, "/deposit "+alice+" 1000"), "Deposited 1,000")
	assert.Contains(t, s.HandleCommand(ctx, owner, "/send "+bob+" 60"), "Sent 60")

	reply := s.HandleCommand(ctx, owner, "/send "+bob+" 41")
	assert.Contains(t, reply, "daily limit reached")

	reply = s.HandleCommand(ctx, "1", "/status")
	assert.Contains(t, reply, "Balance: 940")
	assert.Contains(t, reply, "Payments made: 1")

	reply = s.HandleCommand(ctx, "1", "/address "+bob)
	assert.Contains(t, reply, "Sent in window: 60")
	assert.Contains(t, reply, "Remaining today: 40")

	assert.Contains(t, s.HandleCommand(ctx, "1", "/paid"), "0. ")
}

func TestHandleCommand_InsufficientFunds(t *testing.T) {
	s := newTestScheduler(t, nil)
	reply := s.HandleCommand(context.Background(), owner, "/send "+bob+" 5")
	assert.Contains(t, reply, "insufficient funds")
}

func TestHandleCommand_OwnerCommands(t *testing.T) {
	s := newTestScheduler(t, nil)
	ctx := context.Background()

	assert.Contains(t, s.HandleCommand(ctx, "7", "/deposit "+alice+" 1000"), "only the owner")
	assert.Contains(t, s.HandleCommand(ctx, owner, "/deposit "+alice+" 1000"), "Deposited")
	assert.Contains(t, s.HandleCommand(ctx, "7", "/send "+bob+" 10"), "only the owner")
	assert.Contains(t, s.HandleCommand(ctx, "1", "/status"), "Balance: 1,000")
	assert.Contains(t, s.HandleCommand(ctx, "1", "/paid"), "No payments yet.")

	assert.Contains(t, s.HandleCommand(ctx, "7", "/limit 50"), "only the owner")
	assert.Contains(t, s.HandleCommand(ctx, "7", "/whitelist "+bob), "only the owner")

	assert.Contains(t, s.HandleCommand(ctx, owner, "/limit 50"), "set to 50")
	assert.Contains(t, s.HandleCommand(ctx, owner, "/limit 60"), "timeout currently enforced")

	assert.Contains(t, s.HandleCommand(ctx, owner, "/whitelist "+bob), "Whitelisted")
	assert.Contains(t, s.HandleCommand(ctx, owner, "/whitelist "+bob), "already whitelisted")
	assert.Contains(t, s.HandleCommand(ctx, "1", "/address "+bob), "Remaining today: unlimited")
}

func TestHandleCommand_BadInput(t *testing.T) {
	s := newTestScheduler(t, nil)
	ctx := context.Background()

	cases := map[string]string{
		"":                      "Available commands",
		"/unknown":              "Available commands",
		"/send":                 "usage: /send",
		"/send nothex 5":        "invalid address",
		"/send " + bob + " -5":  "invalid amount",
		"/send " + bob + " 1.5": "invalid amount",
		"/deposit " + alice:     "usage: /deposit",
		"/limit":                "usage: /limit",
		"/whitelist 0x1234":     "invalid address",
		"/address":              "usage: /address",
	}
	for cmd, want := range cases {
		t.Run(cmd, func(t *testing.T) {
			assert.Contains(t, s.HandleCommand(ctx, owner, cmd), want)
		})
	}
}

func TestHandleCommand_EscapesReplies(t *testing.T) {
	s := newTestScheduler(t, nil)
	ctx := context.Background()

	reply := s.HandleCommand(ctx, owner, "/send <b>x</b> 5")
	assert.Contains(t, reply, "&lt;b&gt;x&lt;/b&gt;")
	assert.NotContains(t, reply, "<b>")

	reply = s.HandleCommand(ctx, owner, "/limit 1<2")
	assert.Contains(t, reply, "1&lt;2")

	assert.Contains(t, s.HandleCommand(ctx, owner, "/send"), "/send &lt;to&gt; &lt;amount&gt;")
	assert.NotContains(t, s.HandleCommand(ctx, owner, "help"), "<")
}

func TestDailyReport(t *testing.T) {
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "h.db"), zap.NewNop())
	require.NoError(t, err)
	defer rec.Close()

	s := newTestScheduler(t, rec)
	ctx := context.Background()
	s.HandleCommand(ctx, owner, "/deposit "+alice+" 500")
	s.HandleCommand(ctx, owner, "/send "+bob+" 30")
	s.HandleCommand(ctx, owner, "/send "+bob+" 90")

	report := s.DailyReport()
	assert.Contains(t, report, "Sends: 1 accepted, 1 rejected")
	assert.Contains(t, report, "Sent: 30")
	assert.Contains(t, report, "Balance: 470")
}

func TestRegisterAll(t *testing.T) {
	s := newTestScheduler(t, nil)
	require.NoError(t, s.RegisterAll("0 0 9 * * *", "0 */5 * * * *"))
	assert.Len(t, s.Cron.Entries(), 2)

	require.Error(t, s.RegisterAll("not a cron", "0 */5 * * * *"))
}

func TestFlushWritesState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	svc, err := custody.NewService(custody.Options{
		StateFile:    path,
		InitialLimit: big.NewInt(100),
		Authorizer:   custody.SingleOwner(owner),
		Transferer:   transfer.NewBook(),
		Logger:       zap.NewNop(),
	})
	require.NoError(t, err)
	s := NewScheduler(context.Background(), svc, nil, recorder.NewNoopRecorder(), zap.NewNop())

	s.HandleCommand(context.Background(), owner, "/deposit "+alice+" 10")
	s.flush()

	state, err := custody.LoadState(path)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, int64(10), state.Balance.Int64())
}
