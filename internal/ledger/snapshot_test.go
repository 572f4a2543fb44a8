package ledger

import (
	"math/big"
	"testing"
	"time"

	"SpendGuard/internal/model"
	"SpendGuard/internal/transfer"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRestore(t *testing.T) {
	l, _ := funded(t, 100, 400)
	l.WhitelistAddress(addrC)
	require.NoError(t, send(l, addrB, 60, t0))
	require.NoError(t, send(l, addrC, 150, t0))
	require.NoError(t, l.SetDailySendLimit(big.NewInt(80), t0.Add(time.Hour)))

	state := l.Snapshot()
	restored, err := Restore(state, transfer.NewBook())
	require.NoError(t, err)

	assert.Equal(t, int64(190), restored.Balance().Int64())
	assert.Equal(t, int64(80), restored.DailySendLimit().Int64())
	last, changed := restored.LastLimitChange()
	assert.True(t, changed)
	assert.Equal(t, t0.Add(time.Hour), last)
	assert.True(t, restored.IsWhitelisted(addrC))
	assert.Equal(t, []common.Address{addrB, addrC}, restored.PaidAddresses())

	info := restored.AddressData(addrB)
	assert.Equal(t, int64(60), info.AmountSpentToday.Int64())
	assert.Equal(t, t0, info.WindowStart)

	// Cooldown and windows carry over.
	require.ErrorIs(t, restored.SetDailySendLimit(big.NewInt(1), t0.Add(2*time.Hour)), ErrCooldownActive)
	require.ErrorIs(t, send(restored, addrB, 21, t0.Add(2*time.Hour)), ErrDailyCapExceeded)
}

func TestSnapshotIsDetached(t *testing.T) {
	l, _ := funded(t, 100, 400)
	require.NoError(t, send(l, addrB, 10, t0))

	state := l.Snapshot()
	state.Balance.SetInt64(0)
	state.Records[addrB].AmountSpentToday.SetInt64(99)
	state.PaidAddresses[0] = addrC

	assert.Equal(t, int64(390), l.Balance().Int64())
	assert.Equal(t, int64(10), l.AddressData(addrB).AmountSpentToday.Int64())
	assert.Equal(t, addrB, l.PaidAddresses()[0])
}

func TestRestore_RejectsNegativeValues(t *testing.T) {
	_, err := Restore(model.LedgerState{
		Balance:        big.NewInt(-1),
		DailySendLimit: big.NewInt(10),
	}, transfer.NewBook())
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Restore(model.LedgerState{
		DailySendLimit: big.NewInt(10),
		Records: map[common.Address]model.RecipientRecord{
			addrB: {AmountSpentToday: big.NewInt(-3), WindowStart: t0},
		},
	}, transfer.NewBook())
	require.ErrorIs(t, err, ErrInvalidAmount)
}
