package main

import (
	"bytes"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"SpendGuard/internal/custody"
	"SpendGuard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintStatus_MissingAmounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"balance": null, "whitelist": []}`), 0o600))

	state, err := custody.LoadState(path)
	require.NoError(t, err)
	require.NotNil(t, state)

	var buf bytes.Buffer
	require.NotPanics(t, func() { printStatus(&buf, state) })
	assert.Contains(t, buf.String(), "Balance:          0")
	assert.Contains(t, buf.String(), "Daily send limit: 0")
	assert.Contains(t, buf.String(), "Limit change:     never")
}

func TestPrintStatus_LimitChangedAtZeroTime(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, &model.LedgerState{
		Balance:        big.NewInt(1234567),
		DailySendLimit: big.NewInt(100),
		LimitChanged:   true,
	})
	assert.Contains(t, buf.String(), "Balance:          1,234,567")
	assert.Contains(t, buf.String(), "locked until")
}
