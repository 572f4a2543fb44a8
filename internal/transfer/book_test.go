package transfer

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBook_TransferAccumulates(t *testing.T) {
	b := NewBook()
	to := common.HexToAddress("0x01")

	require.NoError(t, b.Transfer(context.Background(), to, big.NewInt(40)))
	require.NoError(t, b.Transfer(context.Background(), to, big.NewInt(2)))

	assert.Equal(t, int64(42), b.Received(to).Int64())
	assert.Equal(t, int64(0), b.Received(common.HexToAddress("0x02")).Int64())
}

func TestBook_FailNextFailsOnce(t *testing.T) {
	b := NewBook()
	to := common.HexToAddress("0x01")
	boom := errors.New("boom")

	b.FailNext(boom)
	err := b.Transfer(context.Background(), to, big.NewInt(5))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(0), b.Received(to).Int64())

	require.NoError(t, b.Transfer(context.Background(), to, big.NewInt(5)))
	assert.Equal(t, int64(5), b.Received(to).Int64())
}

func TestBook_CancelledContext(t *testing.T) {
	b := NewBook()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Transfer(ctx, common.HexToAddress("0x01"), big.NewInt(1))
	require.ErrorIs(t, err, context.Canceled)
}

func TestBook_ReceivedReturnsCopy(t *testing.T) {
	b := NewBook()
	to := common.HexToAddress("0x01")
	require.NoError(t, b.Transfer(context.Background(), to, big.NewInt(3)))

	got := b.Received(to)
	got.SetInt64(1000)

	assert.Equal(t, int64(3), b.Received(to).Int64())
}
