package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smartdevs17/passkey-playground/internal/models"
)

const addr = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

type fakeBalances struct {
	balance uint64
	err     error
	calls   int
}

func (f *fakeBalances) GetBalance(_ context.Context, address string) (uint64, error) {
	f.calls++
	return f.balance, f.err
}

type walletGauge struct {
	connected bool
	lamports  uint64
}

func (w *walletGauge) UpdateWallet(connected bool, lamports uint64) {
	w.connected = connected
	w.lamports = lamports
}

func TestConnectLifecycle(t *testing.T) {
	balances := &fakeBalances{balance: 2 * LamportsPerSOL}
	gauge := &walletGauge{}
	view := NewView(balances, gauge)
	ctx := context.Background()

	assert.Equal(t, StatusDisconnected, view.Status())
	assert.False(t, view.IsConnected())

	view.BeginConnect()
	assert.Equal(t, StatusConnecting, view.Status())

	view.CompleteConnect(ctx, &models.Account{SmartWallet: addr})
	assert.Equal(t, StatusConnected, view.Status())
	assert.True(t, view.IsConnected())
	assert.Equal(t, addr, view.Address())
	assert.Equal(t, uint64(2*LamportsPerSOL), view.Balance())
	assert.Equal(t, 1, balances.calls)
	assert.True(t, gauge.connected)
	assert.Equal(t, uint64(2*LamportsPerSOL), gauge.lamports)

	snap := view.Snapshot()
	assert.Equal(t, "2.0000", snap.BalanceSOL)
	assert.Equal(t, "2.0000", view.BalanceSOL())
	assert.True(t, snap.Connected)

	view.Observe(ctx, "sig-1")
	view.Observe(ctx, "sig-1")
	assert.Equal(t, 2, balances.calls, "same signature does not refresh twice")

	view.Disconnect()
	assert.Equal(t, StatusDisconnected, view.Status())
	assert.Equal(t, uint64(0), view.Balance())
	assert.Equal(t, "", view.LastSignature())
	assert.False(t, gauge.connected)
}

func TestFailConnectReturnsToPreviousState(t *testing.T) {
	view := NewView(nil, nil)

	view.BeginConnect()
	view.FailConnect()
	assert.Equal(t, StatusDisconnected, view.Status())

	view.CompleteConnect(context.Background(), &models.Account{SmartWallet: addr})
	view.BeginConnect()
	view.FailConnect()
	assert.Equal(t, StatusConnected, view.Status())
}

func TestBalanceFailureKeepsStaleValue(t *testing.T) {
	balances := &fakeBalances{balance: 500}
	view := NewView(balances, nil)
	ctx := context.Background()

	view.CompleteConnect(ctx, &models.Account{SmartWallet: addr})
	assert.Equal(t, uint64(500), view.Balance())

	balances.err = errors.New("rpc down")
	balances.balance = 0
	view.Observe(ctx, "sig-2")

	assert.Equal(t, uint64(500), view.Balance())
	assert.Equal(t, "sig-2", view.LastSignature())
}

func TestSyncFollowsWalletState(t *testing.T) {
	balances := &fakeBalances{balance: 10}
	view := NewView(balances, nil)
	ctx := context.Background()

	view.Sync(ctx, models.WalletState{Account: &models.Account{SmartWallet: addr}})
	assert.True(t, view.IsConnected())
	assert.Equal(t, uint64(10), view.Balance())

	view.Sync(ctx, models.WalletState{Account: &models.Account{SmartWallet: addr}})
	assert.Equal(t, 1, balances.calls)

	view.Sync(ctx, models.WalletState{})
	assert.False(t, view.IsConnected())
}

func TestRefreshWithoutAddressIsNoop(t *testing.T) {
	balances := &fakeBalances{balance: 10}
	view := NewView(balances, nil)

	view.Refresh(context.Background())
	view.Observe(context.Background(), "sig")
	assert.Equal(t, 0, balances.calls)
}

func TestFormatSOL(t *testing.T) {
	assert.Equal(t, "0.0000", FormatSOL(0))
	assert.Equal(t, "1.5000", FormatSOL(1_500_000_000))
	assert.Equal(t, "0.0010", FormatSOL(1_000_000))
}
