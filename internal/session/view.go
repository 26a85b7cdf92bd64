package session

import (
	"context"
	"math/big"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/passkey-playground/internal/models"
	"github.com/smartdevs17/passkey-playground/pkg/utils"
)

// LamportsPerSOL is the number of lamports in one SOL
const LamportsPerSOL = 1_000_000_000

// Status is the connection state of the wallet session
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// BalanceSource answers balance queries for an address
type BalanceSource interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
}

// Observer is told about connection and balance changes
type Observer interface {
	UpdateWallet(connected bool, lamports uint64)
}

// Snapshot is the session as shown to the user
type Snapshot struct {
	Status        Status `json:"status"`
	Connected     bool   `json:"connected"`
	Address       string `json:"address,omitempty"`
	Balance       uint64 `json:"balanceLamports"`
	BalanceSOL    string `json:"balanceSol"`
	LastSignature string `json:"lastSignature,omitempty"`
}

// View derives connected/address/balance from the wallet and keeps the
// balance current as the address or latest signature change.
type View struct {
	mu            sync.RWMutex
	status        Status
	account       *models.Account
	balance       uint64
	lastSignature string

	balances BalanceSource
	observer Observer
	logger   *logrus.Entry
}

// NewView creates a disconnected session
func NewView(balances BalanceSource, observer Observer) *View {
	return &View{
		status:   StatusDisconnected,
		balances: balances,
		observer: observer,
		logger:   utils.ComponentLogger("session"),
	}
}

// Status returns the current connection state
func (v *View) Status() Status {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.status
}

// IsConnected reports whether a non-empty account address is known
func (v *View) IsConnected() bool {
	return v.Address() != ""
}

// Address returns the connected address, or "" when disconnected
func (v *View) Address() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.account == nil {
		return ""
	}
	return v.account.SmartWallet
}

// Balance returns the last known balance in lamports
func (v *View) Balance() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.balance
}

// BalanceSOL returns the last known balance formatted in SOL
func (v *View) BalanceSOL() string {
	return FormatSOL(v.Balance())
}

// LastSignature returns the most recent transaction signature
func (v *View) LastSignature() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastSignature
}

// Snapshot returns a consistent copy of the session
func (v *View) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	snap := Snapshot{
		Status:        v.status,
		Balance:       v.balance,
		BalanceSOL:    FormatSOL(v.balance),
		LastSignature: v.lastSignature,
	}
	if v.account != nil && v.account.SmartWallet != "" {
		snap.Connected = true
		snap.Address = v.account.SmartWallet
	}
	return snap
}

// BeginConnect enters the connecting state
func (v *View) BeginConnect() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = StatusConnecting
}

// CompleteConnect records the connected account and refreshes its balance
func (v *View) CompleteConnect(ctx context.Context, account *models.Account) {
	v.mu.Lock()
	changed := v.account == nil || account == nil || v.account.SmartWallet != account.SmartWallet
	if account == nil || account.SmartWallet == "" {
		v.status = StatusDisconnected
		v.account = nil
	} else {
		copied := *account
		v.account = &copied
		v.status = StatusConnected
	}
	v.mu.Unlock()

	if changed {
		v.Refresh(ctx)
	}
	v.notify()
}

// FailConnect returns to disconnected after a failed connect attempt
func (v *View) FailConnect() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.account == nil {
		v.status = StatusDisconnected
	} else {
		v.status = StatusConnected
	}
}

// Disconnect clears the account, the balance and the last signature
func (v *View) Disconnect() {
	v.mu.Lock()
	v.status = StatusDisconnected
	v.account = nil
	v.balance = 0
	v.lastSignature = ""
	v.mu.Unlock()

	v.notify()
}

// Sync adopts the account exposed by the wallet's reactive state, so a
// session restored by the wallet itself shows up as connected.
func (v *View) Sync(ctx context.Context, state models.WalletState) {
	address := state.Address()
	if address == v.Address() {
		return
	}
	if address == "" {
		v.Disconnect()
		return
	}
	v.CompleteConnect(ctx, state.Account)
}

// Observe records a new transaction signature and refreshes the
// balance when it differs from the last one.
func (v *View) Observe(ctx context.Context, signature string) {
	if signature == "" {
		return
	}

	v.mu.Lock()
	changed := signature != v.lastSignature
	v.lastSignature = signature
	v.mu.Unlock()

	if changed {
		v.Refresh(ctx)
	}
}

// Refresh queries the balance of the connected address. A failed query is
// logged and leaves the previous balance in place.
func (v *View) Refresh(ctx context.Context) {
	address := v.Address()
	if address == "" || v.balances == nil {
		return
	}

	balance, err := v.balances.GetBalance(ctx, address)
	if err != nil {
		v.logger.WithError(err).WithField("address", address).Warn("Failed to refresh balance")
		return
	}

	v.mu.Lock()
	// Drop the result if the session moved to another address meanwhile.
	if v.account == nil || v.account.SmartWallet != address {
		v.mu.Unlock()
		return
	}
	v.balance = balance
	v.mu.Unlock()

	v.notify()
}

func (v *View) notify() {
	if v.observer == nil {
		return
	}
	v.mu.RLock()
	connected := v.account != nil
	balance := v.balance
	v.mu.RUnlock()
	v.observer.UpdateWallet(connected, balance)
}

// FormatSOL renders lamports as SOL with four decimals
func FormatSOL(lamports uint64) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -9).StringFixed(4)
}
