package playground

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/passkey-playground/internal/config"
	"github.com/smartdevs17/passkey-playground/internal/guard"
	"github.com/smartdevs17/passkey-playground/internal/ledger"
	"github.com/smartdevs17/passkey-playground/internal/models"
	"github.com/smartdevs17/passkey-playground/internal/session"
	"github.com/smartdevs17/passkey-playground/internal/wallet"
	"github.com/smartdevs17/passkey-playground/pkg/utils"
)

// ErrBusy is returned when an action is triggered while its guard is held.
// Nothing is logged or recorded for a dropped trigger.
var ErrBusy = utils.NewAppError(utils.ErrCodeBusy, "Action already in progress", "")

// ErrNotConnected is returned by actions that need a connected wallet
var ErrNotConnected = utils.NewAppError(utils.ErrCodeValidation, "Wallet not connected", "")

const (
	defaultCooldown      = 500 * time.Millisecond
	defaultActionTimeout = 2 * time.Minute
)

// RPC is the part of the cluster client the actions depend on
type RPC interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
	RequestAirdrop(ctx context.Context, address string, lamports uint64) (string, error)
	ConfirmTransaction(ctx context.Context, signature, commitment string) error
}

// ActionRecorder receives per-action outcomes
type ActionRecorder interface {
	RecordAction(action, status string, duration time.Duration)
	RecordActionDropped(action string)
}

// Dependencies are the collaborators a Playground drives
type Dependencies struct {
	Provider wallet.Provider
	RPC      RPC
	Logs     *ledger.LogLedger
	History  *ledger.HistoryLedger
	Session  *session.View
	Guards   *guard.Set
	Recorder ActionRecorder
}

// Playground runs the user-facing actions. Each action holds its own guard,
// narrates progress in the log ledger and records transactions in history.
type Playground struct {
	provider wallet.Provider
	rpc      RPC
	logs     *ledger.LogLedger
	history  *ledger.HistoryLedger
	session  *session.View
	guards   *guard.Set
	recorder ActionRecorder

	cooldown        time.Duration
	actionTimeout   time.Duration
	feeToken        string
	computeUnits    uint32
	cluster         string
	airdropLamports uint64
	cfg             *config.Config

	logger *logrus.Entry
}

// New wires a Playground from configuration and its dependencies
func New(cfg *config.Config, deps Dependencies) (*Playground, error) {
	if deps.Provider == nil || deps.RPC == nil {
		return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Wallet provider and RPC client are required", "")
	}
	if deps.Logs == nil || deps.History == nil {
		return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Log and history ledgers are required", "")
	}
	if deps.Guards == nil {
		deps.Guards = guard.NewSet(guard.SystemClock, nil)
	}
	if deps.Session == nil {
		deps.Session = session.NewView(deps.RPC, nil)
	}

	p := &Playground{
		provider:        deps.Provider,
		rpc:             deps.RPC,
		logs:            deps.Logs,
		history:         deps.History,
		session:         deps.Session,
		guards:          deps.Guards,
		recorder:        deps.Recorder,
		cooldown:        cfg.Guard.Cooldown,
		actionTimeout:   cfg.Guard.ActionTimeout,
		feeToken:        cfg.Wallet.FeeToken,
		computeUnits:    cfg.Wallet.ComputeUnits,
		cluster:         cfg.Solana.Cluster,
		airdropLamports: cfg.Solana.AirdropLamports,
		cfg:             cfg,
		logger:          utils.ComponentLogger("playground"),
	}
	if p.cooldown < 0 {
		p.cooldown = defaultCooldown
	}
	if p.actionTimeout <= 0 {
		p.actionTimeout = defaultActionTimeout
	}
	return p, nil
}

// Logs returns the activity log, newest first
func (p *Playground) Logs() []models.LogEntry {
	return p.logs.Entries()
}

// ClearLogs empties the activity log
func (p *Playground) ClearLogs() {
	p.logs.ClearAll()
}

// History returns the transaction history, newest first
func (p *Playground) History() []models.TransactionRecord {
	return p.history.Records()
}

// ClearHistory empties the transaction history
func (p *Playground) ClearHistory() {
	p.history.Clear()
}

// Session returns the wallet session, first adopting any account the
// wallet reports outside of a connect attempt.
func (p *Playground) Session(ctx context.Context) session.Snapshot {
	if p.session.Status() != session.StatusConnecting {
		state := p.provider.State()
		if !state.IsConnecting {
			p.session.Sync(ctx, state)
		}
	}
	return p.session.Snapshot()
}

// Busy reports which actions are currently guarded
func (p *Playground) Busy() map[string]bool {
	return p.guards.Busy()
}

// Plans lists the configured subscription plans
func (p *Playground) Plans() []config.PlanConfig {
	out := make([]config.PlanConfig, len(p.cfg.Plans))
	copy(out, p.cfg.Plans)
	return out
}

// run executes fn under the guard of action. A trigger that finds the guard
// held returns ErrBusy without side effects. Otherwise the guard is released
// with the cooldown once fn settles, whatever its outcome.
func (p *Playground) run(ctx context.Context, action guard.Action, fn func(ctx context.Context) error) error {
	g := p.guards.Get(action)
	if !g.TryAcquire() {
		if p.recorder != nil {
			p.recorder.RecordActionDropped(string(action))
		}
		p.logger.WithField("action", action).Debug("Dropped trigger while busy")
		return ErrBusy
	}
	defer g.Release(p.cooldown)

	// The action outlives the caller's request but not the action timeout.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.actionTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)

	status := "success"
	if err != nil {
		status = "error"
		p.logger.WithError(err).WithField("action", action).Warn("Action failed")
	}
	if p.recorder != nil {
		p.recorder.RecordAction(string(action), status, time.Since(start))
	}
	return err
}

// errorDetails extracts the underlying message shown in an error entry
func errorDetails(err error) string {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		if appErr.Details != "" {
			return appErr.Details
		}
		return appErr.Message
	}
	return err.Error()
}
