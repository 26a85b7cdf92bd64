package wallet

import (
	"context"
	"strings"

	"github.com/smartdevs17/passkey-playground/internal/config"
	"github.com/smartdevs17/passkey-playground/internal/models"
	"github.com/smartdevs17/passkey-playground/pkg/utils"
)

// Provider is the passkey wallet SDK as seen by the playground. Signing,
// transaction construction and broadcast all happen behind it.
type Provider interface {
	Connect(ctx context.Context) (*models.Account, error)
	Disconnect(ctx context.Context) error
	SignMessage(ctx context.Context, message string) (string, error)
	SignAndSendTransaction(ctx context.Context, req TransactionRequest) (string, error)
	State() models.WalletState
}

// AccountMeta is one account referenced by an instruction
type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// Instruction is a single program invocation
type Instruction struct {
	ProgramID string        `json:"programId"`
	Accounts  []AccountMeta `json:"keys"`
	Data      []byte        `json:"-"`
}

// TransactionOptions are passed through to the SDK's paymaster flow
type TransactionOptions struct {
	FeeToken          string `json:"feeToken,omitempty"`
	ComputeUnitLimit  uint32 `json:"computeUnitLimit,omitempty"`
	ClusterSimulation string `json:"clusterSimulation,omitempty"`
}

// TransactionRequest asks the wallet to sign and send instructions
type TransactionRequest struct {
	Instructions []Instruction
	Options      TransactionOptions
}

// NewProvider builds the bridge adapter for the configured SDK version
func NewProvider(cfg *config.WalletConfig) (Provider, error) {
	d, ok := dialects[strings.ToLower(cfg.SDKVersion)]
	if !ok {
		return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Unsupported wallet SDK version", cfg.SDKVersion)
	}
	if cfg.BridgeURL == "" {
		return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Wallet bridge URL is required", "")
	}
	return newBridge(cfg, d), nil
}
