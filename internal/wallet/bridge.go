package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/smartdevs17/passkey-playground/internal/config"
	"github.com/smartdevs17/passkey-playground/internal/models"
	"github.com/smartdevs17/passkey-playground/pkg/utils"
)

// bridge talks JSON over HTTP to the process hosting the passkey SDK
type bridge struct {
	baseURL      string
	portalURL    string
	paymasterURL string
	dialect      dialect
	httpClient   *http.Client
	logger       *logrus.Entry

	mu    sync.RWMutex
	state models.WalletState
}

func newBridge(cfg *config.WalletConfig, d dialect) *bridge {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &bridge{
		baseURL:      strings.TrimRight(cfg.BridgeURL, "/"),
		portalURL:    cfg.PortalURL,
		paymasterURL: cfg.PaymasterURL,
		dialect:      d,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		logger: utils.ComponentLogger("wallet").WithField("sdk_version", d.version),
	}
}

// State returns a snapshot of the reactive wallet fields
func (b *bridge) State() models.WalletState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	state := b.state
	if state.Account != nil {
		account := *state.Account
		state.Account = &account
	}
	return state
}

func (b *bridge) update(fn func(*models.WalletState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.state)
}

// Connect runs the passkey connect flow and returns the smart wallet account
func (b *bridge) Connect(ctx context.Context) (*models.Account, error) {
	b.update(func(s *models.WalletState) {
		s.IsConnecting = true
		s.Error = ""
	})

	var account models.Account
	err := b.post(ctx, b.dialect.connectPath, map[string]interface{}{
		"portalUrl":    b.portalURL,
		"paymasterUrl": b.paymasterURL,
	}, &account)
	if err == nil && account.SmartWallet == "" {
		err = utils.NewAppError(utils.ErrCodeWallet, "Wallet returned no account", "")
	}

	b.update(func(s *models.WalletState) {
		s.IsConnecting = false
		if err != nil {
			s.Error = err.Error()
			return
		}
		s.Account = &account
	})
	if err != nil {
		return nil, err
	}

	b.logger.WithField("smart_wallet", account.SmartWallet).Info("Wallet connected")
	result := account
	return &result, nil
}

// Disconnect ends the wallet session. Local state is cleared even if the bridge call fails.
func (b *bridge) Disconnect(ctx context.Context) error {
	err := b.post(ctx, b.dialect.disconnectPath, map[string]interface{}{}, nil)

	b.update(func(s *models.WalletState) {
		s.Account = nil
		s.IsSigning = false
		s.IsConnecting = false
		s.Error = ""
		if err != nil {
			s.Error = err.Error()
		}
	})
	return err
}

// SignMessage asks the passkey to sign text and returns the signature
func (b *bridge) SignMessage(ctx context.Context, message string) (string, error) {
	var resp map[string]interface{}
	err := b.signing(func() error {
		return b.post(ctx, b.dialect.signPath, map[string]interface{}{"message": message}, &resp)
	})
	if err != nil {
		return "", err
	}
	return b.field(resp, b.dialect.signatureField)
}

// SignAndSendTransaction signs the instructions through the smart wallet and broadcasts them
func (b *bridge) SignAndSendTransaction(ctx context.Context, req TransactionRequest) (string, error) {
	if len(req.Instructions) == 0 {
		return "", utils.NewAppError(utils.ErrCodeValidation, "Transaction has no instructions", "")
	}

	payload := map[string]interface{}{
		"instructions":       b.dialect.encodeInstructions(req.Instructions),
		"transactionOptions": req.Options,
	}

	var resp map[string]interface{}
	err := b.signing(func() error {
		return b.post(ctx, b.dialect.sendPath, payload, &resp)
	})
	if err != nil {
		return "", err
	}
	return b.field(resp, b.dialect.txField)
}

// signing flags the wallet as busy signing while fn runs
func (b *bridge) signing(fn func() error) error {
	b.update(func(s *models.WalletState) {
		s.IsSigning = true
		s.Error = ""
	})
	err := fn()
	b.update(func(s *models.WalletState) {
		s.IsSigning = false
		if err != nil {
			s.Error = err.Error()
		}
	})
	return err
}

func (b *bridge) field(resp map[string]interface{}, name string) (string, error) {
	value, _ := resp[name].(string)
	if value == "" {
		return "", utils.NewAppError(utils.ErrCodeWallet, "Wallet response is missing a field", name)
	}
	return value, nil
}

// post sends payload to the bridge and decodes a 2xx JSON response into out
func (b *bridge) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeInternal, "Failed to encode wallet request", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return utils.NewAppError(utils.ErrCodeWallet, "Failed to create wallet request", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Wallet-SDK-Version", b.dialect.version)

	start := time.Now()
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeWallet, "Wallet bridge unreachable", err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return utils.NewAppError(utils.ErrCodeWallet, "Failed to read wallet response", err.Error())
	}

	b.logger.WithFields(logrus.Fields{
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("Wallet bridge call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return utils.NewAppError(utils.ErrCodeWallet, "Wallet request rejected", bridgeError(resp.StatusCode, raw))
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return utils.NewAppError(utils.ErrCodeWallet, "Invalid wallet response", err.Error())
	}
	return nil
}

// bridgeError extracts the bridge's error message, falling back to the status
func bridgeError(status int, raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return fmt.Sprintf("status %d", status)
}
