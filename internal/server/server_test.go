package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartdevs17/passkey-playground/internal/config"
	"github.com/smartdevs17/passkey-playground/internal/guard"
	"github.com/smartdevs17/passkey-playground/internal/ledger"
	"github.com/smartdevs17/passkey-playground/internal/metrics"
	"github.com/smartdevs17/passkey-playground/internal/models"
	"github.com/smartdevs17/passkey-playground/internal/playground"
	"github.com/smartdevs17/passkey-playground/internal/session"
	"github.com/smartdevs17/passkey-playground/internal/storage"
	"github.com/smartdevs17/passkey-playground/internal/wallet"
)

const (
	walletAddr = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	recipient  = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// holdClock never fires, so guards stay busy until the test ends
type holdClock struct{}

func (holdClock) AfterFunc(time.Duration, func()) {}

type stubProvider struct {
	account *models.Account
	signErr error
}

func (p *stubProvider) Connect(context.Context) (*models.Account, error) {
	p.account = &models.Account{SmartWallet: walletAddr}
	return p.account, nil
}

func (p *stubProvider) Disconnect(context.Context) error {
	p.account = nil
	return nil
}

func (p *stubProvider) SignMessage(context.Context, string) (string, error) {
	if p.signErr != nil {
		return "", p.signErr
	}
	return "signature-123456789", nil
}

func (p *stubProvider) SignAndSendTransaction(context.Context, wallet.TransactionRequest) (string, error) {
	return "tx-signature-123456789", nil
}

func (p *stubProvider) State() models.WalletState {
	return models.WalletState{Account: p.account}
}

type stubRPC struct{}

func (stubRPC) GetBalance(context.Context, string) (uint64, error) { return 42, nil }

func (stubRPC) RequestAirdrop(context.Context, string, uint64) (string, error) {
	return "airdrop-signature", nil
}

func (stubRPC) ConfirmTransaction(context.Context, string, string) error { return nil }

type testEnv struct {
	server   *HTTPServer
	provider *stubProvider
	store    storage.Storage
}

func newTestEnv(t *testing.T, mutate func(cfg *config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Plans = []config.PlanConfig{{ID: "basic", Name: "Basic", Lamports: 1000, Merchant: recipient}}
	if mutate != nil {
		mutate(cfg)
	}

	store := storage.NewMemoryStorage()
	adapter := storage.NewAdapter(store)
	provider := &stubProvider{}
	manager := metrics.NewManager()

	pg, err := playground.New(cfg, playground.Dependencies{
		Provider: provider,
		RPC:      stubRPC{},
		Logs:     ledger.NewLogLedger(adapter),
		History:  ledger.NewHistoryLedger(adapter),
		Session:  session.NewView(stubRPC{}, manager.GetPrometheusMetrics()),
		Guards:   guard.NewSet(holdClock{}, manager.GetPrometheusMetrics()),
		Recorder: manager.GetPrometheusMetrics(),
	})
	require.NoError(t, err)

	srv, err := NewHTTPServer(&cfg.Server, "test", pg, store, manager)
	require.NoError(t, err)

	return &testEnv{server: srv, provider: provider, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestNewHTTPServerRequiresPlayground(t *testing.T) {
	_, err := NewHTTPServer(&config.Default().Server, "test", nil, nil, nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, body := env.do(t, "GET", "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, "GET", "/api/v1/logs", nil)

	rec, _ := env.do(t, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestConnectAndSignFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, body := env.do(t, "POST", "/api/v1/actions/connect", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	account := body["account"].(map[string]interface{})
	assert.Equal(t, walletAddr, account["smartWallet"])

	_, body = env.do(t, "GET", "/api/v1/session", nil)
	assert.Equal(t, true, body["connected"])
	assert.Equal(t, float64(42), body["balanceLamports"])

	rec, body = env.do(t, "POST", "/api/v1/actions/sign", map[string]string{"message": "hello"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "signature-123456789", body["signature"])

	_, body = env.do(t, "GET", "/api/v1/logs", nil)
	assert.Equal(t, float64(3), body["count"])
	logs := body["logs"].([]interface{})
	assert.Equal(t, "info", logs[0].(map[string]interface{})["kind"])
	assert.Equal(t, "Message signed!", logs[1].(map[string]interface{})["message"])
}

func TestBusyActionAnswersConflict(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, _ := env.do(t, "POST", "/api/v1/actions/connect", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, before := env.do(t, "GET", "/api/v1/logs", nil)

	rec, _ = env.do(t, "POST", "/api/v1/actions/connect", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	_, after := env.do(t, "GET", "/api/v1/logs", nil)
	assert.Equal(t, before["count"], after["count"])

	_, body := env.do(t, "GET", "/api/v1/guards", nil)
	busy := body["busy"].(map[string]interface{})
	assert.Equal(t, true, busy["connect"])
	assert.Equal(t, false, busy["send"])
}

func TestActionErrorStatuses(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, body := env.do(t, "POST", "/api/v1/actions/sign", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])

	env.do(t, "POST", "/api/v1/actions/connect", nil)

	rec, _ = env.do(t, "POST", "/api/v1/actions/subscribe", map[string]string{"plan": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	env.provider.signErr = errors.New("passkey rejected")
	rec, body = env.do(t, "POST", "/api/v1/actions/sign", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, body["details"], "passkey rejected")

	rec, _ = env.do(t, "POST", "/api/v1/actions/send", "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransactionsAndHistory(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, "POST", "/api/v1/actions/connect", nil)

	rec, _ := env.do(t, "POST", "/api/v1/actions/send", map[string]interface{}{"recipient": recipient, "lamports": 5000})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = env.do(t, "POST", "/api/v1/actions/subscribe", map[string]string{"plan": "basic"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = env.do(t, "POST", "/api/v1/actions/airdrop", map[string]uint64{"lamports": 10})
	require.Equal(t, http.StatusOK, rec.Code)

	_, body := env.do(t, "GET", "/api/v1/history", nil)
	assert.Equal(t, float64(3), body["count"])
	txs := body["transactions"].([]interface{})
	assert.Equal(t, "airdrop", txs[0].(map[string]interface{})["type"])
	assert.Equal(t, "transfer", txs[2].(map[string]interface{})["type"])

	rec, _ = env.do(t, "DELETE", "/api/v1/history", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, body = env.do(t, "GET", "/api/v1/history", nil)
	assert.Equal(t, float64(0), body["count"])

	rec, _ = env.do(t, "DELETE", "/api/v1/logs", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, body = env.do(t, "GET", "/api/v1/logs", nil)
	assert.Equal(t, float64(0), body["count"])
}

func TestDisconnect(t *testing.T) {
	env := newTestEnv(t, nil)
	env.do(t, "POST", "/api/v1/actions/connect", nil)

	rec, _ := env.do(t, "POST", "/api/v1/actions/disconnect", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, body := env.do(t, "GET", "/api/v1/session", nil)
	assert.Equal(t, false, body["connected"])
	assert.Equal(t, "disconnected", body["status"])
}

func TestCatalog(t *testing.T) {
	env := newTestEnv(t, nil)

	_, body := env.do(t, "GET", "/api/v1/plans", nil)
	plans := body["plans"].([]interface{})
	require.Len(t, plans, 1)
	assert.Equal(t, "basic", plans[0].(map[string]interface{})["id"])

	_, body = env.do(t, "GET", "/api/v1/snippets", nil)
	assert.NotEmpty(t, body["snippets"])

	rec, body := env.do(t, "GET", "/api/v1/snippets/provider", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["code"], "Provider")

	rec, _ = env.do(t, "GET", "/api/v1/snippets/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActionRateLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Server.ActionsPerMinute = 1
		cfg.Server.ActionBurst = 1
	})

	rec, _ := env.do(t, "POST", "/api/v1/actions/connect", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, "POST", "/api/v1/actions/disconnect", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Reads are not limited.
	rec, _ = env.do(t, "GET", "/api/v1/logs", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestActionRateLimitIgnoresForwardingHeaders(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Server.ActionsPerMinute = 1
		cfg.Server.ActionBurst = 1
	})

	allowed := 0
	for i := 0; i < 200; i++ {
		req := httptest.NewRequest("POST", "/api/v1/actions/disconnect", nil)
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.0.%d.%d", i/256, i%256))
		rec := httptest.NewRecorder()
		env.server.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusTooManyRequests {
			allowed++
		}
	}

	assert.Equal(t, 1, allowed)
	assert.Equal(t, 1, env.server.limiter.size())
}

func TestClientID(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		headers    map[string]string
		want       string
	}{
		{"socket peer by default", false, map[string]string{"X-Real-IP": "10.1.1.1"}, "192.0.2.1"},
		{"trusted real ip", true, map[string]string{"X-Real-IP": "10.1.1.1"}, "10.1.1.1"},
		{"trusted forwarded chain", true, map[string]string{"X-Forwarded-For": "10.2.2.2, 172.16.0.1"}, "10.2.2.2"},
		{"invalid header falls back", true, map[string]string{"X-Real-IP": "not-an-ip"}, "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientID(req, tt.trustProxy))
		})
	}
}

func TestActionLimiterEvictsIdleVisitors(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := newActionLimiter(60, 1, false)
	limiter.clockNow = func() time.Time { return now }

	assert.True(t, limiter.allow("a"))
	assert.True(t, limiter.allow("b"))
	assert.False(t, limiter.allow("a"))
	assert.Equal(t, 2, limiter.size())

	now = now.Add(visitorIdleTTL + time.Second)
	assert.True(t, limiter.allow("c"))
	assert.Equal(t, 1, limiter.size())
	assert.True(t, limiter.allow("a"), "evicted client starts with a fresh bucket")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, nil)

	rec, _ := env.do(t, "OPTIONS", "/api/v1/logs", nil)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
