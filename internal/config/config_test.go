package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 30, cfg.Ledger.LogCapacity)
	assert.Equal(t, 50, cfg.Ledger.HistoryCapacity)
	assert.Equal(t, 500*time.Millisecond, cfg.Guard.Cooldown)
	assert.Equal(t, "v2", cfg.Wallet.SDKVersion)
	assert.Equal(t, "sqlite", cfg.Storage.Type)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
wallet:
  sdk_version: v1
guard:
  cooldown: 250ms
plans:
  - id: basic
    name: Basic
    lamports: 1000
    merchant: 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "v1", cfg.Wallet.SDKVersion)
	assert.Equal(t, 250*time.Millisecond, cfg.Guard.Cooldown)
	assert.Equal(t, "https://api.devnet.solana.com", cfg.Solana.RPCURL)

	plan, ok := cfg.Plan("basic")
	require.True(t, ok)
	assert.Equal(t, uint64(1000), plan.Lamports)

	_, ok = cfg.Plan("missing")
	assert.False(t, ok)
}

func TestValidateAcceptsSmallerLedgers(t *testing.T) {
	cfg := Default()
	cfg.Ledger.LogCapacity = 5
	cfg.Ledger.HistoryCapacity = MaxHistoryCapacity
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing rpc", func(c *Config) { c.Solana.RPCURL = "" }},
		{"unknown sdk", func(c *Config) { c.Wallet.SDKVersion = "v9" }},
		{"zero log capacity", func(c *Config) { c.Ledger.LogCapacity = 0 }},
		{"log capacity above 30", func(c *Config) { c.Ledger.LogCapacity = 31 }},
		{"history capacity above 50", func(c *Config) { c.Ledger.HistoryCapacity = 51 }},
		{"negative cooldown", func(c *Config) { c.Guard.Cooldown = -time.Second }},
		{"bad plan", func(c *Config) { c.Plans = []PlanConfig{{ID: "x", Name: "X"}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
