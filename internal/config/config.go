// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Solana  SolanaConfig  `mapstructure:"solana"`
	Wallet  WalletConfig  `mapstructure:"wallet"`
	Storage StorageConfig `mapstructure:"storage"`
	Ledger  LedgerConfig  `mapstructure:"ledger"`
	Guard   GuardConfig   `mapstructure:"guard"`
	Plans   []PlanConfig  `mapstructure:"plans"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// SolanaConfig contains RPC connection configuration
type SolanaConfig struct {
	RPCURL          string        `mapstructure:"rpc_url"`
	Cluster         string        `mapstructure:"cluster"`
	Commitment      string        `mapstructure:"commitment"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	RetryAttempts   int           `mapstructure:"retry_attempts"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	MaxRetryDelay   time.Duration `mapstructure:"max_retry_delay"`
	RequestsPerSec  float64       `mapstructure:"requests_per_sec"`
	ConfirmInterval time.Duration `mapstructure:"confirm_interval"`
	AirdropLamports uint64        `mapstructure:"airdrop_lamports"`
}

// WalletConfig selects and configures the passkey wallet bridge
type WalletConfig struct {
	SDKVersion     string        `mapstructure:"sdk_version"` // v1, v2
	BridgeURL      string        `mapstructure:"bridge_url"`
	PortalURL      string        `mapstructure:"portal_url"`
	PaymasterURL   string        `mapstructure:"paymaster_url"`
	FeeToken       string        `mapstructure:"fee_token"`
	ComputeUnits   uint32        `mapstructure:"compute_units"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StorageConfig contains persistent store configuration
type StorageConfig struct {
	Type             string        `mapstructure:"type"` // sqlite, postgres, bolt, memory
	ConnectionString string        `mapstructure:"connection_string"`
	MaxConnections   int           `mapstructure:"max_connections"`
	MaxIdleTime      time.Duration `mapstructure:"max_idle_time"`
	Disabled         bool          `mapstructure:"disabled"`
}

// Upper bounds on the ledgers; the defaults use them
const (
	MaxLogCapacity     = 30
	MaxHistoryCapacity = 50
)

// LedgerConfig bounds the activity log and transaction history
type LedgerConfig struct {
	LogCapacity     int    `mapstructure:"log_capacity"`
	HistoryCapacity int    `mapstructure:"history_capacity"`
	LogKey          string `mapstructure:"log_key"`
	HistoryKey      string `mapstructure:"history_key"`
}

// GuardConfig contains re-entrancy guard configuration
type GuardConfig struct {
	Cooldown      time.Duration `mapstructure:"cooldown"`
	ActionTimeout time.Duration `mapstructure:"action_timeout"`
}

// PlanConfig describes a subscription plan offered by the playground
type PlanConfig struct {
	ID          string `mapstructure:"id" json:"id"`
	Name        string `mapstructure:"name" json:"name"`
	Lamports    uint64 `mapstructure:"lamports" json:"lamports"`
	Merchant    string `mapstructure:"merchant" json:"merchant"`
	Description string `mapstructure:"description" json:"description,omitempty"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port          int           `mapstructure:"port"`
	Host          string        `mapstructure:"host"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	EnableMetrics bool          `mapstructure:"enable_metrics"`
	EnableHealth  bool          `mapstructure:"enable_health"`
	// Per-client limit on action requests; zero disables it
	ActionsPerMinute float64 `mapstructure:"actions_per_minute"`
	ActionBurst      int     `mapstructure:"action_burst"`
	// Key the limiter on X-Real-IP / X-Forwarded-For; only behind a proxy that sets them
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // json, text
	Output     string `mapstructure:"output"` // stdout, file
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Set environment variable prefix
	v.SetEnvPrefix("PLAYGROUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// Default returns the configuration produced by the built-in defaults alone
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// Defaults are static, so decoding cannot fail.
	_ = v.Unmarshal(&config)
	return &config
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "passkey-playground")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	// Solana defaults
	v.SetDefault("solana.rpc_url", "https://api.devnet.solana.com")
	v.SetDefault("solana.cluster", "devnet")
	v.SetDefault("solana.commitment", "confirmed")
	v.SetDefault("solana.request_timeout", "30s")
	v.SetDefault("solana.retry_attempts", 3)
	v.SetDefault("solana.retry_delay", "1s")
	v.SetDefault("solana.max_retry_delay", "15s")
	v.SetDefault("solana.requests_per_sec", 10)
	v.SetDefault("solana.confirm_interval", "1s")
	v.SetDefault("solana.airdrop_lamports", 1_000_000_000)

	// Wallet defaults
	v.SetDefault("wallet.sdk_version", "v2")
	v.SetDefault("wallet.bridge_url", "http://localhost:3001")
	v.SetDefault("wallet.portal_url", "https://portal.lazor.sh")
	v.SetDefault("wallet.paymaster_url", "https://kora.devnet.lazorkit.com")
	v.SetDefault("wallet.fee_token", "USDC")
	v.SetDefault("wallet.compute_units", 200_000)
	v.SetDefault("wallet.request_timeout", "2m")

	// Storage defaults
	v.SetDefault("storage.type", "sqlite")
	v.SetDefault("storage.connection_string", "./data/playground.db")
	v.SetDefault("storage.max_connections", 4)
	v.SetDefault("storage.max_idle_time", "15m")
	v.SetDefault("storage.disabled", false)

	// Ledger defaults
	v.SetDefault("ledger.log_capacity", 30)
	v.SetDefault("ledger.history_capacity", 50)
	v.SetDefault("ledger.log_key", "playground.logs")
	v.SetDefault("ledger.history_key", "playground.history")

	// Guard defaults
	v.SetDefault("guard.cooldown", "500ms")
	v.SetDefault("guard.action_timeout", "2m")

	// Server defaults
	v.SetDefault("server.port", 8081)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.enable_metrics", true)
	v.SetDefault("server.enable_health", true)
	v.SetDefault("server.actions_per_minute", 60)
	v.SetDefault("server.action_burst", 10)
	v.SetDefault("server.trust_proxy_headers", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Solana.RPCURL == "" {
		return fmt.Errorf("solana RPC URL is required")
	}
	if c.Wallet.BridgeURL == "" {
		return fmt.Errorf("wallet bridge URL is required")
	}
	switch c.Wallet.SDKVersion {
	case "v1", "v2":
	default:
		return fmt.Errorf("unsupported wallet sdk version %q", c.Wallet.SDKVersion)
	}
	if !c.Storage.Disabled && c.Storage.Type != "memory" && c.Storage.ConnectionString == "" {
		return fmt.Errorf("storage connection string is required")
	}
	if c.Ledger.LogCapacity <= 0 || c.Ledger.LogCapacity > MaxLogCapacity {
		return fmt.Errorf("ledger log capacity must be between 1 and %d", MaxLogCapacity)
	}
	if c.Ledger.HistoryCapacity <= 0 || c.Ledger.HistoryCapacity > MaxHistoryCapacity {
		return fmt.Errorf("ledger history capacity must be between 1 and %d", MaxHistoryCapacity)
	}
	if c.Guard.Cooldown < 0 {
		return fmt.Errorf("guard cooldown must not be negative")
	}
	for _, plan := range c.Plans {
		if plan.ID == "" || plan.Merchant == "" || plan.Lamports == 0 {
			return fmt.Errorf("plan %q needs an id, merchant and a positive price", plan.Name)
		}
	}
	return nil
}

// Plan looks up a subscription plan by id
func (c *Config) Plan(id string) (PlanConfig, bool) {
	for _, plan := range c.Plans {
		if plan.ID == id {
			return plan, true
		}
	}
	return PlanConfig{}, false
}
