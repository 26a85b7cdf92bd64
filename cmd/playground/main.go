package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smartdevs17/passkey-playground/internal/config"
	"github.com/smartdevs17/passkey-playground/internal/connection"
	"github.com/smartdevs17/passkey-playground/internal/guard"
	"github.com/smartdevs17/passkey-playground/internal/ledger"
	"github.com/smartdevs17/passkey-playground/internal/metrics"
	"github.com/smartdevs17/passkey-playground/internal/playground"
	"github.com/smartdevs17/passkey-playground/internal/server"
	"github.com/smartdevs17/passkey-playground/internal/session"
	"github.com/smartdevs17/passkey-playground/internal/storage"
	"github.com/smartdevs17/passkey-playground/internal/wallet"
	"github.com/smartdevs17/passkey-playground/pkg/utils"
)

// AppVersion contains the application version
const AppVersion = "1.0.0"

// Application represents the main application
type Application struct {
	config         *config.Config
	logger         *logrus.Entry
	metricsManager *metrics.Manager
	storage        storage.Storage
	store          *storage.Adapter
	rpc            *connection.Client
	provider       wallet.Provider
	playground     *playground.Playground
	server         *server.HTTPServer
}

// NewApplication creates a new application instance
func NewApplication(cfg *config.Config) (*Application, error) {
	app := &Application{config: cfg}

	if err := initLogger(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.logger = utils.ComponentLogger("app")

	if err := app.initializeComponents(); err != nil {
		app.Stop()
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return app, nil
}

// initLogger initializes the global logger from configuration
func initLogger(cfg *config.Config) error {
	logCfg := cfg.Logging
	if level := viper.GetString("log-level"); level != "" {
		logCfg.Level = level
	}

	return utils.InitLogger(utils.LogOptions{
		Level:      logCfg.Level,
		Format:     logCfg.Format,
		Output:     logCfg.Output,
		File:       logCfg.File,
		MaxSize:    logCfg.MaxSize,
		MaxBackups: logCfg.MaxBackups,
		MaxAge:     logCfg.MaxAge,
	})
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	app.logger.Info("Initializing application components")

	app.metricsManager = metrics.NewManager()

	if err := app.initializeStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := app.initializeConnection(); err != nil {
		return fmt.Errorf("failed to initialize connection: %w", err)
	}
	if err := app.initializeWallet(); err != nil {
		return fmt.Errorf("failed to initialize wallet: %w", err)
	}
	if err := app.initializePlayground(); err != nil {
		return fmt.Errorf("failed to initialize playground: %w", err)
	}
	if err := app.initializeServer(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	app.logger.Info("All components initialized successfully")
	return nil
}

// initializeStorage opens the persistent store. A store that cannot be
// opened leaves the playground running without persistence.
func (app *Application) initializeStorage() error {
	if app.config.Storage.Disabled {
		app.logger.Warn("Persistence disabled, ledgers live in memory only")
		app.store = storage.NewAdapter(nil)
		return nil
	}

	backend, err := openStorage(&app.config.Storage)
	if err != nil {
		app.logger.WithError(err).Warn("Persistent store unavailable, continuing without persistence")
		app.store = storage.NewAdapter(nil)
		return nil
	}

	app.storage = storage.NewStorageWithMetrics(backend, app.metricsManager)
	app.store = storage.NewAdapter(app.storage)
	app.logger.WithField("type", backend.Name()).Info("Storage layer initialized successfully")
	return nil
}

// openStorage creates, connects and migrates the configured backend
func openStorage(cfg *config.StorageConfig) (storage.Storage, error) {
	backend, err := storage.NewStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}
	if err := prepareStorage(backend); err != nil {
		return nil, err
	}
	return backend, nil
}

// prepareStorage connects and migrates backend, closing it on any failure
func prepareStorage(backend storage.Storage) error {
	if err := backend.Connect(); err != nil {
		backend.Close()
		return fmt.Errorf("failed to connect to storage: %w", err)
	}
	if err := backend.Migrate(); err != nil {
		backend.Close()
		return fmt.Errorf("failed to run storage migrations: %w", err)
	}
	return nil
}

// initializeConnection creates the cluster RPC client
func (app *Application) initializeConnection() error {
	var err error
	app.rpc, err = connection.NewClient(&app.config.Solana, app.metricsManager)
	if err != nil {
		return err
	}

	app.logger.WithFields(logrus.Fields{
		"rpc_url": app.config.Solana.RPCURL,
		"cluster": app.config.Solana.Cluster,
	}).Info("RPC client initialized successfully")
	return nil
}

// initializeWallet selects the wallet bridge adapter
func (app *Application) initializeWallet() error {
	var err error
	app.provider, err = wallet.NewProvider(&app.config.Wallet)
	if err != nil {
		return err
	}

	app.logger.WithFields(logrus.Fields{
		"sdk_version": app.config.Wallet.SDKVersion,
		"bridge_url":  app.config.Wallet.BridgeURL,
	}).Info("Wallet adapter initialized successfully")
	return nil
}

// initializePlayground wires ledgers, guards and the session view
func (app *Application) initializePlayground() error {
	prom := app.metricsManager.GetPrometheusMetrics()

	logs := ledger.NewLogLedger(app.store,
		ledger.WithLogCapacity(app.config.Ledger.LogCapacity),
		ledger.WithLogKey(app.config.Ledger.LogKey),
		ledger.WithLogObserver(prom),
	)
	history := ledger.NewHistoryLedger(app.store,
		ledger.WithHistoryCapacity(app.config.Ledger.HistoryCapacity),
		ledger.WithHistoryKey(app.config.Ledger.HistoryKey),
		ledger.WithHistoryObserver(prom),
	)

	var err error
	app.playground, err = playground.New(app.config, playground.Dependencies{
		Provider: app.provider,
		RPC:      app.rpc,
		Logs:     logs,
		History:  history,
		Session:  session.NewView(app.rpc, prom),
		Guards:   guard.NewSet(guard.SystemClock, prom),
		Recorder: prom,
	})
	return err
}

// initializeServer initializes the HTTP server
func (app *Application) initializeServer() error {
	var err error
	app.server, err = server.NewHTTPServer(&app.config.Server, AppVersion, app.playground, app.storage, app.metricsManager)
	return err
}

// Start starts the application
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"version":     AppVersion,
		"environment": app.config.App.Environment,
	}).Info("Starting passkey playground")

	if err := app.server.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	app.logger.WithFields(logrus.Fields{
		"server_address": fmt.Sprintf("%s:%d", app.config.Server.Host, app.config.Server.Port),
		"plans":          len(app.config.Plans),
	}).Info("Passkey playground started successfully")
	return nil
}

// Stop stops the application gracefully
func (app *Application) Stop() {
	app.logger.Info("Stopping passkey playground")

	if app.server != nil {
		if err := app.server.Stop(); err != nil {
			app.logger.WithError(err).Error("Failed to stop HTTP server")
		}
	}
	if app.rpc != nil {
		app.rpc.Close()
	}
	if app.storage != nil {
		if err := app.storage.Close(); err != nil {
			app.logger.WithError(err).Error("Failed to close storage")
		}
	}

	app.logger.Info("Passkey playground stopped")
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "playground",
	Short:   "Passkey wallet playground backend",
	Long:    `Serves the activity log, transaction history and wallet session of the passkey wallet playground.`,
	Version: AppVersion,
	RunE:    runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the playground HTTP API",
	RunE:  runServe,
}

// loadConfig loads and validates the configuration named by --config
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runServe runs the HTTP API until a shutdown signal arrives
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(); err != nil {
		app.Stop()
		return fmt.Errorf("failed to start application: %w", err)
	}

	<-ctx.Done()
	fmt.Println("\nReceived shutdown signal, stopping application...")
	app.Stop()
	return nil
}

// init initializes the CLI commands
func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "log level (debug, info, warn, error)")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(airdropCmd)
	configCmd.AddCommand(validateConfigCmd)
}

// main is the entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
