package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/smartdevs17/passkey-playground/internal/config"
	"github.com/smartdevs17/passkey-playground/internal/connection"
	"github.com/smartdevs17/passkey-playground/internal/ledger"
	"github.com/smartdevs17/passkey-playground/internal/metrics"
	"github.com/smartdevs17/passkey-playground/internal/session"
	"github.com/smartdevs17/passkey-playground/internal/storage"
	"github.com/smartdevs17/passkey-playground/pkg/utils"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Passkey Playground %s\n", AppVersion)
	},
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

// validateConfigCmd validates the configuration
var validateConfigCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		fmt.Printf("Configuration is valid!\n")
		fmt.Printf("Environment: %s\n", cfg.App.Environment)
		fmt.Printf("RPC: %s (%s)\n", cfg.Solana.RPCURL, cfg.Solana.Cluster)
		fmt.Printf("Wallet SDK: %s via %s\n", cfg.Wallet.SDKVersion, cfg.Wallet.BridgeURL)
		fmt.Printf("Storage: %s\n", storageLabel(cfg))
		fmt.Printf("Plans: %d\n", len(cfg.Plans))

		return nil
	},
}

func storageLabel(cfg *config.Config) string {
	if cfg.Storage.Disabled {
		return "disabled"
	}
	return cfg.Storage.Type
}

// openLedgerStore opens the configured store for the offline ledger commands
func openLedgerStore(cfg *config.Config) (*storage.Adapter, func(), error) {
	if cfg.Storage.Disabled {
		return nil, nil, fmt.Errorf("persistence is disabled in the configuration")
	}
	backend, err := openStorage(&cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewAdapter(backend), func() { backend.Close() }, nil
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print or clear the persisted activity log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, closeStore, err := openLedgerStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		logs := ledger.NewLogLedger(store,
			ledger.WithLogCapacity(cfg.Ledger.LogCapacity),
			ledger.WithLogKey(cfg.Ledger.LogKey),
		)

		if clear, _ := cmd.Flags().GetBool("clear"); clear {
			logs.ClearAll()
			fmt.Println("Activity log cleared")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tKIND\tMESSAGE\tDETAILS")
		for _, entry := range logs.Entries() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				entry.Timestamp.Local().Format(time.TimeOnly), entry.Kind, entry.Message, entry.Details)
		}
		return w.Flush()
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print or clear the persisted transaction history",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, closeStore, err := openLedgerStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		history := ledger.NewHistoryLedger(store,
			ledger.WithHistoryCapacity(cfg.Ledger.HistoryCapacity),
			ledger.WithHistoryKey(cfg.Ledger.HistoryKey),
		)

		if clear, _ := cmd.Flags().GetBool("clear"); clear {
			history.Clear()
			fmt.Println("Transaction history cleared")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tTYPE\tSTATUS\tSIGNATURE\tDETAILS")
		for _, record := range history.Records() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				record.Timestamp, record.Kind, record.Status, utils.ShortSignature(record.Signature), record.Details)
		}
		return w.Flush()
	},
}

// airdropCmd funds an address straight from the cluster faucet
var airdropCmd = &cobra.Command{
	Use:   "airdrop <address>",
	Short: "Request a devnet airdrop and wait for confirmation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := initLogger(cfg); err != nil {
			return err
		}

		lamports, _ := cmd.Flags().GetUint64("lamports")
		if lamports == 0 {
			lamports = cfg.Solana.AirdropLamports
		}

		client, err := connection.NewClient(&cfg.Solana, metrics.NewManager())
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Guard.ActionTimeout)
		defer cancel()

		address := args[0]
		fmt.Printf("Requesting %s SOL for %s...\n", session.FormatSOL(lamports), address)
		signature, err := client.RequestAirdrop(ctx, address, lamports)
		if err != nil {
			return err
		}
		if err := client.ConfirmTransaction(ctx, signature, connection.CommitmentConfirmed); err != nil {
			return err
		}

		balance, err := client.GetBalance(ctx, address)
		if err != nil {
			return err
		}
		fmt.Printf("Confirmed %s\nBalance: %s SOL\n", signature, session.FormatSOL(balance))
		return nil
	},
}

func init() {
	logsCmd.Flags().Bool("clear", false, "clear the activity log")
	historyCmd.Flags().Bool("clear", false, "clear the transaction history")
	airdropCmd.Flags().Uint64("lamports", 0, "amount in lamports (defaults to solana.airdrop_lamports)")
}
