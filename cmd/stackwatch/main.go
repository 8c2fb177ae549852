package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"stackwatch/internal/app"
	"stackwatch/internal/chainhook"
	"stackwatch/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "stackwatch",
		Short:        "Stacks contract activity monitor",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the webhook ingest and dashboard API service",
		RunE:  runService,
	}
	addServiceFlags(runCmd)
	runCmd.Flags().Int("port", config.DefaultPort, "listening port")
	runCmd.Flags().Int("capacity", config.DefaultCapacity, "event retention capacity")
	runCmd.Flags().String("archive-path", "", "JSONL path for unmatched payloads (empty disables)")
	root.AddCommand(runCmd)

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Register the contract-call predicate and exit",
		RunE:  runRegister,
	}
	addServiceFlags(registerCmd)
	root.AddCommand(registerCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addServiceFlags(cmd *cobra.Command) {
	cmd.Flags().String("api-key", "", "notification provider API key")
	cmd.Flags().String("contract", "", "monitored contract identifier")
	cmd.Flags().String("base-url", "", "publicly reachable base URL for webhook delivery")
	cmd.Flags().String("chainhook-url", config.DefaultChainhookURL, "predicate registration endpoint")
	cmd.Flags().String("network", config.DefaultNetwork, "stacks network for the predicate")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func runService(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("stackwatch start",
		zap.String("contract", cfg.Contract),
		zap.String("network", cfg.Network),
		zap.Int("port", cfg.Port),
		zap.Int("capacity", cfg.Capacity),
		zap.String("webhook_url", cfg.WebhookURL()),
		zap.String("archive_path", cfg.ArchivePath),
	)

	return app.New(cfg, logger).Run(ctx)
}

func runRegister(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := chainhook.NewClient(cfg.ChainhookURL, cfg.APIKey, logger)
	pred := chainhook.NewContractCallPredicate(cfg.Contract, cfg.Network, cfg.WebhookURL(), cfg.APIKey)

	if err := client.Register(ctx, pred); err != nil {
		return err
	}

	logger.Info("registration complete", zap.String("uuid", pred.UUID))
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
