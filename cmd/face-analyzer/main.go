package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	faceanalyzer "github.com/menta2k/face-analyzer"
	"github.com/menta2k/face-analyzer/internal/config"
	"github.com/menta2k/face-analyzer/internal/logger"
)

var (
	// cfg is the effective configuration shared by subcommands
	cfg *config.Config
	// log is the process logger
	log *slog.Logger

	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "face-analyzer",
	Short:         "Detect faces and report emotion, gender, age, hair, eye and clothing colors",
	Version:       faceanalyzer.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}

		log = logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
		slog.SetDefault(log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.GetConfigPath(), "path to the JSON configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
