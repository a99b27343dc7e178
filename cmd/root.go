package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/milldesk/milldesk/internal/audit"
	"github.com/milldesk/milldesk/internal/config"
	"github.com/milldesk/milldesk/internal/logging"
	"github.com/milldesk/milldesk/internal/pipeline"
	"github.com/milldesk/milldesk/internal/synth"
	"github.com/milldesk/milldesk/internal/tui"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "milldesk",
	Short: "Milldesk: ask attendance questions in plain language",
	Long: `Milldesk answers natural-language questions about factory attendance
records by generating and safely executing read-only SQL against the
configured mill databases.

Running without a subcommand launches the interactive chat.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfigAndLogger()
		if err != nil {
			return err
		}

		runner, auditLog, err := buildRunner(cfg, logger)
		if err != nil {
			return err
		}
		defer auditLog.Close()

		return tui.Run(runner, cfg.StoreNames())
	},
}

func Execute() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.milldesk/milldesk.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// loadConfigAndLogger loads the config file and sets up the logger from it.
// An empty --config falls through to Load's default path handling.
func loadConfigAndLogger() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	level := logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.Setup(level, cfg.Logging.Directory)
	if err != nil {
		return nil, nil, fmt.Errorf("setting up logging: %w", err)
	}

	return cfg, logger, nil
}

// buildAuditLogger assembles the audit sinks from config: always the daily
// JSONL file, plus MongoDB when a URI is configured. The extra sinks let
// callers tee entries elsewhere, such as the WebSocket feed.
func buildAuditLogger(cfg *config.Config, logger *slog.Logger, extra ...audit.Sink) (*audit.Logger, error) {
	dir := cfg.Audit.Directory
	if dir == "" {
		dir = "~/.milldesk/audit/"
	}
	fileSink, err := audit.NewFileSink(config.ExpandHome(dir))
	if err != nil {
		return nil, fmt.Errorf("creating audit file sink: %w", err)
	}

	sinks := append([]audit.Sink{fileSink}, extra...)

	if cfg.Audit.MongoURI != "" {
		db := cfg.Audit.MongoDatabase
		if db == "" {
			db = "milldesk"
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoSink, err := audit.NewMongoSink(ctx, cfg.Audit.MongoURI, db)
		cancel()
		if err != nil {
			// Auditing must not keep the tool from starting; log and
			// carry on with the remaining sinks.
			logger.Warn("mongo audit sink unavailable", "error", err)
		} else {
			sinks = append(sinks, mongoSink)
		}
	}

	return audit.New(logger, sinks...), nil
}

// buildRunner wires the full pipeline: synthesizer, guard, audit, stores.
func buildRunner(cfg *config.Config, logger *slog.Logger, extraSinks ...audit.Sink) (*pipeline.Runner, *audit.Logger, error) {
	auditLog, err := buildAuditLogger(cfg, logger, extraSinks...)
	if err != nil {
		return nil, nil, err
	}

	synthesizer := synth.NewAnthropicSynthesizer(cfg.LLM, logger)
	runner := pipeline.New(cfg, synthesizer, auditLog, logger)
	return runner, auditLog, nil
}
