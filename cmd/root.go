package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/go-xg-metrics/internal/config"
	"github.com/pable/go-xg-metrics/internal/logger"
	"github.com/pable/go-xg-metrics/internal/storage"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "xgmetrics",
	Short: "NHL expected-goals calibration tool",
	Long: "Score NHL play-by-play shot attempts with the v1-v3 logistic xG models and\n" +
		"check how well predicted goals match actual goals, per season and overall.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default ./.xgmetrics.yaml or ~/.xgmetrics.yaml)")
	pf.String("db", "", "path to SQLite database (default ~/.xgmetrics/runs.db)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Bool("log-json", false, "log as JSON")
	pf.String("data-dir", "", "read season tables from this directory instead of downloading")
	pf.String("base-url", "", "dataset base URL")
	pf.Int("retries", 0, "download retries per season")
	pf.Int("workers", 0, "seasons processed concurrently")
	pf.String("metrics", "", "write Prometheus metrics to this textfile")

	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(binsCmd)
	rootCmd.AddCommand(deepCmd)
	rootCmd.AddCommand(coefficientsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	cfg = c
	log = logger.New(cfg.Log.Level, cfg.Log.Format)
	log.WithField("db", cfg.DB).Debug("config loaded")
	return nil
}

// openDB opens the run store, creating its directory on first use.
func openDB() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DB), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}
