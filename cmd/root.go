package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"

	cfgpkg "github.com/KaramelBytes/statloom-cli/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	cfgFile        string
	debug          bool
	flagWorkers    int
	flagPartitions int

	// Loaded configuration
	cfg *cfgpkg.Global
	// Replaced in PersistentPreRunE.
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "statloom",
	Short: "StatLoom CLI: column statistics, histograms and correlation matrices for tabular datasets",
	Long: `StatLoom loads a CSV/TSV file, an XLSX sheet or a SQLite table, partitions it across a
bounded worker pool and reports per-column order statistics, a category histogram and the
Pearson correlation matrix of the numeric columns.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		if err := loadConfig(cmd); err != nil {
			return err
		}
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if debug {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.statloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "worker pool size (overrides config; 0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().IntVar(&flagPartitions, "partitions", 0, "record set partitions (overrides config; 0 = 2x workers)")
}

func loadConfig(cmd *cobra.Command) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return err
	}
	// Apply CLI overrides if provided
	f := cmd.Flags()
	if f.Changed("workers") {
		if flagWorkers < 0 {
			return fmt.Errorf("--workers must not be negative")
		}
		c.Workers = flagWorkers
	}
	if f.Changed("partitions") {
		if flagPartitions < 0 {
			return fmt.Errorf("--partitions must not be negative")
		}
		c.Partitions = flagPartitions
	}
	cfg = c
	return nil
}
