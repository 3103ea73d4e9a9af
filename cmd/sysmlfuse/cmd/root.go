// Package cmd holds the sysmlfuse command tree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/OFFIS-RIT/sysmlfuse/internal/config"
	"github.com/OFFIS-RIT/sysmlfuse/internal/storage"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger"
	"github.com/OFFIS-RIT/sysmlfuse/pkg/logger/console"
)

var (
	cfgFile   string
	debug     bool
	jsonLogs  bool
	cfg       *config.Config
	artifacts *storage.Artifacts
)

var rootCmd = &cobra.Command{
	Use:   "sysmlfuse",
	Short: "Fuse extracted SysML fragments into one repaired model and export XMI",
	Long: `sysmlfuse merges independently extracted SysML element batches into a
single canonical model, repairs dangling references and writes the result
as flat JSON and as UML/SysML XMI.

Artifact locations may be plain paths, file:// URLs or s3://bucket/key URLs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
			Debug: debug || cfg.Debug,
			JSON:  jsonLogs,
		}))
		artifacts = storage.New()
		return nil
	},
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "write logs as JSON lines")
}
