/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/wisdom-rag/config"
	"github.com/tieubaoca/wisdom-rag/logger"
	"go.uber.org/zap"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wisdom-rag",
	Short: "Retrieval-augmented answers grounded on ingested documents",
	Long: `wisdom-rag ingests PDF and scanned documents into a vector index and answers
questions with a summary and actionable steps, citing the best matching page.

Run "wisdom-rag start" for the HTTP API, or use the document and ask commands
directly from the shell.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: defaults and environment only)")
}

// loadApp reads the configuration, builds the logger and wires the pipeline.
// The caller owns the returned app and must Close it.
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize", zap.Error(err))
		_ = log.Sync()
		return nil, err
	}
	a.closers = append([]func(context.Context) error{func(context.Context) error {
		_ = log.Sync()
		return nil
	}}, a.closers...)
	return a, nil
}
