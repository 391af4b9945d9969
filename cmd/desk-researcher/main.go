// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the desk-researcher CLI and API server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/desk-researcher/internal/config"
	"github.com/pdiddy/desk-researcher/internal/secrets"
	"github.com/pdiddy/desk-researcher/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Loaded by the root command before any subcommand runs.
var (
	cfg    types.Config
	logger = zap.NewNop()
)

// rootCmd is the base command for the desk-researcher CLI.
var rootCmd = &cobra.Command{
	Use:   "desk-researcher",
	Short: "Automated desk research: arXiv search, RAG synthesis, email delivery",
	Long: `desk-researcher turns a research question into a cited report. It searches
arXiv, indexes the abstracts into a vector store, retrieves the most relevant
passages, asks a hosted language model for a synthesis, and emails the result.

Run the API with "serve", or drive single stages from the command line with
fetch, index, retrieve and research.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./desk-researcher.yaml or ~/.config/desk-researcher/desk-researcher.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory holding API key files")
	rootCmd.PersistentFlags().Bool("debug", false, "human-readable debug logging")
}

func loadConfig(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	secretsDir, _ := cmd.Flags().GetString("secrets-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v := viper.New()
	config.Setup(v, cfgFile)
	used, err := config.ReadFile(v)
	if err != nil {
		return err
	}
	if debug {
		v.Set("debug", true)
	}

	l, err := newLogger(v.GetBool("debug"))
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	logger = l
	if used != "" {
		logger.Debug("using config file", zap.String("path", used))
	}

	s, err := secrets.Load(secretsDir, logger)
	if err != nil {
		return err
	}
	if names := s.Names(); len(names) > 0 {
		logger.Debug("loaded secrets", zap.Strings("names", names))
	}
	cfg = config.FromViper(v, s)
	return nil
}

// newLogger returns a development logger when debug is set and a production
// JSON logger otherwise.
func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, rootCmd, fang.WithVersion(version)); err != nil {
		os.Exit(exitCode(err))
	}
}
