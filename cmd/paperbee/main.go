// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperbee CLI. The post command
// runs the daily digest; search prints what a run would find without
// touching the sheet or the chat channels.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperbee/internal/secrets"
	"github.com/pdiddy/paperbee/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	// runID tags every log line and the run report of this invocation.
	runID string

	logger = slog.Default()
)

// rootCmd is the base command for the paperbee CLI.
var rootCmd = &cobra.Command{
	Use:   "paperbee",
	Short: "Daily literature digest for research groups",
	Long: `paperbee searches PubMed, arXiv and bioRxiv for new papers matching a
query, resolves their DOIs, optionally filters them with an LLM, records
new papers in a Google Sheet (or a local ledger) and posts them to Slack,
Telegram or Zulip.

Credentials are read from the config file, from one-file-per-key secrets
in .secrets/, and from the environment (a .env file is loaded first).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		runID = uuid.NewString()
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})).With("run", runID)
		slog.SetDefault(logger)

		if err := secrets.LoadEnv(".env"); err != nil {
			return err
		}
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", "keys", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paperbee.yaml or ~/.config/paperbee/paperbee.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paperbee")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paperbee"))
		}
	}

	viper.SetEnvPrefix("PAPERBEE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the viper settings and fills missing credentials.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("%w: decoding config: %v", types.ErrConfig, err)
	}
	secrets.Fill(&cfg, loadedSecrets)
	if cfg.Search.RootDir == "" {
		cfg.Search.RootDir = "."
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
