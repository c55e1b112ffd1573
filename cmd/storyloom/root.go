package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/storyloom/internal/cli"
	"github.com/aretw0/storyloom/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "storyloom",
	Short: "storyloom turns requirements into Agile user stories",
	Long: `storyloom generates user stories with acceptance criteria, edge cases and assumptions
from a requirement, then refines them through a clarification dialogue with a language model.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Config file (default ./storyloom.yaml or the user config dir)")
	rootCmd.PersistentFlags().String("log-level", "", "Override log.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("provider", "", "Override llm.provider (openai, groq, anthropic, gemini, scripted)")
	rootCmd.PersistentFlags().String("store", "", "Override store.backend (memory, file, redis)")
}

// loadConfig reads the config file and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if store, _ := cmd.Flags().GetString("store"); store != "" {
		cfg.Store.Backend = store
	}
	if provider, _ := cmd.Flags().GetString("provider"); provider != "" && !strings.EqualFold(provider, cfg.LLM.Provider) {
		// Model and key belonged to the configured provider.
		cfg.LLM.Provider = provider
		cfg.LLM.Model = ""
		cfg.LLM.APIKey = config.ProviderKey(provider)
	}
	return cfg, nil
}

// openApp builds the service. Commands that span several invocations pass persistent,
// which moves the default in-memory store to the file store.
func openApp(cmd *cobra.Command, persistent bool) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if persistent && strings.EqualFold(cfg.Store.Backend, "memory") {
		cfg.Store.Backend = "file"
	}
	return cli.NewApp(cmd.Context(), cfg)
}
