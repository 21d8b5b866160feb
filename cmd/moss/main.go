// moss is a code-intelligence CLI backed by a per-project index daemon.
// Queries go to the daemon when one is running (starting it on demand);
// otherwise they fall back to opening the index directly.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"moss/internal/config"
	"moss/internal/logging"
)

var (
	flagRoot     string
	flagNoDaemon bool
)

var logger *slog.Logger

func main() {
	logger = logging.Default("moss")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "moss",
	Short:         "Code intelligence for a project tree",
	Long:          "Moss indexes a project with tree-sitter and answers structural queries (paths, symbols, call graphs) from a background daemon or directly from the on-disk index.",
	SilenceErrors: true,
	SilenceUsage:  true,
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "project root (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&flagNoDaemon, "no-daemon", false, "never use the daemon; query the index directly")

	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(callersCmd)
	rootCmd.AddCommand(calleesCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(daemonCmd)
}

// resolveRoot picks the project root from the flag or the working directory,
// as an absolute path.
func resolveRoot() (string, error) {
	root := flagRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determining working directory: %w", err)
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project root %s is not a directory", abs)
	}
	return abs, nil
}

// loadConfig merges environment configuration with command-line flags.
func loadConfig() config.Config {
	cfg := config.LoadFromEnv()
	if flagNoDaemon {
		cfg.NoDaemon = true
	}
	return cfg
}
