package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"moss/internal/extract"
	"moss/internal/index"
	"moss/internal/walker"
)

var flagForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or refresh the project index",
	Long:  "Refreshes the on-disk index against the current tree. With --force the database is deleted and rebuilt from scratch. A running daemon keeps its index current on its own; this command is for the no-daemon workflow.",
	Args:  cobra.NoArgs,
	RunE:  runIndexCmd,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete the index and rebuild from scratch")
}

func runIndexCmd(cmd *cobra.Command, args []string) error {
	start := time.Now()
	root, err := resolveRoot()
	if err != nil {
		return err
	}

	if flagForce {
		dbPath := filepath.Join(root, walker.DataDirName, index.DBFileName)
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing index: %w", err)
		}
	}

	store, err := index.Open(root, extract.DefaultRegistry(), logger)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer store.Close()

	var files int
	if flagForce {
		files, err = store.FullReindex(context.Background())
	} else {
		files, err = store.RefreshStale(context.Background())
	}
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	symbols, err := store.SymbolCount()
	if err != nil {
		return fmt.Errorf("reading index: %w", err)
	}
	total, err := store.FileCount()
	if err != nil {
		return fmt.Errorf("reading index: %w", err)
	}

	return outputJSON(map[string]any{
		"indexed_files": files,
		"total_files":   total,
		"symbols":       symbols,
		"duration_ms":   time.Since(start).Milliseconds(),
	})
}
