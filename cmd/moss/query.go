package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"moss/internal/daemon"
	"moss/internal/extract"
	"moss/internal/fuzzy"
	"moss/internal/index"
	"moss/internal/walker"
)

var pathCmd = &cobra.Command{
	Use:   "path <query>",
	Short: "Resolve a loose file reference to project paths",
	Long:  "Resolves a query like \"dwim\", \"prior_art\", or \"daemon client\" to matching project paths. Exact paths win, then filename matches, then fuzzy matches. A \"file:symbol\" query matches on the file part.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(daemon.Request{Cmd: daemon.CmdPath, Query: args[0]})
	},
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file>",
	Short: "List the symbols defined in a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(daemon.Request{Cmd: daemon.CmdSymbols, File: args[0]})
	},
}

var callersCmd = &cobra.Command{
	Use:   "callers <symbol>",
	Short: "Find call sites of a symbol across the project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(daemon.Request{Cmd: daemon.CmdCallers, Symbol: args[0]})
	},
}

var calleesCmd = &cobra.Command{
	Use:   "callees <file> <symbol>",
	Short: "List what a symbol calls",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(daemon.Request{Cmd: daemon.CmdCallees, File: args[0], Symbol: args[1]})
	},
}

var flagExpandFile string

var expandCmd = &cobra.Command{
	Use:   "expand <symbol>",
	Short: "Print a symbol's current source",
	Long:  "Prints the source of a symbol, read live from disk, so the output reflects unindexed edits. Use --file to disambiguate symbols defined in more than one file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(daemon.Request{Cmd: daemon.CmdExpand, Symbol: args[0], File: flagExpandFile})
	},
}

func init() {
	expandCmd.Flags().StringVar(&flagExpandFile, "file", "", "restrict the symbol search to one file")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon and index status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(daemon.Request{Cmd: daemon.CmdStatus})
	},
}

// runQuery sends one request through the access chain: a responsive daemon
// first (starting one if needed), then the on-disk index directly, and for
// path queries a bare filesystem walk when no index can be opened at all.
func runQuery(req daemon.Request) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}
	cfg := loadConfig()

	if !cfg.NoDaemon {
		client := daemon.NewClient(root, cfg, logger)
		if client.EnsureRunning() {
			resp, err := client.Query(req)
			if err == nil {
				return outputResponse(resp)
			}
			logger.Debug("daemon query failed, falling back to direct access", "error", err)
		}
	}
	return runDirect(root, req)
}

// runDirect answers the request in-process. The index is refreshed against
// the current tree first, since no daemon has been keeping it warm.
func runDirect(root string, req daemon.Request) error {
	store, err := index.Open(root, extract.DefaultRegistry(), logger)
	if err != nil {
		if req.Cmd == daemon.CmdPath {
			return runBarePath(root, req.Query)
		}
		return fmt.Errorf("opening index: %w", err)
	}
	defer store.Close()

	if _, err := store.RefreshStale(context.Background()); err != nil {
		return fmt.Errorf("refreshing index: %w", err)
	}

	resp := daemon.NewEngine(store).Handle(req)
	return outputResponse(&resp)
}

// runBarePath resolves a path query straight off the filesystem. Slower and
// stateless, but it works with no index at all.
func runBarePath(root, query string) error {
	w := walker.New(root)
	var candidates []fuzzy.Candidate
	err := w.Walk(func(e walker.Entry) error {
		candidates = append(candidates, fuzzy.Candidate{Path: e.RelPath, IsDir: e.IsDir})
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}
	fileQuery, _ := fuzzy.SplitSymbolQuery(query)
	return outputJSON(fuzzy.Resolve(fileQuery, candidates))
}

// outputResponse prints a response payload as indented JSON on stdout, or
// surfaces its error.
func outputResponse(resp *daemon.Response) error {
	if !resp.OK {
		return errors.New(resp.Error)
	}
	if resp.Data == nil {
		fmt.Println("null")
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, resp.Data, "", "  "); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	fmt.Println(buf.String())
	return nil
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
