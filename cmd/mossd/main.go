// mossd is the per-project index daemon. The moss CLI spawns it on demand as
// "mossd <root> --socket <path>"; it builds the index, watches the tree for
// changes, and answers queries over the Unix socket until it is told to shut
// down.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"moss/internal/daemon"
	"moss/internal/extract"
	"moss/internal/logging"
)

func main() {
	logger := logging.Default("mossd")

	args := os.Args[1:]
	if len(args) < 1 || args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		printUsage()
		os.Exit(1)
	}
	root := args[0]

	fs := flag.NewFlagSet("mossd", flag.ExitOnError)
	socket := fs.String("socket", "", "Socket path (default <root>/.moss/daemon.sock)")
	fs.Parse(args[1:])

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		logger.Error("root is not a directory", "root", root)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := daemon.NewServer(root, *socket, extract.DefaultRegistry(), logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("mossd - moss index daemon")
	fmt.Println()
	fmt.Println("Usage: mossd <root> [--socket <path>]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --socket   Socket path (default <root>/.moss/daemon.sock)")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  MOSS_LOG_LEVEL   Log level (debug, info, warn, error) [default: info]")
	fmt.Println("  MOSS_LOG_FORMAT  Output format (text, json) [default: text]")
}
