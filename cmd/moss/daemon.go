package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"moss/internal/daemon"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the project's index daemon",
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon if it is not already running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newDaemonClient()
		if err != nil {
			return err
		}
		if !client.EnsureRunning() {
			return errors.New("daemon failed to start")
		}
		status, err := client.Status()
		if err != nil {
			return fmt.Errorf("daemon started but is not answering: %w", err)
		}
		return outputJSON(status)
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newDaemonClient()
		if err != nil {
			return err
		}
		if !client.IsAvailable() {
			return errors.New("daemon is not running")
		}
		if err := client.Shutdown(); err != nil {
			return fmt.Errorf("stopping daemon: %w", err)
		}
		fmt.Println(`{"status": "stopped"}`)
		return nil
	},
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status without starting one",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newDaemonClient()
		if err != nil {
			return err
		}
		if !client.IsAvailable() {
			return errors.New("daemon is not running")
		}
		status, err := client.Status()
		if err != nil {
			return fmt.Errorf("daemon is not responding: %w", err)
		}
		return outputJSON(status)
	},
}

func newDaemonClient() (*daemon.Client, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, err
	}
	return daemon.NewClient(root, loadConfig(), logger), nil
}
