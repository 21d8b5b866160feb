package daemon

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"moss/internal/config"
)

// DaemonBinary is the name of the daemon executable the client spawns.
const DaemonBinary = "mossd"

// Client talks to the project daemon over its Unix socket. Every Query opens
// a fresh connection, so a crashed daemon costs one failed call, never a
// wedged client.
type Client struct {
	root       string
	socketPath string
	cfg        config.Config
	logger     *slog.Logger

	// spawn is replaced in tests to avoid launching a real process.
	spawn func() error
}

// NewClient builds a client for root. cfg.SocketPath overrides the
// conventional socket location.
func NewClient(root string, cfg config.Config, logger *slog.Logger) *Client {
	sock := cfg.SocketPath
	if sock == "" {
		sock = SocketPath(root)
	}
	c := &Client{root: root, socketPath: sock, cfg: cfg, logger: logger}
	c.spawn = c.spawnDaemon
	return c
}

// IsAvailable reports whether a daemon socket exists. The socket may be
// stale; EnsureRunning is what proves liveness.
func (c *Client) IsAvailable() bool {
	_, err := os.Stat(c.socketPath)
	return err == nil
}

// EnsureRunning returns true once a responsive daemon is behind the socket,
// starting one if needed. A socket that exists but does not answer a status
// probe is removed as stale before respawning.
func (c *Client) EnsureRunning() bool {
	if c.IsAvailable() {
		if _, err := c.Status(); err == nil {
			return true
		}
		c.logger.Debug("removing stale socket", "path", c.socketPath)
		os.Remove(c.socketPath)
	}
	if err := c.StartDaemon(); err != nil {
		c.logger.Debug("daemon start failed", "error", err)
		return false
	}
	_, err := c.Status()
	return err == nil
}

// StartDaemon spawns the daemon detached and waits for its socket to appear.
func (c *Client) StartDaemon() error {
	if err := c.spawn(); err != nil {
		return fmt.Errorf("spawning daemon: %w", err)
	}
	start := time.Now()
	for {
		exists := c.IsAvailable()
		switch nextPollAction(time.Since(start), startTimeout, exists) {
		case pollSettle:
			time.Sleep(settleDelay)
			return nil
		case pollGiveUp:
			return fmt.Errorf("daemon did not bind %s within %s", c.socketPath, startTimeout)
		case pollWait:
			time.Sleep(pollInterval)
		}
	}
}

// spawnDaemon launches "mossd <root> --socket <path>" as a detached
// background process with no inherited stdio.
func (c *Client) spawnDaemon() error {
	bin, err := findDaemonBinary()
	if err != nil {
		return err
	}
	cmd := exec.Command(bin, c.root, "--socket", c.socketPath)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap the child when it exits so it never lingers as a zombie.
	go cmd.Wait()
	return nil
}

// findDaemonBinary prefers a daemon sitting next to the current executable,
// then falls back to PATH.
func findDaemonBinary() (string, error) {
	if self, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), DaemonBinary)
		if _, err := os.Stat(sibling); err == nil {
			return sibling, nil
		}
	}
	bin, err := exec.LookPath(DaemonBinary)
	if err != nil {
		return "", fmt.Errorf("locating %s: %w", DaemonBinary, err)
	}
	return bin, nil
}

// Query sends one request over a fresh connection and reads one response.
// Connect, write, and read deadlines come from the client config, so a hung
// daemon cannot hang the caller.
func (c *Client) Query(req Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.cfg.ConnectTimeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to daemon: %w", err)
	}
	defer conn.Close()

	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	raw = append(raw, '\n')
	if err := conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return nil, err
	}
	if _, err := conn.Write(raw); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
		return nil, err
	}
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, nil
}

// Status probes the daemon and returns its current state.
func (c *Client) Status() (*Status, error) {
	resp, err := c.Query(Request{Cmd: CmdStatus})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("status: %s", resp.Error)
	}
	var data StatusData
	if err := resp.Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding status: %w", err)
	}
	return &Status{
		UptimeSecs:     data.UptimeSecs,
		FilesIndexed:   data.Files,
		SymbolsIndexed: data.Symbols,
		QueriesServed:  data.QueriesServed,
		PID:            data.PID,
	}, nil
}

// Shutdown asks the daemon to exit. The daemon replies before terminating.
func (c *Client) Shutdown() error {
	resp, err := c.Query(Request{Cmd: CmdShutdown})
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("shutdown: %s", resp.Error)
	}
	return nil
}
