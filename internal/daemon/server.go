package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"

	"moss/internal/extract"
	"moss/internal/index"
)

// Server lifecycle states.
type State int32

const (
	StateStarting State = iota
	StateServing
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateServing:
		return "serving"
	case StateShuttingDown:
		return "shutting-down"
	}
	return "unknown"
}

// Server owns one project's index, its file watcher, and the Unix socket the
// clients talk to. One server per project root.
type Server struct {
	root       string
	socketPath string
	registry   *extract.Registry
	logger     *slog.Logger

	store    *index.Store
	engine   *Engine
	watcher  *index.Watcher
	listener net.Listener

	state    atomic.Int32
	shutdown chan struct{}
	stopOnce atomic.Bool
}

// NewServer configures a server for root. The store is not opened until Run.
func NewServer(root, socketPath string, registry *extract.Registry, logger *slog.Logger) *Server {
	if socketPath == "" {
		socketPath = SocketPath(root)
	}
	return &Server{
		root:       root,
		socketPath: socketPath,
		registry:   registry,
		logger:     logger,
		shutdown:   make(chan struct{}),
	}
}

// State reports the current lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Run opens the store, binds the socket, builds the index, starts the
// watcher, and serves until ctx is cancelled or a shutdown request arrives.
// Any startup failure is fatal: the error is returned and nothing listens.
func (s *Server) Run(ctx context.Context) error {
	s.state.Store(int32(StateStarting))

	store, err := index.Open(s.root, s.registry, s.logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	s.store = store
	defer store.Close()
	s.engine = NewEngine(store)

	// A socket file left by a dead daemon must not block startup.
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0o755); err != nil {
		return fmt.Errorf("creating socket directory: %w", err)
	}
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket: %w", err)
	}
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("binding socket %s: %w", s.socketPath, err)
	}
	s.listener = listener
	defer os.Remove(s.socketPath)

	s.logger.Info("building index", "root", s.root)
	files, err := store.FullReindex(ctx)
	if err != nil {
		listener.Close()
		return fmt.Errorf("initial index: %w", err)
	}
	s.logger.Info("index ready", "files", files)

	watcher, err := index.NewWatcher(store, s.logger)
	if err != nil {
		listener.Close()
		return fmt.Errorf("starting watcher: %w", err)
	}
	s.watcher = watcher
	watcher.Start()
	defer watcher.Close()

	s.state.Store(int32(StateServing))
	s.logger.Info("daemon serving", "socket", s.socketPath, "pid", os.Getpid())

	go func() {
		select {
		case <-ctx.Done():
			s.Stop()
		case <-s.shutdown:
		}
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.State() == StateShuttingDown {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handleConn(conn)
	}
}

// Stop transitions to ShuttingDown and unblocks Run. Safe to call more than
// once.
func (s *Server) Stop() {
	if !s.stopOnce.CompareAndSwap(false, true) {
		return
	}
	s.state.Store(int32(StateShuttingDown))
	close(s.shutdown)
	if s.listener != nil {
		s.listener.Close()
	}
}

// handleConn serves one client connection: one JSON request per line, one
// JSON response per line. A malformed line gets an error response and the
// connection stays open for the next request.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(conn, errResponse("invalid request: "+err.Error()))
			continue
		}
		if req.Cmd == CmdShutdown {
			s.logger.Info("shutdown requested")
			s.writeResponse(conn, okResponse(map[string]string{"status": "shutting down"}))
			s.Stop()
			return
		}
		s.writeResponse(conn, s.engine.Handle(req))
	}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	raw, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("encoding response", "error", err)
		return
	}
	raw = append(raw, '\n')
	if _, err := conn.Write(raw); err != nil {
		s.logger.Debug("writing response", "error", err)
	}
}
