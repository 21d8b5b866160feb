package daemon

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"moss/internal/fuzzy"
	"moss/internal/index"
)

// Engine executes protocol requests against an open store. The daemon serves
// it over the socket; the CLI's no-daemon fallback runs it in process, so
// both paths answer queries identically.
type Engine struct {
	store   *index.Store
	started time.Time
	queries atomic.Int64
}

// NewEngine wraps an open store.
func NewEngine(store *index.Store) *Engine {
	return &Engine{store: store, started: time.Now()}
}

// Handle dispatches one request and never panics the connection loop: every
// failure comes back as an in-band error response.
func (e *Engine) Handle(req Request) Response {
	e.queries.Add(1)
	switch req.Cmd {
	case CmdPath:
		if req.Query == "" {
			return errResponse("path: query is required")
		}
		matches, err := e.store.ResolvePath(req.Query)
		if err != nil {
			return errResponse(err.Error())
		}
		return okResponse(matches)
	case CmdSymbols:
		if req.File == "" {
			return errResponse("symbols: file is required")
		}
		syms, err := e.store.Symbols(req.File)
		if errors.Is(err, index.ErrNotFound) {
			// The file argument accepts the same loose forms as a path
			// query; retry with the best confident match.
			if resolved, ok := e.resolveFileLoose(req.File); ok {
				syms, err = e.store.Symbols(resolved)
			}
		}
		if err != nil {
			if errors.Is(err, index.ErrNotFound) {
				return errResponse(fmt.Sprintf("symbols: %s is not indexed", req.File))
			}
			return errResponse(err.Error())
		}
		return okResponse(syms)
	case CmdCallers:
		if req.Symbol == "" {
			return errResponse("callers: symbol is required")
		}
		callers, err := e.store.FindCallers(req.Symbol)
		if err != nil {
			return errResponse(err.Error())
		}
		return okResponse(callers)
	case CmdCallees:
		if req.Symbol == "" || req.File == "" {
			return errResponse("callees: symbol and file are required")
		}
		callees, err := e.store.FindCallees(req.Symbol, req.File)
		if err != nil {
			return errResponse(err.Error())
		}
		return okResponse(callees)
	case CmdExpand:
		if req.Symbol == "" {
			return errResponse("expand: symbol is required")
		}
		exp, err := e.store.ExpandSymbol(req.Symbol, req.File)
		if err != nil {
			if errors.Is(err, index.ErrNotFound) {
				return errResponse(fmt.Sprintf("expand: symbol %q not found", req.Symbol))
			}
			return errResponse(err.Error())
		}
		return okResponse(exp)
	case CmdStatus:
		return okResponse(e.Status())
	default:
		return errResponse(fmt.Sprintf("unknown command %q", req.Cmd))
	}
}

// resolveFileLoose maps a loose file reference to an indexed file path when
// there is a confident match (exact path or filename tier, not a fuzzy
// guess).
func (e *Engine) resolveFileLoose(file string) (string, bool) {
	matches, err := e.store.ResolvePath(file)
	if err != nil {
		return "", false
	}
	for _, m := range matches {
		if m.Kind == "file" && m.Score >= fuzzy.MaxScore-1 {
			return m.Path, true
		}
	}
	return "", false
}

// Status reports current index counts and engine uptime.
func (e *Engine) Status() StatusData {
	files, err := e.store.FileCount()
	if err != nil {
		files = -1
	}
	syms, err := e.store.SymbolCount()
	if err != nil {
		syms = -1
	}
	return StatusData{
		Root:          e.store.Root(),
		Files:         files,
		Symbols:       syms,
		UptimeSecs:    int64(time.Since(e.started).Seconds()),
		QueriesServed: e.queries.Load(),
		PID:           os.Getpid(),
	}
}
