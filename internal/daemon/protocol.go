// Package daemon provides the long-lived index service for one project and
// the client every CLI invocation uses to reach it. The wire protocol is one
// JSON object per line, newline-terminated, in both directions, over a Unix
// domain socket at <root>/.moss/daemon.sock.
package daemon

import (
	"encoding/json"
	"path/filepath"

	"moss/internal/walker"
)

// Request commands, carried in the "cmd" field.
const (
	CmdPath     = "path"
	CmdSymbols  = "symbols"
	CmdCallers  = "callers"
	CmdCallees  = "callees"
	CmdExpand   = "expand"
	CmdStatus   = "status"
	CmdShutdown = "shutdown"
)

// SocketFileName is the daemon socket inside the data directory.
const SocketFileName = "daemon.sock"

// SocketPath returns the conventional socket path for a project root.
func SocketPath(root string) string {
	return filepath.Join(root, walker.DataDirName, SocketFileName)
}

// Request is one tagged query from a CLI invocation to the daemon.
type Request struct {
	Cmd    string `json:"cmd"`
	Query  string `json:"query,omitempty"`  // path
	File   string `json:"file,omitempty"`   // symbols, callees, expand
	Symbol string `json:"symbol,omitempty"` // callers, callees, expand
}

// Response is one reply. Data is the command-specific payload, present only
// when OK is true.
type Response struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Decode unmarshals the payload into out.
func (r *Response) Decode(out any) error {
	return json.Unmarshal(r.Data, out)
}

// StatusData is the status payload the daemon serves.
type StatusData struct {
	Root          string `json:"root"`
	Files         int    `json:"files"`
	Symbols       int    `json:"symbols"`
	UptimeSecs    int64  `json:"uptime_secs"`
	QueriesServed int64  `json:"queries_served"`
	PID           int    `json:"pid"`
}

// Status is the client-facing view of a running daemon.
type Status struct {
	UptimeSecs     int64 `json:"uptime_secs"`
	FilesIndexed   int   `json:"files_indexed"`
	SymbolsIndexed int   `json:"symbols_indexed"`
	QueriesServed  int64 `json:"queries_served"`
	PID            int   `json:"pid"`
}

// okResponse marshals data into a successful response.
func okResponse(data any) Response {
	if data == nil {
		return Response{OK: true}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return errResponse("encoding response: " + err.Error())
	}
	return Response{OK: true, Data: raw}
}

// errResponse builds a failure response.
func errResponse(msg string) Response {
	return Response{OK: false, Error: msg}
}
