// Package index holds the per-project code index: the table of files,
// symbols, and call edges, the extraction pipeline that populates it, and
// the file watcher that keeps it fresh.
//
// The store is guarded by one store-wide mutex. Every read and every write
// takes it for the duration of a single operation, so a query observes, for
// any one file, either the complete pre-update or complete post-update
// symbol set and never a torn one. This trades read throughput under a
// concurrent rebuild for simplicity; rebuilds are rare next to queries.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"moss/internal/extract"
	"moss/internal/fuzzy"
	"moss/internal/walker"
)

// ErrStoreUnavailable means the backing index location could not be created
// or opened.
var ErrStoreUnavailable = errors.New("index store unavailable")

// ErrNotFound means a queried file or symbol is not in the index.
var ErrNotFound = errors.New("not found")

// DBFileName is the index database file inside the data directory.
const DBFileName = "index.db"

// Store is the persisted table of files, symbols, and call edges for one
// project. All access is serialized through the store mutex.
type Store struct {
	mu      sync.Mutex
	db      *sql.DB
	root    string
	indexer *Indexer
	logger  *slog.Logger
}

// FileRecord describes one indexed path.
type FileRecord struct {
	Path   string `json:"path"`
	IsDir  bool   `json:"is_dir"`
	MTime  int64  `json:"mtime"`
	Size   int64  `json:"size"`
	Status string `json:"status"`
}

// Caller is one call edge pointing at a queried symbol.
type Caller struct {
	Path   string `json:"path"`
	Caller string `json:"caller"`
	Line   int    `json:"line"`
}

// Callee is one outgoing call from a queried symbol. Path is the file
// defining the callee when the index can resolve it, "" otherwise.
type Callee struct {
	Callee string `json:"callee"`
	Path   string `json:"path,omitempty"`
	Line   int    `json:"line"`
}

// Expanded is the live source text of one symbol.
type Expanded struct {
	File      string `json:"file"`
	Symbol    string `json:"symbol"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Source    string `json:"source"`
}

// Metadata summarizes the index for status queries.
type Metadata struct {
	SchemaVersion   int   `json:"schema_version"`
	LastFullReindex int64 `json:"last_full_reindex"` // unix seconds, 0 if never
	Files           int   `json:"files"`
	Symbols         int   `json:"symbols"`
}

// Open attaches to (or creates) the index for the project at root. It fails
// with ErrStoreUnavailable only when the backing location cannot be created
// or opened.
func Open(root string, registry *extract.Registry, logger *slog.Logger) (*Store, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving root: %v", ErrStoreUnavailable, err)
	}

	dbPath := filepath.Join(absRoot, walker.DataDirName, DBFileName)
	db, err := openDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		db:      db,
		root:    absRoot,
		indexer: NewIndexer(absRoot, registry),
		logger:  logger,
	}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Root returns the absolute project root this store indexes.
func (s *Store) Root() string {
	return s.root
}

// FullReindex walks the whole tree and replaces all index content. The
// replacement happens in one transaction, so a crash mid-rebuild leaves the
// previous snapshot in place. Returns the number of files indexed.
func (s *Store) FullReindex(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning reindex transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"files", "symbols", "call_edges", "imports"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return 0, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	count := 0
	w := walker.New(s.root)
	err = w.Walk(func(e walker.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir {
			_, err := tx.Exec(
				"INSERT OR REPLACE INTO files (path, is_dir, indexed_at) VALUES (?, 1, ?)",
				e.RelPath, time.Now().Unix())
			return err
		}
		if err := s.indexFileTx(tx, e.RelPath, e.ModTime.Unix(), e.Size); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walking %s: %w", s.root, err)
	}

	if err := setMeta(tx, "last_full_reindex", strconv.FormatInt(time.Now().Unix(), 10)); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing reindex: %w", err)
	}

	s.logger.Info("full reindex complete", "files", count, "duration", time.Since(start))
	return count, nil
}

// IndexFile re-extracts one file and replaces its symbol and call-edge
// subtree. Unparseable or binary files are recorded with an error/skip
// status and their stale symbols cleared; they never fail the call.
func (s *Store) IndexFile(ctx context.Context, rel string) error {
	rel = filepath.ToSlash(rel)

	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		// Raced with a delete; drop whatever we had.
		return s.removeLocked(rel)
	}
	if info.IsDir() {
		_, err := s.db.Exec(
			"INSERT OR REPLACE INTO files (path, is_dir, indexed_at) VALUES (?, 1, ?)",
			rel, time.Now().Unix())
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.indexFileTx(tx, rel, info.ModTime().Unix(), info.Size()); err != nil {
		return err
	}
	return tx.Commit()
}

// indexFileTx replaces a single file's records inside tx. This is the
// atomic unit of update.
func (s *Store) indexFileTx(tx *sql.Tx, rel string, mtime, size int64) error {
	for _, table := range []string{"symbols", "call_edges", "imports"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE path = ?", rel); err != nil {
			return fmt.Errorf("clearing %s for %s: %w", table, rel, err)
		}
	}

	status, result, err := s.indexer.ExtractFile(rel)
	if err != nil {
		s.logger.Debug("extraction failed", "path", rel, "error", err)
	}

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO files (path, is_dir, mtime, size, status, indexed_at)
		 VALUES (?, 0, ?, ?, ?, ?)`,
		rel, mtime, size, status, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("recording file %s: %w", rel, err)
	}

	if result == nil {
		return nil
	}

	if err := insertSymbols(tx, rel, result.Symbols, nil); err != nil {
		return err
	}
	for _, c := range result.Calls {
		if _, err := tx.Exec(
			"INSERT INTO call_edges (path, caller, callee, line) VALUES (?, ?, ?, ?)",
			rel, c.Caller, c.Callee, c.Line); err != nil {
			return fmt.Errorf("inserting call edge for %s: %w", rel, err)
		}
	}
	for _, imp := range result.Imports {
		if _, err := tx.Exec(
			"INSERT INTO imports (path, source, line) VALUES (?, ?, ?)",
			rel, imp.Source, imp.Line); err != nil {
			return fmt.Errorf("inserting import for %s: %w", rel, err)
		}
	}
	return nil
}

// insertSymbols writes a symbol subtree depth-first, preserving child order.
func insertSymbols(tx *sql.Tx, rel string, symbols []extract.Symbol, parentID *int64) error {
	for i, sym := range symbols {
		res, err := tx.Exec(
			`INSERT INTO symbols (path, parent_id, name, kind, signature, doc, start_line, end_line, visibility, ordinal)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rel, parentID, sym.Name, sym.Kind, sym.Signature, sym.Doc,
			sym.StartLine, sym.EndLine, sym.Visibility, i)
		if err != nil {
			return fmt.Errorf("inserting symbol %s: %w", sym.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("symbol id for %s: %w", sym.Name, err)
		}
		if err := insertSymbols(tx, rel, sym.Children, &id); err != nil {
			return err
		}
	}
	return nil
}

// setMeta upserts one metadata key inside tx.
func setMeta(tx *sql.Tx, key, value string) error {
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("setting metadata %s: %w", key, err)
	}
	return nil
}

// RemoveFile deletes a path's records: its file row, symbol subtree, and
// call edges. Removing a directory removes everything under it.
func (s *Store) RemoveFile(rel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(filepath.ToSlash(rel))
}

func (s *Store) removeLocked(rel string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Plain prefix comparison rather than LIKE, so '%' and '_' in a path
	// are matched literally.
	prefix := rel + "/"
	for _, table := range []string{"files", "symbols", "call_edges", "imports"} {
		if _, err := tx.Exec(
			"DELETE FROM "+table+" WHERE path = ? OR substr(path, 1, length(?)) = ?",
			rel, prefix, prefix); err != nil {
			return fmt.Errorf("removing %s rows for %s: %w", table, rel, err)
		}
	}
	return tx.Commit()
}

// FileCount returns the number of indexed files (directories excluded).
func (s *Store) FileCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM files WHERE is_dir = 0").Scan(&n)
	return n, err
}

// SymbolCount returns the total number of indexed symbols.
func (s *Store) SymbolCount() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM symbols").Scan(&n)
	return n, err
}

// Metadata returns the status summary for the index.
func (s *Store) Metadata() (Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := Metadata{SchemaVersion: schemaVersion}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM files WHERE is_dir = 0").Scan(&meta.Files); err != nil {
		return meta, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM symbols").Scan(&meta.Symbols); err != nil {
		return meta, err
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = 'last_full_reindex'").Scan(&value)
	if err == nil {
		meta.LastFullReindex, _ = strconv.ParseInt(value, 10, 64)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return meta, err
	}
	return meta, nil
}

// ResolvePath resolves a loose path query against the known path set. A
// "file:symbol" query is split and only the file segment is resolved here.
func (s *Store) ResolvePath(query string) ([]fuzzy.Match, error) {
	file, _ := fuzzy.SplitSymbolQuery(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT path, is_dir FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("querying paths: %w", err)
	}
	defer rows.Close()

	var candidates []fuzzy.Candidate
	for rows.Next() {
		var c fuzzy.Candidate
		var isDir int
		if err := rows.Scan(&c.Path, &isDir); err != nil {
			return nil, fmt.Errorf("scanning path: %w", err)
		}
		c.IsDir = isDir != 0
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return fuzzy.Resolve(file, candidates), nil
}

// Symbols returns the symbol tree for one file, in source order.
func (s *Store) Symbols(file string) ([]extract.Symbol, error) {
	file = filepath.ToSlash(file)

	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM files WHERE path = ? AND is_dir = 0", file).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: file %s", ErrNotFound, file)
	}

	rows, err := s.db.Query(
		`SELECT id, parent_id, name, kind, signature, doc, start_line, end_line, visibility
		 FROM symbols WHERE path = ? ORDER BY id`, file)
	if err != nil {
		return nil, fmt.Errorf("querying symbols: %w", err)
	}
	defer rows.Close()

	type node struct {
		sym      extract.Symbol
		children []*node
	}
	byID := make(map[int64]*node)
	var roots []*node

	for rows.Next() {
		var id int64
		var parentID sql.NullInt64
		var sig, doc, vis sql.NullString
		n := &node{}
		if err := rows.Scan(&id, &parentID, &n.sym.Name, &n.sym.Kind, &sig, &doc,
			&n.sym.StartLine, &n.sym.EndLine, &vis); err != nil {
			return nil, fmt.Errorf("scanning symbol: %w", err)
		}
		n.sym.Signature = sig.String
		n.sym.Doc = doc.String
		n.sym.Visibility = vis.String

		byID[id] = n
		// Parents are inserted before children, so the parent node is
		// always present by the time a child row is scanned.
		if parentID.Valid {
			if parent, ok := byID[parentID.Int64]; ok {
				parent.children = append(parent.children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var materialize func(n *node) extract.Symbol
	materialize = func(n *node) extract.Symbol {
		sym := n.sym
		for _, child := range n.children {
			sym.Children = append(sym.Children, materialize(child))
		}
		return sym
	}

	symbols := make([]extract.Symbol, 0, len(roots))
	for _, n := range roots {
		symbols = append(symbols, materialize(n))
	}
	return symbols, nil
}

// FindCallers returns every call edge whose callee name matches symbol.
func (s *Store) FindCallers(symbol string) ([]Caller, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		"SELECT path, caller, line FROM call_edges WHERE callee = ? ORDER BY path, line", symbol)
	if err != nil {
		return nil, fmt.Errorf("querying callers: %w", err)
	}
	defer rows.Close()

	var callers []Caller
	for rows.Next() {
		var c Caller
		if err := rows.Scan(&c.Path, &c.Caller, &c.Line); err != nil {
			return nil, fmt.Errorf("scanning caller: %w", err)
		}
		callers = append(callers, c)
	}
	return callers, rows.Err()
}

// FindCallees returns the calls made from a symbol in a file, resolving
// each callee to its defining file when the name is indexed.
func (s *Store) FindCallees(symbol, file string) ([]Callee, error) {
	file = filepath.ToSlash(file)

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		"SELECT callee, line FROM call_edges WHERE path = ? AND caller = ? ORDER BY line",
		file, symbol)
	if err != nil {
		return nil, fmt.Errorf("querying callees: %w", err)
	}
	defer rows.Close()

	var callees []Callee
	for rows.Next() {
		var c Callee
		if err := rows.Scan(&c.Callee, &c.Line); err != nil {
			return nil, fmt.Errorf("scanning callee: %w", err)
		}
		callees = append(callees, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range callees {
		var path string
		err := s.db.QueryRow(
			"SELECT path FROM symbols WHERE name = ? ORDER BY path LIMIT 1",
			callees[i].Callee).Scan(&path)
		if err == nil {
			callees[i].Path = path
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("resolving callee %s: %w", callees[i].Callee, err)
		}
	}
	return callees, nil
}

// ExpandSymbol returns the live source text of a symbol, re-read from disk
// so edits made after the last index pass are reflected. file narrows the
// lookup; when empty the first definition across the project is used.
func (s *Store) ExpandSymbol(symbol, file string) (*Expanded, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var query string
	var args []any
	if file != "" {
		query = "SELECT path, start_line, end_line FROM symbols WHERE path = ? AND name = ? ORDER BY id LIMIT 1"
		args = []any{filepath.ToSlash(file), symbol}
	} else {
		query = "SELECT path, start_line, end_line FROM symbols WHERE name = ? ORDER BY path, id LIMIT 1"
		args = []any{symbol}
	}

	exp := &Expanded{Symbol: symbol}
	err := s.db.QueryRow(query, args...).Scan(&exp.File, &exp.StartLine, &exp.EndLine)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: symbol %s", ErrNotFound, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("querying symbol %s: %w", symbol, err)
	}

	content, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(exp.File)))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", exp.File, err)
	}

	lines := strings.Split(string(content), "\n")
	start := exp.StartLine - 1
	end := exp.EndLine
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		start = end
	}
	exp.Source = strings.Join(lines[start:end], "\n")
	return exp, nil
}

// RefreshStale reconciles the index with the filesystem: new and modified
// files are reindexed, vanished paths removed. Used on cold (non-daemon)
// opens instead of a full rebuild. Returns the number of files reindexed.
func (s *Store) RefreshStale(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type diskInfo struct {
		mtime int64
		size  int64
		isDir bool
	}
	onDisk := make(map[string]diskInfo)
	w := walker.New(s.root)
	err := w.Walk(func(e walker.Entry) error {
		onDisk[e.RelPath] = diskInfo{mtime: e.ModTime.Unix(), size: e.Size, isDir: e.IsDir}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walking %s: %w", s.root, err)
	}

	indexed := make(map[string]FileRecord)
	rows, err := s.db.Query("SELECT path, is_dir, mtime, size FROM files")
	if err != nil {
		return 0, fmt.Errorf("querying files: %w", err)
	}
	for rows.Next() {
		var rec FileRecord
		var isDir int
		if err := rows.Scan(&rec.Path, &isDir, &rec.MTime, &rec.Size); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning file record: %w", err)
		}
		rec.IsDir = isDir != 0
		indexed[rec.Path] = rec
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning refresh transaction: %w", err)
	}
	defer tx.Rollback()

	refreshed := 0
	for rel, info := range onDisk {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if info.isDir {
			if _, ok := indexed[rel]; !ok {
				if _, err := tx.Exec(
					"INSERT OR REPLACE INTO files (path, is_dir, indexed_at) VALUES (?, 1, ?)",
					rel, time.Now().Unix()); err != nil {
					return 0, err
				}
			}
			continue
		}
		prev, ok := indexed[rel]
		if ok && prev.MTime == info.mtime && prev.Size == info.size {
			continue
		}
		if err := s.indexFileTx(tx, rel, info.mtime, info.size); err != nil {
			return 0, err
		}
		refreshed++
	}

	for rel := range indexed {
		if _, ok := onDisk[rel]; ok {
			continue
		}
		for _, table := range []string{"files", "symbols", "call_edges", "imports"} {
			if _, err := tx.Exec("DELETE FROM "+table+" WHERE path = ?", rel); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing refresh: %w", err)
	}

	if refreshed > 0 {
		s.logger.Debug("refreshed stale entries", "count", refreshed)
	}
	return refreshed, nil
}
