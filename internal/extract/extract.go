// Package extract turns source files into structural facts: symbols,
// imports, and call sites. One extractor per language, selected by file
// extension through an explicit registry so the indexer can be tested with
// a fake implementation.
package extract

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
)

// ErrUnsupported is returned when no extractor is registered for a file.
var ErrUnsupported = errors.New("no extractor for file type")

// Symbol is a named, located code entity. Children nest recursively:
// methods under their type, inner classes under their class.
type Symbol struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"` // function, method, class, struct, enum, interface, type
	Signature  string   `json:"signature,omitempty"`
	Doc        string   `json:"doc,omitempty"`
	StartLine  int      `json:"start_line"` // 1-indexed
	EndLine    int      `json:"end_line"`
	Visibility string   `json:"visibility,omitempty"` // public, private
	Children   []Symbol `json:"children,omitempty"`
}

// Import is a single import/require/include in a file.
type Import struct {
	Source string `json:"source"`
	Line   int    `json:"line"`
}

// CallSite is a call expression found inside a symbol.
type CallSite struct {
	Caller string `json:"caller"` // enclosing symbol name, "" at file scope
	Callee string `json:"callee"`
	Line   int    `json:"line"`
}

// Result holds everything extracted from one file.
type Result struct {
	Symbols []Symbol
	Imports []Import
	Calls   []CallSite
}

// Extractor is the per-language extraction capability.
type Extractor interface {
	// Extract parses content and returns its structural facts. A parse
	// failure is an error; the caller records it per file and moves on.
	Extract(path string, content []byte) (*Result, error)
}

// Registry maps file extensions (without dot) to extractors.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Extractor)}
}

// Register adds an extractor for the given extensions.
func (r *Registry) Register(e Extractor, extensions ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range extensions {
		r.byExt[ext] = e
	}
}

// Lookup returns the extractor for a file path based on its extension,
// or nil when the file type is unsupported.
func (r *Registry) Lookup(path string) Extractor {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byExt[ext]
}

// Extensions returns the set of all registered extensions (without dot).
func (r *Registry) Extensions() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make(map[string]bool, len(r.byExt))
	for ext := range r.byExt {
		exts[ext] = true
	}
	return exts
}

// DefaultRegistry returns a registry with all built-in languages registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Go(), "go")
	r.Register(Python(), "py")
	r.Register(JavaScript(), "js", "jsx", "mjs")
	r.Register(TypeScript(), "ts", "tsx")
	return r
}
