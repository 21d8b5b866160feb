package index

import (
	"bytes"
	"os"
	"path/filepath"

	"moss/internal/extract"
)

// Extraction statuses recorded per file.
const (
	StatusOK      = "ok"      // extracted successfully
	StatusError   = "error"   // parse failure, stale symbols cleared
	StatusSkipped = "skipped" // binary content or unsupported file type
)

// Indexer is the extraction pipeline: it reads a file and delegates parsing
// to the per-language extractor selected from the registry. It holds no
// store or protocol state so it can be exercised with a fake registry.
type Indexer struct {
	root     string
	registry *extract.Registry
}

// NewIndexer creates an indexer for files under root.
func NewIndexer(root string, registry *extract.Registry) *Indexer {
	return &Indexer{root: root, registry: registry}
}

// ExtractFile reads and extracts one file identified by its relative path.
// The returned status is always valid; result is nil unless status is
// StatusOK. Extraction failure is reported via status, never as an error
// that should abort a caller's loop.
func (ix *Indexer) ExtractFile(rel string) (status string, result *extract.Result, err error) {
	extractor := ix.registry.Lookup(rel)
	if extractor == nil {
		return StatusSkipped, nil, nil
	}

	content, err := os.ReadFile(filepath.Join(ix.root, filepath.FromSlash(rel)))
	if err != nil {
		return StatusError, nil, err
	}

	if isBinary(content) {
		return StatusSkipped, nil, nil
	}

	result, err = extractor.Extract(rel, content)
	if err != nil {
		return StatusError, nil, err
	}
	return StatusOK, result, nil
}

// isBinary reports whether content looks like binary data. A NUL byte in
// the first KB is the usual tell.
func isBinary(content []byte) bool {
	probe := content
	if len(probe) > 1024 {
		probe = probe[:1024]
	}
	return bytes.IndexByte(probe, 0) >= 0
}
