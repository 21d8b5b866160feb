// Package walker traverses a project tree and yields the entries the index
// should know about, honoring .gitignore patterns and a hardcoded list of
// directories that are never worth indexing.
package walker

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"
)

// DataDirName is moss's own per-project data directory. The walker always
// skips it so the index never indexes (or watches) its own state.
const DataDirName = ".moss"

// maxFileSize is the largest file considered for indexing (1 MB).
const maxFileSize = 1 << 20

// Entry is one discovered path, relative to the walk root.
type Entry struct {
	RelPath string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// Walker traverses one project root with its ignore rules compiled once.
type Walker struct {
	root string
	gi   *ignore.GitIgnore
}

// New creates a walker for the given root, loading .gitignore patterns from
// the project and the user's global ~/.gitignore.
func New(root string) *Walker {
	return &Walker{
		root: root,
		gi:   loadGitignore(root),
	}
}

// Walk calls fn for every entry under the root, directories first. Unreadable
// entries are skipped, not reported. Returning an error from fn aborts the
// walk and returns that error.
func (w *Walker) Walk(fn func(Entry) error) error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if path == w.root {
			return nil
		}

		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if w.SkipDir(d.Name(), rel) {
				return filepath.SkipDir
			}
			return fn(Entry{RelPath: rel, IsDir: true})
		}

		// Skip symlinks.
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if w.SkipFile(rel, info.Size()) {
			return nil
		}

		return fn(Entry{
			RelPath: rel,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	})
}

// SkipDir reports whether a directory should be excluded from the walk (and
// from file watching). name is the base name, rel the slash-separated path
// relative to the root.
func (w *Walker) SkipDir(name, rel string) bool {
	if isIgnoredDir(name) {
		return true
	}
	if w.gi != nil && w.gi.MatchesPath(rel+"/") {
		return true
	}
	return false
}

// SkipFile reports whether a file should be excluded from indexing: matched
// by gitignore rules or larger than the size cap. rel is the slash-separated
// path relative to the root. Shared with the file watcher so events and
// walks agree on which files are indexable.
func (w *Walker) SkipFile(rel string, size int64) bool {
	if w.gi != nil && w.gi.MatchesPath(rel) {
		return true
	}
	return size > maxFileSize
}

// isIgnoredDir returns true if the directory should be skipped
func isIgnoredDir(name string) bool {
	ignored := map[string]bool{
		// Version control
		".git": true,
		".svn": true,
		".hg":  true,

		// IDE/Editor
		".idea":   true,
		".vscode": true,

		// Build outputs
		"dist":   true,
		"build":  true,
		"target": true,
		"out":    true,

		// Dependencies
		"node_modules": true,
		"vendor":       true,
		".bundle":      true,

		// Python
		"__pycache__":   true,
		".venv":         true,
		"venv":          true,
		".tox":          true,
		".pytest_cache": true,

		// Generated/Cache
		".cache":    true,
		DataDirName: true,
		".next":     true,
		".turbo":    true,
	}
	return ignored[name]
}

// loadGitignore loads gitignore patterns from local .gitignore and global ~/.gitignore
func loadGitignore(rootPath string) *ignore.GitIgnore {
	var patterns []string

	// Load global gitignore (~/.gitignore)
	if homeDir, err := os.UserHomeDir(); err == nil {
		globalGitignore := filepath.Join(homeDir, ".gitignore")
		if content, err := os.ReadFile(globalGitignore); err == nil {
			patterns = append(patterns, parseLines(string(content))...)
		}
	}

	// Load local .gitignore
	localGitignore := filepath.Join(rootPath, ".gitignore")
	if content, err := os.ReadFile(localGitignore); err == nil {
		patterns = append(patterns, parseLines(string(content))...)
	}

	if len(patterns) == 0 {
		return nil
	}

	return ignore.CompileIgnoreLines(patterns...)
}

// parseLines extracts non-empty, non-comment lines from gitignore content.
func parseLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, trimmed)
	}
	return lines
}
