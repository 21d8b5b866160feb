package walker

import (
	"os"
	"path/filepath"
	"testing"
)

// writeFile creates a file with parent directories.
func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func collect(t *testing.T, w *Walker) map[string]bool {
	t.Helper()
	seen := make(map[string]bool)
	err := w.Walk(func(e Entry) error {
		seen[e.RelPath] = e.IsDir
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	return seen
}

func TestWalkBasic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n")
	writeFile(t, root, "src/lib.go", "package lib\n")

	seen := collect(t, New(root))

	if isDir, ok := seen["main.go"]; !ok || isDir {
		t.Errorf("expected file main.go, got %v/%v", isDir, ok)
	}
	if isDir, ok := seen["src"]; !ok || !isDir {
		t.Errorf("expected directory src, got %v/%v", isDir, ok)
	}
	if _, ok := seen["src/lib.go"]; !ok {
		t.Error("expected src/lib.go")
	}
}

func TestWalkSkipsIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.go", "package main\n")
	writeFile(t, root, ".git/config", "x")
	writeFile(t, root, "node_modules/pkg/index.js", "x")
	writeFile(t, root, DataDirName+"/index.db", "x")

	seen := collect(t, New(root))

	if _, ok := seen["keep.go"]; !ok {
		t.Error("expected keep.go")
	}
	for rel := range seen {
		switch rel {
		case ".git", "node_modules", DataDirName:
			t.Errorf("ignored directory %q was walked", rel)
		case ".git/config", "node_modules/pkg/index.js", DataDirName + "/index.db":
			t.Errorf("file under ignored directory %q was walked", rel)
		}
	}
}

func TestWalkHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "*.log\ngenerated/\n")
	writeFile(t, root, "app.go", "package main\n")
	writeFile(t, root, "debug.log", "noise")
	writeFile(t, root, "generated/out.go", "package out\n")

	seen := collect(t, New(root))

	if _, ok := seen["app.go"]; !ok {
		t.Error("expected app.go")
	}
	if _, ok := seen["debug.log"]; ok {
		t.Error("debug.log should be ignored")
	}
	if _, ok := seen["generated/out.go"]; ok {
		t.Error("generated/out.go should be ignored")
	}
}

func TestSkipDir(t *testing.T) {
	w := New(t.TempDir())

	tests := []struct {
		name string
		skip bool
	}{
		{".git", true},
		{"node_modules", true},
		{DataDirName, true},
		{"__pycache__", true},
		{"src", false},
		{"internal", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.SkipDir(tt.name, tt.name); got != tt.skip {
				t.Errorf("SkipDir(%q) = %v, want %v", tt.name, got, tt.skip)
			}
		})
	}
}

func TestSkipFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "*.log\n")
	w := New(root)

	tests := []struct {
		rel  string
		size int64
		skip bool
	}{
		{"app.go", 100, false},
		{"debug.log", 100, true},
		{"sub/deep.log", 100, true},
		{"huge.go", maxFileSize + 1, true},
		{"edge.go", maxFileSize, false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			if got := w.SkipFile(tt.rel, tt.size); got != tt.skip {
				t.Errorf("SkipFile(%q, %d) = %v, want %v", tt.rel, tt.size, got, tt.skip)
			}
		})
	}
}

func TestWalkSkipsLargeFiles(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, maxFileSize+1)
	if err := os.WriteFile(filepath.Join(root, "big.bin"), big, 0644); err != nil {
		t.Fatal(err)
	}
	writeFile(t, root, "small.go", "package main\n")

	seen := collect(t, New(root))

	if _, ok := seen["big.bin"]; ok {
		t.Error("oversized file should be skipped")
	}
	if _, ok := seen["small.go"]; !ok {
		t.Error("expected small.go")
	}
}
