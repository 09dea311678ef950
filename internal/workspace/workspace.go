// Package workspace materializes a working directory into the file-content
// map the engine commits. The engine retains none of this state; the
// workspace supplies it fresh at each call.
package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// RepoDir is the metadata directory inside a working tree.
const RepoDir = ".minigit"

// Workspace reads and writes one working directory.
type Workspace struct {
	root       string
	ignoreDirs map[string]bool
}

func New(root string) *Workspace {
	return &Workspace{
		root: root,
		ignoreDirs: map[string]bool{
			RepoDir:        true,
			".git":         true,
			"node_modules": true,
			"vendor":       true,
			"dist":         true,
			"build":        true,
		},
	}
}

func (w *Workspace) Root() string { return w.root }

// ShouldIgnore reports whether a path sits in an ignored directory.
func (w *Workspace) ShouldIgnore(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if w.ignoreDirs[part] {
			return true
		}
	}
	return false
}

// Snapshot walks the working tree and returns the complete file-content
// map, keyed by slash-separated path relative to the root.
func (w *Workspace) Snapshot() (map[string][]byte, error) {
	files := make(map[string][]byte)

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != w.root && w.ShouldIgnore(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.ShouldIgnore(path) || !d.Type().IsRegular() {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return fmt.Errorf("getting relative path: %w", err)
		}
		files[filepath.ToSlash(rel)] = content
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// Restore writes a checked-out file-content map under dir, creating parent
// directories as needed.
func (w *Workspace) Restore(files map[string][]byte, dir string) error {
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", name, err)
		}
		if err := os.WriteFile(path, content, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}
