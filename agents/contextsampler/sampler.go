/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package contextsampler

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Delimiter separates file blocks in a rendered Bundle.
const Delimiter = "\n-----\n"

var sourceExtensions = []string{
	".c", ".cc", ".cpp", ".cs", ".go", ".h", ".hpp", ".java", ".js", ".jsx",
	".kt", ".php", ".py", ".rb", ".rs", ".scala", ".sh", ".swift", ".ts", ".tsx",
}

// manifestFiles are considered at the tree root even when the extension
// filter or ignore rules would drop them.
var manifestFiles = []string{
	"go.mod", "package.json", "pyproject.toml", "requirements.txt", "Cargo.toml",
	"pom.xml", "build.gradle", "Gemfile", "composer.json", "Makefile",
	"Dockerfile", "README.md",
}

// readFile is swapped out by tests to simulate files vanishing between
// discovery and read.
var readFile = os.ReadFile

// File is one sampled file, keyed by its slash-separated path relative to
// the tree root.
type File struct {
	Path     string
	Contents []byte
}

// Bundle is the ordered set of sampled files.
type Bundle struct {
	Files []File
}

// Size is the total number of content bytes in the bundle.
func (b *Bundle) Size() int {
	n := 0
	for _, f := range b.Files {
		n += len(f.Contents)
	}
	return n
}

// Paths lists the sampled paths in admission order.
func (b *Bundle) Paths() []string {
	paths := make([]string, 0, len(b.Files))
	for _, f := range b.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

// String renders the bundle as "FILE: <path>\n<contents>" blocks joined by
// Delimiter.
func (b *Bundle) String() string {
	blocks := make([]string, 0, len(b.Files))
	for _, f := range b.Files {
		blocks = append(blocks, "FILE: "+f.Path+"\n"+string(f.Contents))
	}
	return strings.Join(blocks, Delimiter)
}

// Sample builds a Bundle from the working tree at root.
func Sample(ctx context.Context, root string, opts ...Option) (*Bundle, error) {
	log := clog.FromContext(ctx)

	repoOpts, err := loadRepoConfig(root)
	if err != nil {
		return nil, err
	}
	cfg := defaultConfig()
	for _, opt := range append(repoOpts, opts...) {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	candidates, err := discover(ctx, root, cfg)
	if err != nil {
		return nil, err
	}

	// Shortest paths first; SortStableFunc keeps discovery order on ties.
	slices.SortStableFunc(candidates, func(a, b string) int {
		return len(a) - len(b)
	})

	bundle := &Bundle{}
	remaining := cfg.maxBytes
	for _, rel := range candidates {
		if len(bundle.Files) >= cfg.maxFiles {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		abs := filepath.Join(root, filepath.FromSlash(rel))
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", rel, err)
		}
		if !fits(info.Size(), remaining) {
			continue
		}

		data, err := readFile(abs)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", rel, err)
		}
		// The file may have changed size since the stat.
		if !fits(int64(len(data)), remaining) {
			continue
		}

		bundle.Files = append(bundle.Files, File{Path: rel, Contents: data})
		remaining -= len(data)
	}

	log.With("files", len(bundle.Files)).
		With("bytes", bundle.Size()).
		With("candidates", len(candidates)).
		Info("Sampled repository context")
	return bundle, nil
}

// fits reports whether a file of size bytes may be admitted with remaining
// budget left.
func fits(size int64, remaining int) bool {
	return size < MaxFileSize && int64(remaining)-size > 0
}

// discover returns candidate paths in discovery order: root manifests in
// allow-list order, then a lexical walk of the tree.
func discover(ctx context.Context, root string, cfg *config) ([]string, error) {
	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		return nil, fmt.Errorf("reading ignore rules: %w", err)
	}
	matcher := gitignore.NewMatcher(patterns)

	var candidates []string
	seen := make(map[string]struct{})
	for _, name := range manifestFiles {
		info, err := os.Lstat(filepath.Join(root, name))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		candidates = append(candidates, name)
		seen[name] = struct{}{}
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		parts := strings.Split(rel, "/")

		if d.IsDir() {
			if d.Name() == ".git" || matcher.Match(parts, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || matcher.Match(parts, false) {
			return nil
		}
		if _, ok := cfg.extensions[strings.ToLower(filepath.Ext(rel))]; !ok {
			return nil
		}
		if _, ok := seen[rel]; ok {
			return nil
		}
		candidates = append(candidates, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return candidates, nil
}
