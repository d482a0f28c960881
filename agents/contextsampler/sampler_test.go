/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package contextsampler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, contents := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(abs, []byte(contents), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return root
}

func TestSampleOrderAndFormat(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.go":             "package main\n",
		"pkg/util/strings.go": "package util\n",
		"pkg/a.go":            "package pkg\n",
		"go.mod":              "module example\n",
		"notes.txt":           "not a source file",
	})

	b, err := Sample(context.Background(), root)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	want := []string{"go.mod", "main.go", "pkg/a.go", "pkg/util/strings.go"}
	if diff := cmp.Diff(want, b.Paths()); diff != "" {
		t.Errorf("Paths() (-want +got):\n%s", diff)
	}

	wantText := "FILE: go.mod\nmodule example\n" + Delimiter +
		"FILE: main.go\npackage main\n" + Delimiter +
		"FILE: pkg/a.go\npackage pkg\n" + Delimiter +
		"FILE: pkg/util/strings.go\npackage util\n"
	if got := b.String(); got != wantText {
		t.Errorf("String() = %q, want %q", got, wantText)
	}
}

func TestSampleTiesKeepDiscoveryOrder(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b.go":      "b",
		"a.go":      "a",
		"c.py":      "c",
		"README.md": "readme",
	})

	b, err := Sample(context.Background(), root)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	// README.md is a manifest and is discovered first; the rest follow the
	// lexical walk and share a path length.
	want := []string{"a.go", "b.go", "c.py", "README.md"}
	if diff := cmp.Diff(want, b.Paths()); diff != "" {
		t.Errorf("Paths() (-want +got):\n%s", diff)
	}
}

func TestSampleHardCap(t *testing.T) {
	root := writeTree(t, map[string]string{
		"big.go":    strings.Repeat("x", MaxFileSize),
		"almost.go": strings.Repeat("x", MaxFileSize-1),
		"go.mod":    strings.Repeat("m", MaxFileSize+10),
		"small.go":  "small",
	})

	b, err := Sample(context.Background(), root, WithMaxBytes(1_000_000))
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	want := []string{"small.go", "almost.go"}
	if diff := cmp.Diff(want, b.Paths()); diff != "" {
		t.Errorf("Paths() (-want +got):\n%s", diff)
	}
}

func TestSampleBudgetNeverReachesZero(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.go": strings.Repeat("a", 40),
		"b.go": strings.Repeat("b", 60),
		"c.go": strings.Repeat("c", 59),
	})

	// a (40) leaves 60; b (60) would leave 0 and is skipped; c (59) leaves 1.
	b, err := Sample(context.Background(), root, WithMaxBytes(100))
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if diff := cmp.Diff([]string{"a.go", "c.go"}, b.Paths()); diff != "" {
		t.Errorf("Paths() (-want +got):\n%s", diff)
	}
	if got := b.Size(); got != 99 {
		t.Errorf("Size() = %d, want 99", got)
	}
}

func TestSampleFileLimit(t *testing.T) {
	files := map[string]string{}
	for i := range 10 {
		files[fmt.Sprintf("f%d.go", i)] = "x"
	}
	root := writeTree(t, files)

	b, err := Sample(context.Background(), root, WithMaxFiles(3))
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if diff := cmp.Diff([]string{"f0.go", "f1.go", "f2.go"}, b.Paths()); diff != "" {
		t.Errorf("Paths() (-want +got):\n%s", diff)
	}
}

func TestSampleHonorsGitignore(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore":         "vendor/\n*_gen.go\n",
		"vendor/dep/dep.go":  "package dep",
		"api_gen.go":         "package api",
		"api.go":             "package api",
		".git/hooks/hook.sh": "#!/bin/sh",
		"Makefile":           "all:",
	})

	b, err := Sample(context.Background(), root)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if diff := cmp.Diff([]string{"api.go", "Makefile"}, b.Paths()); diff != "" {
		t.Errorf("Paths() (-want +got):\n%s", diff)
	}
}

func TestSampleManifestsBypassIgnoreRules(t *testing.T) {
	root := writeTree(t, map[string]string{
		".gitignore":   "package.json\n",
		"package.json": "{}",
		"index.js":     "1",
	})

	b, err := Sample(context.Background(), root)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if diff := cmp.Diff([]string{"index.js", "package.json"}, b.Paths()); diff != "" {
		t.Errorf("Paths() (-want +got):\n%s", diff)
	}
}

func TestSampleRepoConfig(t *testing.T) {
	root := writeTree(t, map[string]string{
		RepoConfigFile: "context:\n  max_files: 2\n  extensions: [\".proto\"]\n",
		"a.proto":      "syntax = \"proto3\";",
		"b.go":         "package b",
		"cc.go":        "package cc",
	})

	b, err := Sample(context.Background(), root)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if diff := cmp.Diff([]string{"b.go", "cc.go"}, b.Paths()); diff != "" {
		t.Errorf("Paths() (-want +got):\n%s", diff)
	}

	// Caller options win over the file.
	b, err = Sample(context.Background(), root, WithMaxFiles(5))
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if diff := cmp.Diff([]string{"b.go", "cc.go", "a.proto"}, b.Paths()); diff != "" {
		t.Errorf("Paths() (-want +got):\n%s", diff)
	}
}

func TestSampleInvalidOptions(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "a"})
	for _, opt := range []Option{WithMaxFiles(0), WithMaxBytes(-1), WithExtensions("go")} {
		if _, err := Sample(context.Background(), root, opt); err == nil {
			t.Error("Sample with invalid option = nil error")
		}
	}

	bad := writeTree(t, map[string]string{RepoConfigFile: "context: [", "a.go": "a"})
	if _, err := Sample(context.Background(), bad); err == nil {
		t.Error("Sample with malformed repo config = nil error")
	}
}

func TestSampleReadFailurePropagates(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "a", "b.go": "b"})

	errGone := errors.New("file vanished")
	readFile = func(name string) ([]byte, error) {
		if filepath.Base(name) == "b.go" {
			return nil, errGone
		}
		return os.ReadFile(name)
	}
	t.Cleanup(func() { readFile = os.ReadFile })

	if _, err := Sample(context.Background(), root); !errors.Is(err, errGone) {
		t.Errorf("Sample() error = %v, want %v", err, errGone)
	}
}

func TestSampleCanceled(t *testing.T) {
	root := writeTree(t, map[string]string{"a.go": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Sample(ctx, root); !errors.Is(err, context.Canceled) {
		t.Errorf("Sample() error = %v, want %v", err, context.Canceled)
	}
}

// TestSampleBounds checks the budget and file-count bounds, the hard cap and
// determinism over randomly generated trees.
func TestSampleBounds(t *testing.T) {
	for seed := range uint64(20) {
		t.Run(fmt.Sprintf("seed-%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(seed, seed*7+1))
			files := map[string]string{}
			for i := range 5 + rng.IntN(60) {
				dir := strings.Repeat("d/", rng.IntN(4))
				files[fmt.Sprintf("%sf%d.go", dir, i)] = strings.Repeat("x", rng.IntN(2*MaxFileSize))
			}
			root := writeTree(t, files)

			maxFiles := 1 + rng.IntN(30)
			maxBytes := 1 + rng.IntN(50000)
			first, err := Sample(context.Background(), root, WithMaxFiles(maxFiles), WithMaxBytes(maxBytes))
			if err != nil {
				t.Fatalf("Sample: %v", err)
			}
			if got := len(first.Files); got > maxFiles {
				t.Errorf("file count = %d, exceeds limit %d", got, maxFiles)
			}
			if got := first.Size(); got >= maxBytes {
				t.Errorf("bundle size = %d, not below budget %d", got, maxBytes)
			}
			for _, f := range first.Files {
				if len(f.Contents) >= MaxFileSize {
					t.Errorf("%s has %d bytes, at or above the hard cap", f.Path, len(f.Contents))
				}
			}

			second, err := Sample(context.Background(), root, WithMaxFiles(maxFiles), WithMaxBytes(maxBytes))
			if err != nil {
				t.Fatalf("Sample: %v", err)
			}
			if first.String() != second.String() {
				t.Error("two samples of the same tree differ")
			}
		})
	}
}
