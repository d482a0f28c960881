/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package contextsampler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxFiles is the default file-count limit.
	DefaultMaxFiles = 25
	// DefaultMaxBytes is the default cumulative byte budget.
	DefaultMaxBytes = 40000
	// MaxFileSize is the hard per-file cap; files of this size or larger
	// are never sampled.
	MaxFileSize = 3000
	// RepoConfigFile is the optional per-repository configuration file.
	RepoConfigFile = ".patchpilot.yaml"
)

type config struct {
	maxFiles   int
	maxBytes   int
	extensions map[string]struct{}
}

func defaultConfig() *config {
	exts := make(map[string]struct{}, len(sourceExtensions))
	for _, e := range sourceExtensions {
		exts[e] = struct{}{}
	}
	return &config{
		maxFiles:   DefaultMaxFiles,
		maxBytes:   DefaultMaxBytes,
		extensions: exts,
	}
}

// Option adjusts sampling limits.
type Option func(*config) error

// WithMaxFiles overrides the file-count limit.
func WithMaxFiles(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("max files must be positive, got %d", n)
		}
		c.maxFiles = n
		return nil
	}
}

// WithMaxBytes overrides the cumulative byte budget.
func WithMaxBytes(n int) Option {
	return func(c *config) error {
		if n <= 0 {
			return fmt.Errorf("max bytes must be positive, got %d", n)
		}
		c.maxBytes = n
		return nil
	}
}

// WithExtensions adds file extensions (".proto") to the candidate set.
func WithExtensions(exts ...string) Option {
	return func(c *config) error {
		for _, e := range exts {
			if !strings.HasPrefix(e, ".") || len(e) < 2 {
				return fmt.Errorf("extension %q must start with a dot", e)
			}
			c.extensions[strings.ToLower(e)] = struct{}{}
		}
		return nil
	}
}

// repoConfig mirrors the layout of RepoConfigFile.
type repoConfig struct {
	Context struct {
		MaxFiles   int      `yaml:"max_files"`
		MaxBytes   int      `yaml:"max_bytes"`
		Extensions []string `yaml:"extensions"`
	} `yaml:"context"`
}

// loadRepoConfig turns RepoConfigFile under root into options. A missing
// file yields no options.
func loadRepoConfig(root string) ([]Option, error) {
	data, err := os.ReadFile(filepath.Join(root, RepoConfigFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("reading %s: %w", RepoConfigFile, err)
	}

	var rc repoConfig
	if err := yaml.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", RepoConfigFile, err)
	}

	var opts []Option
	if rc.Context.MaxFiles != 0 {
		opts = append(opts, WithMaxFiles(rc.Context.MaxFiles))
	}
	if rc.Context.MaxBytes != 0 {
		opts = append(opts, WithMaxBytes(rc.Context.MaxBytes))
	}
	if len(rc.Context.Extensions) > 0 {
		opts = append(opts, WithExtensions(rc.Context.Extensions...))
	}
	return opts, nil
}
