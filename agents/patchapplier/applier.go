/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package patchapplier

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Applier applies a unified diff to the working tree rooted at dir.
type Applier interface {
	Apply(ctx context.Context, dir, diff string) error
}

// GitApply applies diffs with `git apply`, reading the diff from stdin.
type GitApply struct {
	// Binary is the git executable. Empty means "git" on PATH.
	Binary string
}

var _ Applier = GitApply{}

// Apply implements Applier.
func (g GitApply) Apply(ctx context.Context, dir, diff string) error {
	binary := g.Binary
	if binary == "" {
		binary = "git"
	}
	if !strings.HasSuffix(diff, "\n") {
		diff += "\n"
	}

	cmd := exec.CommandContext(ctx, binary, "apply", "--whitespace=nowarn", "-")
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(diff)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("git apply: %w: %s", err, msg)
		}
		return fmt.Errorf("git apply: %w", err)
	}
	return nil
}
