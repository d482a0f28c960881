/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// patchpilot asks a language model to perform a task against a GitHub
// repository and opens a pull request with the result.
//
// Usage:
//
//	patchpilot [--dry-run] <task words...>
//
// Configuration is read from the environment; see config.go.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/chainguard-dev/clog"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrUsage) {
			clog.ErrorContextf(ctx, "patchpilot: %v", err)
		}
		cancel()
		os.Exit(1)
	}
}
