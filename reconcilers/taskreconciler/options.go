/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package taskreconciler

import (
	"errors"
	"time"

	"chainguard.dev/patchpilot/agents/contextsampler"
	"chainguard.dev/patchpilot/agents/metrics"
	"chainguard.dev/patchpilot/agents/patchapplier"
)

// Option configures a Reconciler.
type Option func(*Reconciler) error

// WithDryRun stops each run after the commit.
func WithDryRun(dryRun bool) Option {
	return func(r *Reconciler) error {
		r.dryRun = dryRun
		return nil
	}
}

// WithSamplerOptions passes options through to contextsampler.Sample.
func WithSamplerOptions(opts ...contextsampler.Option) Option {
	return func(r *Reconciler) error {
		r.samplerOpts = append(r.samplerOpts, opts...)
		return nil
	}
}

// WithApplier replaces the default git-based patch applier.
func WithApplier(a patchapplier.Applier) Option {
	return func(r *Reconciler) error {
		if a == nil {
			return errors.New("applier cannot be nil")
		}
		r.applyImpl = a
		return nil
	}
}

// WithRunMetrics records outcomes on the supplied counters.
func WithRunMetrics(run *metrics.Run) Option {
	return func(r *Reconciler) error {
		if run == nil {
			return errors.New("run metrics cannot be nil")
		}
		r.run = run
		return nil
	}
}

// WithClock sets the time source used for branch names.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		r.now = now
		return nil
	}
}
