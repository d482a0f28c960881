/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Run outcomes reported on patchpilot_runs_total.
const (
	OutcomeApplied  = "applied"
	OutcomeNoChange = "no_change"
	OutcomeFailed   = "failed"
)

// Run holds the Prometheus counters for one process. A CLI run is too short
// lived to be scraped, so the registry is pushed to a Pushgateway instead.
type Run struct {
	registry      *prometheus.Registry
	runs          *prometheus.CounterVec
	applyAttempts *prometheus.CounterVec
}

// NewRun creates the run counters on a private registry.
func NewRun() *Run {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Run{
		registry: reg,
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "patchpilot_runs_total",
			Help: "Total number of task runs by outcome",
		}, []string{"outcome"}),
		applyAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "patchpilot_apply_attempts_total",
			Help: "Total number of patch apply attempts by result",
		}, []string{"result"}),
	}
}

// ObserveOutcome counts a finished run.
func (r *Run) ObserveOutcome(outcome string) {
	r.runs.WithLabelValues(outcome).Inc()
}

// ObserveApply counts one apply attempt.
func (r *Run) ObserveApply(applied bool) {
	result := "rejected"
	if applied {
		result = "applied"
	}
	r.applyAttempts.WithLabelValues(result).Inc()
}

// Runs is the patchpilot_runs_total counter vector.
func (r *Run) Runs() *prometheus.CounterVec {
	return r.runs
}

// ApplyAttempts is the patchpilot_apply_attempts_total counter vector.
func (r *Run) ApplyAttempts() *prometheus.CounterVec {
	return r.applyAttempts
}

// Gatherer exposes the registry, mainly for tests.
func (r *Run) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Push sends the counters to the Pushgateway at url under job.
func (r *Run) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(r.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
