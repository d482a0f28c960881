/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package patchapplier

import (
	"context"
	"errors"
	"fmt"

	"chainguard.dev/patchpilot/agents/patch"
	"chainguard.dev/patchpilot/agents/patchrequester"
	"github.com/chainguard-dev/clog"
)

// MaxAttempts bounds how many patches are tried against the tree.
const MaxAttempts = 2

// Outcome is the result of one apply attempt.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeRejected Outcome = "rejected"
)

// Attempt records one patch tried against the tree.
type Attempt struct {
	Number  int
	Patch   patch.Patch
	Outcome Outcome
	// Err is the applier's rejection, nil when applied.
	Err error
}

// Result is the terminal state of a successful run.
type Result struct {
	// NoChange is true when the model reported nothing to do, either up
	// front or on the re-request.
	NoChange bool
	// Applied is the patch now present in the tree. It is the zero Patch
	// when NoChange is set.
	Applied  patch.Patch
	Attempts []Attempt
}

// ApplyError is returned after every attempt was rejected.
type ApplyError struct {
	Attempts []Attempt
}

func (e *ApplyError) Error() string {
	last := e.Attempts[len(e.Attempts)-1]
	return fmt.Sprintf("patch rejected after %d attempts: %v", len(e.Attempts), last.Err)
}

// Unwrap exposes every rejection.
func (e *ApplyError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Rerequest asks the model for a new patch, passing instruction along with
// the original task and context.
type Rerequest func(ctx context.Context, instruction string) (patch.Patch, error)

// PatchApplier drives the bounded apply loop.
type PatchApplier struct {
	applier  Applier
	observer func(Attempt)
}

// Option configures a PatchApplier.
type Option func(*PatchApplier) error

// WithApplier replaces the default GitApply.
func WithApplier(a Applier) Option {
	return func(p *PatchApplier) error {
		if a == nil {
			return errors.New("applier cannot be nil")
		}
		p.applier = a
		return nil
	}
}

// WithObserver registers a callback invoked after every attempt.
func WithObserver(fn func(Attempt)) Option {
	return func(p *PatchApplier) error {
		if fn == nil {
			return errors.New("observer cannot be nil")
		}
		p.observer = fn
		return nil
	}
}

// New creates a PatchApplier.
func New(opts ...Option) (*PatchApplier, error) {
	p := &PatchApplier{
		applier:  GitApply{},
		observer: func(Attempt) {},
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return p, nil
}

// Run applies first to the tree at dir. When it is rejected, rerequest is
// called once with patchrequester.CorrectiveInstruction and its patch is
// tried as the final attempt. Errors from rerequest are returned as is.
func (p *PatchApplier) Run(ctx context.Context, dir string, first patch.Patch, rerequest Rerequest) (*Result, error) {
	log := clog.FromContext(ctx)

	if first.IsNoChange() {
		log.Info("Model reported no changes needed")
		return &Result{NoChange: true}, nil
	}

	var attempts []Attempt
	current := first
	for n := 1; n <= MaxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a := Attempt{Number: n, Patch: current, Outcome: OutcomeApplied}
		if err := p.applier.Apply(ctx, dir, current.Text()); err != nil {
			a.Outcome, a.Err = OutcomeRejected, err
		}
		attempts = append(attempts, a)
		p.observer(a)

		if a.Outcome == OutcomeApplied {
			log.With("attempt", n).Info("Patch applied")
			return &Result{Applied: current, Attempts: attempts}, nil
		}
		log.With("attempt", n).With("error", a.Err).Warn("Patch rejected")

		if n == MaxAttempts {
			break
		}

		next, err := rerequest(ctx, patchrequester.CorrectiveInstruction)
		if err != nil {
			return nil, err
		}
		if next.IsNoChange() {
			log.Info("Model reported no changes needed on re-request")
			return &Result{NoChange: true, Attempts: attempts}, nil
		}
		current = next
	}

	return nil, &ApplyError{Attempts: attempts}
}
