/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package taskreconciler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chainguard.dev/patchpilot/agents/contextsampler"
	"chainguard.dev/patchpilot/agents/metrics"
	"chainguard.dev/patchpilot/agents/patch"
	"chainguard.dev/patchpilot/agents/patchapplier"
	"chainguard.dev/patchpilot/agents/patchrequester"
	"chainguard.dev/patchpilot/reconcilers/githubreconciler/clonemanager"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// BranchPrefix prefixes every branch the reconciler creates.
const BranchPrefix = "patchpilot/"

// Cloner produces a private working tree for a repository.
type Cloner interface {
	Clone(ctx context.Context, owner, repo string) (*clonemanager.Lease, error)
}

// Publisher opens the pull request for a pushed branch. It must call push
// before creating the PR.
type Publisher interface {
	Publish(ctx context.Context, branch string, data *PRData, push func(context.Context) error) (string, error)
}

// Result describes a completed run.
type Result struct {
	// NoChange is true when the model reported nothing to do.
	NoChange bool
	// Base and BaseSHA name the default branch the run started from.
	Base    string
	BaseSHA string
	Branch  string
	Commit  string
	// Files lists the committed paths with the operation the patch applied.
	Files    []patch.FileChange
	Attempts []patchapplier.Attempt
	// PRURL is empty for no-op and dry runs.
	PRURL string
}

// Reconciler wires the pipeline stages together.
type Reconciler struct {
	cloner      Cloner
	requester   patchrequester.Interface
	applier     *patchapplier.PatchApplier
	applyImpl   patchapplier.Applier
	publisher   Publisher
	run         *metrics.Run
	samplerOpts []contextsampler.Option
	dryRun      bool
	now         func() time.Time
}

// New creates a Reconciler. The publisher may be nil only for dry runs.
func New(cloner Cloner, requester patchrequester.Interface, publisher Publisher, opts ...Option) (*Reconciler, error) {
	if cloner == nil {
		return nil, errors.New("cloner cannot be nil")
	}
	if requester == nil {
		return nil, errors.New("requester cannot be nil")
	}

	r := &Reconciler{
		cloner:    cloner,
		requester: requester,
		publisher: publisher,
		run:       metrics.NewRun(),
		now:       time.Now,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	if r.publisher == nil && !r.dryRun {
		return nil, errors.New("publisher cannot be nil unless dry run is enabled")
	}

	applierOpts := []patchapplier.Option{patchapplier.WithObserver(r.observeAttempt)}
	if r.applyImpl != nil {
		applierOpts = append(applierOpts, patchapplier.WithApplier(r.applyImpl))
	}
	applier, err := patchapplier.New(applierOpts...)
	if err != nil {
		return nil, err
	}
	r.applier = applier
	return r, nil
}

func (r *Reconciler) observeAttempt(a patchapplier.Attempt) {
	r.run.ObserveApply(a.Outcome == patchapplier.OutcomeApplied)
}

// Metrics returns the run counters.
func (r *Reconciler) Metrics() *metrics.Run {
	return r.run
}

// BranchName returns the branch used for a run started at t.
func BranchName(t time.Time) string {
	return BranchPrefix + t.UTC().Format("20060102-150405")
}

var tracer = otel.Tracer("chainguard.dev/patchpilot/reconcilers/taskreconciler",
	oteltrace.WithInstrumentationVersion("1.0.0"))

// stage runs fn inside a span named after the pipeline stage.
func stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "patchpilot."+name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// Reconcile performs the task against owner/repo.
func (r *Reconciler) Reconcile(ctx context.Context, owner, repo, task string) (*Result, error) {
	res, err := r.reconcile(ctx, owner, repo, task)
	switch {
	case err != nil:
		r.run.ObserveOutcome(metrics.OutcomeFailed)
	case res.NoChange:
		r.run.ObserveOutcome(metrics.OutcomeNoChange)
	default:
		r.run.ObserveOutcome(metrics.OutcomeApplied)
	}
	return res, err
}

func (r *Reconciler) reconcile(ctx context.Context, owner, repo, task string) (*Result, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil, errors.New("task cannot be empty")
	}

	ctx, span := tracer.Start(ctx, "patchpilot.reconcile", oteltrace.WithAttributes(
		attribute.String("repository", owner+"/"+repo),
		attribute.Bool("dry_run", r.dryRun),
	))
	defer span.End()
	log := clog.FromContext(ctx).With("repository", owner+"/"+repo)
	ctx = clog.WithLogger(ctx, log)

	var lease *clonemanager.Lease
	branch := BranchName(r.now())
	if err := stage(ctx, "clone", func(ctx context.Context) error {
		var err error
		if lease, err = r.cloner.Clone(ctx, owner, repo); err != nil {
			return err
		}
		return lease.CreateBranch(branch)
	}); err != nil {
		if lease != nil {
			_ = lease.Close()
		}
		return nil, fmt.Errorf("preparing working tree: %w", err)
	}
	defer func() {
		if err := lease.Close(); err != nil {
			log.Warnf("Failed to remove working tree: %v", err)
		}
	}()
	log = log.With("lease", lease.ID()).With("base", lease.DefaultBranch()).With("base_sha", lease.SHA())
	ctx = clog.WithLogger(ctx, log)
	span.SetAttributes(attribute.String("base_sha", lease.SHA()))

	var bundle *contextsampler.Bundle
	if err := stage(ctx, "sample", func(ctx context.Context) error {
		var err error
		bundle, err = contextsampler.Sample(ctx, lease.WorkingTree(), r.samplerOpts...)
		return err
	}); err != nil {
		return nil, fmt.Errorf("sampling context: %w", err)
	}

	request := func(ctx context.Context, instruction string) (patch.Patch, error) {
		raw, err := r.requester.Request(ctx, &patchrequester.Request{
			Task:        task,
			Context:     bundle,
			Instruction: instruction,
		})
		if err != nil {
			return patch.Patch{}, err
		}
		return patch.Parse(raw), nil
	}

	var first patch.Patch
	if err := stage(ctx, "request", func(ctx context.Context) error {
		var err error
		first, err = request(ctx, "")
		return err
	}); err != nil {
		return nil, fmt.Errorf("requesting patch: %w", err)
	}

	var applied *patchapplier.Result
	if err := stage(ctx, "apply", func(ctx context.Context) error {
		var err error
		applied, err = r.applier.Run(ctx, lease.WorkingTree(), first, request)
		return err
	}); err != nil {
		return nil, err
	}

	res := &Result{
		Base:     lease.DefaultBranch(),
		BaseSHA:  lease.SHA(),
		Branch:   lease.Branch(),
		Attempts: applied.Attempts,
	}
	if applied.NoChange {
		res.NoChange = true
		res.Branch = ""
		return res, nil
	}

	var commit *clonemanager.Commit
	if err := stage(ctx, "commit", func(ctx context.Context) error {
		var err error
		commit, err = lease.Commit(ctx, task)
		return err
	}); err != nil {
		if errors.Is(err, clonemanager.ErrNothingToCommit) {
			log.Info("Patch applied cleanly but left the tree unchanged")
			res.NoChange = true
			res.Branch = ""
			return res, nil
		}
		return nil, fmt.Errorf("committing: %w", err)
	}
	res.Commit = commit.SHA
	res.Files = changedFiles(ctx, applied.Applied, commit.Files)

	if r.dryRun {
		log.With("branch", res.Branch).Info("Dry run: skipping push and pull request")
		return res, nil
	}

	if err := stage(ctx, "publish", func(ctx context.Context) error {
		var err error
		res.PRURL, err = r.publisher.Publish(ctx, res.Branch, NewPRData(task, res.Files), lease.Push)
		return err
	}); err != nil {
		return nil, fmt.Errorf("publishing: %w", err)
	}

	log.With("pr", res.PRURL).Info("Run complete")
	return res, nil
}

// changedFiles annotates the committed paths with the operation parsed from
// the applied diff. Paths the diff does not describe are reported as
// modifications.
func changedFiles(ctx context.Context, applied patch.Patch, committed []string) []patch.FileChange {
	ops := map[string]patch.Op{}
	parsed, err := applied.Files()
	if err != nil {
		clog.FromContext(ctx).Warnf("Could not summarize applied diff: %v", err)
	}
	for _, fc := range parsed {
		ops[fc.Path] = fc.Op
	}

	files := make([]patch.FileChange, 0, len(committed))
	for _, path := range committed {
		op, ok := ops[path]
		if !ok {
			op = patch.OpModify
		}
		files = append(files, patch.FileChange{Path: path, Op: op})
	}
	return files
}
