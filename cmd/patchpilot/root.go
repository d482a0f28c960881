/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"chainguard.dev/patchpilot/agents/metrics"
	"chainguard.dev/patchpilot/agents/patchrequester"
	"chainguard.dev/patchpilot/reconcilers/githubreconciler"
	"chainguard.dev/patchpilot/reconcilers/githubreconciler/clonemanager"
	"chainguard.dev/patchpilot/reconcilers/taskreconciler"
	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
)

// ErrUsage is returned when no task was given.
var ErrUsage = errors.New("a task description is required")

// version is set at build time via -ldflags.
var version = "dev"

// lookuper is swapped out by tests.
var lookuper envconfig.Lookuper = envconfig.OsLookuper()

func newRootCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "patchpilot [--dry-run] <task words...>",
		Short: "Turn a task description into a pull request",
		Long: "patchpilot samples a repository, asks a language model for a patch that\n" +
			"performs the task, applies it on a fresh branch and opens a pull request.",
		Args:          cobra.ArbitraryArgs,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			task := strings.TrimSpace(strings.Join(args, " "))
			if task == "" {
				cmd.PrintErr(cmd.UsageString())
				return ErrUsage
			}

			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, lookuper)
			if err != nil {
				return err
			}
			ctx = clog.WithLogger(ctx, newLogger(cfg.level, cmd.ErrOrStderr()))

			return run(ctx, cfg, task, dryRun, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "apply and commit locally, but do not push or open a pull request")
	// Flags must precede the task; "-v" or "-h" inside a task are words.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func run(ctx context.Context, cfg *config, task string, dryRun bool, out io.Writer) error {
	log := clog.FromContext(ctx)

	ts, err := cfg.tokenSource(ctx)
	if err != nil {
		return err
	}

	cloner, err := clonemanager.New(ctx, ts, cfg.GitIdentity)
	if err != nil {
		return fmt.Errorf("creating clone manager: %w", err)
	}

	requester, err := patchrequester.New(ctx, cfg.ModelAPIKey,
		patchrequester.WithModel(cfg.Model),
		patchrequester.WithBaseURL(cfg.ModelBaseURL),
		patchrequester.WithAttributeEnricher(metrics.StaticAttributes(
			attribute.String("repository", cfg.Owner+"/"+cfg.Repo),
		)),
	)
	if err != nil {
		return fmt.Errorf("creating patch requester: %w", err)
	}

	var publisher taskreconciler.Publisher
	if !dryRun {
		pub, err := taskreconciler.NewGitHubPublisher(githubreconciler.NewClient(ctx, ts), cfg.GitIdentity, cfg.Owner, cfg.Repo,
			taskreconciler.WithDraft(cfg.PRDraft),
			taskreconciler.WithLabels(cfg.PRLabels...),
		)
		if err != nil {
			return fmt.Errorf("creating publisher: %w", err)
		}
		publisher = pub
	}

	rec, err := taskreconciler.New(cloner, requester, publisher,
		taskreconciler.WithDryRun(dryRun),
		taskreconciler.WithSamplerOptions(cfg.samplerOptions()...),
	)
	if err != nil {
		return fmt.Errorf("creating reconciler: %w", err)
	}

	res, runErr := rec.Reconcile(ctx, cfg.Owner, cfg.Repo, task)

	if cfg.PushgatewayURL != "" {
		if err := rec.Metrics().Push(ctx, cfg.PushgatewayURL, "patchpilot"); err != nil {
			log.Warnf("Failed to push metrics: %v", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	return taskreconciler.WriteSummary(out, res)
}
