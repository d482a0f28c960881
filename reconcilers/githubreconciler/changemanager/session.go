/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changemanager

import (
	"context"
	"fmt"
	"strings"

	"chainguard.dev/patchpilot/reconcilers/githubreconciler"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

// Session represents work on a specific PR for a specific head branch.
type Session[T any] struct {
	manager    *CM[T]
	client     *github.Client
	owner      string
	repo       string
	branchName string
	ref        string // Base branch for the PR

	// Existing PR state (populated by NewSession if a PR exists)
	prNumber int    // 0 if no existing PR
	prURL    string // HTML URL of existing PR
}

// Base returns the branch the PR targets.
func (s *Session[T]) Base() string {
	return s.ref
}

// Upsert pushes the head branch through makeChanges, then creates a new PR
// or updates the existing one with the rendered title and body.
func (s *Session[T]) Upsert(
	ctx context.Context,
	data *T,
	draft bool,
	labels []string,
	makeChanges func(ctx context.Context, branchName string) error,
) (prURL string, err error) {
	log := clog.FromContext(ctx)

	if makeChanges != nil {
		if err := makeChanges(ctx, s.branchName); err != nil {
			return "", fmt.Errorf("making changes: %w", err)
		}
	}

	title, err := s.manager.execute(s.manager.titleTemplate, data)
	if err != nil {
		return "", fmt.Errorf("executing title template: %w", err)
	}
	title = strings.TrimSpace(title)

	body, err := s.manager.execute(s.manager.bodyTemplate, data)
	if err != nil {
		return "", fmt.Errorf("executing body template: %w", err)
	}

	if s.prNumber == 0 {
		log.Infof("Creating new PR with head %s and base %s", s.branchName, s.ref)

		pr, err := githubreconciler.Retry(ctx, s.manager.retry, "create_pull_request", githubreconciler.IsTransient, func() (*github.PullRequest, error) {
			pr, _, err := s.client.PullRequests.Create(ctx, s.owner, s.repo, &github.NewPullRequest{
				Title: github.Ptr(title),
				Body:  github.Ptr(body),
				Head:  github.Ptr(s.branchName),
				Base:  github.Ptr(s.ref),
				Draft: github.Ptr(draft),
			})
			return pr, err
		})
		if err != nil {
			return "", &githubreconciler.TransportError{Op: "creating pull request", Err: err}
		}

		if len(labels) > 0 {
			if _, err := githubreconciler.Retry(ctx, s.manager.retry, "add_labels", githubreconciler.IsTransient, func() ([]*github.Label, error) {
				l, _, err := s.client.Issues.AddLabelsToIssue(ctx, s.owner, s.repo, pr.GetNumber(), labels)
				return l, err
			}); err != nil {
				return "", &githubreconciler.TransportError{Op: "adding labels", Err: err}
			}
		}

		s.prNumber, s.prURL = pr.GetNumber(), pr.GetHTMLURL()
		log.Infof("Created PR #%d: %s", pr.GetNumber(), pr.GetHTMLURL())
		return pr.GetHTMLURL(), nil
	}

	log.Infof("Updating existing PR #%d", s.prNumber)

	if _, err := githubreconciler.Retry(ctx, s.manager.retry, "update_pull_request", githubreconciler.IsTransient, func() (*github.PullRequest, error) {
		pr, _, err := s.client.PullRequests.Edit(ctx, s.owner, s.repo, s.prNumber, &github.PullRequest{
			Title: github.Ptr(title),
			Body:  github.Ptr(body),
			Draft: github.Ptr(draft),
		})
		return pr, err
	}); err != nil {
		return "", &githubreconciler.TransportError{Op: "updating pull request", Err: err}
	}

	// Without configured labels, leave whatever the PR carries alone.
	if len(labels) > 0 {
		if _, err := githubreconciler.Retry(ctx, s.manager.retry, "replace_labels", githubreconciler.IsTransient, func() ([]*github.Label, error) {
			l, _, err := s.client.Issues.ReplaceLabelsForIssue(ctx, s.owner, s.repo, s.prNumber, labels)
			return l, err
		}); err != nil {
			return "", &githubreconciler.TransportError{Op: "replacing labels", Err: err}
		}
	}

	log.Infof("Updated PR #%d: %s", s.prNumber, s.prURL)
	return s.prURL, nil
}
