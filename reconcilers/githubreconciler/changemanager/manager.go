/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package changemanager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"chainguard.dev/patchpilot/reconcilers/githubreconciler"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
)

// newGraphQLClient derives the GraphQL client from the REST client's
// transport. Tests override it to target a local server.
var newGraphQLClient = func(client *github.Client) *githubv4.Client {
	return githubv4.NewClient(client.Client())
}

// Option configures a CM (ChangeManager).
type Option[T any] func(*CM[T])

// WithBase overrides the base branch instead of using the repository's
// default branch.
func WithBase[T any](base string) Option[T] {
	return func(cm *CM[T]) {
		cm.base = base
	}
}

// WithRetry sets how transient GitHub API failures are retried.
func WithRetry[T any](cfg githubreconciler.RetryConfig) Option[T] {
	return func(cm *CM[T]) {
		cm.retry = cfg
	}
}

// CM manages the lifecycle of GitHub Pull Requests for a specific identity.
// It uses Go templates to generate PR titles and bodies from generic data of type T.
type CM[T any] struct {
	identity      string
	titleTemplate *template.Template
	bodyTemplate  *template.Template
	base          string
	retry         githubreconciler.RetryConfig
}

// New creates a new CM with the given identity and templates.
// The templates are executed with data of type T when creating or updating PRs.
// Returns an error if titleTemplate or bodyTemplate is nil.
func New[T any](identity string, titleTemplate *template.Template, bodyTemplate *template.Template, opts ...Option[T]) (*CM[T], error) {
	if titleTemplate == nil {
		return nil, errors.New("titleTemplate cannot be nil")
	}
	if bodyTemplate == nil {
		return nil, errors.New("bodyTemplate cannot be nil")
	}

	cm := &CM[T]{
		identity:      identity,
		titleTemplate: titleTemplate,
		bodyTemplate:  bodyTemplate,
		retry:         githubreconciler.DefaultRetryConfig(),
	}

	for _, opt := range opts {
		opt(cm)
	}
	if err := cm.retry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}

	return cm, nil
}

// NewSession creates a Session for the head branch in owner/repo. A single
// GraphQL query resolves the repository's default branch and any open PR
// already using branchName as its head.
func (cm *CM[T]) NewSession(
	ctx context.Context,
	client *github.Client,
	owner, repo, branchName string,
) (*Session[T], error) {
	switch {
	case client == nil:
		return nil, errors.New("client cannot be nil")
	case owner == "" || repo == "":
		return nil, fmt.Errorf("owner and repo are required, got %q/%q", owner, repo)
	case branchName == "":
		return nil, errors.New("branch name cannot be empty")
	}

	gqlClient := newGraphQLClient(client)

	var query struct {
		Repository struct {
			DefaultBranchRef struct {
				Name string
			}
			PullRequests struct {
				Nodes []struct {
					Number int
					Url    string
				}
			} `graphql:"pullRequests(headRefName: $headRef, states: [OPEN], first: 1)"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}

	variables := map[string]any{
		"owner":   githubv4.String(owner),
		"repo":    githubv4.String(repo),
		"headRef": githubv4.String(branchName),
	}

	if err := gqlClient.Query(ctx, &query, variables); err != nil {
		return nil, &githubreconciler.TransportError{Op: "querying repository", Err: err}
	}

	base := cm.base
	if base == "" {
		base = query.Repository.DefaultBranchRef.Name
	}
	if base == "" {
		return nil, fmt.Errorf("repository %s/%s has no default branch", owner, repo)
	}

	s := &Session[T]{
		manager:    cm,
		client:     client,
		owner:      owner,
		repo:       repo,
		branchName: branchName,
		ref:        base,
	}
	if nodes := query.Repository.PullRequests.Nodes; len(nodes) > 0 {
		s.prNumber = nodes[0].Number
		s.prURL = nodes[0].Url
		clog.FromContext(ctx).Infof("Found open PR #%d for %s", s.prNumber, branchName)
	}
	return s, nil
}

func (cm *CM[T]) execute(tmpl *template.Template, data *T) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("executing %s: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}
