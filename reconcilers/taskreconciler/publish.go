/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package taskreconciler

import (
	"context"
	"errors"
	"strings"
	"text/template"
	"unicode/utf8"

	"chainguard.dev/patchpilot/agents/patch"
	"chainguard.dev/patchpilot/reconcilers/githubreconciler/changemanager"
	"github.com/google/go-github/v84/github"
)

// MaxTitleRunes bounds the PR title.
const MaxTitleRunes = 72

// PRData feeds the PR title and body templates.
type PRData struct {
	Title string
	Task  string
	Files []patch.FileChange
}

// NewPRData derives the PR content for a task.
func NewPRData(task string, files []patch.FileChange) *PRData {
	return &PRData{
		Title: Title(task),
		Task:  strings.TrimSpace(task),
		Files: files,
	}
}

// Title returns the first line of task, truncated to MaxTitleRunes.
func Title(task string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(task), "\n")
	line = strings.TrimSpace(line)
	if utf8.RuneCountInString(line) <= MaxTitleRunes {
		return line
	}
	runes := []rune(line)
	return strings.TrimSpace(string(runes[:MaxTitleRunes-1])) + "…"
}

var (
	titleTemplate = template.Must(template.New("title").Parse(`{{.Title}}`))
	bodyTemplate  = template.Must(template.New("body").Parse(`{{.Task}}

### Changed files
{{range .Files}}
- ` + "`{{.Path}}`" + ` ({{.Op}}){{end}}
`))
)

// GitHubPublisher opens pull requests with a change manager.
type GitHubPublisher struct {
	client *github.Client
	cm     *changemanager.CM[PRData]
	owner  string
	repo   string
	draft  bool
	labels []string
}

// PublisherOption configures a GitHubPublisher.
type PublisherOption func(*GitHubPublisher)

// WithDraft opens PRs as drafts.
func WithDraft(draft bool) PublisherOption {
	return func(p *GitHubPublisher) {
		p.draft = draft
	}
}

// WithLabels applies labels to created PRs.
func WithLabels(labels ...string) PublisherOption {
	return func(p *GitHubPublisher) {
		p.labels = append(p.labels, labels...)
	}
}

// NewGitHubPublisher creates a publisher for owner/repo.
func NewGitHubPublisher(client *github.Client, identity, owner, repo string, opts ...PublisherOption) (*GitHubPublisher, error) {
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}
	cm, err := changemanager.New[PRData](identity, titleTemplate, bodyTemplate)
	if err != nil {
		return nil, err
	}
	p := &GitHubPublisher{
		client: client,
		cm:     cm,
		owner:  owner,
		repo:   repo,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Publish implements Publisher.
func (p *GitHubPublisher) Publish(ctx context.Context, branch string, data *PRData, push func(context.Context) error) (string, error) {
	session, err := p.cm.NewSession(ctx, p.client, p.owner, p.repo, branch)
	if err != nil {
		return "", err
	}
	return session.Upsert(ctx, data, p.draft, p.labels, func(ctx context.Context, _ string) error {
		return push(ctx)
	})
}
