/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"chainguard.dev/patchpilot/agents/contextsampler"
	"chainguard.dev/patchpilot/reconcilers/githubreconciler"
	"github.com/sethvargo/go-envconfig"
	"golang.org/x/oauth2"
)

type config struct {
	Owner string `env:"GITHUB_OWNER,required"`
	Repo  string `env:"GITHUB_REPO,required"`

	// Either a token, or the GitHub App trio.
	GitHubToken    string `env:"GITHUB_TOKEN"`
	AppID          int64  `env:"GITHUB_APP_ID"`
	InstallationID int64  `env:"GITHUB_INSTALLATION_ID"`
	AppPrivateKey  string `env:"GITHUB_APP_PRIVATE_KEY"`

	ModelAPIKey  string `env:"MODEL_API_KEY,required"`
	Model        string `env:"MODEL,default=gpt-4o"`
	ModelBaseURL string `env:"MODEL_BASE_URL"`

	// Unset limits fall back to the repository's .patchpilot.yaml, then to
	// the sampler defaults.
	MaxContextFiles *int `env:"MAX_CONTEXT_FILES,noinit"`
	MaxContextBytes *int `env:"MAX_CONTEXT_BYTES,noinit"`

	GitIdentity string   `env:"GIT_IDENTITY,default=patchpilot"`
	PRLabels    []string `env:"PR_LABELS"`
	PRDraft     bool     `env:"PR_DRAFT,default=false"`

	LogLevel       string `env:"LOG_LEVEL,default=info"`
	PushgatewayURL string `env:"PUSHGATEWAY_URL"`

	level slog.Level
}

func loadConfig(ctx context.Context, l envconfig.Lookuper) (*config, error) {
	var cfg config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *config) appConfigured() bool {
	return c.AppID != 0 || c.InstallationID != 0 || c.AppPrivateKey != ""
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *config) Validate() error {
	switch {
	case c.GitHubToken != "" && c.appConfigured():
		return errors.New("set either GITHUB_TOKEN or the GITHUB_APP_* variables, not both")
	case c.GitHubToken == "" && !c.appConfigured():
		return errors.New("one of GITHUB_TOKEN or GITHUB_APP_ID, GITHUB_INSTALLATION_ID and GITHUB_APP_PRIVATE_KEY is required")
	case c.appConfigured() && (c.AppID <= 0 || c.InstallationID <= 0 || c.AppPrivateKey == ""):
		return errors.New("GITHUB_APP_ID, GITHUB_INSTALLATION_ID and GITHUB_APP_PRIVATE_KEY must all be set")
	case c.MaxContextFiles != nil && *c.MaxContextFiles <= 0:
		return fmt.Errorf("MAX_CONTEXT_FILES must be positive, got %d", *c.MaxContextFiles)
	case c.MaxContextBytes != nil && *c.MaxContextBytes <= 0:
		return fmt.Errorf("MAX_CONTEXT_BYTES must be positive, got %d", *c.MaxContextBytes)
	}

	if err := c.level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

func (c *config) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if c.GitHubToken != "" {
		return githubreconciler.StaticTokenSource(c.GitHubToken)
	}
	return githubreconciler.AppTokenSource(ctx, c.AppID, c.InstallationID, c.AppPrivateKey)
}

func (c *config) samplerOptions() []contextsampler.Option {
	var opts []contextsampler.Option
	if c.MaxContextFiles != nil {
		opts = append(opts, contextsampler.WithMaxFiles(*c.MaxContextFiles))
	}
	if c.MaxContextBytes != nil {
		opts = append(opts, contextsampler.WithMaxBytes(*c.MaxContextBytes))
	}
	return opts
}
