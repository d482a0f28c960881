/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubreconciler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

// StaticTokenSource serves a fixed personal access token.
func StaticTokenSource(token string) (oauth2.TokenSource, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("token cannot be empty")
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}), nil
}

// AppTokenSource mints installation tokens for a GitHub App. privateKey is
// either PEM-encoded key material or a path to a PEM file.
func AppTokenSource(ctx context.Context, appID, installationID int64, privateKey string) (oauth2.TokenSource, error) {
	if appID <= 0 || installationID <= 0 {
		return nil, fmt.Errorf("invalid app id %d or installation id %d", appID, installationID)
	}

	var (
		itr *ghinstallation.Transport
		err error
	)
	if strings.HasPrefix(strings.TrimSpace(privateKey), "-----BEGIN") {
		itr, err = ghinstallation.New(http.DefaultTransport, appID, installationID, []byte(privateKey))
	} else {
		itr, err = ghinstallation.NewKeyFromFile(http.DefaultTransport, appID, installationID, privateKey)
	}
	if err != nil {
		return nil, fmt.Errorf("creating installation transport: %w", err)
	}

	return &installationTokenSource{ctx: ctx, itr: itr}, nil
}

// installationTokenSource defers caching and refresh to the transport.
type installationTokenSource struct {
	ctx context.Context
	itr *ghinstallation.Transport
}

func (s *installationTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.itr.Token(s.ctx)
	if err != nil {
		return nil, &TransportError{Op: "minting installation token", Err: err}
	}
	return &oauth2.Token{AccessToken: tok}, nil
}

// NewClient returns a GitHub REST client authenticated with ts.
func NewClient(ctx context.Context, ts oauth2.TokenSource) *github.Client {
	return github.NewClient(oauth2.NewClient(ctx, ts))
}
