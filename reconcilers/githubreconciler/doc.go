/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package githubreconciler holds the GitHub plumbing shared by the clone and
// change managers: OAuth2 token sources for personal access tokens and
// GitHub App installations, an authenticated API client, and the
// TransportError type used to report remote failures.
package githubreconciler
