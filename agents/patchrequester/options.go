/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package patchrequester

import (
	"errors"
	"fmt"
	"net/url"

	"chainguard.dev/patchpilot/agents/metrics"
)

type settings struct {
	model     string
	baseURL   string
	maxTokens int64
	enricher  metrics.AttributeEnricher
}

// Option configures a requester.
type Option func(*settings) error

// WithModel overrides DefaultModel. An empty model keeps the default.
func WithModel(model string) Option {
	return func(s *settings) error {
		if model != "" {
			s.model = model
		}
		return nil
	}
}

// WithBaseURL points the provider client at a different API endpoint,
// such as a proxy or a test server.
func WithBaseURL(baseURL string) Option {
	return func(s *settings) error {
		if baseURL == "" {
			return nil
		}
		if _, err := url.ParseRequestURI(baseURL); err != nil {
			return fmt.Errorf("invalid base URL %q: %w", baseURL, err)
		}
		s.baseURL = baseURL
		return nil
	}
}

// WithMaxTokens caps the response length for providers that require a cap.
func WithMaxTokens(tokens int64) Option {
	return func(s *settings) error {
		if tokens <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", tokens)
		}
		s.maxTokens = tokens
		return nil
	}
}

// WithAttributeEnricher adds attributes to the recorded token metrics.
func WithAttributeEnricher(enricher metrics.AttributeEnricher) Option {
	return func(s *settings) error {
		if enricher == nil {
			return errors.New("attribute enricher cannot be nil")
		}
		s.enricher = enricher
		return nil
	}
}
