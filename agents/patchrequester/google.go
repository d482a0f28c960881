/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package patchrequester

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type googleCompleter struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func newGoogle(ctx context.Context, apiKey string, s *settings) (*googleCompleter, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &googleCompleter{
		client:    client,
		model:     s.model,
		maxTokens: int32(min(s.maxTokens, int64(1<<31-1))),
	}, nil
}

func (c *googleCompleter) name() string { return "google" }

func (c *googleCompleter) complete(ctx context.Context, t turns) (string, usage, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{
			genai.NewContentFromText(t.repoContext, genai.RoleUser),
			genai.NewContentFromText(t.task, genai.RoleUser),
		},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(t.system, genai.RoleUser),
			Temperature:       genai.Ptr[float32](0),
			MaxOutputTokens:   c.maxTokens,
		})
	if err != nil {
		return "", usage{}, err
	}

	var u usage
	if resp.UsageMetadata != nil {
		u.promptTokens = int64(resp.UsageMetadata.PromptTokenCount)
		u.completionTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", u, errors.New("response contained no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			text.WriteString(part.Text)
		}
	}
	return text.String(), u, nil
}
