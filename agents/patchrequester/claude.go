/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package patchrequester

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

type claudeCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func newClaude(apiKey string, s *settings) *claudeCompleter {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(apiKey),
		anthropicoption.WithMaxRetries(0),
	}
	if s.baseURL != "" {
		opts = append(opts, anthropicoption.WithBaseURL(s.baseURL))
	}
	return &claudeCompleter{
		client:    anthropic.NewClient(opts...),
		model:     s.model,
		maxTokens: s.maxTokens,
	}
}

func (c *claudeCompleter) name() string { return "anthropic" }

// complete sends the context and task as separate user messages; the API
// merges consecutive user turns.
func (c *claudeCompleter) complete(ctx context.Context, t turns) (string, usage, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: t.system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(t.repoContext)),
			anthropic.NewUserMessage(anthropic.NewTextBlock(t.task)),
		},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", usage{}, err
	}
	u := usage{
		promptTokens:     msg.Usage.InputTokens,
		completionTokens: msg.Usage.OutputTokens,
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, u, nil
		}
	}
	return "", u, errors.New("response contained no text block")
}
