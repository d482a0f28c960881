/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package patchrequester

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
)

type openAICompleter struct {
	client openai.Client
	model  string
}

func newOpenAI(apiKey string, s *settings) *openAICompleter {
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(apiKey),
		openaioption.WithMaxRetries(0),
	}
	if s.baseURL != "" {
		opts = append(opts, openaioption.WithBaseURL(s.baseURL))
	}
	return &openAICompleter{
		client: openai.NewClient(opts...),
		model:  s.model,
	}
}

func (c *openAICompleter) name() string { return "openai" }

func (c *openAICompleter) complete(ctx context.Context, t turns) (string, usage, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(t.system),
			openai.UserMessage(t.repoContext),
			openai.UserMessage(t.task),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", usage{}, err
	}
	u := usage{
		promptTokens:     resp.Usage.PromptTokens,
		completionTokens: resp.Usage.CompletionTokens,
	}
	if len(resp.Choices) == 0 {
		return "", u, errors.New("response contained no choices")
	}
	return resp.Choices[0].Message.Content, u, nil
}
