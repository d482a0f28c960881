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

	"chainguard.dev/patchpilot/agents/contextsampler"
	"chainguard.dev/patchpilot/agents/metrics"
	"chainguard.dev/patchpilot/agents/promptbuilder"
	"github.com/chainguard-dev/clog"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o"

// ErrUnsupportedModel is returned by New for a model name no provider serves.
var ErrUnsupportedModel = errors.New("unsupported model")

// Interface requests a patch for a task.
type Interface interface {
	// Request performs exactly one model call and returns the trimmed text
	// of the first response choice.
	Request(ctx context.Context, req *Request) (string, error)
}

// Request is the input to one model call.
type Request struct {
	// Task is the user's instruction.
	Task string
	// Context is the sampled repository content.
	Context *contextsampler.Bundle
	// Instruction is an extra directive, set only when re-requesting after
	// a rejected patch.
	Instruction string
}

// Bind implements promptbuilder.Bindable.
func (r *Request) Bind(p *promptbuilder.Prompt) (*promptbuilder.Prompt, error) {
	return p.BindXML("request", struct {
		XMLName     struct{} `xml:"request"`
		Task        string   `xml:"task"`
		Instruction string   `xml:"instruction,omitempty"`
	}{
		Task:        r.Task,
		Instruction: r.Instruction,
	})
}

// ModelError wraps a failed model call.
type ModelError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s request for model %s: %v", e.Provider, e.Model, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// turns holds the rendered content of the three message turns.
type turns struct {
	system      string
	repoContext string
	task        string
}

type usage struct {
	promptTokens     int64
	completionTokens int64
}

// completer performs one provider call.
type completer interface {
	name() string
	complete(ctx context.Context, t turns) (string, usage, error)
}

type requester struct {
	model        string
	provider     completer
	genaiMetrics *metrics.GenAI
}

// New creates a requester for the configured model, authenticating with
// apiKey.
func New(ctx context.Context, apiKey string, opts ...Option) (Interface, error) {
	if apiKey == "" {
		return nil, errors.New("model API key cannot be empty")
	}

	s := &settings{
		model:     DefaultModel,
		maxTokens: 8192,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	var (
		provider completer
		err      error
	)
	switch m := strings.ToLower(s.model); {
	case strings.HasPrefix(m, "claude-"):
		provider = newClaude(apiKey, s)
	case strings.HasPrefix(m, "gemini-"):
		provider, err = newGoogle(ctx, apiKey, s)
	case isOpenAIModel(m):
		provider = newOpenAI(apiKey, s)
	default:
		return nil, fmt.Errorf("%w: %s (expected gpt-*, o*, claude-* or gemini-*)", ErrUnsupportedModel, s.model)
	}
	if err != nil {
		return nil, err
	}

	genaiMetrics := metrics.NewGenAI("chainguard.dev/patchpilot")
	if s.enricher != nil {
		genaiMetrics.SetAttributeEnricher(s.enricher)
	}

	return &requester{
		model:        s.model,
		provider:     provider,
		genaiMetrics: genaiMetrics,
	}, nil
}

func isOpenAIModel(m string) bool {
	for _, prefix := range []string{"gpt-", "chatgpt-", "o1", "o3", "o4"} {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

// Request implements Interface.
func (r *requester) Request(ctx context.Context, req *Request) (string, error) {
	if req == nil || req.Context == nil {
		return "", errors.New("request and its context cannot be nil")
	}
	log := clog.FromContext(ctx).With("model", r.model).With("provider", r.provider.name())

	t, err := render(req)
	if err != nil {
		return "", err
	}

	corrective := req.Instruction != ""
	r.genaiMetrics.RecordRequest(ctx, r.model, corrective)
	log.With("context_bytes", len(t.repoContext)).
		With("corrective", corrective).
		Info("Requesting patch")

	text, u, err := r.provider.complete(ctx, t)
	if err != nil {
		return "", &ModelError{Provider: r.provider.name(), Model: r.model, Err: err}
	}
	if u.promptTokens > 0 || u.completionTokens > 0 {
		r.genaiMetrics.RecordTokens(ctx, r.model, u.promptTokens, u.completionTokens)
	}

	text = strings.TrimSpace(text)
	log.With("response_length", len(text)).Info("Received model response")
	return text, nil
}

// render builds the three turns for req.
func render(req *Request) (turns, error) {
	system, err := systemInstructions.Build()
	if err != nil {
		return turns{}, fmt.Errorf("building system prompt: %w", err)
	}
	bound, err := req.Bind(taskPrompt)
	if err != nil {
		return turns{}, fmt.Errorf("binding task prompt: %w", err)
	}
	task, err := bound.Build()
	if err != nil {
		return turns{}, fmt.Errorf("building task prompt: %w", err)
	}
	listed, err := contextPrompt.BindYAML("files", req.Context.Paths())
	if err != nil {
		return turns{}, fmt.Errorf("binding context prompt: %w", err)
	}
	header, err := listed.Build()
	if err != nil {
		return turns{}, fmt.Errorf("building context prompt: %w", err)
	}
	return turns{
		system:      system,
		repoContext: header + "\n" + req.Context.String(),
		task:        task,
	}, nil
}
