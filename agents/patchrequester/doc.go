/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package patchrequester asks a language model for a patch.
//
// Every request carries the same three turns: a fixed system instruction
// describing the response contract, the sampled repository context, and the
// task (plus a corrective instruction when re-requesting). Requests use zero
// temperature and return the trimmed text of the first response choice.
//
// The provider is picked from the model name:
//   - "gpt-", "chatgpt-", "o1", "o3", "o4" use OpenAI
//   - "claude-" uses Anthropic
//   - "gemini-" uses Google's Gemini API
//
// Basic usage:
//
//	req, err := patchrequester.New(ctx, apiKey,
//	    patchrequester.WithModel("claude-sonnet-4-5"),
//	)
//	if err != nil {
//	    return err
//	}
//	text, err := req.Request(ctx, &patchrequester.Request{
//	    Task:    "add a LICENSE file",
//	    Context: bundle,
//	})
//
// The SDK clients are built with retries disabled: a failed call is returned
// to the caller as a *ModelError wrapping the SDK error.
package patchrequester
