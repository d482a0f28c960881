/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

// NewPromptForTest exposes NewPrompt for table-driven tests with dynamic templates.
func NewPromptForTest(template string) (*Prompt, error) {
	return NewPrompt(stringLiteral(template))
}
