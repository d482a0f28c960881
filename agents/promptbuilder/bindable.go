/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package promptbuilder

// Bindable is implemented by request types that know how to fill a prompt.
type Bindable interface {
	// Bind returns a copy of prompt with the receiver's values bound.
	Bind(prompt *Prompt) (*Prompt, error)
}
