/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package promptbuilder assembles model prompts from developer-controlled
// templates. Placeholders take the form {{name}} and are filled in a single
// pass, so bound values are never re-scanned for further placeholders.
//
// Developer literals are bound with BindStringLiteral, which only accepts
// untyped string constants. Anything derived from user input (task text,
// corrective instructions) goes through BindXML so it arrives escaped and
// clearly delimited:
//
//	var taskPrompt = promptbuilder.MustNewPrompt(`{{request}}`)
//
//	p, err := taskPrompt.BindXML("request", req)
//	if err != nil {
//		return err
//	}
//	text, err := p.Build()
//
// Prompts are immutable; every Bind call returns a new instance.
package promptbuilder
