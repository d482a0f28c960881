/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package patch models the two shapes a model response may take: the
// reserved no-change literal, or unified diff text to hand to an applier.
package patch

import (
	"errors"
	"strings"

	"github.com/waigani/diffparser"
)

// NoChangeSentinel is the exact response a model returns when the task
// needs no edit.
const NoChangeSentinel = "__NO_CHANGES__"

// Patch is either NoChange or a Diff. The zero value is an empty Diff.
type Patch struct {
	noChange bool
	text     string
}

// NoChange returns the no-op variant.
func NoChange() Patch {
	return Patch{noChange: true}
}

// Diff returns the diff variant holding text.
func Diff(text string) Patch {
	return Patch{text: text}
}

// Parse classifies a raw model response. Only the exact sentinel is
// NoChange; anything else, including the sentinel wrapped in other text,
// is treated as diff text and left for the applier to accept or reject.
func Parse(raw string) Patch {
	if raw == NoChangeSentinel {
		return NoChange()
	}
	return Diff(raw)
}

// IsNoChange reports whether p is the no-op variant.
func (p Patch) IsNoChange() bool {
	return p.noChange
}

// Text returns the diff text, or the sentinel for NoChange.
func (p Patch) Text() string {
	if p.noChange {
		return NoChangeSentinel
	}
	return p.text
}

// Op is the kind of change a diff makes to one file.
type Op string

const (
	OpAdd    Op = "add"
	OpModify Op = "modify"
	OpDelete Op = "delete"
)

// FileChange names a file touched by a diff.
type FileChange struct {
	Path string
	Op   Op
}

// ErrNoDiffHeader is returned by Files when the text does not open with a
// "diff " header line.
var ErrNoDiffHeader = errors.New("patch does not start with a diff header")

// Files lists the files a diff touches, in diff order.
func (p Patch) Files() ([]FileChange, error) {
	if p.noChange {
		return nil, nil
	}
	if !strings.HasPrefix(p.text, "diff ") {
		return nil, ErrNoDiffHeader
	}
	parsed, err := diffparser.Parse(p.text)
	if err != nil {
		return nil, err
	}
	changes := make([]FileChange, 0, len(parsed.Files))
	for _, f := range parsed.Files {
		switch f.Mode {
		case diffparser.NEW:
			changes = append(changes, FileChange{Path: f.NewName, Op: OpAdd})
		case diffparser.DELETED:
			changes = append(changes, FileChange{Path: f.OrigName, Op: OpDelete})
		default:
			changes = append(changes, FileChange{Path: f.NewName, Op: OpModify})
		}
	}
	return changes, nil
}
