/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package taskreconciler

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"chainguard.dev/patchpilot/agents/patch"
	"chainguard.dev/patchpilot/agents/patchapplier"
	"github.com/stretchr/testify/require"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		task string
		want string
	}{
		{name: "single line", task: "Add a LICENSE", want: "Add a LICENSE"},
		{name: "first line only", task: "  Fix the build\n\nThe CI job fails on arm64.", want: "Fix the build"},
		{name: "exactly max", task: strings.Repeat("a", MaxTitleRunes), want: strings.Repeat("a", MaxTitleRunes)},
		{name: "multibyte truncated", task: strings.Repeat("ü", 100), want: strings.Repeat("ü", MaxTitleRunes-1) + "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Title(tt.task)
			require.Equal(t, tt.want, got)
			require.LessOrEqual(t, utf8.RuneCountInString(got), MaxTitleRunes)
		})
	}
}

func TestBodyTemplate(t *testing.T) {
	data := NewPRData("Add a LICENSE\n\nUse MIT.", []patch.FileChange{
		{Path: "LICENSE", Op: patch.OpAdd},
		{Path: "README.md", Op: patch.OpModify},
	})

	var title, body bytes.Buffer
	require.NoError(t, titleTemplate.Execute(&title, data))
	require.NoError(t, bodyTemplate.Execute(&body, data))

	require.Equal(t, "Add a LICENSE", title.String())
	require.Equal(t, "Add a LICENSE\n\nUse MIT.\n\n### Changed files\n\n- `LICENSE` (add)\n- `README.md` (modify)\n", body.String())
}

func TestWriteSummary(t *testing.T) {
	res := &Result{
		Base:    "main",
		BaseSHA: "0123456789abcdef0123",
		Branch:  "patchpilot/20260101-000000",
		Commit:  "abc123",
		Files:  []patch.FileChange{{Path: "LICENSE", Op: patch.OpAdd}},
		Attempts: []patchapplier.Attempt{
			{Number: 1, Outcome: patchapplier.OutcomeRejected, Err: errors.New("corrupt patch")},
			{Number: 2, Outcome: patchapplier.OutcomeApplied},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, res))
	out := buf.String()

	for _, want := range []string{"Attempt", "rejected", "corrupt patch", "applied", "LICENSE", "from main@0123456789ab (not pushed)"} {
		require.Contains(t, out, want)
	}

	buf.Reset()
	res.PRURL = "https://github.com/o/r/pull/1"
	require.NoError(t, WriteSummary(&buf, res))
	require.Contains(t, buf.String(), "Pull request: https://github.com/o/r/pull/1")

	buf.Reset()
	require.NoError(t, WriteSummary(&buf, &Result{NoChange: true}))
	require.Equal(t, "No changes needed.\n", buf.String())
}

func TestBranchName(t *testing.T) {
	require.Equal(t, "patchpilot/20260304-130607", BranchName(time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("PST", -8*3600))))
}
