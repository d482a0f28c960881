/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package patch

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		wantNoChange bool
	}{
		{name: "exact sentinel", raw: "__NO_CHANGES__", wantNoChange: true},
		{name: "sentinel with prose", raw: "No edits needed: __NO_CHANGES__", wantNoChange: false},
		{name: "sentinel with trailing text", raw: "__NO_CHANGES__\nthanks", wantNoChange: false},
		{name: "lowercase", raw: "__no_changes__", wantNoChange: false},
		{name: "empty", raw: "", wantNoChange: false},
		{name: "diff", raw: "diff --git a/x b/x\n", wantNoChange: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(tt.raw)
			if got := p.IsNoChange(); got != tt.wantNoChange {
				t.Errorf("Parse(%q).IsNoChange() = %v, want %v", tt.raw, got, tt.wantNoChange)
			}
			if !tt.wantNoChange && p.Text() != tt.raw {
				t.Errorf("Parse(%q).Text() = %q, want raw text", tt.raw, p.Text())
			}
		})
	}
}

const licenseAndReadme = `diff --git a/LICENSE b/LICENSE
new file mode 100644
--- /dev/null
+++ b/LICENSE
@@ -0,0 +1,1 @@
+MIT License
diff --git a/README.md b/README.md
--- a/README.md
+++ b/README.md
@@ -1,1 +1,2 @@
 # demo
+See LICENSE.
`

func TestFiles(t *testing.T) {
	got, err := Diff(licenseAndReadme).Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	want := []FileChange{
		{Path: "LICENSE", Op: OpAdd},
		{Path: "README.md", Op: OpModify},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Files() (-want +got):\n%s", diff)
	}
}

func TestFilesWithoutHeader(t *testing.T) {
	_, err := Diff("--- a/x\n+++ b/x\n").Files()
	if !errors.Is(err, ErrNoDiffHeader) {
		t.Errorf("Files() error = %v, want %v", err, ErrNoDiffHeader)
	}

	files, err := NoChange().Files()
	if err != nil || files != nil {
		t.Errorf("NoChange().Files() = %v, %v; want nil, nil", files, err)
	}
}
