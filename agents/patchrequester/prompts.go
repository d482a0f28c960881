/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package patchrequester

import (
	"chainguard.dev/patchpilot/agents/patch"
	"chainguard.dev/patchpilot/agents/promptbuilder"
)

// CorrectiveInstruction is sent with the single re-request after the first
// patch is rejected.
const CorrectiveInstruction = "The previous patch failed to apply. Re-emit the COMPLETE unified diff for every file you change, " +
	"with full headers (diff --git, ---, +++, and new file mode for new files) and full-file context in every hunk. " +
	"Output only the diff."

var systemInstructions = promptbuilder.MustNewPrompt(`ROLE: Repository patch author
TASK: You receive repository context and a task. Produce the change that accomplishes the task.

OUTPUT FORMAT (strict):
- If no change is needed, respond with exactly {{sentinel}} and nothing else.
- Otherwise respond with ONLY a multi-file patch in unified diff format, with no prose and no code fences.
- Every file section starts with a header line: diff --git a/<path> b/<path>
- A new file adds the line "new file mode 100644" right after its header.
- Every file section has a "--- a/<path>" line and a "+++ b/<path>" line. Use "--- /dev/null" for a new file.
- Hunks carry full context: include the entire file in every hunk, as produced by "git diff -U999999".
- Paths are relative to the repository root.`).MustBindStringLiteral("sentinel", patch.NoChangeSentinel)

var contextPrompt = promptbuilder.MustNewPrompt(`Repository context.

Sampled files:
{{files}}`)

var taskPrompt = promptbuilder.MustNewPrompt(`{{request}}

Respond with the patch, or with the no-change token, as described in the system instructions.`)
