/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package contextsampler selects a bounded slice of a working tree to show a
// model as repository context.
//
// Candidates are source files (by extension) that are not excluded by
// .gitignore, plus a fixed list of project manifests at the root that are
// always considered. Candidates are ranked by path length, shortest first,
// and admitted while they fit:
//   - a file must be smaller than MaxFileSize bytes;
//   - admitting it must leave the byte budget above zero;
//   - at most the file-count limit is admitted.
//
// Sampling is deterministic for a given tree and configuration. A file that
// was discovered but cannot be read fails the whole call.
//
// A working tree may carry a .patchpilot.yaml that adjusts the limits:
//
//	context:
//	  max_files: 10
//	  max_bytes: 20000
//	  extensions: [".proto", ".tf"]
//
// Options passed to Sample take precedence over the file.
package contextsampler
