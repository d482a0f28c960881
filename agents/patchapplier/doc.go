/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package patchapplier applies a model-produced patch to a working tree,
// re-requesting the patch at most once when the first one is rejected.
//
// The loop is bounded by MaxAttempts:
//
//	first patch ──apply──► applied            (done)
//	     │
//	     └─rejected──► re-request with CorrectiveInstruction
//	                       │
//	                       ├─ NoChange ──► done, nothing applied
//	                       ├─ error ─────► returned unchanged
//	                       └─ patch ──apply──► applied | *ApplyError
//
// A NoChange first patch completes with zero attempts. Nothing is rolled
// back after a failure.
package patchapplier
