/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package taskreconciler runs one task end to end against one repository:
//
//	clone ─► branch ─► sample context ─► request patch ─► apply (≤2 attempts)
//	      ─► commit ─► push ─► open PR
//
// A model answer of "no changes" ends the run successfully before anything
// is committed or pushed. With dry-run enabled the run stops after the
// commit, leaving the remote untouched.
package taskreconciler
