/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package clonemanager prepares isolated git clones for a single automated
// change. A Manager is configured with the GitHub token source and commit
// identity for an automation, and hands out Lease handles that:
//   - Clone the repository's default branch into a private temporary directory.
//   - Create a fresh branch at the cloned commit.
//   - Stage every change in the working tree and commit it as the identity.
//   - Push the branch to origin.
//
// Callers acquire one lease per run and Close it when done, which removes the
// working tree.
package clonemanager
