/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package changemanager opens and refreshes GitHub pull requests for pushed
// branches. A CM renders PR titles and bodies from Go templates over
// caller-supplied data; a Session binds it to one repository and head
// branch, discovering the base (default) branch and any open PR for the
// head through the GraphQL API.
package changemanager
