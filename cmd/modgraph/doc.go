// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for modgraph.
//
// Every command handler receives the App composition root and reaches
// configuration and discovery only through its interfaces, so tests can run
// the full command tree in-process with buffers.
package cmd
