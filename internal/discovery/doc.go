// SPDX-License-Identifier: MPL-2.0

// Package discovery finds and parses module descriptor files under the
// configured roots.
//
// Roots are walked recursively for <Name>.build.<ext> files. Hidden
// directories and build output directories (Binaries, Intermediate,
// node_modules) are skipped. Results are ordered by path so the same tree
// always produces the same registration order.
//
// Problems are returned as Diagnostic values instead of being written to
// stderr, so the CLI decides how to render them. Parse failures do not stop
// the scan: every broken descriptor is reported in one run.
//
// Parsed descriptors are kept in an LRU cache keyed by absolute path and
// validated against file size and modification time, which keeps repeated
// scans in watch mode cheap.
package discovery
