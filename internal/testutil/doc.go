// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests and benchmarks that build
// descriptor trees on disk. Every helper fails the test immediately on
// filesystem errors.
package testutil
