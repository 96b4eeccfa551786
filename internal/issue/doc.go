// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions for the user. The Markdown catalogue explains each class of
// resolution failure and is rendered with glamour by 'modgraph explain'.
package issue
