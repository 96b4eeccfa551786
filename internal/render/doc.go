// SPDX-License-Identifier: MPL-2.0

// Package render writes resolved build plans in the supported output
// formats: a styled text summary, JSON, YAML, TOML and Graphviz dot.
package render
