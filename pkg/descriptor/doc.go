// SPDX-License-Identifier: MPL-2.0

// Package descriptor defines the module descriptor model: a module's name,
// its public and private include paths, and its public, private and
// dynamically loaded dependencies. It also decodes descriptor files
// (<Name>.build.{cue,json,toml,yaml,yml,hcl}) into that model.
//
// This package performs no graph work. Cross-module checks (unknown targets,
// cycles, version compatibility) belong to internal/depgraph and
// internal/planner.
package descriptor
