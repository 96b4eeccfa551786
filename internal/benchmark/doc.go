// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks for the hot paths of a planning run:
//   - descriptor parsing in every supported format
//   - descriptor discovery, cold and with a warm parse cache
//   - target resolution over a large synthetic graph
//   - plan rendering
//
// Run them with:
//
//	go test -run '^$' -bench . ./internal/benchmark
package benchmark
