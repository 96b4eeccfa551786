// SPDX-License-Identifier: MPL-2.0

// Package dag provides directed graph operations for deterministic
// topological sorting and cycle detection. The module graph exports its
// static edges here to compute build order.
package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is the sentinel error wrapped by CycleError.
var ErrCycle = errors.New("dependency cycle detected")

type (
	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError struct {
		// Cycle is a closed path along edge direction: the first and last
		// elements are the same node (e.g. [A B A]).
		Cycle []string
	}

	// Graph is a directed graph for topological sorting.
	// Nodes are identified by string keys. An edge from A to B means A must
	// be ordered before B.
	Graph struct {
		// adjacency maps each node to its outgoing neighbors in insertion order.
		adjacency map[string][]string
		// edgeSet drops repeated edges.
		edgeSet map[[2]string]struct{}
		// nodes tracks all nodes in insertion order.
		nodes []string
		// nodeSet provides O(1) lookup for node existence.
		nodeSet map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// Unwrap returns ErrCycle for errors.Is() compatibility.
func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		edgeSet:   make(map[[2]string]struct{}),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge adds a directed edge from -> to, meaning "from" is ordered before "to".
// Both nodes are implicitly added if they don't exist. Repeated edges are ignored.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	key := [2]string{from, to}
	if _, ok := g.edgeSet[key]; ok {
		return
	}
	g.edgeSet[key] = struct{}{}
	g.adjacency[from] = append(g.adjacency[from], to)
}

// Has reports whether name is a node of the graph.
func (g *Graph) Has(name string) bool { return g.nodeSet[name] }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []string { return slices.Clone(g.nodes) }

// Successors returns the outgoing neighbors of name in insertion order.
func (g *Graph) Successors(name string) []string { return slices.Clone(g.adjacency[name]) }

// Reverse returns a new graph with every edge flipped. Node insertion order
// is preserved.
func (g *Graph) Reverse() *Graph {
	r := New()
	for _, n := range g.nodes {
		r.AddNode(n)
	}
	for _, from := range g.nodes {
		for _, to := range g.adjacency[from] {
			r.AddEdge(to, from)
		}
	}
	return r
}

// TopologicalSort returns a valid order using Kahn's algorithm.
// Returns CycleError if the graph contains a cycle.
// The returned order is deterministic: whenever several nodes are ready,
// the one with the lowest name is emitted first.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	// Compute in-degrees.
	inDegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	// The ready set is kept sorted; ready[0] is always the lowest name.
	var ready []string
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			ready = insertSorted(ready, node)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		result = append(result, node)

		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				ready = insertSorted(ready, neighbor)
			}
		}
	}

	if len(result) != len(g.nodes) {
		return nil, &CycleError{Cycle: g.FindCycle()}
	}

	return result, nil
}

// FindCycle returns the first cycle found by a depth-first traversal that
// starts from nodes in ascending name order and visits neighbors in
// ascending name order. The path is closed: it begins and ends at the node
// where the back edge lands. FindCycle returns nil for an acyclic graph.
func (g *Graph) FindCycle() []string {
	const (
		unvisited = iota
		onStack
		done
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string

	var visit func(node string) []string
	visit = func(node string) []string {
		state[node] = onStack
		stack = append(stack, node)
		for _, next := range sortedCopy(g.adjacency[node]) {
			switch state[next] {
			case onStack:
				start := slices.Index(stack, next)
				return append(slices.Clone(stack[start:]), next)
			case unvisited:
				if cycle := visit(next); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[node] = done
		return nil
	}

	for _, root := range sortedCopy(g.nodes) {
		if state[root] != unvisited {
			continue
		}
		if cycle := visit(root); cycle != nil {
			return cycle
		}
	}
	return nil
}

func insertSorted(s []string, v string) []string {
	i, _ := slices.BinarySearch(s, v)
	return slices.Insert(s, i, v)
}

func sortedCopy(s []string) []string {
	out := slices.Clone(s)
	slices.Sort(out)
	return out
}
