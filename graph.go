package di

import (
	"fmt"
	"sort"
	"sync"
)

// Graph records which keys depend on which other keys. It is built
// incrementally while producers run and stays acyclic: an edge that would
// close a cycle is rejected before it takes effect. All operations are
// concurrency-safe.
type Graph struct {
	// mu protects nodes during concurrent access.
	mu sync.RWMutex
	// nodes maps each key to the set of keys it depends on.
	nodes map[string]map[string]struct{}
}

// NewGraph creates and returns an initialized, empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]map[string]struct{}),
	}
}

// AddNode registers key with an empty dependency set. If the key is
// already present, the function does nothing.
func (g *Graph) AddNode(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ensure(key)
}

// ensure returns key's dependency set, creating the node if needed.
// Callers must hold mu.
func (g *Graph) ensure(key string) map[string]struct{} {
	deps, ok := g.nodes[key]
	if !ok {
		deps = make(map[string]struct{})
		g.nodes[key] = deps
	}
	return deps
}

// AddEdge records that `from` depends on `to`, registering both keys if
// they are new. The edge is inserted first and cycle detection runs on the
// graph that includes it; if a cycle is found the edge is rolled back and a
// [*CycleError] carrying the ordered path from `from` back to `from` is
// returned, leaving the graph exactly as it was.
func (g *Graph) AddEdge(from, to string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	deps := g.ensure(from)
	g.ensure(to)

	_, existed := deps[to]
	deps[to] = struct{}{}

	if path := g.findCycle(from); path != nil {
		if !existed {
			delete(deps, to)
		}
		return &CycleError{Path: path}
	}
	return nil
}

// findCycle walks depth-first from origin along the live dependency sets.
// A path is a cycle exactly when it arrives back at origin. Callers must
// hold mu. The graph was acyclic before the edge under test was inserted,
// so any cycle passes through origin; the seen set only guards against
// re-walking shared subtrees.
func (g *Graph) findCycle(origin string) []string {
	seen := make(map[string]bool)

	var walk func(cur string, path []string) []string
	walk = func(cur string, path []string) []string {
		path = append(path, cur)
		for dep := range g.nodes[cur] {
			if dep == origin {
				return append(path, origin)
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			if cycle := walk(dep, path); cycle != nil {
				return cycle
			}
		}
		return nil
	}
	return walk(origin, nil)
}

// Dependencies returns a sorted slice of the keys that `key` depends on.
func (g *Graph) Dependencies(key string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	deps, ok := g.nodes[key]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", key)
	}

	out := make([]string, 0, len(deps))
	for dep := range deps {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out, nil
}

// Len returns the number of registered keys.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// DependenciesForEachDepth groups the keys into ordered levels by
// dependency depth. It repeatedly peels off every key whose dependency set
// is currently empty, removes the peeled keys from all remaining sets, and
// prepends the batch to the result. Level 0 therefore holds the most
// dependent keys and the last level the keys that depend on nothing:
// dependents come before the keys they ultimately depend on.
//
// The computation runs on a defensive snapshot; the live graph is not
// mutated. Keys inside a level are sorted so the output is deterministic.
func (g *Graph) DependenciesForEachDepth() [][]string {
	g.mu.RLock()
	remaining := make(map[string]map[string]struct{}, len(g.nodes))
	for key, deps := range g.nodes {
		copied := make(map[string]struct{}, len(deps))
		for dep := range deps {
			copied[dep] = struct{}{}
		}
		remaining[key] = copied
	}
	g.mu.RUnlock()

	var levels [][]string
	for len(remaining) > 0 {
		var free []string
		for key, deps := range remaining {
			if len(deps) == 0 {
				free = append(free, key)
			}
		}
		if len(free) == 0 {
			// Unreachable while AddEdge keeps the graph acyclic.
			break
		}
		sort.Strings(free)

		for _, key := range free {
			delete(remaining, key)
		}
		for _, deps := range remaining {
			for _, key := range free {
				delete(deps, key)
			}
		}

		levels = append([][]string{free}, levels...)
	}
	return levels
}
