// Package reach computes reachability over a dependency graph collected by
// pkg/depgraph: starting from the root set, it explores the uses graph
// breadth-first and records every vertex the walk touches.
package reach

import (
	"github.com/prunelang/prune/pkg/depgraph"
)

// UsageInfo is the result of a reachability walk: membership by vertex
// identity, the same canonical key (a types.Object, a fallback ast.Node,
// or a *depgraph.Region) the collector used as a graph vertex. Every
// caller in this engine already holds that identity by the time it asks
// UsageInfo whether something survived — there is no AST-structural
// aliasing case in this retargeting (unlike the distilled spec's
// function-template-vs-templated-function duplicate-range case, which Go
// generics collapse into a single declaration site) that would require a
// second, range-based membership test.
type UsageInfo struct {
	used map[any]bool
}

// Used reports whether vertex was reached from the root set.
func (u *UsageInfo) Used(vertex any) bool {
	return u.used[vertex]
}

// Solve runs a worklist BFS over info.Uses starting from info.Roots, and
// returns the set of vertices reached.
//
// Two rules extend plain graph reachability:
//
//   - A struct type vertex, once reached, auto-enqueues its Close() error
//     method if one was declared (info.Destructors) — the destructor
//     analog: a reachable type keeps its own cleanup method alive even
//     though nothing may call it explicitly.
//   - A region, once reached, is never revisited through a different
//     reopening of the same name; each //region marker pair is its own
//     vertex and is reached only by an edge that names it specifically.
func Solve(info *depgraph.SourceInfo) *UsageInfo {
	u := &UsageInfo{used: make(map[any]bool)}

	var queue []any

	enqueue := func(v any) {
		if v == nil || u.used[v] {
			return
		}
		u.used[v] = true
		queue = append(queue, v)
	}

	for root := range info.Roots {
		enqueue(root)
	}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]

		for next := range info.Uses[v] {
			enqueue(next)
		}
		if dtor, ok := info.Destructors[v]; ok {
			enqueue(dtor)
		}
	}

	return u
}
