package optimizer

import (
	"go/token"

	"github.com/prunelang/prune/pkg/depgraph"
	"github.com/prunelang/prune/pkg/reach"
	"github.com/prunelang/prune/pkg/rewriter"
)

// PruneGroup removes the unused names from a partially-used comma-grouped
// declarator list, e.g. trimming `b` from `var a, b, c = 1, 2, 3` when only
// a and c are reachable.
//
// Splitting is only safe when every name has its own paired initializer
// expression. A group like `a, b := f()`, where a single multi-value call
// supplies every name, is left untouched: removing `a` there would change
// what `f()` returns into, not just delete a name, so the whole group is
// kept whenever Names and Values don't line up one-to-one.
func PruneGroup(fset *token.FileSet, rew *rewriter.Buffer, group *depgraph.VarGroup, usage *reach.UsageInfo) {
	names := group.Spec.Names
	values := group.Spec.Values
	if len(values) != 0 && len(values) != len(names) {
		return
	}

	used := make([]bool, len(group.Items))
	for _, item := range group.Items {
		var vertex any = item.Obj
		if vertex == nil {
			vertex = item.Name
		}
		used[item.Index] = usage.Used(vertex)
	}

	for _, run := range unusedRuns(used) {
		pruneRun(fset, rew, names, run)
		if len(values) == len(names) {
			pruneRun(fset, rew, values, run)
		}
	}
}

// positioner is the common surface of ast.Ident and ast.Expr that
// pruneRun needs: a position and an end.
type positioner interface {
	Pos() token.Pos
	End() token.Pos
}

type span struct{ lo, hi int } // inclusive range of consecutive unused indices

// unusedRuns collapses a used/unused mask into maximal runs of consecutive
// unused indices, so a stretch of several adjacent dropped names is
// removed as one edit instead of several overlapping ones. PruneGroup is
// only ever called with a mixed mask (not all-used, not all-unused), so
// every run here is a strict sub-range of the full list.
func unusedRuns(used []bool) []span {
	var runs []span
	i := 0
	for i < len(used) {
		if used[i] {
			i++
			continue
		}
		j := i
		for j < len(used) && !used[j] {
			j++
		}
		runs = append(runs, span{lo: i, hi: j - 1})
		i = j
	}
	return runs
}

// pruneRun removes the items in [run.lo, run.hi] along with whichever
// adjacent comma keeps the remaining list well-formed.
func pruneRun[T positioner](fset *token.FileSet, rew *rewriter.Buffer, items []T, run span) {
	if run.hi == len(items)-1 {
		// Run reaches the last item: swallow the comma before it, from
		// the previous surviving item's end through this run's end.
		rew.RemoveRange(rewriter.RangeFromPos(fset, items[run.lo-1].End(), items[run.hi].End()), rewriter.Options{})
		return
	}
	// Run is interior or starts at 0 but a survivor follows: swallow the
	// trailing commas up to the next surviving item's start.
	rew.RemoveRange(rewriter.RangeFromPos(fset, items[run.lo].Pos(), items[run.hi+1].Pos()), rewriter.Options{})
}
