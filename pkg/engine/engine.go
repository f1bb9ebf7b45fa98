// Package engine wires the front end, guard remover, dependency collector,
// reachability solver, and optimizer into the two entry points callers
// use: Optimize, which applies every deletion, and Explain, which annotates
// would-be deletions instead.
package engine

import (
	"fmt"
	"go/token"

	"github.com/prunelang/prune/pkg/bundle"
	"github.com/prunelang/prune/pkg/config"
	"github.com/prunelang/prune/pkg/depgraph"
	diag "github.com/prunelang/prune/pkg/errors"
	"github.com/prunelang/prune/pkg/explain"
	"github.com/prunelang/prune/pkg/frontend"
	"github.com/prunelang/prune/pkg/guard"
	"github.com/prunelang/prune/pkg/optimizer"
	"github.com/prunelang/prune/pkg/reach"
	"github.com/prunelang/prune/pkg/report"
	"github.com/prunelang/prune/pkg/rewriter"
)

// RewrittenSource is the result of a successful Optimize call.
type RewrittenSource struct {
	// Source is the rewritten bundle text.
	Source []byte
	// DeclsRemoved counts the deletions the optimizer made whole:
	// unreachable functions, type declarations or specs, and var/const
	// specs, plus duplicate dot-imports. Guard removals are counted in
	// GuardsRemoved; names trimmed out of a partially used group and
	// region marker pairs are not counted.
	DeclsRemoved int
	// GuardsRemoved counts the declarations deleted because an inactive
	// //go:build guard was not in the keep-tag allow-list.
	GuardsRemoved int
	// Report records one entry per declaration this run deleted, across
	// both the guard remover and the optimizer.
	Report *report.Reporter
	// Diagnostics collects non-fatal problems surfaced while analyzing b:
	// malformed build guards and selector expressions the type checker
	// could not attribute to a package member. None of these stop the run;
	// they describe places the result may be more conservative than a
	// fully-resolved analysis would be.
	Diagnostics []*diag.CompileError
	// Fset resolves Diagnostics' positions; it's the same file set used to
	// parse b.
	Fset *token.FileSet
	// Pinned lists every //go:keep-pinned declaration that supplied a
	// reason="..." attribute.
	Pinned []depgraph.PinnedDecl
}

// Optimize runs the full pipeline over b: parse and type-check, remove
// inactive declaration guards, collect the uses graph, solve reachability
// from main and any keep-pragma roots, then delete everything unreached.
//
// cfg.KeepTags names the build-tag identifiers whose guarded declarations
// must survive even though no tag in the bundle's (always empty) active
// set satisfies their guard expression. cfg.KeepPragma names the
// doc-comment substring that pins a root (falls back to
// depgraph.KeepPragma when empty). cfg.RemoveEmptyLines controls whether
// a deletion also collapses the blank-line run it would otherwise leave
// behind.
func Optimize(b *bundle.Bundle, cfg config.PruneConfig) (RewrittenSource, error) {
	tu, g, opt, rew, err := analyze(b, cfg)
	if err != nil {
		return RewrittenSource{}, err
	}

	return RewrittenSource{
		Source:        rew.ApplyChanges(),
		DeclsRemoved:  opt.Removed,
		GuardsRemoved: len(g.Removed),
		Report:        opt.Report,
		Diagnostics:   allDiagnostics(g, opt.Info),
		Fset:          tu.Fset,
		Pinned:        opt.Info.Pinned(),
	}, nil
}

// ExplainedSource is the result of a successful Explain call.
type ExplainedSource struct {
	// Source is the original bundle text with every would-be-removed
	// declaration wrapped in PRUNE:REMOVED markers instead of deleted.
	Source []byte
	// Report records the same entries Optimize would have deleted.
	Report *report.Reporter
	// Diagnostics collects the same non-fatal problems Optimize would have
	// reported.
	Diagnostics []*diag.CompileError
	// Fset resolves Diagnostics' positions.
	Fset *token.FileSet
	// Pinned lists every //go:keep-pinned declaration that supplied a
	// reason="..." attribute.
	Pinned []depgraph.PinnedDecl
}

// Explain runs the same analysis Optimize does but, instead of deleting
// anything, annotates the original source with markers describing what
// would have been removed and why. Useful for previewing a run before
// committing to it.
func Explain(b *bundle.Bundle, cfg config.PruneConfig) (ExplainedSource, error) {
	tu, g, opt, _, err := analyze(b, cfg)
	if err != nil {
		return ExplainedSource{}, err
	}

	annotated, err := explain.New(true).Annotate(b.Joined, opt.Report.Entries())
	if err != nil {
		return ExplainedSource{}, fmt.Errorf("engine: %w", err)
	}

	return ExplainedSource{
		Source:      annotated,
		Report:      opt.Report,
		Diagnostics: allDiagnostics(g, opt.Info),
		Fset:        tu.Fset,
		Pinned:      opt.Info.Pinned(),
	}, nil
}

// allDiagnostics merges the guard remover's malformed-guard diagnostics with
// the dependency collector's unresolved-selector diagnostics into the single
// list callers see.
func allDiagnostics(g *guard.Remover, info *depgraph.SourceInfo) []*diag.CompileError {
	if len(g.Diagnostics) == 0 && len(info.Diagnostics) == 0 {
		return nil
	}
	all := make([]*diag.CompileError, 0, len(g.Diagnostics)+len(info.Diagnostics))
	all = append(all, g.Diagnostics...)
	all = append(all, info.Diagnostics...)
	return all
}

// analyze runs the front end, guard remover, dependency collector,
// reachability solver, and optimizer over b, without yet deciding whether
// the caller wants the rewriter's output applied or merely reported.
func analyze(b *bundle.Bundle, cfg config.PruneConfig) (*frontend.TranslationUnit, *guard.Remover, *optimizer.Optimizer, *rewriter.Buffer, error) {
	tu, err := frontend.Load(b.Joined)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("engine: %w", err)
	}

	rew := rewriter.New(b.Joined)
	rep := report.New()

	g := guard.New(tu.Fset, rew, rep, b, cfg.RemoveEmptyLines, nil, cfg.KeepTags)
	g.Run(tu.File)

	info := depgraph.Collect(tu, cfg.KeepTags, cfg.KeepPragma)
	depgraph.ForceLateBindings(info)

	usage := reach.Solve(info)

	opt := optimizer.New(tu, info, usage, rew, rep, b, cfg.RemoveEmptyLines)
	opt.Run()

	return tu, g, opt, rew, nil
}
