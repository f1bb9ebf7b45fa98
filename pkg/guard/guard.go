// Package guard implements the shrinker's declaration-guard remover. Go's
// build-tag mechanism only gates whole files, so this package adopts the
// standard library's own //go:build expression grammar (go/build/constraint)
// but evaluates it per top-level declaration, deleting any declaration
// whose guard comment evaluates false against the active tag set.
package guard

import (
	"go/ast"
	"go/build/constraint"
	"go/token"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/prunelang/prune/pkg/bundle"
	diag "github.com/prunelang/prune/pkg/errors"
	"github.com/prunelang/prune/pkg/report"
	"github.com/prunelang/prune/pkg/rewriter"
)

// Remover observes a translation unit's top-level declarations, evaluates
// any //go:build declaration guard attached to each, and submits the
// ranges of inactive ones to the shared rewriter.
type Remover struct {
	Fset       *token.FileSet
	Rewriter   *rewriter.Buffer
	ActiveTags map[string]bool
	KeepTags   map[string]bool

	// Report, when non-nil, receives one entry per declaration this pass
	// deletes.
	Report *report.Reporter

	// Bundle, when non-nil, attributes each report entry's position back
	// to the fragment it came from, for a multi-file bundle.
	Bundle *bundle.Bundle

	// RemoveEmptyLines collapses the blank-line run a removed declaration
	// would otherwise leave behind.
	RemoveEmptyLines bool

	// Removed collects the set of declarations this pass deleted; its size
	// is the run's guard-removal count. The optimizer does not consult it:
	// a removal the optimizer later submits for one of these declarations
	// overlaps the range accepted here, so the rewriter rejects it and the
	// optimizer does not count it.
	Removed map[ast.Decl]bool

	// Diagnostics collects one CompileError per guard comment that looked
	// like a build constraint but go/build/constraint rejected; the
	// guarded declaration is kept whenever this happens.
	Diagnostics []*diag.CompileError
}

// New creates a Remover sharing rew and rep with the rest of the
// pipeline. rep may be nil, in which case no report entries are recorded.
// b may be nil, in which case report entries carry no fragment attribution.
// removeEmptyLines controls whether a deletion also collapses the
// blank-line run it would otherwise leave behind.
func New(fset *token.FileSet, rew *rewriter.Buffer, rep *report.Reporter, b *bundle.Bundle, removeEmptyLines bool, activeTags, keepTags []string) *Remover {
	active := make(map[string]bool, len(activeTags))
	for _, t := range activeTags {
		active[t] = true
	}
	keep := make(map[string]bool, len(keepTags))
	for _, t := range keepTags {
		keep[t] = true
	}
	return &Remover{
		Fset:             fset,
		Rewriter:         rew,
		ActiveTags:       active,
		KeepTags:         keep,
		Report:           rep,
		Bundle:           b,
		RemoveEmptyLines: removeEmptyLines,
		Removed:          make(map[ast.Decl]bool),
	}
}

// Run walks every top-level declaration in file and removes the inactive
// ones, subject to the keep-tag allow-list.
func (r *Remover) Run(file *ast.File) {
	astutil.Apply(file, func(c *astutil.Cursor) bool {
		decl, ok := c.Node().(ast.Decl)
		if !ok || c.Parent() != file {
			return true
		}
		r.visitDecl(decl)
		return false
	}, nil)
}

func (r *Remover) visitDecl(decl ast.Decl) {
	doc, exprLine := guardLine(decl)
	if doc == nil {
		return
	}
	expr, err := constraint.Parse(exprLine)
	if err != nil {
		r.Diagnostics = append(r.Diagnostics, diag.MalformedGuardError(exprLine, doc.Pos()))
		return
	}
	if r.isActive(expr) {
		return
	}
	if r.referencesKeptTag(expr) {
		return
	}
	r.Rewriter.RemoveRange(rewriter.RangeFromPos(r.Fset, doc.Pos(), declEnd(decl)), rewriter.Options{RemoveEmptyLines: r.RemoveEmptyLines})
	r.Removed[decl] = true
	r.recordRemoval(decl)
}

func (r *Remover) recordRemoval(decl ast.Decl) {
	if r.Report == nil {
		return
	}
	name, kind := declNameAndKind(decl)
	startPos := r.Fset.Position(decl.Pos())
	endPos := r.Fset.Position(decl.End())
	r.Report.Record(report.Entry{
		Name:      name,
		Kind:      kind,
		StartLine: startPos.Line,
		EndLine:   endPos.Line,
		Reason:    report.ReasonInactiveGuard,
		Fragment:  r.fragmentAt(decl.Pos()),
	})
}

// fragmentAt returns the fragment name owning pos (resolved to a byte
// offset through the file set), or "" when r.Bundle is nil or pos falls
// outside every fragment.
func (r *Remover) fragmentAt(pos token.Pos) string {
	if r.Bundle == nil {
		return ""
	}
	return r.Bundle.FragmentAt(r.Fset.Position(pos).Offset)
}

func declNameAndKind(decl ast.Decl) (string, string) {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		if d.Name != nil {
			return d.Name.Name, "func"
		}
		return "<anonymous>", "func"
	case *ast.GenDecl:
		kind := strings.ToLower(d.Tok.String())
		if len(d.Specs) == 0 {
			return "<empty>", kind
		}
		switch spec := d.Specs[0].(type) {
		case *ast.TypeSpec:
			return spec.Name.Name, kind
		case *ast.ValueSpec:
			if len(spec.Names) == 1 {
				return spec.Names[0].Name, kind
			}
			names := make([]string, len(spec.Names))
			for i, n := range spec.Names {
				names[i] = n.Name
			}
			return strings.Join(names, ", "), kind
		}
	}
	return "<unknown>", "decl"
}

// guardLine returns the declaration's doc comment and the first comment
// line within it that go/build/constraint recognizes as a build
// expression, if any. The returned line keeps its leading "//" (or
// "//go:build"/"// +build" prefix) intact, since constraint.Parse expects
// the whole comment text, not just the expression substring.
func guardLine(decl ast.Decl) (*ast.CommentGroup, string) {
	var doc *ast.CommentGroup
	switch d := decl.(type) {
	case *ast.FuncDecl:
		doc = d.Doc
	case *ast.GenDecl:
		doc = d.Doc
	default:
		return nil, ""
	}
	if doc == nil {
		return nil, ""
	}
	for _, c := range doc.List {
		if constraint.IsGoBuild(c.Text) || constraint.IsPlusBuild(c.Text) {
			return doc, c.Text
		}
	}
	return nil, ""
}

func declEnd(decl ast.Decl) token.Pos {
	return decl.End()
}

func (r *Remover) isActive(expr constraint.Expr) bool {
	return expr.Eval(func(tag string) bool { return r.ActiveTags[tag] })
}

func (r *Remover) referencesKeptTag(expr constraint.Expr) bool {
	for tag := range collectTags(expr) {
		if r.KeepTags[tag] {
			return true
		}
	}
	return false
}

func collectTags(expr constraint.Expr) map[string]bool {
	tags := make(map[string]bool)
	var walk func(constraint.Expr)
	walk = func(e constraint.Expr) {
		switch v := e.(type) {
		case *constraint.TagExpr:
			tags[v.Tag] = true
		case *constraint.NotExpr:
			walk(v.X)
		case *constraint.AndExpr:
			walk(v.X)
			walk(v.Y)
		case *constraint.OrExpr:
			walk(v.X)
			walk(v.Y)
		}
	}
	walk(expr)
	return tags
}
