// Package optimizer runs the shrinker's second traversal: given the
// reachability result from pkg/reach, it decides, per declaration, whether
// to submit its range to the shared rewriter for deletion.
package optimizer

import (
	"go/ast"
	"go/token"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/prunelang/prune/pkg/bundle"
	"github.com/prunelang/prune/pkg/depgraph"
	"github.com/prunelang/prune/pkg/frontend"
	"github.com/prunelang/prune/pkg/reach"
	"github.com/prunelang/prune/pkg/report"
	"github.com/prunelang/prune/pkg/rewriter"
)

// Optimizer applies a reachability result to a translation unit's
// top-level declarations.
type Optimizer struct {
	TU       *frontend.TranslationUnit
	Info     *depgraph.SourceInfo
	Usage    *reach.UsageInfo
	Rewriter *rewriter.Buffer

	// Report, when non-nil, receives one entry per declaration (or
	// group member) this pass deletes.
	Report *report.Reporter

	// Bundle, when non-nil, attributes each report entry's position back
	// to the fragment it came from, for a multi-file bundle.
	Bundle *bundle.Bundle

	// RemoveEmptyLines collapses the blank-line run a deletion would
	// otherwise leave behind.
	RemoveEmptyLines bool

	// Removed counts the declarations this pass deleted, for reporting.
	Removed int

	// seenDotImports tracks which dot-import paths this pass has already
	// kept one survivor for, in file order.
	seenDotImports map[string]bool
}

// New builds an Optimizer over the given inputs, sharing rew and rep with
// the rest of the pipeline. rep may be nil, in which case no report
// entries are recorded. b may be nil, in which case report entries carry
// no fragment attribution. removeEmptyLines controls whether a deletion
// also collapses the blank-line run it would otherwise leave behind.
func New(tu *frontend.TranslationUnit, info *depgraph.SourceInfo, usage *reach.UsageInfo, rew *rewriter.Buffer, rep *report.Reporter, b *bundle.Bundle, removeEmptyLines bool) *Optimizer {
	return &Optimizer{TU: tu, Info: info, Usage: usage, Rewriter: rew, Report: rep, Bundle: b, RemoveEmptyLines: removeEmptyLines}
}

// fragmentAt returns the fragment name owning pos (resolved to a byte
// offset through the file set), or "" when o.Bundle is nil or pos falls
// outside every fragment.
func (o *Optimizer) fragmentAt(pos token.Pos) string {
	if o.Bundle == nil {
		return ""
	}
	return o.Bundle.FragmentAt(o.TU.Fset.Position(pos).Offset)
}

// Run walks every top-level declaration and every region marker, deleting
// whatever reach.Solve did not mark reachable.
func (o *Optimizer) Run() {
	astutil.Apply(o.TU.File, func(c *astutil.Cursor) bool {
		decl, ok := c.Node().(ast.Decl)
		if !ok || c.Parent() != o.TU.File {
			return true
		}
		o.visitDecl(decl)
		return false
	}, nil)
	o.pruneRegionMarkers()
}

func (o *Optimizer) visitDecl(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		o.visitFuncDecl(d)
	case *ast.GenDecl:
		o.visitGenDecl(d)
	}
}

func (o *Optimizer) vertexOf(id *ast.Ident) any {
	if id == nil || o.TU.Info == nil {
		return nil
	}
	if obj, ok := o.TU.Info.Defs[id]; ok && obj != nil {
		return obj
	}
	return nil
}

func (o *Optimizer) visitFuncDecl(d *ast.FuncDecl) {
	var vertex any = o.vertexOf(d.Name)
	if vertex == nil {
		vertex = d
	}
	if o.Usage.Used(vertex) {
		return
	}
	name := "<anonymous>"
	if d.Name != nil {
		name = d.Name.Name
	}
	begin, end := declRange(d.Doc, d)
	o.remove(name, "func", report.ReasonUnreachable, begin, end)
}

func (o *Optimizer) visitGenDecl(d *ast.GenDecl) {
	switch d.Tok {
	case token.TYPE:
		o.visitTypeGenDecl(d)
	case token.VAR, token.CONST:
		o.visitValueGenDecl(d)
	case token.IMPORT:
		o.visitImportGenDecl(d)
	}
}

// visitImportGenDecl is the using-directive analog: a dot-import
// (`import . "pkg"`) brings a package's exported names into file scope
// unqualified, the same role a C++ using-directive plays for a namespace.
// The earlier dot-import naming a given path is the sole survivor; later
// ones for the same path are deleted outright, independent of whether
// anything from the package is actually used.
func (o *Optimizer) visitImportGenDecl(d *ast.GenDecl) {
	if o.seenDotImports == nil {
		o.seenDotImports = make(map[string]bool)
	}
	for _, spec := range d.Specs {
		is, ok := spec.(*ast.ImportSpec)
		if !ok || is.Name == nil || is.Name.Name != "." {
			continue
		}
		path := is.Path.Value
		if o.seenDotImports[path] {
			begin, end := declRange(is.Doc, is)
			o.remove(importPathName(path), "import", report.ReasonDuplicateDotImport, begin, end)
			continue
		}
		o.seenDotImports[path] = true
	}
}

func importPathName(quoted string) string {
	if unquoted, err := strconv.Unquote(quoted); err == nil {
		return unquoted
	}
	return quoted
}

func (o *Optimizer) visitTypeGenDecl(d *ast.GenDecl) {
	unused := make([]*ast.TypeSpec, 0, len(d.Specs))
	for _, spec := range d.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}
		var vertex any = o.vertexOf(ts.Name)
		if vertex == nil {
			vertex = ts
		}
		if !o.Usage.Used(vertex) {
			unused = append(unused, ts)
		}
	}
	if len(unused) == 0 {
		return
	}
	if len(unused) == len(d.Specs) {
		begin, end := declRange(d.Doc, d)
		o.remove(typeGroupName(unused), "type", report.ReasonUnreachable, begin, end)
		return
	}
	for _, ts := range unused {
		begin, end := declRange(ts.Doc, ts)
		o.remove(ts.Name.Name, "type", report.ReasonUnreachable, begin, end)
	}
}

func typeGroupName(specs []*ast.TypeSpec) string {
	if len(specs) == 1 {
		return specs[0].Name.Name
	}
	names := make([]string, len(specs))
	for i, ts := range specs {
		names[i] = ts.Name.Name
	}
	return strings.Join(names, ", ")
}

func (o *Optimizer) visitValueGenDecl(d *ast.GenDecl) {
	kind := "var"
	if d.Tok == token.CONST {
		kind = "const"
	}
	for _, spec := range d.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		group := o.Info.VarGroups[vs.Pos()]
		if group == nil {
			continue
		}
		usedCount := 0
		for _, item := range group.Items {
			var vertex any = item.Obj
			if vertex == nil {
				vertex = item.Name
			}
			if o.Usage.Used(vertex) {
				usedCount++
			}
		}
		switch {
		case usedCount == len(group.Items):
			continue
		case usedCount == 0:
			begin, end := declRange(pickDoc(d.Doc, vs.Doc), vs)
			o.remove(valueGroupName(group), kind, report.ReasonUnreachable, begin, end)
		default:
			PruneGroup(o.TU.Fset, o.Rewriter, group, o.Usage)
			o.recordGroupPrune(group, kind)
		}
	}
}

func valueGroupName(group *depgraph.VarGroup) string {
	names := make([]string, len(group.Items))
	for i, item := range group.Items {
		names[i] = item.Name.Name
	}
	return strings.Join(names, ", ")
}

// recordGroupPrune records one report entry per unused name that PruneGroup
// just trimmed from group, for the declarations that stay only partially.
func (o *Optimizer) recordGroupPrune(group *depgraph.VarGroup, kind string) {
	if o.Report == nil {
		return
	}
	for _, item := range group.Items {
		var vertex any = item.Obj
		if vertex == nil {
			vertex = item.Name
		}
		if o.Usage.Used(vertex) {
			continue
		}
		pos := o.TU.Fset.Position(item.Name.Pos())
		o.Report.Record(report.Entry{
			Name:      item.Name.Name,
			Kind:      kind,
			StartLine: pos.Line,
			EndLine:   pos.Line,
			Reason:    report.ReasonUnusedInGroup,
			Fragment:  o.fragmentAt(item.Name.Pos()),
		})
	}
}

// pruneRegionMarkers removes a //region / //endregion comment pair whose
// region vertex reach.Solve never reached. The declarations textually
// between the markers are untouched here; each was already judged
// independently above.
func (o *Optimizer) pruneRegionMarkers() {
	for _, r := range o.Info.Regions {
		if o.Usage.Used(r) {
			continue
		}
		o.Rewriter.RemoveRange(rewriter.RangeFromPos(o.TU.Fset, r.Begin, r.OpenEnd), rewriter.Options{RemoveEmptyLines: o.RemoveEmptyLines})
		o.Rewriter.RemoveRange(rewriter.RangeFromPos(o.TU.Fset, r.CloseBegin, r.End), rewriter.Options{RemoveEmptyLines: o.RemoveEmptyLines})
		if o.Report != nil {
			startPos := o.TU.Fset.Position(r.Begin)
			endPos := o.TU.Fset.Position(r.End)
			o.Report.Record(report.Entry{
				Name:      r.Name,
				Kind:      "region",
				StartLine: startPos.Line,
				EndLine:   endPos.Line,
				Reason:    report.ReasonDeadRegion,
				Fragment:  o.fragmentAt(r.Begin),
			})
		}
	}
}

func (o *Optimizer) remove(name, kind string, reason report.Reason, begin, end token.Pos) {
	if !begin.IsValid() || !end.IsValid() {
		return
	}
	if !o.Rewriter.RemoveRange(rewriter.RangeFromPos(o.TU.Fset, begin, end), rewriter.Options{RemoveEmptyLines: o.RemoveEmptyLines}) {
		return
	}
	o.Removed++
	if o.Report == nil {
		return
	}
	startPos := o.TU.Fset.Position(begin)
	endPos := o.TU.Fset.Position(end)
	o.Report.Record(report.Entry{
		Name:      name,
		Kind:      kind,
		StartLine: startPos.Line,
		EndLine:   endPos.Line,
		Reason:    reason,
		Fragment:  o.fragmentAt(begin),
	})
}

func declRange(doc *ast.CommentGroup, node ast.Node) (token.Pos, token.Pos) {
	begin := node.Pos()
	if doc != nil {
		begin = doc.Pos()
	}
	return begin, node.End()
}

func pickDoc(outer, inner *ast.CommentGroup) *ast.CommentGroup {
	if inner != nil {
		return inner
	}
	return outer
}
