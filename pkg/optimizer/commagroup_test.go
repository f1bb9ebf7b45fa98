package optimizer

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/prunelang/prune/pkg/depgraph"
	"github.com/prunelang/prune/pkg/reach"
	"github.com/prunelang/prune/pkg/rewriter"
)

// bundlePrefix is prepended to every buildGroup source so it parses as a
// valid Go file; it precedes the var declaration on its own line, so
// callers strip it back off the rewriter output with TrimPrefix before
// comparing against a want string written in terms of the bare source.
const bundlePrefix = "package p\n"

// buildGroup parses a single top-level var declaration and returns a
// rewriter over its source plus the VarGroup PruneGroup needs, without
// going through type-checking or the full pipeline.
func buildGroup(t *testing.T, src string) (*token.FileSet, *rewriter.Buffer, *depgraph.VarGroup) {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "bundle.go", bundlePrefix+src, 0)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	gd := file.Decls[0].(*ast.GenDecl)
	vs := gd.Specs[0].(*ast.ValueSpec)

	group := &depgraph.VarGroup{Spec: vs, Decl: gd}
	for i, name := range vs.Names {
		group.Items = append(group.Items, depgraph.VarItem{Name: name, Index: i})
	}

	return fset, rewriter.New([]byte(bundlePrefix + src)), group
}

// usageOf runs reach.Solve with usedNames as the root set (identified by
// their *ast.Ident, the same fallback vertex depgraph uses when a name has
// no resolved types.Object), so PruneGroup's usage.Used(vertex) lookups
// exercise the same machinery the full pipeline uses.
func usageOf(group *depgraph.VarGroup, usedNames ...*ast.Ident) *reach.UsageInfo {
	info := &depgraph.SourceInfo{
		Uses:  make(map[any]map[any]bool),
		Roots: make(map[any]bool),
	}
	for _, n := range usedNames {
		info.Roots[n] = true
	}
	return reach.Solve(info)
}

func TestPruneGroupTrimsSingleTrailingUnused(t *testing.T) {
	src := "var a, b = 1, 2\n"
	fset, rew, group := buildGroup(t, src)

	usage := usageOf(group, group.Items[0].Name)
	PruneGroup(fset, rew, group, usage)

	got := strings.TrimPrefix(string(rew.ApplyChanges()), bundlePrefix)
	want := "var a = 1\n"
	if got != want {
		t.Errorf("ApplyChanges() = %q, want %q", got, want)
	}
}

func TestPruneGroupTrimsLeadingUnused(t *testing.T) {
	src := "var a, b = 1, 2\n"
	fset, rew, group := buildGroup(t, src)

	usage := usageOf(group, group.Items[1].Name)
	PruneGroup(fset, rew, group, usage)

	got := strings.TrimPrefix(string(rew.ApplyChanges()), bundlePrefix)
	want := "var b = 2\n"
	if got != want {
		t.Errorf("ApplyChanges() = %q, want %q", got, want)
	}
}

func TestPruneGroupTrimsInteriorRun(t *testing.T) {
	src := "var a, b, c, d = 1, 2, 3, 4\n"
	fset, rew, group := buildGroup(t, src)

	usage := usageOf(group, group.Items[0].Name, group.Items[3].Name)
	PruneGroup(fset, rew, group, usage)

	got := strings.TrimPrefix(string(rew.ApplyChanges()), bundlePrefix)
	want := "var a, d = 1, 4\n"
	if got != want {
		t.Errorf("ApplyChanges() = %q, want %q", got, want)
	}
}

func TestPruneGroupLeavesMismatchedLengthsUntouched(t *testing.T) {
	src := "var a, b = f()\n"
	fset, rew, group := buildGroup(t, src)

	usage := usageOf(group, group.Items[0].Name)
	PruneGroup(fset, rew, group, usage)

	got := strings.TrimPrefix(string(rew.ApplyChanges()), bundlePrefix)
	if got != src {
		t.Errorf("ApplyChanges() = %q, want unchanged %q", got, src)
	}
}
