package reach

import (
	"go/ast"
	"testing"

	"github.com/prunelang/prune/pkg/depgraph"
	"github.com/prunelang/prune/pkg/frontend"
)

func load(t *testing.T, src string) *frontend.TranslationUnit {
	t.Helper()
	tu, err := frontend.Load([]byte(src))
	if err != nil {
		t.Fatalf("frontend.Load() error = %v", err)
	}
	return tu
}

func vertexForFunc(info *depgraph.SourceInfo, name string) any {
	for v, node := range info.DeclNode {
		fd, ok := node.(*ast.FuncDecl)
		if ok && fd.Name != nil && fd.Name.Name == name {
			return v
		}
	}
	return nil
}

func TestSolveReachesCalledHelper(t *testing.T) {
	tu := load(t, `package main

func helper() int { return 1 }

func main() {
	helper()
}
`)
	info := depgraph.Collect(tu, nil, depgraph.KeepPragma)
	usage := Solve(info)

	v := vertexForFunc(info, "helper")
	if v == nil {
		t.Fatalf("could not find vertex for helper")
	}
	if !usage.Used(v) {
		t.Errorf("expected helper() reached through main's call")
	}
}

func TestSolveDoesNotReachUnusedHelper(t *testing.T) {
	tu := load(t, `package main

func unused() int { return 1 }

func main() {}
`)
	info := depgraph.Collect(tu, nil, depgraph.KeepPragma)
	usage := Solve(info)

	v := vertexForFunc(info, "unused")
	if v == nil {
		t.Fatalf("could not find vertex for unused")
	}
	if usage.Used(v) {
		t.Errorf("expected unused() to stay unreached")
	}
}

func TestSolveDestructorFollowsItsType(t *testing.T) {
	tu := load(t, `package main

// go:keep
type Resource struct{}

func (r *Resource) Close() error { return nil }

func main() {}
`)
	info := depgraph.Collect(tu, nil, depgraph.KeepPragma)
	usage := Solve(info)

	dtorReached := false
	for _, dtor := range info.Destructors {
		if usage.Used(dtor) {
			dtorReached = true
		}
	}
	if !dtorReached {
		t.Errorf("expected the destructor to be reachable alongside its pinned type")
	}
}

func TestSolveRegionReachedOnlyThroughItsOwnEdge(t *testing.T) {
	tu := load(t, `package main

//region Foo
func helper() {}

//endregion

func main() {}
`)
	info := depgraph.Collect(tu, nil, depgraph.KeepPragma)
	usage := Solve(info)

	if len(info.Regions) != 1 {
		t.Fatalf("Regions = %d, want 1", len(info.Regions))
	}
	if usage.Used(info.Regions[0]) {
		t.Errorf("expected unreferenced region to stay unreached")
	}
}
