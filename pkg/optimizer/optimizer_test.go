package optimizer

import (
	"strings"
	"testing"

	"github.com/prunelang/prune/pkg/bundle"
	"github.com/prunelang/prune/pkg/depgraph"
	"github.com/prunelang/prune/pkg/frontend"
	"github.com/prunelang/prune/pkg/reach"
	"github.com/prunelang/prune/pkg/report"
	"github.com/prunelang/prune/pkg/rewriter"
)

func run(t *testing.T, src string, keepTags []string) (string, *Optimizer) {
	t.Helper()
	tu, err := frontend.Load([]byte(src))
	if err != nil {
		t.Fatalf("frontend.Load() error = %v", err)
	}

	rew := rewriter.New(tu.Src)
	info := depgraph.Collect(tu, keepTags, depgraph.KeepPragma)
	usage := reach.Solve(info)

	opt := New(tu, info, usage, rew, report.New(), nil, true)
	opt.Run()

	return string(rew.ApplyChanges()), opt
}

func TestOptimizerRemovesUnusedFunction(t *testing.T) {
	out, opt := run(t, `package main

func unused() int { return 1 }

func main() {}
`, nil)

	if strings.Contains(out, "unused") {
		t.Errorf("expected unused() removed, got:\n%s", out)
	}
	if opt.Removed != 1 {
		t.Errorf("Removed = %d, want 1", opt.Removed)
	}
}

func TestOptimizerRemovesWholeTypeGroupWhenAllUnused(t *testing.T) {
	out, _ := run(t, `package main

type (
	unusedA struct{}
	unusedB struct{}
)

func main() {}
`, nil)

	if strings.Contains(out, "unusedA") || strings.Contains(out, "unusedB") {
		t.Errorf("expected both unused type specs removed, got:\n%s", out)
	}
}

func TestOptimizerKeepsPartiallyUsedTypeGroup(t *testing.T) {
	out, _ := run(t, `package main

type (
	Used   struct{}
	Unused struct{}
)

func main() {
	_ = Used{}
}
`, nil)

	if !strings.Contains(out, "Used   struct{}") {
		t.Errorf("expected Used kept, got:\n%s", out)
	}
	if strings.Contains(out, "Unused struct{}") {
		t.Errorf("expected Unused removed, got:\n%s", out)
	}
}

func TestOptimizerRemovesWholeValueGroupWhenAllUnused(t *testing.T) {
	out, _ := run(t, `package main

var a, b = 1, 2

func main() {}
`, nil)

	if strings.Contains(out, "a, b") || strings.Contains(out, "var a") {
		t.Errorf("expected the whole unused var group removed, got:\n%s", out)
	}
}

func TestOptimizerKeepsMismatchedCommaGroupWhenPartiallyUsed(t *testing.T) {
	// len(Values) == 1 but len(Names) == 2 at package scope: a single
	// multi-value call supplies both names, so splitting would change
	// what the call returns into rather than just delete a name. The
	// whole group must survive even though only one name is used.
	out, _ := run(t, `package main

func pair() (int, int) { return 1, 2 }

var used, unused = pair()

func main() {
	println(used)
}
`, nil)

	if !strings.Contains(out, "used, unused") {
		t.Errorf("expected the mismatched comma group kept whole, got:\n%s", out)
	}
}

func TestOptimizerRecordsReportEntries(t *testing.T) {
	tu, err := frontend.Load([]byte(`package main

func unused() int { return 1 }

func main() {}
`))
	if err != nil {
		t.Fatalf("frontend.Load() error = %v", err)
	}

	rew := rewriter.New(tu.Src)
	info := depgraph.Collect(tu, nil, depgraph.KeepPragma)
	usage := reach.Solve(info)
	rep := report.New()

	opt := New(tu, info, usage, rew, rep, nil, true)
	opt.Run()

	entries := rep.Entries()
	if len(entries) != 1 {
		t.Fatalf("report entries = %d, want 1", len(entries))
	}
	if entries[0].Name != "unused" {
		t.Errorf("entry Name = %q, want unused", entries[0].Name)
	}
	if entries[0].Reason != report.ReasonUnreachable {
		t.Errorf("entry Reason = %q, want %q", entries[0].Reason, report.ReasonUnreachable)
	}
	if entries[0].Fragment != "" {
		t.Errorf("entry Fragment = %q, want empty with no bundle attached", entries[0].Fragment)
	}
}

func TestOptimizerRecordsFragmentFromBundle(t *testing.T) {
	src := []byte(`package main

func unused() int { return 1 }

func main() {}
`)
	b := bundle.Single("solution.go", src)
	tu, err := frontend.Load(b.Joined)
	if err != nil {
		t.Fatalf("frontend.Load() error = %v", err)
	}

	rew := rewriter.New(tu.Src)
	info := depgraph.Collect(tu, nil, depgraph.KeepPragma)
	usage := reach.Solve(info)
	rep := report.New()

	opt := New(tu, info, usage, rew, rep, b, true)
	opt.Run()

	entries := rep.Entries()
	if len(entries) != 1 {
		t.Fatalf("report entries = %d, want 1", len(entries))
	}
	if entries[0].Fragment != "solution.go" {
		t.Errorf("entry Fragment = %q, want solution.go", entries[0].Fragment)
	}
}

func TestOptimizerPrunesRegionMarkersWhenUnreached(t *testing.T) {
	out, _ := run(t, `package main

//region Foo
func helper() {}

//endregion

func main() {}
`, nil)

	if strings.Contains(out, "region Foo") {
		t.Errorf("expected region markers removed, got:\n%s", out)
	}
	if strings.Contains(out, "helper") {
		t.Errorf("expected the declaration inside the dead region removed too, got:\n%s", out)
	}
}

func TestOptimizerDedupsDuplicateDotImports(t *testing.T) {
	out, opt := run(t, `package main

import (
	. "fmt"
	. "fmt"
)

func main() {
	Println("hi")
}
`, nil)

	if strings.Count(out, `. "fmt"`) != 1 {
		t.Errorf("expected exactly one surviving dot-import of fmt, got:\n%s", out)
	}
	if opt.Removed != 1 {
		t.Errorf("Removed = %d, want 1", opt.Removed)
	}
}

func TestOptimizerKeepsDistinctDotImports(t *testing.T) {
	out, _ := run(t, `package main

import (
	. "fmt"
	. "strings"
)

func main() {
	Println(ToUpper("hi"))
}
`, nil)

	if !strings.Contains(out, `. "fmt"`) || !strings.Contains(out, `. "strings"`) {
		t.Errorf("expected both distinct dot-imports kept, got:\n%s", out)
	}
}

func TestOptimizerRecordsDuplicateDotImportReason(t *testing.T) {
	tu, err := frontend.Load([]byte(`package main

import (
	. "fmt"
	. "fmt"
)

func main() {
	Println("hi")
}
`))
	if err != nil {
		t.Fatalf("frontend.Load() error = %v", err)
	}

	rew := rewriter.New(tu.Src)
	info := depgraph.Collect(tu, nil, depgraph.KeepPragma)
	usage := reach.Solve(info)
	rep := report.New()

	opt := New(tu, info, usage, rew, rep, nil, true)
	opt.Run()

	entries := rep.Entries()
	if len(entries) != 1 {
		t.Fatalf("report entries = %d, want 1", len(entries))
	}
	if entries[0].Reason != report.ReasonDuplicateDotImport {
		t.Errorf("entry Reason = %q, want %q", entries[0].Reason, report.ReasonDuplicateDotImport)
	}
	if entries[0].Name != "fmt" {
		t.Errorf("entry Name = %q, want fmt", entries[0].Name)
	}
}
