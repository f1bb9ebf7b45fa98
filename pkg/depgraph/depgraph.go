// Package depgraph implements the shrinker's dependency collector: a
// single recursive AST traversal that produces a SourceInfo record — the
// uses graph between declarations, the root set, the region table (the
// namespace-reopening analog), and the grouped top-level variable/const
// table the comma-group pruner later consults.
//
// The collector never fails. A construct it cannot attribute an edge for
// (an unresolved call, a type it cannot walk because type-checking did
// not fully succeed) is simply skipped; a missing edge biases the result
// toward deletion, and the user-visible remedy is a //go:keep pragma.
package depgraph

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"sort"
	"strings"

	diag "github.com/prunelang/prune/pkg/errors"
	"github.com/prunelang/prune/pkg/frontend"
)

// KeepPragma is the default root-marking comment substring, used whenever
// a caller does not configure a different one. A declaration whose doc
// comment contains the configured pragma is a root, and transitively, so
// is everything it uses.
const KeepPragma = "go:keep"

// VarItem is one name within a grouped var/const declaration, e.g. one of
// the three names in `var a, b, c = 1, 2, 3`.
type VarItem struct {
	Name  *ast.Ident
	Obj   types.Object
	Index int // position within the group, 0-based
}

// VarGroup is one comma-separated declarator group sharing a single type
// specifier and GenDecl token (var or const).
type VarGroup struct {
	Spec  *ast.ValueSpec
	Decl  *ast.GenDecl
	Items []VarItem
}

// Region is the namespace-reopening analog: a //region Name ... //endregion
// marker pair. Unlike every other vertex, a Region is never canonicalized
// against other regions of the same name — each textual reopening is its
// own independently deletable graph vertex, per invariant "namespaces are
// the single exception to canonicalization."
type Region struct {
	Name string

	// Begin/End span the whole reopened block, from the start of the
	// //region marker comment to the end of its matching //endregion.
	Begin token.Pos
	End   token.Pos

	// OpenEnd and CloseBegin bound the marker comments themselves, so a
	// deletion can remove just the two marker lines without touching the
	// declarations between them.
	OpenEnd    token.Pos
	CloseBegin token.Pos
}

// SourceInfo is the collector's output.
type SourceInfo struct {
	// Uses maps a canonical vertex (a types.Object, an ast.Decl for
	// declarations types.Info could not resolve, or a *Region) to the set
	// of vertices it depends on.
	Uses map[any]map[any]bool

	// Roots is the seed set for reachability: main, every declaration
	// pinned by the keep pragma, and every declaration whose //go:build
	// guard names a keep tag or cannot be parsed.
	Roots map[any]bool

	// VarGroups is keyed by the group's start position, so the comma-group
	// pruner can find the grouped declarator list a given name belongs to.
	VarGroups map[token.Pos]*VarGroup

	// Regions lists every //region / //endregion pair found in the file,
	// in the order their //endregion markers appear (a nested region
	// precedes the region enclosing it).
	Regions []*Region

	// InterfaceMethodNames is every method name declared by any interface
	// type in the bundle, used by the virtual-method reachability rule
	// (grounded on gopls's unusedfunc analyzer: an unexported method can
	// only be reached through a local interface of the same name).
	InterfaceMethodNames map[string]bool

	// Destructors maps a struct type's vertex to its Close() error method
	// vertex, when declared — the destructor analog the reachability
	// solver auto-enqueues per invariant 4 ("if a class declaration is
	// reachable, its destructor is reachable").
	Destructors map[any]any

	// PinReasons records the reason="..." attribute of a //go:keep
	// pragma, keyed by the vertex it pinned, when the pragma supplied
	// one. A root pinned without a reason simply has no entry here.
	PinReasons map[any]string

	// DeclNode records the specific AST node whose source range
	// represents each vertex — the canonical expansion range the data
	// model requires for every declaration, and the means by which a
	// caller holding only a vertex (no AST node in hand) can still
	// recover where it came from.
	DeclNode map[any]ast.Node

	// Diagnostics collects a non-fatal CompileError for every selector the
	// type checker resolved a type for but could not attribute to a
	// package member, so the missing edge it leaves behind is at least
	// visible to the caller instead of only biasing the graph silently.
	Diagnostics []*diag.CompileError
}

func newSourceInfo() *SourceInfo {
	return &SourceInfo{
		Uses:                 make(map[any]map[any]bool),
		Roots:                make(map[any]bool),
		VarGroups:            make(map[token.Pos]*VarGroup),
		InterfaceMethodNames: make(map[string]bool),
		Destructors:          make(map[any]any),
		PinReasons:           make(map[any]string),
		DeclNode:             make(map[any]ast.Node),
	}
}

func (si *SourceInfo) addEdge(from, to any) {
	if from == nil || to == nil {
		return
	}
	set, ok := si.Uses[from]
	if !ok {
		set = make(map[any]bool)
		si.Uses[from] = set
	}
	set[to] = true
}

// Collector walks a translation unit once and builds a SourceInfo.
type Collector struct {
	tu         *frontend.TranslationUnit
	info       *SourceInfo
	stack      []any // active enclosing declarations, innermost last
	seen       map[types.Type]bool
	keepTags   map[string]bool
	keepPragma string
}

// Collect runs the collector over tu and returns the resulting SourceInfo.
// keepTags names the build-tag identifiers the guard pass was told to keep
// regardless of the active set; a declaration guarded by one of them is
// rooted here too, since the guard only spares its range from deletion —
// it does not stop the reachability solver from judging it unreached.
// keepPragma is the doc-comment substring that pins a declaration as a
// root; an empty string falls back to KeepPragma.
func Collect(tu *frontend.TranslationUnit, keepTags []string, keepPragma string) *SourceInfo {
	if keepPragma == "" {
		keepPragma = KeepPragma
	}
	keep := make(map[string]bool, len(keepTags))
	for _, t := range keepTags {
		keep[t] = true
	}
	c := &Collector{
		tu:         tu,
		info:       newSourceInfo(),
		seen:       make(map[types.Type]bool),
		keepTags:   keep,
		keepPragma: keepPragma,
	}
	c.collectRegions()
	c.collectInterfaceMethodNames()
	for _, decl := range tu.File.Decls {
		c.visitDecl(decl)
	}
	return c.info
}

func (c *Collector) current() any {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

func (c *Collector) push(v any) {
	c.stack = append(c.stack, v)
}

func (c *Collector) pop() {
	c.stack = c.stack[:len(c.stack)-1]
}

// objectOf canonicalizes an *ast.Ident to its types.Object, the vertex
// identity used throughout this package for every declaration kind except
// regions, which stay identified by their own *Region pointer.
func (c *Collector) objectOf(id *ast.Ident) types.Object {
	if id == nil || c.tu.Info == nil {
		return nil
	}
	if obj, ok := c.tu.Info.Defs[id]; ok && obj != nil {
		return obj
	}
	if obj, ok := c.tu.Info.Uses[id]; ok {
		return obj
	}
	return nil
}

func (c *Collector) isMainFile(pos token.Pos) bool {
	return c.tu.IsMainFile(pos)
}

// collectRegions scans the file's freestanding comments for //region Name
// / //endregion markers and pairs them, innermost-first, ignoring
// unmatched markers.
func (c *Collector) collectRegions() {
	type open struct {
		name    string
		begin   token.Pos
		openEnd token.Pos
	}
	var stack []open
	for _, cg := range c.tu.File.Comments {
		for _, cm := range cg.List {
			text := strings.TrimSpace(strings.TrimPrefix(cm.Text, "//"))
			switch {
			case strings.HasPrefix(text, "region "):
				stack = append(stack, open{
					name:    strings.TrimSpace(strings.TrimPrefix(text, "region ")),
					begin:   cm.Pos(),
					openEnd: cm.End(),
				})
			case text == "endregion" && len(stack) > 0:
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				c.info.Regions = append(c.info.Regions, &Region{
					Name:       top.name,
					Begin:      top.begin,
					End:        cm.End(),
					OpenEnd:    top.openEnd,
					CloseBegin: cm.Pos(),
				})
			}
		}
	}
}

func (c *Collector) collectInterfaceMethodNames() {
	for _, decl := range c.tu.File.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			it, ok := ts.Type.(*ast.InterfaceType)
			if !ok || it.Methods == nil {
				continue
			}
			for _, field := range it.Methods.List {
				for _, name := range field.Names {
					c.info.InterfaceMethodNames[name.Name] = true
				}
			}
		}
	}
}

// regionEnclosing returns the innermost region enclosing pos, if any, used
// to add the "member keeps its container alive" edge.
func (si *SourceInfo) regionEnclosing(pos token.Pos) *Region {
	var best *Region
	for _, r := range si.Regions {
		if pos >= r.Begin && pos < r.End {
			if best == nil || r.Begin > best.Begin {
				best = r
			}
		}
	}
	return best
}

func (c *Collector) enclosingRegionEdge(vertex any, pos token.Pos) {
	if r := c.info.regionEnclosing(pos); r != nil {
		c.info.addEdge(vertex, r)
	}
}

// PinnedDecl names a declaration a //go:keep pragma pinned, together with
// the reason its comment gave, if any.
type PinnedDecl struct {
	Name   string
	Reason string
}

// Pinned returns every pragma-pinned root that supplied a reason="..."
// attribute, sorted by name for stable output. A root pinned without a
// reason is omitted, since there is nothing to report.
func (si *SourceInfo) Pinned() []PinnedDecl {
	if len(si.PinReasons) == 0 {
		return nil
	}
	out := make([]PinnedDecl, 0, len(si.PinReasons))
	for vertex, reason := range si.PinReasons {
		out = append(out, PinnedDecl{Name: vertexName(vertex), Reason: reason})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func vertexName(vertex any) string {
	switch v := vertex.(type) {
	case types.Object:
		return v.Name()
	case *ast.Ident:
		return v.Name
	default:
		return fmt.Sprintf("%v", vertex)
	}
}
