package depgraph

import (
	"go/ast"
	"go/build/constraint"
	"go/token"
	"go/types"

	"github.com/prunelang/prune/pkg/pragma"
)

// visitDecl dispatches on a top-level declaration by kind.
func (c *Collector) visitDecl(decl ast.Decl) {
	switch d := decl.(type) {
	case *ast.FuncDecl:
		c.visitFuncDecl(d)
	case *ast.GenDecl:
		c.visitGenDecl(d)
	}
}

func (c *Collector) visitFuncDecl(d *ast.FuncDecl) {
	if d.Name == nil {
		return
	}
	obj := c.objectOf(d.Name)
	var vertex any = obj
	if vertex == nil {
		vertex = d // untyped fallback, e.g. type-check failed
	}

	c.info.DeclNode[vertex] = d

	if d.Recv == nil && d.Name.Name == "main" {
		c.info.Roots[vertex] = true
	}
	c.maybePinByComment(vertex, d.Doc)
	c.enclosingRegionEdge(vertex, d.Pos())

	// Methods: edge to the receiver type; virtual methods get the reverse
	// edge, since dispatch through an interface is never a textual
	// reference to the concrete method.
	if d.Recv != nil && len(d.Recv.List) > 0 {
		recvType := recvTypeObject(c.tu.Info, d.Recv.List[0].Type)
		if recvType != nil {
			c.info.addEdge(vertex, recvType)
			if c.isVirtual(d.Name.Name) {
				c.info.addEdge(recvType, vertex)
			}
			if d.Name.Name == "Close" {
				c.info.Destructors[recvType] = vertex
			}
		}
	}

	c.push(vertex)
	defer c.pop()

	if d.Type != nil {
		c.walkFieldList(vertex, d.Type.Params)
		c.walkFieldList(vertex, d.Type.Results)
	}
	if d.Body != nil {
		c.walkStmt(d.Body)
	}
}

// isVirtual reports whether method name should be treated as reachable
// through dynamic dispatch rather than only by direct call: either it is
// exported (assume external interface satisfaction, the conservative
// default used throughout this engine), or its name matches a method
// declared on some interface type in the bundle.
func (c *Collector) isVirtual(name string) bool {
	if len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z' {
		return true
	}
	return c.info.InterfaceMethodNames[name]
}

func (c *Collector) visitGenDecl(d *ast.GenDecl) {
	switch d.Tok {
	case token.TYPE:
		c.visitTypeGenDecl(d)
	case token.VAR, token.CONST:
		c.visitValueGenDecl(d)
	case token.IMPORT:
		// Imports contribute no vertices to the uses graph. The optimizer
		// deletes duplicate dot-imports by its own first-wins rule, without
		// consulting reachability.
	}
}

func (c *Collector) visitTypeGenDecl(d *ast.GenDecl) {
	for _, spec := range d.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}
		obj := c.objectOf(ts.Name)
		var vertex any = obj
		if vertex == nil {
			vertex = ts
		}
		c.info.DeclNode[vertex] = ts
		c.maybePinByComment(vertex, pickDoc(d.Doc, ts.Doc))
		c.enclosingRegionEdge(vertex, ts.Pos())

		c.push(vertex)
		c.refType(vertex, typeOf(c.tu.Info, ts.Type))
		c.walkTypeExprStructurally(vertex, ts.Type)
		c.pop()
	}
}

func (c *Collector) visitValueGenDecl(d *ast.GenDecl) {
	for _, spec := range d.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		group := &VarGroup{Spec: vs, Decl: d}
		for i, name := range vs.Names {
			obj := c.objectOf(name)
			var vertex any = obj
			if vertex == nil {
				vertex = name
			}
			group.Items = append(group.Items, VarItem{Name: name, Obj: obj, Index: i})

			c.info.DeclNode[vertex] = vs
			c.maybePinByComment(vertex, pickDoc(d.Doc, vs.Doc))
			c.enclosingRegionEdge(vertex, vs.Pos())

			c.push(vertex)
			if vs.Type != nil {
				c.refType(vertex, typeOf(c.tu.Info, vs.Type))
			}
			for _, val := range vs.Values {
				c.walkExpr(val)
			}
			c.pop()
		}
		if len(group.Items) > 0 {
			c.info.VarGroups[vs.Pos()] = group
		}
	}
}

// maybePinByComment adds vertex to the root set when doc contains the
// configured keep pragma, a //go:build guard referencing one of keepTags,
// or a //go:build guard that go/build/constraint cannot parse (the guard
// remover leaves such a declaration in place, so it is kept here too).
func (c *Collector) maybePinByComment(vertex any, doc *ast.CommentGroup) {
	if doc == nil || !c.isMainFile(doc.Pos()) {
		return
	}
	for _, cm := range doc.List {
		if idx := pragmaIndex(cm.Text, c.keepPragma); idx >= 0 {
			c.info.Roots[vertex] = true
			payload := cm.Text[idx+len(c.keepPragma):]
			if reason, ok := pragma.ParseKeepPayload(payload); ok {
				c.info.PinReasons[vertex] = reason
			}
			return
		}
	}
	if guardReferencesKeptTag(doc, c.keepTags) || guardMalformed(doc) {
		c.info.Roots[vertex] = true
	}
}

// guardMalformed reports whether doc carries a //go:build (or legacy
// // +build) line that constraint.Parse rejects.
func guardMalformed(doc *ast.CommentGroup) bool {
	for _, cm := range doc.List {
		if !constraint.IsGoBuild(cm.Text) && !constraint.IsPlusBuild(cm.Text) {
			continue
		}
		if _, err := constraint.Parse(cm.Text); err != nil {
			return true
		}
	}
	return false
}

// guardReferencesKeptTag reports whether doc carries a //go:build (or
// legacy // +build) line whose expression mentions a tag in keepTags.
func guardReferencesKeptTag(doc *ast.CommentGroup, keepTags map[string]bool) bool {
	if len(keepTags) == 0 {
		return false
	}
	for _, cm := range doc.List {
		if !constraint.IsGoBuild(cm.Text) && !constraint.IsPlusBuild(cm.Text) {
			continue
		}
		expr, err := constraint.Parse(cm.Text)
		if err != nil {
			continue
		}
		if buildTagsIntersect(expr, keepTags) {
			return true
		}
	}
	return false
}

// buildTagsIntersect walks expr's tag leaves and reports whether any of
// them is in keepTags. It ignores the expression's boolean structure
// (AND/OR/NOT) since a kept tag anywhere in the guard is enough to treat
// the declaration as pinned — the same conservative bias the uses graph
// applies everywhere else.
func buildTagsIntersect(expr constraint.Expr, keepTags map[string]bool) bool {
	switch e := expr.(type) {
	case *constraint.TagExpr:
		return keepTags[e.Tag]
	case *constraint.NotExpr:
		return buildTagsIntersect(e.X, keepTags)
	case *constraint.AndExpr:
		return buildTagsIntersect(e.X, keepTags) || buildTagsIntersect(e.Y, keepTags)
	case *constraint.OrExpr:
		return buildTagsIntersect(e.X, keepTags) || buildTagsIntersect(e.Y, keepTags)
	default:
		return false
	}
}

// pragmaIndex returns the byte offset of pragma within text, or -1.
func pragmaIndex(text, pragma string) int {
	for i := 0; i+len(pragma) <= len(text); i++ {
		if text[i:i+len(pragma)] == pragma {
			return i
		}
	}
	return -1
}

func pickDoc(outer, inner *ast.CommentGroup) *ast.CommentGroup {
	if inner != nil {
		return inner
	}
	return outer
}

func recvTypeObject(info *types.Info, expr ast.Expr) types.Object {
	for {
		if star, ok := expr.(*ast.StarExpr); ok {
			expr = star.X
			continue
		}
		break
	}
	id, ok := expr.(*ast.Ident)
	if !ok || info == nil {
		return nil
	}
	if obj, ok := info.Defs[id]; ok && obj != nil {
		return obj
	}
	if obj, ok := info.Uses[id]; ok {
		return obj
	}
	return nil
}

func typeOf(info *types.Info, expr ast.Expr) types.Type {
	if info == nil || expr == nil {
		return nil
	}
	if tv, ok := info.Types[expr]; ok {
		return tv.Type
	}
	return nil
}
