package depgraph

import (
	"go/ast"
	"go/types"

	diag "github.com/prunelang/prune/pkg/errors"
)

// walkStmt and walkExpr thread the collector's "current declaration" stack
// through a function body. Expressions carry no parent-declaration pointer
// in go/ast, so every call expression, composite literal, identifier, and
// selector is attributed to whatever is on top of c.stack.
func (c *Collector) walkStmt(stmt ast.Stmt) {
	if stmt == nil {
		return
	}
	ast.Inspect(stmt, func(n ast.Node) bool {
		c.visitNode(n)
		return true
	})
}

func (c *Collector) walkExpr(expr ast.Expr) {
	if expr == nil {
		return
	}
	ast.Inspect(expr, func(n ast.Node) bool {
		c.visitNode(n)
		return true
	})
}

// visitNode records the edge (or type-walk) a single expression node
// contributes. It does not stop descent: ast.Inspect continues into every
// node's children regardless, so a node handled here may be visited again
// as a plain *ast.Ident by a parent's traversal; that is harmless, since
// go/types records a selector's field/method identifier in info.Uses under
// the same object the selector itself resolves to, so the second pass only
// repeats an edge already recorded.
func (c *Collector) visitNode(n ast.Node) {
	from := c.current()
	if from == nil {
		return
	}
	switch node := n.(type) {
	case *ast.CallExpr:
		c.visitCall(from, node)
	case *ast.SelectorExpr:
		c.visitSelector(from, node)
	case *ast.Ident:
		if obj := c.objectOf(node); obj != nil {
			c.info.addEdge(from, obj)
		}
	case *ast.CompositeLit:
		c.refType(from, typeOf(c.tu.Info, node))
		c.walkTypeExprStructurally(from, node.Type)
	case *ast.TypeAssertExpr:
		c.refType(from, typeOf(c.tu.Info, node.Type))
		c.walkTypeExprStructurally(from, node.Type)
	case *ast.IndexExpr:
		// Generic instantiation site: Foo[int](...).
		c.refType(from, typeOf(c.tu.Info, node.Index))
		c.walkTypeExprStructurally(from, node.Index)
	case *ast.IndexListExpr:
		for _, idx := range node.Indices {
			c.refType(from, typeOf(c.tu.Info, idx))
			c.walkTypeExprStructurally(from, idx)
		}
	case *ast.FuncLit:
		// A closure has no declaration of its own to target; its body is
		// attributed to the same enclosing declaration as everything else.
	}
}

func (c *Collector) visitCall(from any, call *ast.CallExpr) {
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		if obj := c.objectOf(fn); obj != nil {
			c.info.addEdge(from, obj)
		}
	case *ast.SelectorExpr:
		c.visitSelector(from, fn)
	}
}

// visitSelector handles both x.Field/x.Method (resolved via
// info.Selections) and pkg.Name qualified identifiers (resolved via
// info.Uses on the selector's own identifier), simply skipping any
// selector type-checking could not resolve.
func (c *Collector) visitSelector(from any, sel *ast.SelectorExpr) {
	if c.tu.Info != nil {
		if selInfo, ok := c.tu.Info.Selections[sel]; ok && selInfo != nil {
			c.info.addEdge(from, selInfo.Obj())
			return
		}
		if obj, ok := c.tu.Info.Uses[sel.Sel]; ok && obj != nil {
			c.info.addEdge(from, obj)
			return
		}
		if _, hasType := c.tu.Info.Types[sel.X]; hasType {
			c.info.Diagnostics = append(c.info.Diagnostics,
				diag.UnresolvedSelectorError(types.ExprString(sel), sel.Pos()))
		}
	}
}
