package depgraph

import (
	"go/ast"
	"go/types"
)

// refType recurses structurally through a resolved type, recording an edge
// from `from` to the declaration of each composite component it touches.
// Pointers, slices, arrays, maps, and channels recurse into their element
// type; named types get a direct edge to their type-name declaration, and
// generic instantiations additionally recurse into each type argument.
//
// The from->Named.Obj() edge is recorded unconditionally, on every call,
// before the seen guard is consulted: seen exists only to cut recursion
// into a type's structure once it has already been explored (so a
// self-referential or widely shared type doesn't walk forever), not to
// dedupe edges. A type reached through two different vertices must give
// each of them their own edge to it, even though its internal structure
// only needs exploring once.
func (c *Collector) refType(from any, t types.Type) {
	if t == nil || from == nil {
		return
	}
	if named, ok := t.(*types.Named); ok {
		c.info.addEdge(from, named.Obj())
	}
	if c.seen[t] {
		return
	}
	c.seen[t] = true

	switch tt := t.(type) {
	case *types.Named:
		if targs := tt.TypeArgs(); targs != nil {
			for i := 0; i < targs.Len(); i++ {
				c.refType(from, targs.At(i))
			}
		}
		c.refType(from, tt.Underlying())
	case *types.Pointer:
		c.refType(from, tt.Elem())
	case *types.Slice:
		c.refType(from, tt.Elem())
	case *types.Array:
		c.refType(from, tt.Elem())
	case *types.Map:
		c.refType(from, tt.Key())
		c.refType(from, tt.Elem())
	case *types.Chan:
		c.refType(from, tt.Elem())
	case *types.Struct:
		for i := 0; i < tt.NumFields(); i++ {
			// A struct field has no independent vertex in this engine; the
			// containing record gets a direct edge to whatever the field's
			// type names, which is what keeps e.g. an embedded type alive.
			c.refType(from, tt.Field(i).Type())
		}
	case *types.Interface:
		for i := 0; i < tt.NumExplicitMethods(); i++ {
			c.refType(from, tt.ExplicitMethod(i).Type())
		}
		for i := 0; i < tt.NumEmbeddeds(); i++ {
			c.refType(from, tt.EmbeddedType(i))
		}
	case *types.Signature:
		if p := tt.Params(); p != nil {
			for i := 0; i < p.Len(); i++ {
				c.refType(from, p.At(i).Type())
			}
		}
		if r := tt.Results(); r != nil {
			for i := 0; i < r.Len(); i++ {
				c.refType(from, r.At(i).Type())
			}
		}
	}
}

// walkTypeExprStructurally is a types.Info-independent fallback: it scans
// a type expression's identifiers directly, so a bundle whose type-check
// only partially succeeded still yields the edges that syntax alone can
// support.
func (c *Collector) walkTypeExprStructurally(from any, expr ast.Expr) {
	if expr == nil || from == nil {
		return
	}
	ast.Inspect(expr, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			if obj := c.objectOf(id); obj != nil {
				c.info.addEdge(from, obj)
			}
		}
		return true
	})
}

func (c *Collector) walkFieldList(from any, fl *ast.FieldList) {
	if fl == nil {
		return
	}
	for _, f := range fl.List {
		c.refType(from, typeOf(c.tu.Info, f.Type))
		c.walkTypeExprStructurally(from, f.Type)
	}
}
