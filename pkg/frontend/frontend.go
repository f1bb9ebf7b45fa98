// Package frontend parses a translation unit and type-checks it, handing
// back an AST, a position oracle, and resolved-declaration information,
// all read-only to every later pipeline stage.
package frontend

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"

	diag "github.com/prunelang/prune/pkg/errors"
)

// MainFileName is the synthetic filename the shrinker gives the joined
// translation-unit buffer it parses. Every "is this declaration eligible
// for removal" test compares a position's filename against this constant,
// since only declarations originating in the main file are ever deleted.
const MainFileName = "translation_unit.go"

// TranslationUnit is everything later pipeline stages need from the front
// end. Fset and File are read-only after Load returns. When type-checking
// reports errors, Info is incomplete but Load still returns the AST, since
// range-based deletion only needs positions, not types — edges that needed
// the missing type information are simply absent, which biases the result
// toward deletion (the keep pragma is the remedy).
type TranslationUnit struct {
	Fset *token.FileSet
	File *ast.File
	Info *types.Info
	Pkg  *types.Package
	Src  []byte
}

// Load parses src as a single Go source file named MainFileName and
// type-checks it against the standard importer. A parse error is a fatal
// run error; type-check errors are discarded (not recorded anywhere) and
// do not prevent Load from returning a usable TranslationUnit.
func Load(src []byte) (*TranslationUnit, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, MainFileName, src, parser.ParseComments|parser.AllErrors)
	if err != nil {
		return nil, fmt.Errorf("frontend: parse failed: %w", diagnose(fset, src, err))
	}

	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Implicits:  make(map[ast.Node]types.Object),
		Instances:  make(map[*ast.Ident]types.Instance),
	}

	conf := types.Config{
		Importer: importer.Default(),
		Error:    func(error) {}, // tolerate errors; see doc comment
	}
	pkg, _ := conf.Check(file.Name.Name, fset, []*ast.File{file}, info)

	return &TranslationUnit{
		Fset: fset,
		File: file,
		Info: info,
		Pkg:  pkg,
		Src:  src,
	}, nil
}

// diagnosticError wraps a plain error so its Error() renders a rustc-style
// source snippet, while still unwrapping to the scanner error underneath.
type diagnosticError struct {
	formatted string
	cause     error
}

func (d *diagnosticError) Error() string { return d.formatted }
func (d *diagnosticError) Unwrap() error { return d.cause }

// diagnose upgrades a parse error into one rendered with a source snippet
// and caret, using the position of the first syntax error the scanner
// reported. Any error shape it doesn't recognize passes through unchanged.
func diagnose(fset *token.FileSet, src []byte, err error) error {
	list, ok := err.(scanner.ErrorList)
	if !ok || len(list) == 0 {
		return err
	}

	first := list[0]
	tf := fileByName(fset, MainFileName)
	if tf == nil || first.Pos.Offset < 0 || first.Pos.Offset > tf.Size() {
		return err
	}

	pos := tf.Pos(first.Pos.Offset)
	enhanced := diag.NewEnhancedErrorFromSource(fset, pos, first.Msg, src)
	return &diagnosticError{formatted: "\n" + enhanced.Format(), cause: err}
}

// fileByName returns the *token.File registered under name, or nil.
func fileByName(fset *token.FileSet, name string) *token.File {
	var found *token.File
	fset.Iterate(func(f *token.File) bool {
		if f.Name() == name {
			found = f
			return false
		}
		return true
	})
	return found
}

// IsMainFile reports whether pos lies in the translation unit's own file,
// as opposed to a synthetic or imported-package position.
func (tu *TranslationUnit) IsMainFile(pos token.Pos) bool {
	if !pos.IsValid() {
		return false
	}
	p := tu.Fset.Position(pos)
	return p.Filename == MainFileName
}
