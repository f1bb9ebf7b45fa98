package frontend

import (
	"strings"
	"testing"
)

func TestLoadValidSource(t *testing.T) {
	src := []byte(`package main

func helper() int { return 1 }

func main() {
	println(helper())
}
`)

	tu, err := Load(src)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if tu.File == nil {
		t.Fatal("expected a parsed file")
	}
	if tu.Pkg == nil {
		t.Error("expected a type-checked package for valid source")
	}
}

func TestLoadTypeErrorStillReturnsTranslationUnit(t *testing.T) {
	// x is used with a type mismatch the checker will flag, but the syntax
	// is valid, so Load must still hand back a usable AST.
	src := []byte(`package main

func main() {
	var x int = "not an int"
	_ = x
}
`)

	tu, err := Load(src)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if tu.File == nil {
		t.Fatal("expected a parsed file despite the type error")
	}
}

func TestLoadParseErrorIsDiagnostic(t *testing.T) {
	src := []byte(`package main

func main(
`)

	_, err := Load(src)
	if err == nil {
		t.Fatal("expected a parse error")
	}

	msg := err.Error()
	if !strings.Contains(msg, "frontend: parse failed") {
		t.Errorf("expected wrapped parse-failure message, got %q", msg)
	}
	if !strings.Contains(msg, "func main(") {
		t.Errorf("expected source snippet in error, got %q", msg)
	}
	if !strings.Contains(msg, "^") {
		t.Errorf("expected a caret underline in error, got %q", msg)
	}
}

func TestIsMainFile(t *testing.T) {
	src := []byte("package main\n\nfunc main() {}\n")
	tu, err := Load(src)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !tu.IsMainFile(tu.File.Name.Pos()) {
		t.Error("expected the package name position to be in the main file")
	}
	if tu.IsMainFile(0) {
		t.Error("expected an invalid position to not be in the main file")
	}
}
