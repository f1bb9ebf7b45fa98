// Package errors provides error types and reporting infrastructure for prune.
package errors

import (
	"fmt"
	"go/token"
)

// CompileError represents an error raised by one of the pipeline's analysis
// stages, as opposed to the rustc-style EnhancedError used for the front
// end's fatal parse failure.
type CompileError struct {
	Message  string    // Human-readable error message
	Location token.Pos // Position in source file
	Hint     string    // Suggestion for fixing the error
	Category ErrorCategory
}

// ErrorCategory categorizes the pipeline stage that raised an error.
type ErrorCategory int

const (
	// ErrorCategoryParse indicates the front end could not parse the bundle.
	ErrorCategoryParse ErrorCategory = iota
	// ErrorCategoryTypeCheck indicates the front end's type-checking pass
	// reported a problem that weakens dependency-graph edges derived from it.
	ErrorCategoryTypeCheck
	// ErrorCategoryGuard indicates a build-constraint comment could not be
	// parsed or evaluated.
	ErrorCategoryGuard
)

// Error implements the error interface
func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.categoryString(), e.Message)
}

func (e *CompileError) categoryString() string {
	switch e.Category {
	case ErrorCategoryParse:
		return "Parse Error"
	case ErrorCategoryTypeCheck:
		return "Type-Check Error"
	case ErrorCategoryGuard:
		return "Guard Error"
	default:
		return "Error"
	}
}

// NewTypeCheckError creates an error for a type-checking problem that
// prevented a dependency edge from being resolved.
func NewTypeCheckError(message string, location token.Pos, hint string) *CompileError {
	return &CompileError{
		Message:  message,
		Location: location,
		Hint:     hint,
		Category: ErrorCategoryTypeCheck,
	}
}

// NewGuardError creates an error for a malformed or unevaluable build
// constraint.
func NewGuardError(message string, location token.Pos, hint string) *CompileError {
	return &CompileError{
		Message:  message,
		Location: location,
		Hint:     hint,
		Category: ErrorCategoryGuard,
	}
}

// FormatWithPosition formats the error with file position information
func (e *CompileError) FormatWithPosition(fset *token.FileSet) string {
	if fset == nil || !e.Location.IsValid() {
		return e.Error()
	}

	pos := fset.Position(e.Location)
	msg := fmt.Sprintf("%s:%d:%d: %s: %s",
		pos.Filename,
		pos.Line,
		pos.Column,
		e.categoryString(),
		e.Message,
	)

	if e.Hint != "" {
		msg += fmt.Sprintf("\n  Hint: %s", e.Hint)
	}

	return msg
}

// UnresolvedSelectorError creates a standardized error for a selector
// expression the type checker couldn't resolve to a package member, which
// leaves the dependency graph unable to draw an edge for it.
func UnresolvedSelectorError(exprString string, location token.Pos) *CompileError {
	return NewTypeCheckError(
		fmt.Sprintf("cannot resolve selector expression: %s", exprString),
		location,
		"the declaration it would reach is kept only if another edge already reaches it",
	)
}

// MalformedGuardError creates an error for a //go:build line the constraint
// parser rejected.
func MalformedGuardError(exprString string, location token.Pos) *CompileError {
	return NewGuardError(
		fmt.Sprintf("cannot parse build constraint: %s", exprString),
		location,
		"the guarded block is kept unconditionally until the constraint is fixed",
	)
}
