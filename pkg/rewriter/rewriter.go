// Package rewriter implements a buffered, overlap-rejecting text-edit layer
// over a single source buffer: callers submit ranges to delete, the
// rewriter refuses any range that overlaps one already accepted, and a
// single call to ApplyChanges materializes every accepted edit at once.
package rewriter

import (
	"go/token"
	"sort"
)

// Range is a half-open byte range [Begin, End) into the original source
// buffer, using 0-based byte offsets — NOT raw token.Pos values, which
// carry a file-set-assigned base offset (1 for the first file added to a
// fresh token.FileSet). Use RangeFromPos to convert.
type Range struct {
	Begin, End int
}

// RangeFromPos converts a pair of token.Pos values into a Range of 0-based
// byte offsets into the original buffer, resolving each through fset. Every
// caller that builds a Range from positions obtained off an *ast.Node or a
// *token.FileSet must go through this, rather than an `int(pos)` cast,
// since a bare cast carries the position's file base along with it.
func RangeFromPos(fset *token.FileSet, begin, end token.Pos) Range {
	return Range{Begin: fset.Position(begin).Offset, End: fset.Position(end).Offset}
}

func (r Range) overlaps(o Range) bool {
	return r.Begin < o.End && o.Begin < r.End
}

func (r Range) empty() bool {
	return r.Begin >= r.End
}

// Options controls how a single removal is applied.
type Options struct {
	// RemoveEmptyLines collapses the blank-line run a deletion would
	// otherwise leave behind.
	RemoveEmptyLines bool
}

type edit struct {
	r    Range
	opts Options
}

// Buffer is the rewriter. The zero value is not usable; construct one with
// New.
type Buffer struct {
	src     []byte
	edits   []edit
	applied bool
}

// New creates a rewriter over the given original source bytes. The slice is
// not copied; callers must not mutate it until after ApplyChanges.
func New(src []byte) *Buffer {
	return &Buffer{src: src}
}

// CanRemoveRange reports whether r can be accepted without overlapping any
// range already accepted by this Buffer.
func (b *Buffer) CanRemoveRange(r Range) bool {
	if r.empty() {
		return true
	}
	for _, e := range b.edits {
		if e.r.overlaps(r) {
			return false
		}
	}
	return true
}

// RemoveRange attempts to record a deletion of r. It returns true and
// records the edit iff CanRemoveRange(r); otherwise it is a no-op and
// returns false. Submitting an empty range is always accepted and is a
// no-op at ApplyChanges time.
func (b *Buffer) RemoveRange(r Range, opts Options) bool {
	if r.empty() {
		return true
	}
	if !b.CanRemoveRange(r) {
		return false
	}
	b.edits = append(b.edits, edit{r: r, opts: opts})
	return true
}

// ApplyChanges materializes every accepted edit into a new buffer and
// returns it. It is idempotent: calling it more than once returns the same
// result without re-applying edits twice, and ordering of the sweep is
// always by ascending start offset regardless of submission order or map
// iteration, so the result is deterministic.
func (b *Buffer) ApplyChanges() []byte {
	if b.applied {
		return b.src
	}
	if len(b.edits) == 0 {
		b.applied = true
		return b.src
	}

	ordered := make([]edit, len(b.edits))
	copy(ordered, b.edits)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].r.Begin != ordered[j].r.Begin {
			return ordered[i].r.Begin < ordered[j].r.Begin
		}
		return ordered[i].r.End < ordered[j].r.End
	})

	out := make([]byte, 0, len(b.src))
	cursor := 0
	for _, e := range ordered {
		begin, end := e.r.Begin, e.r.End
		if begin < cursor {
			// Already covered by a previous (necessarily non-overlapping,
			// so only possible when identical) edit; skip.
			continue
		}
		out = append(out, b.src[cursor:begin]...)
		if e.opts.RemoveEmptyLines {
			end = extendThroughBlankRun(b.src, end)
		}
		cursor = end
	}
	out = append(out, b.src[cursor:]...)

	b.applied = true
	b.edits = nil
	b.src = out
	return out
}

// Applied reports whether ApplyChanges has run.
func (b *Buffer) Applied() bool { return b.applied }

// extendThroughBlankRun extends end past any run of blank lines (lines
// containing only horizontal whitespace) that immediately follows a
// deletion, so removing a declaration does not leave a stack of empty
// lines behind. At most the immediate blank run is consumed; it never
// reaches into a following non-blank line.
func extendThroughBlankRun(src []byte, end int) int {
	i := end
	lastNewline := i
	for i < len(src) {
		j := i
		for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
			j++
		}
		if j < len(src) && src[j] == '\n' {
			j++
			i = j
			lastNewline = i
			continue
		}
		break
	}
	return lastNewline
}
