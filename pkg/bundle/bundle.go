// Package bundle assembles one or more on-disk Go source fragments into the
// single translation unit the shrinker engine operates on. The upstream
// inlining stage this tool follows concatenates library headers and a
// user's solution into one file; this package plays that same role when
// the fragments have not already been joined, and it keeps a record of
// each fragment's original boundary so a deletion in the joined buffer can
// still be attributed back to the fragment it came from.
package bundle

import (
	"fmt"
	"os"
	"path/filepath"
)

// Fragment is one named chunk of Go source contributed to the bundle.
type Fragment struct {
	Name   string // display name: a file path, or a synthetic label
	Source []byte
}

// Bundle is the translation unit: one or more fragments joined into a
// single buffer, plus the offset range each fragment occupies in it.
type Bundle struct {
	Joined    []byte
	Fragments []Fragment
	// Bounds[i] is the [begin, end) byte range of Fragments[i] within
	// Joined.
	Bounds []Range
}

// Range is a half-open byte range within the joined buffer.
type Range struct {
	Begin, End int
}

// Join concatenates fragments in order, appending a newline to any
// fragment that does not already end in one, so the last declaration of
// one fragment never merges with the first token of the next. An appended
// newline counts as part of its fragment's Bounds range.
func Join(fragments []Fragment) *Bundle {
	b := &Bundle{Fragments: fragments}
	for _, f := range fragments {
		start := len(b.Joined)
		b.Joined = append(b.Joined, f.Source...)
		if len(f.Source) == 0 || f.Source[len(f.Source)-1] != '\n' {
			b.Joined = append(b.Joined, '\n')
		}
		b.Bounds = append(b.Bounds, Range{Begin: start, End: len(b.Joined)})
	}
	return b
}

// FragmentAt returns the name of the fragment containing byte offset pos,
// or "" if pos falls outside every fragment (a negative offset, or one at
// or past the end of Joined).
func (b *Bundle) FragmentAt(pos int) string {
	for i, r := range b.Bounds {
		if pos >= r.Begin && pos < r.End {
			return b.Fragments[i].Name
		}
	}
	return ""
}

// LoadFiles reads each path in order and joins them into a Bundle.
func LoadFiles(paths []string) (*Bundle, error) {
	fragments := make([]Fragment, 0, len(paths))
	for _, p := range paths {
		src, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("bundle: read %s: %w", p, err)
		}
		fragments = append(fragments, Fragment{Name: filepath.Clean(p), Source: src})
	}
	return Join(fragments), nil
}

// Single wraps one already-self-contained source buffer as a one-fragment
// Bundle, the common case of a translation unit the upstream inliner stage
// already produced whole.
func Single(name string, src []byte) *Bundle {
	return Join([]Fragment{{Name: name, Source: src}})
}
