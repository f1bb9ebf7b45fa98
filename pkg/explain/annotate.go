// Package explain implements the preview ("dry run") output mode: instead
// of deleting a declaration, it wraps the declaration's original lines with
// a pair of comment markers naming why the pipeline would have removed it.
package explain

import (
	"fmt"
	"strings"

	"github.com/prunelang/prune/pkg/report"
)

// Annotator wraps would-be-removed declarations in start/end comment
// markers instead of deleting them, for a --explain preview run.
type Annotator struct {
	enabled bool
}

// New creates an Annotator. When enabled is false, Annotate returns source
// unchanged.
func New(enabled bool) *Annotator {
	return &Annotator{enabled: enabled}
}

// Annotate splices a PRUNE:REMOVED marker pair around every line range
// named in entries. entries need not be sorted; Annotate processes them
// from the last line to the first so that earlier insertions never shift
// the line numbers a later insertion still has to find.
func (a *Annotator) Annotate(source []byte, entries []report.Entry) ([]byte, error) {
	if !a.enabled || len(entries) == 0 {
		return source, nil
	}

	lines := strings.Split(string(source), "\n")
	ordered := append([]report.Entry(nil), entries...)
	sortByStartLineDescending(ordered)

	for _, e := range ordered {
		start, end := e.StartLine-1, e.EndLine-1
		if start < 0 || end >= len(lines) || start > end {
			return nil, fmt.Errorf("explain: entry %q has out-of-range lines %d-%d for a %d-line source", e.Name, e.StartLine, e.EndLine, len(lines))
		}
		indent := indentOf(lines[start])
		startMarker := fmt.Sprintf("%s// PRUNE:REMOVED:START %s %s (%s)", indent, e.Kind, e.Name, e.Reason)
		endMarker := indent + "// PRUNE:REMOVED:END"

		block := append([]string{startMarker}, lines[start:end+1]...)
		block = append(block, endMarker)

		rest := append([]string(nil), lines[end+1:]...)
		lines = append(lines[:start], append(block, rest...)...)
	}

	return []byte(strings.Join(lines, "\n")), nil
}

func sortByStartLineDescending(entries []report.Entry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].StartLine < entries[j].StartLine; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}

func indentOf(line string) string {
	for i, ch := range line {
		if ch != ' ' && ch != '\t' {
			return line[:i]
		}
	}
	return line
}
