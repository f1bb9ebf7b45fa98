// Package report builds the shrink report: a JSON record of every
// declaration the pipeline deleted, its original line range, and why it
// was cut. Entries accumulate during a run and are serialized once, as a
// whole, when the caller asks for them.
package report

import (
	"encoding/json"
	"fmt"
)

// Reason names why a declaration did not survive the shrink.
type Reason string

const (
	ReasonUnreachable        Reason = "unreachable"
	ReasonInactiveGuard      Reason = "inactive-guard"
	ReasonUnusedInGroup      Reason = "unused-in-group"
	ReasonDeadRegion         Reason = "dead-region"
	ReasonDuplicateDotImport Reason = "duplicate-dot-import"
)

// Entry describes one deleted declaration.
type Entry struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	Reason    Reason `json:"reason"`
	Fragment  string `json:"fragment,omitempty"`
}

// Reporter accumulates entries during a shrink run.
type Reporter struct {
	entries []Entry
}

// New creates an empty Reporter.
func New() *Reporter {
	return &Reporter{}
}

// Record appends e to the report.
func (r *Reporter) Record(e Entry) {
	r.entries = append(r.entries, e)
}

// Entries returns a copy of the entries recorded so far, in recording
// order.
func (r *Reporter) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len reports how many declarations were recorded as removed.
func (r *Reporter) Len() int {
	return len(r.entries)
}

// document is the JSON envelope Generate serializes.
type document struct {
	Version int     `json:"version"`
	Removed []Entry `json:"removed"`
}

// Generate serializes the accumulated entries as indented JSON.
func (r *Reporter) Generate() ([]byte, error) {
	doc := document{Version: 1, Removed: r.entries}
	if doc.Removed == nil {
		doc.Removed = []Entry{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("report: marshal failed: %w", err)
	}
	return data, nil
}
