// Package reference loads the SAP reference table: product code to
// description and theoretical weight per meter.
package reference

import (
	"fmt"
	"sort"
)

// NotFoundDescription is used when a product code is missing from the table
const NotFoundDescription = "NOT FOUND"

// Entry is one row of the reference table
type Entry struct {
	ProductCode     int64   `json:"product_code"`
	Description     string  `json:"description"`
	WeightPerLength float64 `json:"weight_per_length"` // kg per meter
}

// Table is an immutable product code index. Build it with Load or NewTable.
type Table struct {
	Source   string
	Warnings []string

	entries map[int64]Entry
}

// NewTable indexes entries by product code; the first occurrence of a code wins
func NewTable(source string, entries []Entry) *Table {
	t := &Table{Source: source, entries: make(map[int64]Entry, len(entries))}
	for _, e := range entries {
		t.add(e, 0)
	}
	return t
}

func (t *Table) add(e Entry, row int) {
	if _, dup := t.entries[e.ProductCode]; dup {
		t.Warnings = append(t.Warnings, fmt.Sprintf("row %d: duplicate product code %d ignored", row, e.ProductCode))
		return
	}
	t.entries[e.ProductCode] = e
}

// Lookup returns the entry for a product code
func (t *Table) Lookup(code int64) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[code]
	return e, ok
}

// Len returns the number of distinct product codes
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Entries returns all entries ordered by product code
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, t.Len())
	if t == nil {
		return out
	}
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductCode < out[j].ProductCode })
	return out
}

// LoadError means the reference file cannot be used at all.
// Callers must stop the reconciliation flow when they get one.
type LoadError struct {
	Source string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reference %s: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("reference %s: %s", e.Source, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }
