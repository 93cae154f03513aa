// File path: internal/catalog/registry.go
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/common"
)

// Registry serves catalog entries. It is immutable after construction and
// safe for concurrent readers.
type Registry struct {
	entries []Entry
	byName  map[string]*Entry
}

// LoadFile reads a catalog file (a JSON list of entries) and builds a
// registry from it. Unknown keys in the file are ignored.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, &Error{Reason: fmt.Sprintf("read catalog file: %v", err)}
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &Error{Reason: fmt.Sprintf("parse catalog file: %v", err)}
	}
	return Load(entries)
}

// Load normalizes and validates declarative entries into a registry. It
// fails on duplicate normalized column names, missing required fields, and
// unrecognized semantic types.
func Load(entries []Entry) (*Registry, error) {
	logger := common.Logger()
	reg := &Registry{byName: make(map[string]*Entry, len(entries))}
	for _, entry := range entries {
		name := Normalize(entry.DatasetName)
		if name == "" {
			return nil, &Error{Dataset: entry.DatasetName, Reason: "dataset name required"}
		}
		if _, exists := reg.byName[name]; exists {
			return nil, &Error{Dataset: name, Reason: "duplicate dataset name"}
		}
		normalized := Entry{
			DatasetName: name,
			Description: strings.TrimSpace(entry.Description),
			RowCount:    entry.RowCount,
			UpdatedAt:   entry.UpdatedAt,
		}
		if len(entry.Columns) == 0 {
			return nil, &Error{Dataset: name, Reason: "at least one column required"}
		}
		seen := make(map[string]struct{}, len(entry.Columns))
		for _, col := range entry.Columns {
			raw := strings.TrimSpace(col.Name)
			if raw == "" {
				return nil, &Error{Dataset: name, Reason: "column name required"}
			}
			if !KnownType(col.Type) {
				return nil, &Error{Dataset: name, Column: raw, Reason: fmt.Sprintf("unrecognized semantic type %q", col.Type)}
			}
			canonical := Normalize(raw)
			if canonical == "" {
				return nil, &Error{Dataset: name, Column: raw, Reason: "column name normalizes to empty"}
			}
			if _, dup := seen[canonical]; dup {
				return nil, &Error{Dataset: name, Column: canonical, Reason: "duplicate normalized column name"}
			}
			seen[canonical] = struct{}{}
			normalized.Columns = append(normalized.Columns, Column{
				Name:        canonical,
				RawName:     raw,
				Type:        col.Type,
				Description: strings.TrimSpace(col.Description),
				Nullable:    col.Nullable,
				Unit:        strings.TrimSpace(col.Unit),
				Categories:  append([]string(nil), col.Categories...),
			})
		}
		reg.entries = append(reg.entries, normalized)
	}
	sort.Slice(reg.entries, func(i, j int) bool {
		return reg.entries[i].DatasetName < reg.entries[j].DatasetName
	})
	for i := range reg.entries {
		reg.byName[reg.entries[i].DatasetName] = &reg.entries[i]
	}
	logger.Info("catalog: registry loaded", "datasets", len(reg.entries))
	return reg, nil
}

// Entries returns a read-only view of all catalog entries.
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Entry looks up a dataset by name (normalized before matching).
func (r *Registry) Entry(dataset string) (*Entry, bool) {
	if r == nil {
		return nil, false
	}
	entry, ok := r.byName[Normalize(dataset)]
	return entry, ok
}

// ColumnRef identifies a column within a dataset.
type ColumnRef struct {
	Dataset string
	Column  string
}

// FindColumn resolves a free-text hint to catalog columns: exact match on
// the normalized name first, then case-insensitive substring on the raw
// name. Results are ordered by dataset then column for determinism.
func (r *Registry) FindColumn(hint string) []ColumnRef {
	if r == nil {
		return nil
	}
	canonical := Normalize(hint)
	if canonical == "" {
		return nil
	}
	var exact, partial []ColumnRef
	lowered := strings.ToLower(strings.TrimSpace(hint))
	for _, entry := range r.entries {
		for _, col := range entry.Columns {
			if col.Name == canonical {
				exact = append(exact, ColumnRef{Dataset: entry.DatasetName, Column: col.Name})
				continue
			}
			if lowered != "" && strings.Contains(strings.ToLower(col.RawName), lowered) {
				partial = append(partial, ColumnRef{Dataset: entry.DatasetName, Column: col.Name})
			}
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return partial
}

// ValidatePredicate asserts the predicate column exists in the dataset and
// coerces the value(s) to the declared semantic type.
func (r *Registry) ValidatePredicate(dataset string, p Predicate) (Predicate, *PredicateError) {
	entry, ok := r.Entry(dataset)
	if !ok {
		return Predicate{}, &PredicateError{Code: PredicateUnknownColumn, Column: p.Column, Message: fmt.Sprintf("dataset %q not in catalog", dataset)}
	}
	col, ok := entry.Column(Normalize(p.Column))
	if !ok {
		return Predicate{}, &PredicateError{Code: PredicateUnknownColumn, Column: p.Column, Message: "column not in catalog"}
	}
	if err := checkOperator(col.Type, p.Op); err != nil {
		return Predicate{}, err
	}
	out := Predicate{Column: col.Name, Op: p.Op}
	if p.Op == OpIn {
		if len(p.Values) == 0 {
			return Predicate{}, &PredicateError{Code: PredicateIncompatibleType, Column: col.Name, Message: "in predicate requires values"}
		}
		for _, raw := range p.Values {
			coerced, err := CoerceValue(col, raw)
			if err != nil {
				return Predicate{}, err
			}
			out.Values = append(out.Values, coerced)
		}
		return out, nil
	}
	coerced, err := CoerceValue(col, p.Value)
	if err != nil {
		return Predicate{}, err
	}
	out.Value = coerced
	return out, nil
}

func checkOperator(t SemanticType, op PredicateOp) *PredicateError {
	switch op {
	case OpEq, OpNe, OpIn:
		return nil
	case OpLt, OpLe, OpGt, OpGe:
		if t.Numeric() || t == TypeDate {
			return nil
		}
		return &PredicateError{Code: PredicateIncompatibleType, Message: fmt.Sprintf("operator %s requires a numeric or date column", op)}
	case OpContains:
		if t == TypeText || t == TypeCategory {
			return nil
		}
		return &PredicateError{Code: PredicateIncompatibleType, Message: "contains requires a text column"}
	}
	return &PredicateError{Code: PredicateUnknownOp, Message: fmt.Sprintf("unknown operator %q", op)}
}
