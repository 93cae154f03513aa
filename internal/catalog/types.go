// File path: internal/catalog/types.go
package catalog

import (
	"fmt"
	"time"
)

// SemanticType is the closed set of column types understood by the core.
type SemanticType string

const (
	TypeInteger  SemanticType = "integer"
	TypeDecimal  SemanticType = "decimal"
	TypeText     SemanticType = "text"
	TypeBoolean  SemanticType = "boolean"
	TypeDate     SemanticType = "date"
	TypeCategory SemanticType = "category"
)

// KnownType reports whether t belongs to the declared type set.
func KnownType(t SemanticType) bool {
	switch t {
	case TypeInteger, TypeDecimal, TypeText, TypeBoolean, TypeDate, TypeCategory:
		return true
	}
	return false
}

// Numeric reports whether values of the type support arithmetic aggregation.
func (t SemanticType) Numeric() bool {
	return t == TypeInteger || t == TypeDecimal
}

// Column describes one dataset column. Name holds the normalized identifier
// used everywhere downstream; RawName keeps the source spelling for display.
type Column struct {
	Name        string       `json:"name"`
	RawName     string       `json:"raw_name,omitempty"`
	Type        SemanticType `json:"type"`
	Description string       `json:"description,omitempty"`
	Nullable    bool         `json:"nullable"`
	Unit        string       `json:"unit,omitempty"`
	Categories  []string     `json:"categories,omitempty"`
}

// Entry is the catalog record for one dataset.
type Entry struct {
	DatasetName string    `json:"dataset_name"`
	Description string    `json:"description,omitempty"`
	Columns     []Column  `json:"columns"`
	RowCount    int       `json:"row_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Column returns the column with the given normalized name, if present.
func (e *Entry) Column(name string) (Column, bool) {
	for _, col := range e.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// KeyColumn returns the first key-shaped column of the entry: an integer or
// text column whose name suggests an identifier.
func (e *Entry) KeyColumn() (Column, bool) {
	for _, col := range e.Columns {
		if col.Type != TypeInteger && col.Type != TypeText {
			continue
		}
		switch col.Name {
		case "code", "codigo", "id", "sku", "key":
			return col, true
		}
	}
	for _, col := range e.Columns {
		if col.Type == TypeInteger {
			return col, true
		}
	}
	return Column{}, false
}

// PredicateOp is the closed set of filter operators.
type PredicateOp string

const (
	OpEq       PredicateOp = "eq"
	OpNe       PredicateOp = "ne"
	OpLt       PredicateOp = "lt"
	OpLe       PredicateOp = "le"
	OpGt       PredicateOp = "gt"
	OpGe       PredicateOp = "ge"
	OpIn       PredicateOp = "in"
	OpContains PredicateOp = "contains"
)

// Predicate is a typed filter over one column. For OpIn, Values carries the
// coerced members; Value is used for every other operator.
type Predicate struct {
	Column string        `json:"column"`
	Op     PredicateOp   `json:"op"`
	Value  interface{}   `json:"value,omitempty"`
	Values []interface{} `json:"values,omitempty"`
}

// Error is a fatal catalog construction failure.
type Error struct {
	Dataset string
	Column  string
	Reason  string
}

func (e *Error) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("catalog: dataset %q column %q: %s", e.Dataset, e.Column, e.Reason)
	}
	if e.Dataset != "" {
		return fmt.Sprintf("catalog: dataset %q: %s", e.Dataset, e.Reason)
	}
	return "catalog: " + e.Reason
}

// PredicateError explains why a predicate could not be validated.
type PredicateError struct {
	Code    string
	Column  string
	Message string
}

const (
	PredicateUnknownColumn    = "unknown_column"
	PredicateIncompatibleType = "incompatible_type"
	PredicateUnknownCategory  = "unknown_category"
	PredicateUnknownOp        = "unknown_op"
)

func (e *PredicateError) Error() string {
	return fmt.Sprintf("predicate %s: column %q: %s", e.Code, e.Column, e.Message)
}
