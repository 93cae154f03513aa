// File path: internal/dataset/source.go
package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/catalog"
)

// Row is one dataset record keyed by normalized column name. Values carry
// the canonical Go type for their semantic type: int64 for integers,
// float64 for decimals, string for text, dates, and categories, bool for
// booleans, and nil for nulls.
type Row map[string]interface{}

// ScanRequest describes one read over a dataset. Columns is a projection;
// empty means every column. Filters must already be validated against the
// catalog; sources may push them down or leave them to the iterator.
// ExamineLimit bounds how many stored rows the source may look at,
// including rows its own filtering discards; zero means unbounded.
// Sources that push filters down to a database may ignore it, in which
// case the caller bounds yielded rows instead.
type ScanRequest struct {
	Dataset      string
	Columns      []string
	Filters      []catalog.Predicate
	ExamineLimit int
}

// Iterator walks scan results in storage order, sql.Rows style:
//
//	for it.Next(ctx) { row := it.Row() }
//	if err := it.Err(); err != nil { ... }
type Iterator interface {
	Next(ctx context.Context) bool
	Row() Row
	Err() error
	Close() error
}

// ScanStats is an optional Iterator extension reporting how the scan
// ended: the number of stored rows examined (filtered rows included) and
// whether the examine limit stopped it with rows left over.
type ScanStats interface {
	Examined() int
	Limited() bool
}

// Source is a read-only dataset backend.
type Source interface {
	Name() string
	Scan(ctx context.Context, req ScanRequest) (Iterator, error)
}

// Compare orders two row values of the same semantic type. It returns
// (-1|0|1, true) when the pair is comparable and (0, false) otherwise.
// Nulls are never comparable.
func Compare(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	switch av := a.(type) {
	case int64:
		switch bv := b.(type) {
		case int64:
			return cmpInt(av, bv), true
		case float64:
			return cmpFloat(float64(av), bv), true
		}
	case float64:
		switch bv := b.(type) {
		case int64:
			return cmpFloat(av, float64(bv)), true
		case float64:
			return cmpFloat(av, bv), true
		}
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), true
		}
	case bool:
		if bv, ok := b.(bool); ok {
			if av == bv {
				return 0, true
			}
			if !av {
				return -1, true
			}
			return 1, true
		}
	}
	return 0, false
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// MatchRow evaluates every predicate against the row. A null cell fails
// every predicate, including ne.
func MatchRow(row Row, filters []catalog.Predicate) bool {
	for _, p := range filters {
		if !matchPredicate(row[p.Column], p) {
			return false
		}
	}
	return true
}

func matchPredicate(cell interface{}, p catalog.Predicate) bool {
	if cell == nil {
		return false
	}
	switch p.Op {
	case catalog.OpEq:
		c, ok := Compare(cell, p.Value)
		return ok && c == 0
	case catalog.OpNe:
		c, ok := Compare(cell, p.Value)
		return ok && c != 0
	case catalog.OpLt:
		c, ok := Compare(cell, p.Value)
		return ok && c < 0
	case catalog.OpLe:
		c, ok := Compare(cell, p.Value)
		return ok && c <= 0
	case catalog.OpGt:
		c, ok := Compare(cell, p.Value)
		return ok && c > 0
	case catalog.OpGe:
		c, ok := Compare(cell, p.Value)
		return ok && c >= 0
	case catalog.OpIn:
		for _, v := range p.Values {
			if c, ok := Compare(cell, v); ok && c == 0 {
				return true
			}
		}
		return false
	case catalog.OpContains:
		s, sok := cell.(string)
		sub, vok := p.Value.(string)
		return sok && vok && strings.Contains(strings.ToLower(s), strings.ToLower(sub))
	default:
		return false
	}
}

// projectRow keeps only the requested columns. Empty projections pass the
// row through untouched.
func projectRow(row Row, columns []string) Row {
	if len(columns) == 0 {
		return row
	}
	out := make(Row, len(columns))
	for _, name := range columns {
		out[name] = row[name]
	}
	return out
}

func unknownDataset(source, dataset string) error {
	return fmt.Errorf("dataset: %s has no dataset %q", source, dataset)
}
