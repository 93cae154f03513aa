// File path: internal/dataset/sql.go
package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/catalog"
)

// SQLSource serves datasets from a relational database through sqlx. Each
// catalog dataset maps to a table of the same normalized name. Filters are
// pushed down as parameterized WHERE clauses; identifiers never come from
// user input, only from the validated catalog.
type SQLSource struct {
	reg *catalog.Registry
	db  *sqlx.DB
}

func NewSQLSource(reg *catalog.Registry, cfg Config) (*SQLSource, error) {
	cfg.applyDefaults()
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dataset: sql backend requires a dsn")
	}
	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("dataset: connect %s: %w", cfg.Driver, err)
	}
	return &SQLSource{reg: reg, db: db}, nil
}

func (s *SQLSource) Name() string { return "sql" }

func (s *SQLSource) Close() error { return s.db.Close() }

func (s *SQLSource) Scan(ctx context.Context, req ScanRequest) (Iterator, error) {
	entry, ok := s.reg.Entry(req.Dataset)
	if !ok {
		return nil, unknownDataset(s.Name(), req.Dataset)
	}
	query, args, err := buildSelect(entry, req)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dataset: query %s: %w", req.Dataset, err)
	}
	return &sqlIterator{rows: rows, entry: entry, columns: req.Columns}, nil
}

func buildSelect(entry *catalog.Entry, req ScanRequest) (string, []interface{}, error) {
	columns := req.Columns
	if len(columns) == 0 {
		for _, col := range entry.Columns {
			columns = append(columns, col.Name)
		}
	}
	quoted := make([]string, len(columns))
	for i, name := range columns {
		if _, ok := entry.Column(name); !ok {
			return "", nil, fmt.Errorf("dataset: %s has no column %q", entry.DatasetName, name)
		}
		quoted[i] = quoteIdent(name)
	}
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdent(entry.DatasetName))

	var args []interface{}
	var clauses []string
	for _, p := range req.Filters {
		clause, clauseArgs, err := predicateClause(p)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		args = append(args, clauseArgs...)
	}
	if len(clauses) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(clauses, " AND "))
	}
	return sb.String(), args, nil
}

func predicateClause(p catalog.Predicate) (string, []interface{}, error) {
	ident := quoteIdent(p.Column)
	switch p.Op {
	case catalog.OpEq:
		return ident + " = ?", []interface{}{p.Value}, nil
	case catalog.OpNe:
		return ident + " <> ?", []interface{}{p.Value}, nil
	case catalog.OpLt:
		return ident + " < ?", []interface{}{p.Value}, nil
	case catalog.OpLe:
		return ident + " <= ?", []interface{}{p.Value}, nil
	case catalog.OpGt:
		return ident + " > ?", []interface{}{p.Value}, nil
	case catalog.OpGe:
		return ident + " >= ?", []interface{}{p.Value}, nil
	case catalog.OpIn:
		if len(p.Values) == 0 {
			return "1 = 0", nil, nil
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(p.Values)), ", ")
		return ident + " IN (" + marks + ")", append([]interface{}(nil), p.Values...), nil
	case catalog.OpContains:
		return "instr(lower(" + ident + "), lower(?)) > 0", []interface{}{p.Value}, nil
	default:
		return "", nil, fmt.Errorf("dataset: unsupported operator %q", p.Op)
	}
}

// quoteIdent wraps a normalized identifier. Catalog normalization already
// restricts names to [a-z0-9_], so quoting is belt only.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, ``) + `"`
}

type sqlIterator struct {
	rows    *sqlx.Rows
	entry   *catalog.Entry
	columns []string

	current Row
	err     error
}

func (it *sqlIterator) Next(ctx context.Context) bool {
	if it.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		it.err = err
		return false
	}
	if !it.rows.Next() {
		it.err = it.rows.Err()
		return false
	}
	raw := make(map[string]interface{})
	if err := it.rows.MapScan(raw); err != nil {
		it.err = err
		return false
	}
	row := make(Row, len(raw))
	for name, value := range raw {
		col, ok := it.entry.Column(name)
		if !ok || value == nil {
			row[name] = value
			continue
		}
		coerced, cerr := catalog.CoerceValue(col, normalizeDriverValue(value))
		if cerr != nil {
			it.err = fmt.Errorf("dataset: %s column %s: %s", it.entry.DatasetName, name, cerr.Message)
			return false
		}
		row[name] = coerced
	}
	it.current = row
	return true
}

// normalizeDriverValue maps driver-specific scan types onto the values
// CoerceValue understands.
func normalizeDriverValue(value interface{}) interface{} {
	switch v := value.(type) {
	case []byte:
		return string(v)
	default:
		return v
	}
}

func (it *sqlIterator) Row() Row   { return it.current }
func (it *sqlIterator) Err() error { return it.err }

func (it *sqlIterator) Close() error { return it.rows.Close() }
