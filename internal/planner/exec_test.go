// File path: internal/planner/exec_test.go
package planner

import (
	"context"
	"testing"
	"time"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/catalog"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/dataset"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/intent"
)

// stubSource serves fixed rows, exercising the source seam the executor
// was built against.
type stubSource struct {
	rows []dataset.Row
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Scan(ctx context.Context, req dataset.ScanRequest) (dataset.Iterator, error) {
	return &stubIterator{rows: s.rows, filters: req.Filters}, nil
}

type stubIterator struct {
	rows    []dataset.Row
	filters []catalog.Predicate
	pos     int
	current dataset.Row
	err     error
}

func (it *stubIterator) Next(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		it.err = err
		return false
	}
	for it.pos < len(it.rows) {
		row := it.rows[it.pos]
		it.pos++
		if !dataset.MatchRow(row, it.filters) {
			continue
		}
		it.current = row
		return true
	}
	return false
}

func (it *stubIterator) Row() dataset.Row { return it.current }
func (it *stubIterator) Err() error       { return it.err }
func (it *stubIterator) Close() error     { return nil }

func productRows() []dataset.Row {
	return []dataset.Row{
		{"code": int64(1), "name": "linho", "category": "tecido", "price": 10.0, "stock": int64(5), "sale_date": "2024-01-10"},
		{"code": int64(2), "name": "algodão", "category": "tecido", "price": 20.0, "stock": nil, "sale_date": "2024-01-20"},
		{"code": int64(3), "name": "caderno", "category": "papelaria", "price": 5.0, "stock": int64(7), "sale_date": "2024-03-05"},
		{"code": int64(4), "name": "lápis", "category": nil, "price": nil, "stock": int64(2), "sale_date": "2024-03-15"},
	}
}

func testExecutor(t *testing.T, limits Limits) *Executor {
	t.Helper()
	return NewExecutor(testRegistry(t), &stubSource{rows: productRows()}, limits)
}

func TestExecuteScalarAggregationIgnoresNulls(t *testing.T) {
	exec := testExecutor(t, Limits{})
	result, eerr := exec.Execute(context.Background(), &Plan{
		Kind: intent.KindAggregation, Dataset: "products",
		Measure: "stock", Agg: intent.OpSum,
	})
	if eerr != nil {
		t.Fatalf("Execute: %v", eerr)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(result.Rows))
	}
	if got := result.Rows[0][0]; got != int64(14) {
		t.Fatalf("sum = %#v, want int64 14", got)
	}
}

func TestExecuteAllNullAggregateIsNull(t *testing.T) {
	for _, op := range []intent.AggOp{intent.OpSum, intent.OpMean, intent.OpMin, intent.OpMax} {
		exec := NewExecutor(testRegistry(t), &stubSource{rows: []dataset.Row{
			{"code": int64(1), "stock": nil},
			{"code": int64(2), "stock": nil},
		}}, Limits{})
		result, eerr := exec.Execute(context.Background(), &Plan{
			Kind: intent.KindAggregation, Dataset: "products",
			Measure: "stock", Agg: op,
		})
		if eerr != nil {
			t.Fatalf("Execute(%s): %v", op, eerr)
		}
		if result.Rows[0][0] != nil {
			t.Fatalf("all-null %s = %#v, want nil", op, result.Rows[0][0])
		}
	}
}

func TestExecuteCountStarCountsRows(t *testing.T) {
	exec := testExecutor(t, Limits{})
	result, eerr := exec.Execute(context.Background(), &Plan{
		Kind: intent.KindAggregation, Dataset: "products",
		Measure: intent.CountAll, Agg: intent.OpCount,
	})
	if eerr != nil {
		t.Fatalf("Execute: %v", eerr)
	}
	if got := result.Rows[0][0]; got != int64(4) {
		t.Fatalf("count = %#v, want 4", got)
	}
	if result.Columns[0].Name != "count" {
		t.Fatalf("column = %q, want count", result.Columns[0].Name)
	}
}

func TestExecuteCountMeasureSkipsNulls(t *testing.T) {
	exec := testExecutor(t, Limits{})
	result, eerr := exec.Execute(context.Background(), &Plan{
		Kind: intent.KindAggregation, Dataset: "products",
		Measure: "stock", Agg: intent.OpCount,
	})
	if eerr != nil {
		t.Fatalf("Execute: %v", eerr)
	}
	if got := result.Rows[0][0]; got != int64(3) {
		t.Fatalf("count = %#v, want 3 non-null cells", got)
	}
}

func TestExecuteGroupedAggregation(t *testing.T) {
	exec := testExecutor(t, Limits{})
	result, eerr := exec.Execute(context.Background(), &Plan{
		Kind: intent.KindAggregation, Dataset: "products",
		Measure: "stock", Agg: intent.OpSum, GroupBy: []string{"category"},
	})
	if eerr != nil {
		t.Fatalf("Execute: %v", eerr)
	}
	if result.Columns[0].Name != "category" || result.Columns[1].Name != "stock_sum" {
		t.Fatalf("columns = %v", result.Columns)
	}
	if len(result.Rows) != 3 {
		t.Fatalf("groups = %d, want 3 (papelaria, tecido, __null__)", len(result.Rows))
	}
	// Ascending by group key, null group last.
	if result.Rows[0][0] != "papelaria" || result.Rows[1][0] != "tecido" {
		t.Fatalf("group order = %v", result.Rows)
	}
	if result.Rows[2][0] != NullGroupKey {
		t.Fatalf("null group key = %#v, want %s", result.Rows[2][0], NullGroupKey)
	}
	if result.Rows[1][1] != int64(5) {
		t.Fatalf("tecido sum = %#v, want 5 (null stock ignored)", result.Rows[1][1])
	}
}

func TestExecuteRankingOrderAndTieBreak(t *testing.T) {
	rows := []dataset.Row{
		{"code": int64(3), "name": "c", "price": 10.0, "stock": int64(1)},
		{"code": int64(1), "name": "a", "price": 30.0, "stock": int64(1)},
		{"code": int64(2), "name": "b", "price": 30.0, "stock": int64(1)},
	}
	exec := NewExecutor(testRegistry(t), &stubSource{rows: rows}, Limits{})
	result, eerr := exec.Execute(context.Background(), &Plan{
		Kind: intent.KindRanking, Dataset: "products",
		Measure: "price", Order: intent.OrderDesc, Limit: 3,
	})
	if eerr != nil {
		t.Fatalf("Execute: %v", eerr)
	}
	codeIdx := -1
	for i, col := range result.Columns {
		if col.Name == "code" {
			codeIdx = i
		}
	}
	if codeIdx < 0 {
		t.Fatalf("ranking lost the key column: %v", result.Columns)
	}
	got := []interface{}{result.Rows[0][codeIdx], result.Rows[1][codeIdx], result.Rows[2][codeIdx]}
	// Equal prices tie-break ascending on the key column.
	if got[0] != int64(1) || got[1] != int64(2) || got[2] != int64(3) {
		t.Fatalf("ranking order = %v", got)
	}
}

func TestExecuteRankingLimitTruncates(t *testing.T) {
	exec := testExecutor(t, Limits{})
	result, eerr := exec.Execute(context.Background(), &Plan{
		Kind: intent.KindRanking, Dataset: "products",
		Measure: "price", Order: intent.OrderDesc, Limit: 2,
	})
	if eerr != nil {
		t.Fatalf("Execute: %v", eerr)
	}
	if len(result.Rows) != 2 || !result.Truncated {
		t.Fatalf("rows = %d truncated = %v, want 2/true", len(result.Rows), result.Truncated)
	}
}

func TestExecuteGroupedRankingNumericKeyTieBreak(t *testing.T) {
	rows := []dataset.Row{
		{"code": int64(1), "stock": int64(10), "price": 5.0},
		{"code": int64(2), "stock": int64(2), "price": 5.0},
	}
	exec := NewExecutor(testRegistry(t), &stubSource{rows: rows}, Limits{})
	result, eerr := exec.Execute(context.Background(), &Plan{
		Kind: intent.KindRanking, Dataset: "products",
		Measure: "price", Agg: intent.OpSum, GroupBy: []string{"stock"},
		Order: intent.OrderDesc, Limit: 2,
	})
	if eerr != nil {
		t.Fatalf("Execute: %v", eerr)
	}
	// Equal sums tie-break ascending on the group key; integer keys order
	// numerically, so 2 comes before 10.
	if result.Rows[0][0] != int64(2) || result.Rows[1][0] != int64(10) {
		t.Fatalf("group order = %v, want [2 10]", result.Rows)
	}
}

func TestExecuteTrendFillsMonthGaps(t *testing.T) {
	exec := testExecutor(t, Limits{})
	result, eerr := exec.Execute(context.Background(), &Plan{
		Kind: intent.KindTrend, Dataset: "products",
		Measure: "price", Agg: intent.OpSum, TimeColumn: "sale_date",
	})
	if eerr != nil {
		t.Fatalf("Execute: %v", eerr)
	}
	// Data covers 2024-01 and 2024-03; 2024-02 must appear with null.
	if len(result.Rows) != 3 {
		t.Fatalf("buckets = %d, want 3 (%v)", len(result.Rows), result.Rows)
	}
	if result.Rows[1][0] != "2024-02" || result.Rows[1][1] != nil {
		t.Fatalf("gap month = %v, want (2024-02, nil)", result.Rows[1])
	}
	if result.Rows[0][1] != 30.0 {
		t.Fatalf("2024-01 sum = %#v, want 30", result.Rows[0][1])
	}
}

func TestExecuteTrendHonorsBucketBounds(t *testing.T) {
	exec := testExecutor(t, Limits{})
	result, eerr := exec.Execute(context.Background(), &Plan{
		Kind: intent.KindTrend, Dataset: "products",
		Measure: "price", Agg: intent.OpSum, TimeColumn: "sale_date",
		BucketStart: "2024-01", BucketEnd: "2024-12",
	})
	if eerr != nil {
		t.Fatalf("Execute: %v", eerr)
	}
	if len(result.Rows) != 12 {
		t.Fatalf("buckets = %d, want 12", len(result.Rows))
	}
	if result.Rows[11][0] != "2024-12" || result.Rows[11][1] != nil {
		t.Fatalf("last bucket = %v, want (2024-12, nil)", result.Rows[11])
	}
}

func TestExecuteScanBudgetMarksTruncated(t *testing.T) {
	exec := NewExecutor(testRegistry(t), &stubSource{rows: productRows()}, Limits{ScanRowBudget: 2})
	result, eerr := exec.Execute(context.Background(), &Plan{
		Kind: intent.KindAggregation, Dataset: "products",
		Measure: intent.CountAll, Agg: intent.OpCount,
	})
	if eerr != nil {
		t.Fatalf("Execute: %v", eerr)
	}
	if !result.Truncated {
		t.Fatalf("expected truncated result when scan budget is exhausted")
	}
	if result.Rows[0][0] != int64(2) {
		t.Fatalf("count = %#v, want the 2 rows inside the budget", result.Rows[0][0])
	}
}

func TestExecuteDeadlineExceeded(t *testing.T) {
	exec := testExecutor(t, Limits{})
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)
	_, eerr := exec.Execute(ctx, &Plan{
		Kind: intent.KindAggregation, Dataset: "products",
		Measure: "stock", Agg: intent.OpSum,
	})
	if eerr == nil || eerr.Code != ExecDeadlineExceeded {
		t.Fatalf("eerr = %v, want %s", eerr, ExecDeadlineExceeded)
	}
}

func TestExecuteLookupReturnsAllMatches(t *testing.T) {
	rows := []dataset.Row{
		{"code": int64(7), "name": "a", "price": 1.0, "stock": int64(1), "category": "tecido", "sale_date": "2024-01-01"},
		{"code": int64(7), "name": "b", "price": 2.0, "stock": int64(2), "category": "tecido", "sale_date": "2024-01-02"},
		{"code": int64(8), "name": "c", "price": 3.0, "stock": int64(3), "category": "tecido", "sale_date": "2024-01-03"},
	}
	exec := NewExecutor(testRegistry(t), &stubSource{rows: rows}, Limits{})
	result, eerr := exec.Execute(context.Background(), &Plan{
		Kind: intent.KindLookupByKey, Dataset: "products", KeyColumn: "code",
		Filters: []catalog.Predicate{{Column: "code", Op: catalog.OpEq, Value: int64(7)}},
		Limit:   100,
	})
	if eerr != nil {
		t.Fatalf("Execute: %v", eerr)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("rows = %d, want both rows with code 7", len(result.Rows))
	}
}
