// File path: internal/planner/exec.go
package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/catalog"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/common"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/dataset"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/intent"
)

// Execution error codes.
const (
	ExecDeadlineExceeded = "deadline_exceeded"
	ExecDataUnavailable  = "data_unavailable"
	ExecInternal         = "internal"
)

// NullGroupKey stands in for a null group value in result rows.
const NullGroupKey = "__null__"

// ExecError reports a runtime failure while executing a valid plan.
type ExecError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("exec %s: %s", e.Code, e.Message)
}

// Column describes one result column.
type Column struct {
	Name string               `json:"name"`
	Type catalog.SemanticType `json:"type"`
	Unit string               `json:"unit,omitempty"`
}

// Result is the tabular output of one executed plan. Rows are positional
// and aligned with Columns.
type Result struct {
	Columns     []Column        `json:"columns"`
	Rows        [][]interface{} `json:"rows"`
	Truncated   bool            `json:"truncated"`
	ScannedRows int             `json:"scanned_rows"`
}

// Executor runs plans against a dataset source.
type Executor struct {
	reg    *catalog.Registry
	src    dataset.Source
	limits Limits
}

func NewExecutor(reg *catalog.Registry, src dataset.Source, limits Limits) *Executor {
	limits.applyDefaults()
	return &Executor{reg: reg, src: src, limits: limits}
}

func (e *Executor) Execute(ctx context.Context, plan *Plan) (*Result, *ExecError) {
	entry, ok := e.reg.Entry(plan.Dataset)
	if !ok {
		return nil, &ExecError{Code: ExecInternal, Message: fmt.Sprintf("plan references unknown dataset %q", plan.Dataset)}
	}
	start := time.Now()
	var result *Result
	var execErr *ExecError
	switch plan.Kind {
	case intent.KindLookupByKey:
		result, execErr = e.execLookup(ctx, entry, plan)
	case intent.KindAggregation:
		result, execErr = e.execAggregation(ctx, entry, plan)
	case intent.KindRanking:
		result, execErr = e.execRanking(ctx, entry, plan)
	case intent.KindTrend:
		result, execErr = e.execTrend(ctx, entry, plan)
	default:
		return nil, &ExecError{Code: ExecInternal, Message: fmt.Sprintf("unexecutable plan kind %q", plan.Kind)}
	}
	if execErr != nil {
		return nil, execErr
	}
	common.Logger().Info("planner: executed",
		"kind", string(plan.Kind),
		"dataset", plan.Dataset,
		"rows", len(result.Rows),
		"scanned", result.ScannedRows,
		"truncated", result.Truncated,
		"elapsed", time.Since(start).String(),
	)
	return result, nil
}

// scan drains the source iterator, honoring the scan row budget. When the
// budget runs out, scanning stops and the partial flag is set. Sources
// that report scan stats are bounded by rows examined, filtered rows
// included; others are bounded by rows yielded.
func (e *Executor) scan(ctx context.Context, plan *Plan, columns []string) ([]dataset.Row, int, bool, *ExecError) {
	it, err := e.src.Scan(ctx, dataset.ScanRequest{
		Dataset:      plan.Dataset,
		Columns:      columns,
		Filters:      plan.Filters,
		ExamineLimit: e.limits.ScanRowBudget,
	})
	if err != nil {
		return nil, 0, false, classify(err)
	}
	defer it.Close()

	var rows []dataset.Row
	scanned := 0
	partial := false
	for it.Next(ctx) {
		scanned++
		if scanned > e.limits.ScanRowBudget {
			partial = true
			scanned--
			break
		}
		rows = append(rows, it.Row())
	}
	if err := it.Err(); err != nil {
		return nil, scanned, partial, classify(err)
	}
	if stats, ok := it.(dataset.ScanStats); ok {
		scanned = stats.Examined()
		partial = partial || stats.Limited()
	}
	return rows, scanned, partial, nil
}

func classify(err error) *ExecError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &ExecError{Code: ExecDeadlineExceeded, Message: "the question took longer than the turn deadline"}
	case errors.Is(err, context.Canceled):
		return &ExecError{Code: ExecDeadlineExceeded, Message: "the request was canceled before the scan finished"}
	default:
		return &ExecError{Code: ExecDataUnavailable, Message: err.Error()}
	}
}

func (e *Executor) execLookup(ctx context.Context, entry *catalog.Entry, plan *Plan) (*Result, *ExecError) {
	rows, scanned, partial, execErr := e.scan(ctx, plan, nil)
	if execErr != nil {
		return nil, execErr
	}
	columns := make([]Column, len(entry.Columns))
	for i, col := range entry.Columns {
		columns[i] = Column{Name: col.Name, Type: col.Type, Unit: col.Unit}
	}
	truncated := partial
	if plan.Limit > 0 && len(rows) > plan.Limit {
		rows = rows[:plan.Limit]
		truncated = true
	}
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(entry.Columns))
		for j, col := range entry.Columns {
			cells[j] = row[col.Name]
		}
		out[i] = cells
	}
	return &Result{Columns: columns, Rows: out, Truncated: truncated, ScannedRows: scanned}, nil
}

// accumulator folds one measure stream, ignoring nulls except for count
// over every row.
type accumulator struct {
	groupValues []interface{}

	rowCount   int64
	valueCount int64
	sumInt     int64
	sumFloat   float64
	sawFloat   bool
	minVal     interface{}
	maxVal     interface{}
}

func (a *accumulator) add(value interface{}) {
	a.rowCount++
	if value == nil {
		return
	}
	a.valueCount++
	switch v := value.(type) {
	case int64:
		a.sumInt += v
		a.sumFloat += float64(v)
	case float64:
		a.sawFloat = true
		a.sumFloat += v
	}
	if a.minVal == nil {
		a.minVal = value
	} else if c, ok := dataset.Compare(value, a.minVal); ok && c < 0 {
		a.minVal = value
	}
	if a.maxVal == nil {
		a.maxVal = value
	} else if c, ok := dataset.Compare(value, a.maxVal); ok && c > 0 {
		a.maxVal = value
	}
}

func (a *accumulator) value(op intent.AggOp, countAll bool) interface{} {
	switch op {
	case intent.OpCount:
		if countAll {
			return a.rowCount
		}
		return a.valueCount
	case intent.OpSum:
		if a.valueCount == 0 {
			return nil
		}
		if a.sawFloat {
			return a.sumFloat
		}
		return a.sumInt
	case intent.OpMean:
		if a.valueCount == 0 {
			return nil
		}
		return a.sumFloat / float64(a.valueCount)
	case intent.OpMin:
		return a.minVal
	case intent.OpMax:
		return a.maxVal
	}
	return nil
}

func (e *Executor) execAggregation(ctx context.Context, entry *catalog.Entry, plan *Plan) (*Result, *ExecError) {
	countAll := plan.Measure == intent.CountAll
	scanColumns := append([]string(nil), plan.GroupBy...)
	if !countAll {
		scanColumns = append(scanColumns, plan.Measure)
	}
	if len(plan.GroupBy) == 0 && countAll {
		scanColumns = nil
	}
	rows, scanned, partial, execErr := e.scan(ctx, plan, scanColumns)
	if execErr != nil {
		return nil, execErr
	}

	valueColumn := aggregateColumn(entry, plan.Agg, plan.Measure)
	if len(plan.GroupBy) == 0 {
		acc := &accumulator{}
		for _, row := range rows {
			acc.add(measureCell(row, plan.Measure, countAll))
		}
		return &Result{
			Columns:     []Column{valueColumn},
			Rows:        [][]interface{}{{acc.value(plan.Agg, countAll)}},
			Truncated:   partial,
			ScannedRows: scanned,
		}, nil
	}

	groups := make(map[string]*accumulator)
	order := make([]string, 0)
	for _, row := range rows {
		key, values := groupKey(row, plan.GroupBy)
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{groupValues: values}
			groups[key] = acc
			order = append(order, key)
		}
		acc.add(measureCell(row, plan.Measure, countAll))
	}
	sortGroupKeys(order, groups)

	columns := make([]Column, 0, len(plan.GroupBy)+1)
	for _, name := range plan.GroupBy {
		col, _ := entry.Column(name)
		columns = append(columns, Column{Name: col.Name, Type: col.Type, Unit: col.Unit})
	}
	columns = append(columns, valueColumn)

	truncated := partial
	if len(order) > e.limits.ResultRowBudget {
		order = order[:e.limits.ResultRowBudget]
		truncated = true
	}
	out := make([][]interface{}, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		cells := make([]interface{}, 0, len(plan.GroupBy)+1)
		for _, gv := range acc.groupValues {
			if gv == nil {
				cells = append(cells, NullGroupKey)
			} else {
				cells = append(cells, gv)
			}
		}
		cells = append(cells, acc.value(plan.Agg, countAll))
		out = append(out, cells)
	}
	return &Result{Columns: columns, Rows: out, Truncated: truncated, ScannedRows: scanned}, nil
}

func measureCell(row dataset.Row, measure string, countAll bool) interface{} {
	if countAll {
		// Any non-nil marker works for counting whole rows.
		return int64(1)
	}
	return row[measure]
}

func aggregateColumn(entry *catalog.Entry, op intent.AggOp, measure string) Column {
	if measure == intent.CountAll {
		return Column{Name: "count", Type: catalog.TypeInteger}
	}
	col, _ := entry.Column(measure)
	name := fmt.Sprintf("%s_%s", col.Name, op)
	switch op {
	case intent.OpCount:
		return Column{Name: name, Type: catalog.TypeInteger}
	case intent.OpMean:
		return Column{Name: name, Type: catalog.TypeDecimal, Unit: col.Unit}
	default:
		return Column{Name: name, Type: col.Type, Unit: col.Unit}
	}
}

func groupKey(row dataset.Row, groupBy []string) (string, []interface{}) {
	values := make([]interface{}, len(groupBy))
	key := ""
	for i, name := range groupBy {
		values[i] = row[name]
		if values[i] == nil {
			key += NullGroupKey + "\x00"
		} else {
			key += fmt.Sprintf("%v\x00", values[i])
		}
	}
	return key, values
}

// sortGroupKeys orders groups by their values ascending, nulls last, so
// grouped output is stable across runs.
func sortGroupKeys(order []string, groups map[string]*accumulator) {
	sort.SliceStable(order, func(i, j int) bool {
		a, b := groups[order[i]].groupValues, groups[order[j]].groupValues
		for idx := range a {
			av, bv := a[idx], b[idx]
			if av == nil && bv == nil {
				continue
			}
			if av == nil {
				return false
			}
			if bv == nil {
				return true
			}
			if c, ok := dataset.Compare(av, bv); ok && c != 0 {
				return c < 0
			}
		}
		return order[i] < order[j]
	})
}

func (e *Executor) execRanking(ctx context.Context, entry *catalog.Entry, plan *Plan) (*Result, *ExecError) {
	if len(plan.GroupBy) > 0 {
		return e.execGroupedRanking(ctx, entry, plan)
	}
	rows, scanned, partial, execErr := e.scan(ctx, plan, nil)
	if execErr != nil {
		return nil, execErr
	}
	// Null measures rank last regardless of order.
	desc := plan.Order == intent.OrderDesc
	tieCol := rankingTieColumn(entry)
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][plan.Measure], rows[j][plan.Measure]
		if a == nil && b == nil {
			return tieLess(rows[i], rows[j], tieCol)
		}
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		if c, ok := dataset.Compare(a, b); ok && c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
		return tieLess(rows[i], rows[j], tieCol)
	})
	truncated := partial
	if len(rows) > plan.Limit {
		rows = rows[:plan.Limit]
		truncated = true
	}
	columns := rankingColumns(entry, plan.Measure)
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(columns))
		for j, col := range columns {
			cells[j] = row[col.Name]
		}
		out[i] = cells
	}
	return &Result{Columns: columns, Rows: out, Truncated: truncated, ScannedRows: scanned}, nil
}

func (e *Executor) execGroupedRanking(ctx context.Context, entry *catalog.Entry, plan *Plan) (*Result, *ExecError) {
	aggPlan := *plan
	aggPlan.Kind = intent.KindAggregation
	result, execErr := e.execAggregation(ctx, entry, &aggPlan)
	if execErr != nil {
		return nil, execErr
	}
	valueIdx := len(result.Columns) - 1
	desc := plan.Order == intent.OrderDesc
	sort.SliceStable(result.Rows, func(i, j int) bool {
		a, b := result.Rows[i][valueIdx], result.Rows[j][valueIdx]
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		if c, ok := dataset.Compare(a, b); ok && c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
		// Tie-break ascending on the first group column. Compare raw
		// values so numeric keys order numerically, not lexically.
		ka, kb := result.Rows[i][0], result.Rows[j][0]
		if c, ok := dataset.Compare(ka, kb); ok {
			return c < 0
		}
		if c, ok := dataset.Compare(fmt.Sprint(ka), fmt.Sprint(kb)); ok {
			return c < 0
		}
		return false
	})
	if len(result.Rows) > plan.Limit {
		result.Rows = result.Rows[:plan.Limit]
		result.Truncated = true
	}
	return result, nil
}

// rankingTieColumn picks the deterministic tie-break column: the dataset
// key when it has one, otherwise the first column.
func rankingTieColumn(entry *catalog.Entry) string {
	if key, ok := entry.KeyColumn(); ok {
		return key.Name
	}
	if len(entry.Columns) > 0 {
		return entry.Columns[0].Name
	}
	return ""
}

func tieLess(a, b dataset.Row, tieCol string) bool {
	if tieCol == "" {
		return false
	}
	if c, ok := dataset.Compare(a[tieCol], b[tieCol]); ok {
		return c < 0
	}
	return false
}

// rankingColumns projects the identity of each ranked row next to its
// measure: the key column, the first text column, then the measure.
func rankingColumns(entry *catalog.Entry, measure string) []Column {
	var columns []Column
	seen := make(map[string]struct{})
	push := func(col catalog.Column) {
		if _, ok := seen[col.Name]; ok {
			return
		}
		seen[col.Name] = struct{}{}
		columns = append(columns, Column{Name: col.Name, Type: col.Type, Unit: col.Unit})
	}
	if key, ok := entry.KeyColumn(); ok {
		push(key)
	}
	for _, col := range entry.Columns {
		if col.Type == catalog.TypeText {
			push(col)
			break
		}
	}
	if col, ok := entry.Column(measure); ok {
		push(col)
	}
	return columns
}

const timeBucketColumn = "time_bucket"

func (e *Executor) execTrend(ctx context.Context, entry *catalog.Entry, plan *Plan) (*Result, *ExecError) {
	rows, scanned, partial, execErr := e.scan(ctx, plan, []string{plan.TimeColumn, plan.Measure})
	if execErr != nil {
		return nil, execErr
	}
	buckets := make(map[string]*accumulator)
	for _, row := range rows {
		date, ok := row[plan.TimeColumn].(string)
		if !ok || len(date) < 7 {
			continue
		}
		bucket := date[:7]
		acc, exists := buckets[bucket]
		if !exists {
			acc = &accumulator{}
			buckets[bucket] = acc
		}
		acc.add(row[plan.Measure])
	}
	measureCol, _ := entry.Column(plan.Measure)
	columns := []Column{
		{Name: timeBucketColumn, Type: catalog.TypeText},
		{Name: measureCol.Name, Type: measureCol.Type, Unit: measureCol.Unit},
	}
	first, last := plan.BucketStart, plan.BucketEnd
	if len(buckets) > 0 {
		keys := make([]string, 0, len(buckets))
		for k := range buckets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if first == "" || keys[0] < first {
			first = keys[0]
		}
		if last == "" || keys[len(keys)-1] > last {
			last = keys[len(keys)-1]
		}
	}
	if first == "" || last == "" || first > last {
		return &Result{Columns: columns, Rows: nil, Truncated: partial, ScannedRows: scanned}, nil
	}
	// Fill month gaps with null values so trend lines show where data is
	// missing.
	out := make([][]interface{}, 0, len(buckets))
	for bucket := first; bucket <= last; bucket = nextMonth(bucket) {
		if acc, ok := buckets[bucket]; ok {
			out = append(out, []interface{}{bucket, acc.value(intent.OpSum, false)})
		} else {
			out = append(out, []interface{}{bucket, nil})
		}
	}
	truncated := partial
	if len(out) > e.limits.ResultRowBudget {
		out = out[:e.limits.ResultRowBudget]
		truncated = true
	}
	return &Result{Columns: columns, Rows: out, Truncated: truncated, ScannedRows: scanned}, nil
}

func nextMonth(bucket string) string {
	t, err := time.Parse("2006-01", bucket)
	if err != nil {
		return bucket + "\xff"
	}
	return t.AddDate(0, 1, 0).Format("2006-01")
}
