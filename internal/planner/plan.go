// File path: internal/planner/plan.go
package planner

import (
	"fmt"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/catalog"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/intent"
)

// Plan error codes. They surface unchanged in error envelopes.
const (
	PlanUnknownColumn     = "unknown_column"
	PlanIncompatibleType  = "incompatible_type"
	PlanUnknownCategory   = "unknown_category"
	PlanAmbiguousColumn   = "ambiguous_column"
	PlanEmptyScope        = "empty_scope"
	PlanBudgetExceeded    = "budget_exceeded_pre_filter"
	PlanUnsupportedIntent = "unsupported_intent"
)

// PlanError reports why an intent could not be turned into a plan.
type PlanError struct {
	Code    string `json:"code"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("plan %s: %s", e.Code, e.Message)
}

// Plan is a validated, fully-bound query over a single dataset. Every
// column name in it is normalized and known to the catalog, and every
// filter value is coerced to its column type.
type Plan struct {
	Kind    intent.Kind
	Dataset string
	Filters []catalog.Predicate

	// Lookup fields.
	KeyColumn string
	Attribute string

	// Aggregation, ranking and trend fields.
	Measure    string
	Agg        intent.AggOp
	GroupBy    []string
	Order      intent.SortOrder
	Limit      int
	TimeColumn string

	// BucketStart and BucketEnd widen the emitted trend range to the
	// filtered period, as YYYY-MM, so charts show every month the user
	// asked about even when no data landed in it.
	BucketStart string
	BucketEnd   string
}

// Limits caps how much work a single turn may do.
type Limits struct {
	ResultRowBudget int
	ScanRowBudget   int
	DefaultTopK     int
}

func (l *Limits) applyDefaults() {
	if l.ResultRowBudget <= 0 {
		l.ResultRowBudget = 10000
	}
	if l.ScanRowBudget <= 0 {
		l.ScanRowBudget = 1000000
	}
	if l.DefaultTopK <= 0 {
		l.DefaultTopK = 10
	}
}

// Planner binds classified intents to the catalog.
type Planner struct {
	reg    *catalog.Registry
	limits Limits
}

func New(reg *catalog.Registry, limits Limits) *Planner {
	limits.applyDefaults()
	return &Planner{reg: reg, limits: limits}
}

func (p *Planner) Limits() Limits { return p.limits }

// Build turns a data-bearing intent into an executable plan. Schema
// questions, clarifications and refusals never reach the planner.
func (p *Planner) Build(in intent.Intent) (*Plan, *PlanError) {
	switch in.Kind {
	case intent.KindLookupByKey:
		return p.buildLookup(in.Lookup)
	case intent.KindAggregation:
		return p.buildAggregation(in.Aggregation)
	case intent.KindRanking:
		return p.buildRanking(in.Ranking)
	case intent.KindTrend:
		return p.buildTrend(in.Trend)
	default:
		return nil, &PlanError{Code: PlanUnsupportedIntent, Message: fmt.Sprintf("intent %q does not plan", in.Kind)}
	}
}

func (p *Planner) entry(dataset string) (*catalog.Entry, *PlanError) {
	entry, ok := p.reg.Entry(dataset)
	if !ok {
		return nil, &PlanError{Code: PlanEmptyScope, Message: fmt.Sprintf("dataset %q not in catalog", dataset)}
	}
	return entry, nil
}

func (p *Planner) buildLookup(params *intent.LookupParams) (*Plan, *PlanError) {
	entry, perr := p.entry(params.Dataset)
	if perr != nil {
		return nil, perr
	}
	keyCol, ok := entry.Column(catalog.Normalize(params.KeyColumn))
	if !ok {
		return nil, unknownColumn(entry, params.KeyColumn)
	}
	keyFilter, verr := p.reg.ValidatePredicate(entry.DatasetName, catalog.Predicate{
		Column: keyCol.Name,
		Op:     catalog.OpEq,
		Value:  params.KeyValue,
	})
	if verr != nil {
		return nil, fromPredicateError(verr)
	}
	attribute := ""
	if params.Attribute != "" {
		col, ok := entry.Column(catalog.Normalize(params.Attribute))
		if !ok {
			return nil, unknownColumn(entry, params.Attribute)
		}
		attribute = col.Name
	}
	return &Plan{
		Kind:      intent.KindLookupByKey,
		Dataset:   entry.DatasetName,
		Filters:   []catalog.Predicate{keyFilter},
		KeyColumn: keyCol.Name,
		Attribute: attribute,
		Limit:     p.limits.ResultRowBudget,
	}, nil
}

func (p *Planner) buildAggregation(params *intent.AggregationParams) (*Plan, *PlanError) {
	entry, perr := p.entry(params.Dataset)
	if perr != nil {
		return nil, perr
	}
	measure, perr := p.resolveMeasure(entry, params.Measure, params.Op)
	if perr != nil {
		return nil, perr
	}
	groupBy, perr := p.resolveGroupBy(entry, params.GroupBy, measure)
	if perr != nil {
		return nil, perr
	}
	filters, perr := p.validateFilters(entry, params.Filters)
	if perr != nil {
		return nil, perr
	}
	if perr := p.checkScanBudget(entry, filters); perr != nil {
		return nil, perr
	}
	return &Plan{
		Kind:    intent.KindAggregation,
		Dataset: entry.DatasetName,
		Filters: filters,
		Measure: measure,
		Agg:     params.Op,
		GroupBy: groupBy,
	}, nil
}

func (p *Planner) buildRanking(params *intent.RankingParams) (*Plan, *PlanError) {
	entry, perr := p.entry(params.Dataset)
	if perr != nil {
		return nil, perr
	}
	measure, perr := p.resolveMeasure(entry, params.Measure, intent.OpSum)
	if perr != nil {
		return nil, perr
	}
	groupBy, perr := p.resolveGroupBy(entry, params.GroupBy, measure)
	if perr != nil {
		return nil, perr
	}
	filters, perr := p.validateFilters(entry, params.Filters)
	if perr != nil {
		return nil, perr
	}
	if perr := p.checkScanBudget(entry, filters); perr != nil {
		return nil, perr
	}
	order := params.Order
	if order == "" {
		order = intent.OrderDesc
	}
	k := params.K
	if k <= 0 {
		k = p.limits.DefaultTopK
	}
	if k > 1000 {
		k = 1000
	}
	return &Plan{
		Kind:    intent.KindRanking,
		Dataset: entry.DatasetName,
		Filters: filters,
		Measure: measure,
		Agg:     intent.OpSum,
		GroupBy: groupBy,
		Order:   order,
		Limit:   k,
	}, nil
}

func (p *Planner) buildTrend(params *intent.TrendParams) (*Plan, *PlanError) {
	entry, perr := p.entry(params.Dataset)
	if perr != nil {
		return nil, perr
	}
	measure, perr := p.resolveMeasure(entry, params.Measure, intent.OpSum)
	if perr != nil {
		return nil, perr
	}
	timeCol, ok := entry.Column(catalog.Normalize(params.TimeColumn))
	if !ok {
		return nil, unknownColumn(entry, params.TimeColumn)
	}
	if timeCol.Type != catalog.TypeDate {
		return nil, &PlanError{
			Code:    PlanIncompatibleType,
			Column:  timeCol.Name,
			Message: fmt.Sprintf("time column %s has type %s, want date", timeCol.Name, timeCol.Type),
		}
	}
	filters, perr := p.validateFilters(entry, params.Filters)
	if perr != nil {
		return nil, perr
	}
	if perr := p.checkScanBudget(entry, filters); perr != nil {
		return nil, perr
	}
	start, end := bucketBounds(filters, timeCol.Name)
	return &Plan{
		Kind:        intent.KindTrend,
		Dataset:     entry.DatasetName,
		Filters:     filters,
		Measure:     measure,
		Agg:         intent.OpSum,
		TimeColumn:  timeCol.Name,
		BucketStart: start,
		BucketEnd:   end,
	}, nil
}

// bucketBounds derives the month range the user filtered on from ge/le
// predicates over the time column.
func bucketBounds(filters []catalog.Predicate, timeColumn string) (string, string) {
	start, end := "", ""
	for _, f := range filters {
		if f.Column != timeColumn {
			continue
		}
		date, ok := f.Value.(string)
		if !ok || len(date) < 7 {
			continue
		}
		switch f.Op {
		case catalog.OpGe, catalog.OpGt:
			start = date[:7]
		case catalog.OpLe, catalog.OpLt:
			end = date[:7]
		}
	}
	return start, end
}

// resolveMeasure validates the measure column. A count over "*" needs no
// column at all.
func (p *Planner) resolveMeasure(entry *catalog.Entry, measure string, op intent.AggOp) (string, *PlanError) {
	if measure == intent.CountAll {
		if op != intent.OpCount {
			return "", &PlanError{Code: PlanIncompatibleType, Message: fmt.Sprintf("operator %s requires a measure column", op)}
		}
		return intent.CountAll, nil
	}
	col, ok := entry.Column(catalog.Normalize(measure))
	if !ok {
		return "", unknownColumn(entry, measure)
	}
	if op != intent.OpCount && !col.Type.Numeric() {
		return "", &PlanError{
			Code:    PlanIncompatibleType,
			Column:  col.Name,
			Message: fmt.Sprintf("measure %s has type %s, want a numeric type", col.Name, col.Type),
		}
	}
	return col.Name, nil
}

func (p *Planner) resolveGroupBy(entry *catalog.Entry, groupBy []string, measure string) ([]string, *PlanError) {
	out := make([]string, 0, len(groupBy))
	for _, name := range groupBy {
		col, ok := entry.Column(catalog.Normalize(name))
		if !ok {
			return nil, unknownColumn(entry, name)
		}
		if col.Name == measure {
			return nil, &PlanError{
				Code:    PlanAmbiguousColumn,
				Column:  col.Name,
				Message: fmt.Sprintf("column %s cannot be both measure and group key", col.Name),
			}
		}
		out = append(out, col.Name)
	}
	return out, nil
}

func (p *Planner) validateFilters(entry *catalog.Entry, filters []catalog.Predicate) ([]catalog.Predicate, *PlanError) {
	out := make([]catalog.Predicate, 0, len(filters))
	for _, f := range filters {
		validated, verr := p.reg.ValidatePredicate(entry.DatasetName, f)
		if verr != nil {
			return nil, fromPredicateError(verr)
		}
		out = append(out, validated)
	}
	return out, nil
}

// checkScanBudget rejects full scans over datasets the row budget cannot
// cover, unless an equality filter narrows the scope.
func (p *Planner) checkScanBudget(entry *catalog.Entry, filters []catalog.Predicate) *PlanError {
	if entry.RowCount <= p.limits.ScanRowBudget {
		return nil
	}
	for _, f := range filters {
		if f.Op == catalog.OpEq || f.Op == catalog.OpIn {
			return nil
		}
	}
	return &PlanError{
		Code: PlanBudgetExceeded,
		Message: fmt.Sprintf("dataset %s has %d rows, above the %d row scan budget; add a filter",
			entry.DatasetName, entry.RowCount, p.limits.ScanRowBudget),
	}
}

func unknownColumn(entry *catalog.Entry, name string) *PlanError {
	return &PlanError{
		Code:    PlanUnknownColumn,
		Column:  name,
		Message: fmt.Sprintf("dataset %s has no column %q", entry.DatasetName, name),
	}
}

func fromPredicateError(e *catalog.PredicateError) *PlanError {
	code := PlanIncompatibleType
	switch e.Code {
	case catalog.PredicateUnknownColumn:
		code = PlanUnknownColumn
	case catalog.PredicateUnknownCategory:
		code = PlanUnknownCategory
	}
	return &PlanError{Code: code, Column: e.Column, Message: e.Message}
}
