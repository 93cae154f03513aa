// File path: internal/planner/plan_test.go
package planner

import (
	"testing"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/catalog"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/intent"
)

func testRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	reg, err := catalog.Load([]catalog.Entry{{
		DatasetName: "products",
		Description: "catálogo de produtos",
		RowCount:    100,
		Columns: []catalog.Column{
			{Name: "code", Type: catalog.TypeInteger, Description: "código do produto"},
			{Name: "name", Type: catalog.TypeText, Description: "nome do produto"},
			{Name: "category", Type: catalog.TypeCategory, Description: "categoria", Categories: []string{"tecido", "papelaria"}},
			{Name: "price", Type: catalog.TypeDecimal, Description: "preço", Nullable: true},
			{Name: "stock", Type: catalog.TypeInteger, Description: "estoque", Nullable: true},
			{Name: "sale_date", Type: catalog.TypeDate, Description: "data da venda"},
		},
	}})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return reg
}

func TestBuildLookupCoercesKey(t *testing.T) {
	p := New(testRegistry(t), Limits{})
	plan, perr := p.Build(intent.Intent{Kind: intent.KindLookupByKey, Lookup: &intent.LookupParams{
		Dataset: "products", KeyColumn: "code", KeyValue: "369947",
	}})
	if perr != nil {
		t.Fatalf("Build: %v", perr)
	}
	if got, ok := plan.Filters[0].Value.(int64); !ok || got != 369947 {
		t.Fatalf("key filter value = %#v, want int64", plan.Filters[0].Value)
	}
}

func TestBuildRejectsUnknownColumn(t *testing.T) {
	p := New(testRegistry(t), Limits{})
	_, perr := p.Build(intent.Intent{Kind: intent.KindAggregation, Aggregation: &intent.AggregationParams{
		Dataset: "products", Measure: "ghost", Op: intent.OpSum,
	}})
	if perr == nil || perr.Code != PlanUnknownColumn {
		t.Fatalf("perr = %v, want %s", perr, PlanUnknownColumn)
	}
}

func TestBuildRejectsNonNumericMeasure(t *testing.T) {
	p := New(testRegistry(t), Limits{})
	_, perr := p.Build(intent.Intent{Kind: intent.KindAggregation, Aggregation: &intent.AggregationParams{
		Dataset: "products", Measure: "name", Op: intent.OpSum,
	}})
	if perr == nil || perr.Code != PlanIncompatibleType {
		t.Fatalf("perr = %v, want %s", perr, PlanIncompatibleType)
	}
}

func TestBuildAllowsCountOverText(t *testing.T) {
	p := New(testRegistry(t), Limits{})
	plan, perr := p.Build(intent.Intent{Kind: intent.KindAggregation, Aggregation: &intent.AggregationParams{
		Dataset: "products", Measure: "name", Op: intent.OpCount,
	}})
	if perr != nil {
		t.Fatalf("Build: %v", perr)
	}
	if plan.Measure != "name" {
		t.Fatalf("measure = %q", plan.Measure)
	}
}

func TestBuildRejectsMeasureAsGroupKey(t *testing.T) {
	p := New(testRegistry(t), Limits{})
	_, perr := p.Build(intent.Intent{Kind: intent.KindAggregation, Aggregation: &intent.AggregationParams{
		Dataset: "products", Measure: "stock", Op: intent.OpSum, GroupBy: []string{"stock"},
	}})
	if perr == nil || perr.Code != PlanAmbiguousColumn {
		t.Fatalf("perr = %v, want %s", perr, PlanAmbiguousColumn)
	}
}

func TestBuildEnforcesScanBudgetPreFilter(t *testing.T) {
	p := New(testRegistry(t), Limits{ScanRowBudget: 10})
	_, perr := p.Build(intent.Intent{Kind: intent.KindAggregation, Aggregation: &intent.AggregationParams{
		Dataset: "products", Measure: "stock", Op: intent.OpSum,
	}})
	if perr == nil || perr.Code != PlanBudgetExceeded {
		t.Fatalf("perr = %v, want %s", perr, PlanBudgetExceeded)
	}
}

func TestBuildScanBudgetAllowsKeyedScope(t *testing.T) {
	p := New(testRegistry(t), Limits{ScanRowBudget: 10})
	_, perr := p.Build(intent.Intent{Kind: intent.KindAggregation, Aggregation: &intent.AggregationParams{
		Dataset: "products", Measure: "stock", Op: intent.OpSum,
		Filters: []catalog.Predicate{{Column: "code", Op: catalog.OpEq, Value: 1}},
	}})
	if perr != nil {
		t.Fatalf("Build: %v", perr)
	}
}

func TestBuildClampsRankingK(t *testing.T) {
	p := New(testRegistry(t), Limits{DefaultTopK: 7})
	plan, perr := p.Build(intent.Intent{Kind: intent.KindRanking, Ranking: &intent.RankingParams{
		Dataset: "products", Measure: "stock", K: 5000,
	}})
	if perr != nil {
		t.Fatalf("Build: %v", perr)
	}
	if plan.Limit != 1000 {
		t.Fatalf("k = %d, want clamp to 1000", plan.Limit)
	}
	plan, _ = p.Build(intent.Intent{Kind: intent.KindRanking, Ranking: &intent.RankingParams{
		Dataset: "products", Measure: "stock",
	}})
	if plan.Limit != 7 {
		t.Fatalf("k = %d, want default 7", plan.Limit)
	}
}

func TestBuildTrendRequiresDateColumn(t *testing.T) {
	p := New(testRegistry(t), Limits{})
	_, perr := p.Build(intent.Intent{Kind: intent.KindTrend, Trend: &intent.TrendParams{
		Dataset: "products", Measure: "stock", TimeColumn: "name",
	}})
	if perr == nil || perr.Code != PlanIncompatibleType {
		t.Fatalf("perr = %v, want %s", perr, PlanIncompatibleType)
	}
}

func TestBuildTrendDerivesBucketBounds(t *testing.T) {
	p := New(testRegistry(t), Limits{})
	plan, perr := p.Build(intent.Intent{Kind: intent.KindTrend, Trend: &intent.TrendParams{
		Dataset: "products", Measure: "stock", TimeColumn: "sale_date",
		Filters: []catalog.Predicate{
			{Column: "sale_date", Op: catalog.OpGe, Value: "2024-01-01"},
			{Column: "sale_date", Op: catalog.OpLe, Value: "2024-12-31"},
		},
	}})
	if perr != nil {
		t.Fatalf("Build: %v", perr)
	}
	if plan.BucketStart != "2024-01" || plan.BucketEnd != "2024-12" {
		t.Fatalf("bounds = %q..%q", plan.BucketStart, plan.BucketEnd)
	}
}

func TestBuildRejectsUnknownCategoryValue(t *testing.T) {
	p := New(testRegistry(t), Limits{})
	_, perr := p.Build(intent.Intent{Kind: intent.KindAggregation, Aggregation: &intent.AggregationParams{
		Dataset: "products", Measure: "stock", Op: intent.OpSum,
		Filters: []catalog.Predicate{{Column: "category", Op: catalog.OpEq, Value: "vidro"}},
	}})
	if perr == nil || perr.Code != PlanUnknownCategory {
		t.Fatalf("perr = %v, want %s", perr, PlanUnknownCategory)
	}
}
