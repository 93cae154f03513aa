// File path: internal/assembler/assemble_test.go
package assembler

import (
	"testing"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/catalog"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/intent"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/planner"
)

func testRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	reg, err := catalog.Load([]catalog.Entry{{
		DatasetName: "products",
		Description: "catálogo de produtos",
		Columns: []catalog.Column{
			{Name: "code", Type: catalog.TypeInteger, Description: "código do produto"},
			{Name: "name", Type: catalog.TypeText, Description: "nome do produto"},
			{Name: "price", Type: catalog.TypeDecimal, Description: "preço unitário"},
			{Name: "stock", Type: catalog.TypeInteger, Description: "estoque"},
		},
	}})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return reg
}

func TestFormatValueCurrency(t *testing.T) {
	col := planner.Column{Name: "price", Type: catalog.TypeDecimal}
	if got := FormatValue(12.5, col); got != "R$ 12,50" {
		t.Fatalf("FormatValue = %q, want R$ 12,50", got)
	}
	if got := FormatValue(12.5, planner.Column{Name: "weight", Type: catalog.TypeDecimal}); got != "12,50" {
		t.Fatalf("FormatValue = %q, want 12,50", got)
	}
}

func TestLookupSingleRowWithAttributeIsText(t *testing.T) {
	asm := New(testRegistry(t))
	in := intent.Intent{Kind: intent.KindLookupByKey, Lookup: &intent.LookupParams{
		Dataset: "products", KeyColumn: "code", KeyValue: int64(369947),
		Attribute: "price", AttributeLabel: "preço",
	}}
	plan := &planner.Plan{Kind: intent.KindLookupByKey, Dataset: "products", KeyColumn: "code", Attribute: "price"}
	result := &planner.Result{
		Columns: []planner.Column{
			{Name: "code", Type: catalog.TypeInteger},
			{Name: "name", Type: catalog.TypeText},
			{Name: "price", Type: catalog.TypeDecimal},
		},
		Rows: [][]interface{}{{int64(369947), "X", 12.5}},
	}
	env := asm.Result(in, plan, result)
	if env.Type != TypeText {
		t.Fatalf("type = %s, want text", env.Type)
	}
	want := "O preço do produto 369947 é R$ 12,50."
	if env.Text != want {
		t.Fatalf("text = %q, want %q", env.Text, want)
	}
}

func TestLookupZeroRowsIsNotFoundText(t *testing.T) {
	asm := New(testRegistry(t))
	in := intent.Intent{Kind: intent.KindLookupByKey, Lookup: &intent.LookupParams{
		Dataset: "products", KeyColumn: "code", KeyValue: int64(1),
	}}
	plan := &planner.Plan{Kind: intent.KindLookupByKey, Dataset: "products", KeyColumn: "code"}
	env := asm.Result(in, plan, &planner.Result{})
	if env.Type != TypeText || env.Text != "Produto 1 não encontrado." {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestLookupMultipleRowsIsData(t *testing.T) {
	asm := New(testRegistry(t))
	in := intent.Intent{Kind: intent.KindLookupByKey, Lookup: &intent.LookupParams{
		Dataset: "products", KeyColumn: "code", KeyValue: int64(7),
	}}
	plan := &planner.Plan{Kind: intent.KindLookupByKey, Dataset: "products", KeyColumn: "code"}
	result := &planner.Result{
		Columns: []planner.Column{{Name: "code", Type: catalog.TypeInteger}},
		Rows:    [][]interface{}{{int64(7)}, {int64(7)}},
	}
	env := asm.Result(in, plan, result)
	if env.Type != TypeData || len(env.Data.Rows) != 2 {
		t.Fatalf("envelope = %+v", env)
	}
	if env.Data.Rows[0]["code"] != int64(7) {
		t.Fatalf("row object = %v", env.Data.Rows[0])
	}
}

func TestScalarAggregationIsText(t *testing.T) {
	asm := New(testRegistry(t))
	in := intent.Intent{Kind: intent.KindAggregation, Aggregation: &intent.AggregationParams{
		Dataset: "products", Measure: "stock", Op: intent.OpSum,
	}}
	plan := &planner.Plan{Kind: intent.KindAggregation, Dataset: "products", Measure: "stock", Agg: intent.OpSum}
	result := &planner.Result{
		Columns: []planner.Column{{Name: "stock_sum", Type: catalog.TypeInteger}},
		Rows:    [][]interface{}{{int64(42)}},
	}
	env := asm.Result(in, plan, result)
	if env.Type != TypeText {
		t.Fatalf("type = %s, want text", env.Type)
	}
	if env.Text != "Soma de stock: 42." {
		t.Fatalf("text = %q", env.Text)
	}
}

func TestGroupedAggregationIsData(t *testing.T) {
	asm := New(testRegistry(t))
	in := intent.Intent{Kind: intent.KindAggregation, Aggregation: &intent.AggregationParams{
		Dataset: "products", Measure: "stock", Op: intent.OpSum, GroupBy: []string{"name"},
	}}
	plan := &planner.Plan{Kind: intent.KindAggregation, Dataset: "products", Measure: "stock", Agg: intent.OpSum, GroupBy: []string{"name"}}
	result := &planner.Result{
		Columns: []planner.Column{{Name: "name", Type: catalog.TypeText}, {Name: "stock_sum", Type: catalog.TypeInteger}},
		Rows:    [][]interface{}{{"a", int64(1)}},
	}
	if env := asm.Result(in, plan, result); env.Type != TypeData {
		t.Fatalf("type = %s, want data", env.Type)
	}
}

func TestTrendIsLineChart(t *testing.T) {
	asm := New(testRegistry(t))
	in := intent.Intent{Kind: intent.KindTrend, Trend: &intent.TrendParams{
		Dataset: "products", Measure: "price", TimeColumn: "sale_date",
	}}
	plan := &planner.Plan{Kind: intent.KindTrend, Dataset: "products", Measure: "price"}
	result := &planner.Result{
		Columns: []planner.Column{{Name: "time_bucket", Type: catalog.TypeText}, {Name: "price", Type: catalog.TypeDecimal}},
		Rows:    [][]interface{}{{"2024-01", 30.0}, {"2024-02", nil}},
	}
	env := asm.Result(in, plan, result)
	if env.Type != TypeChart {
		t.Fatalf("type = %s, want chart", env.Type)
	}
	if env.Chart.Kind != "line" || env.Chart.X != "time_bucket" || env.Chart.Y != "price" {
		t.Fatalf("chart = %+v", env.Chart)
	}
	if len(env.Chart.Data.Rows) != 2 {
		t.Fatalf("chart data rows = %d", len(env.Chart.Data.Rows))
	}
}

func TestRefusalIsErrorEnvelope(t *testing.T) {
	asm := New(testRegistry(t))
	env := asm.Refusal(&intent.RefusalParams{ReasonCode: intent.ReasonWriteDenied, UserMessage: "não"})
	if env.Type != TypeError || env.Err.Code != intent.ReasonWriteDenied {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestPlanErrorCarriesStableCode(t *testing.T) {
	asm := New(testRegistry(t))
	env := asm.PlanError(&planner.PlanError{Code: planner.PlanUnknownColumn, Column: "ghost"})
	if env.Type != TypeError || env.Err.Code != planner.PlanUnknownColumn {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestSchemaAnswersFromCatalogOnly(t *testing.T) {
	asm := New(testRegistry(t))
	env := asm.Schema(&intent.SchemaParams{Subject: intent.SubjectDataset, Dataset: "products", Name: "products"})
	if env.Type != TypeText {
		t.Fatalf("type = %s", env.Type)
	}
	want := "products tem as colunas: code, name, price, stock."
	if env.Text != want {
		t.Fatalf("text = %q, want %q", env.Text, want)
	}
}
