// File path: internal/catalog/registry_test.go
package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func testEntries() []Entry {
	return []Entry{
		{
			DatasetName: "Products",
			Description: "catálogo de produtos",
			RowCount:    5,
			Columns: []Column{
				{Name: "Código", Type: TypeInteger, Description: "código do produto"},
				{Name: "name", Type: TypeText, Description: "nome do produto"},
				{Name: "Categoria Principal", Type: TypeCategory, Description: "categoria do produto", Categories: []string{"tecido", "papelaria"}},
				{Name: "price", Type: TypeDecimal, Description: "preço unitário em reais", Nullable: true},
				{Name: "last_sale_date", Type: TypeDate, Description: "data da última venda"},
			},
		},
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Código Produto", "PREÇO", "last_sale_date", "Categoria  Principal",
		"açaí", "  spaced out  ", "já_normalizado", "MiXeD-Case.Name", "",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeFoldsAccentsAndCase(t *testing.T) {
	cases := map[string]string{
		"Código Produto":      "codigo_produto",
		"PREÇO":               "preco",
		"Categoria Principal": "categoria_principal",
		"última--venda":       "ultima_venda",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadNormalizesColumns(t *testing.T) {
	reg, err := Load(testEntries())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entry, ok := reg.Entry("products")
	if !ok {
		t.Fatalf("dataset products not found")
	}
	col, ok := entry.Column("codigo")
	if !ok {
		t.Fatalf("column codigo not found after normalization")
	}
	if col.RawName != "Código" {
		t.Fatalf("RawName = %q, want Código", col.RawName)
	}
}

func TestLoadRejectsDuplicateNormalizedColumns(t *testing.T) {
	entries := []Entry{{
		DatasetName: "p",
		Columns: []Column{
			{Name: "Preço", Type: TypeDecimal},
			{Name: "preco", Type: TypeDecimal},
		},
	}}
	if _, err := Load(entries); err == nil {
		t.Fatalf("expected duplicate column error")
	}
}

func TestLoadRejectsUnknownType(t *testing.T) {
	entries := []Entry{{
		DatasetName: "p",
		Columns:     []Column{{Name: "x", Type: "varchar"}},
	}}
	if _, err := Load(entries); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	payload := `[{"dataset_name":"products","description":"d",
		"columns":[{"name":"code","type":"integer","description":"id"}],
		"row_count":1,"extra_key":"ignored"}]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	reg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(reg.Entries()) != 1 {
		t.Fatalf("entries = %d, want 1", len(reg.Entries()))
	}
}

func TestKeyColumnPrefersCodeLikeNames(t *testing.T) {
	reg, err := Load(testEntries())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entry, _ := reg.Entry("products")
	key, ok := entry.KeyColumn()
	if !ok || key.Name != "codigo" {
		t.Fatalf("KeyColumn = %q, want codigo", key.Name)
	}
}

func TestValidatePredicateCoercesValues(t *testing.T) {
	reg, err := Load(testEntries())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, perr := reg.ValidatePredicate("products", Predicate{Column: "Código", Op: OpEq, Value: "369947"})
	if perr != nil {
		t.Fatalf("ValidatePredicate: %v", perr)
	}
	if got, ok := p.Value.(int64); !ok || got != 369947 {
		t.Fatalf("coerced value = %#v, want int64 369947", p.Value)
	}
}

func TestValidatePredicateRejectsUnknownColumn(t *testing.T) {
	reg, _ := Load(testEntries())
	_, perr := reg.ValidatePredicate("products", Predicate{Column: "ghost", Op: OpEq, Value: 1})
	if perr == nil || perr.Code != PredicateUnknownColumn {
		t.Fatalf("perr = %v, want %s", perr, PredicateUnknownColumn)
	}
}

func TestValidatePredicateRejectsOrderedOpOnText(t *testing.T) {
	reg, _ := Load(testEntries())
	_, perr := reg.ValidatePredicate("products", Predicate{Column: "name", Op: OpLt, Value: "abc"})
	if perr == nil {
		t.Fatalf("expected incompatible operator error")
	}
}

func TestValidatePredicateUnknownCategory(t *testing.T) {
	reg, _ := Load(testEntries())
	_, perr := reg.ValidatePredicate("products", Predicate{Column: "categoria_principal", Op: OpEq, Value: "vidro"})
	if perr == nil || perr.Code != PredicateUnknownCategory {
		t.Fatalf("perr = %v, want %s", perr, PredicateUnknownCategory)
	}
}

func TestValidatePredicateCategoryReturnsDeclaredSpelling(t *testing.T) {
	reg, _ := Load(testEntries())
	p, perr := reg.ValidatePredicate("products", Predicate{Column: "categoria_principal", Op: OpEq, Value: "Tecido"})
	if perr != nil {
		t.Fatalf("ValidatePredicate: %v", perr)
	}
	if p.Value != "tecido" {
		t.Fatalf("category value = %#v, want declared spelling tecido", p.Value)
	}
}

func TestCoerceValueRejectsFractionalInteger(t *testing.T) {
	col := Column{Name: "code", Type: TypeInteger}
	if _, perr := CoerceValue(col, 12.5); perr == nil {
		t.Fatalf("expected fractional rejection")
	}
}

func TestCoerceValueDate(t *testing.T) {
	col := Column{Name: "d", Type: TypeDate}
	if _, perr := CoerceValue(col, "2024-02-30"); perr == nil {
		t.Fatalf("expected invalid date rejection")
	}
	if v, perr := CoerceValue(col, "2024-03-01"); perr != nil || v != "2024-03-01" {
		t.Fatalf("CoerceValue date = %v, %v", v, perr)
	}
}

func TestDescribeDataset(t *testing.T) {
	reg, err := Load([]Entry{{
		DatasetName: "products",
		Description: "catálogo de produtos",
		Columns: []Column{
			{Name: "code", Type: TypeInteger},
			{Name: "name", Type: TypeText},
			{Name: "category", Type: TypeCategory},
			{Name: "price", Type: TypeDecimal},
			{Name: "stock", Type: TypeInteger},
			{Name: "last_sale_date", Type: TypeDate},
		},
	}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, ok := reg.DescribeDataset("products")
	if !ok {
		t.Fatalf("DescribeDataset: dataset missing")
	}
	want := "products tem as colunas: code, name, category, price, stock, last_sale_date."
	if got != want {
		t.Fatalf("DescribeDataset = %q, want %q", got, want)
	}
}

func TestFindColumnExactBeforeSubstring(t *testing.T) {
	reg, _ := Load(testEntries())
	refs := reg.FindColumn("price")
	if len(refs) == 0 || refs[0].Column != "price" {
		t.Fatalf("FindColumn(price) = %v", refs)
	}
}
