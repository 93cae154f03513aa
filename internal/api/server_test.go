// File path: internal/api/server_test.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/catalog"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/core"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/dataset"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/intent"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/semantic"
)

type emptySource struct{}

func (emptySource) Name() string { return "empty" }

func (emptySource) Scan(ctx context.Context, req dataset.ScanRequest) (dataset.Iterator, error) {
	return emptyIterator{}, nil
}

type emptyIterator struct{}

func (emptyIterator) Next(ctx context.Context) bool { return false }
func (emptyIterator) Row() dataset.Row              { return nil }
func (emptyIterator) Err() error                    { return nil }
func (emptyIterator) Close() error                  { return nil }

func testServer(t *testing.T) *Server {
	t.Helper()
	reg, err := catalog.Load([]catalog.Entry{{
		DatasetName: "products",
		Description: "catálogo de produtos",
		Columns: []catalog.Column{
			{Name: "code", Type: catalog.TypeInteger, Description: "código do produto"},
			{Name: "name", Type: catalog.TypeText, Description: "nome do produto"},
		},
	}})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	index, err := semantic.Build(context.Background(), reg, semantic.NewHashEmbedder(0), 0.2)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	classifier := intent.NewRuleClassifier(reg, index, 3)
	orch := core.New(core.Config{}, reg, classifier, emptySource{})
	return NewServer(orch)
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestQueryReturnsWireEnvelope(t *testing.T) {
	srv := testServer(t)
	body := strings.NewReader(`{"utterance": "quais são as colunas da tabela products?"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/query", body)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Type    string      `json:"type"`
		Content interface{} `json:"content"`
		Source  string      `json:"source"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Type != "text" {
		t.Fatalf("type = %s: %s", envelope.Type, rec.Body.String())
	}
	text, ok := envelope.Content.(string)
	if !ok || text != "products tem as colunas: code, name." {
		t.Fatalf("content = %#v", envelope.Content)
	}
	if envelope.Source == "" {
		t.Fatalf("source tag missing")
	}
}

func TestQueryRejectsEmptyUtterance(t *testing.T) {
	srv := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCatalogEndpoint(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/catalog", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var entries []catalog.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].DatasetName != "products" {
		t.Fatalf("entries = %v", entries)
	}
}
