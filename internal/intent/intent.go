// File path: internal/intent/intent.go
package intent

import (
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/catalog"
)

// Kind tags the closed set of intent variants.
type Kind string

const (
	KindSchemaQuestion Kind = "schema_question"
	KindLookupByKey    Kind = "lookup_by_key"
	KindAggregation    Kind = "aggregation"
	KindRanking        Kind = "ranking"
	KindTrend          Kind = "trend"
	KindClarification  Kind = "clarification_needed"
	KindRefusal        Kind = "refusal"
)

// AggOp is the closed set of aggregation operators.
type AggOp string

const (
	OpSum   AggOp = "sum"
	OpMean  AggOp = "mean"
	OpMin   AggOp = "min"
	OpMax   AggOp = "max"
	OpCount AggOp = "count"
)

// SortOrder for ranking intents.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// CountAll is the measure token meaning "count rows" rather than counting
// non-null cells of a column.
const CountAll = "*"

// Intent is a tagged variant: exactly the field matching Kind is non-nil.
type Intent struct {
	Kind Kind `json:"kind"`

	Schema        *SchemaParams        `json:"schema,omitempty"`
	Lookup        *LookupParams        `json:"lookup,omitempty"`
	Aggregation   *AggregationParams   `json:"aggregation,omitempty"`
	Ranking       *RankingParams       `json:"ranking,omitempty"`
	Trend         *TrendParams         `json:"trend,omitempty"`
	Clarification *ClarificationParams `json:"clarification,omitempty"`
	Refusal       *RefusalParams       `json:"refusal,omitempty"`
}

// SchemaSubject discriminates what a schema question is about.
type SchemaSubject string

const (
	SubjectDatasets SchemaSubject = "datasets"
	SubjectDataset  SchemaSubject = "dataset"
	SubjectColumn   SchemaSubject = "column"
)

type SchemaParams struct {
	Subject SchemaSubject `json:"subject"`
	Dataset string        `json:"dataset,omitempty"`
	Name    string        `json:"name,omitempty"`
}

type LookupParams struct {
	Dataset   string      `json:"dataset"`
	KeyColumn string      `json:"key_column"`
	KeyValue  interface{} `json:"key_value"`
	// Attribute names the single column the user asked about, when one was
	// mentioned; empty means the whole row. AttributeLabel keeps the word
	// the user actually used for it, for phrasing the answer.
	Attribute      string `json:"attribute,omitempty"`
	AttributeLabel string `json:"attribute_label,omitempty"`
}

type AggregationParams struct {
	Dataset string              `json:"dataset"`
	Measure string              `json:"measure_column"`
	Op      AggOp               `json:"op"`
	GroupBy []string            `json:"group_by,omitempty"`
	Filters []catalog.Predicate `json:"filters,omitempty"`
}

type RankingParams struct {
	Dataset string              `json:"dataset"`
	Measure string              `json:"measure_column"`
	Order   SortOrder           `json:"order"`
	K       int                 `json:"k"`
	GroupBy []string            `json:"group_by,omitempty"`
	Filters []catalog.Predicate `json:"filters,omitempty"`
}

type TrendParams struct {
	Dataset    string              `json:"dataset"`
	Measure    string              `json:"measure_column"`
	TimeColumn string              `json:"time_column"`
	Filters    []catalog.Predicate `json:"filters,omitempty"`
}

type ClarificationParams struct {
	Prompt  string              `json:"prompt"`
	Choices map[string][]string `json:"choices,omitempty"`
}

const (
	ReasonWriteDenied = "write_operation_denied"
	ReasonOutOfScope  = "out_of_scope"
)

type RefusalParams struct {
	ReasonCode  string `json:"reason_code"`
	UserMessage string `json:"user_message"`
}
