// File path: internal/assembler/envelope.go
package assembler

import (
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/planner"
)

// Envelope types.
const (
	TypeText          = "text"
	TypeData          = "data"
	TypeChart         = "chart"
	TypeClarification = "clarification"
	TypeError         = "error"
)

// Source tags name the component that produced the envelope.
const (
	SourceCatalog    = "catalog"
	SourceClassifier = "classifier"
	SourcePlanner    = "planner"
	SourceExecutor   = "executor"
	SourceAssembler  = "assembler"
)

// Envelope is the single response shape the core hands back to callers.
// Exactly the payload field matching Type is set.
type Envelope struct {
	Type   string `json:"type"`
	Source string `json:"source"`

	Text          string                `json:"text,omitempty"`
	Data          *DataPayload          `json:"data,omitempty"`
	Chart         *ChartPayload         `json:"chart,omitempty"`
	Clarification *ClarificationPayload `json:"clarification,omitempty"`
	Err           *ErrorPayload         `json:"error,omitempty"`
}

// Content returns the payload matching the envelope type, for the wire
// shape {type, content, source}.
func (e Envelope) Content() interface{} {
	switch e.Type {
	case TypeText:
		return e.Text
	case TypeData:
		return e.Data
	case TypeChart:
		return e.Chart
	case TypeClarification:
		return e.Clarification
	case TypeError:
		return e.Err
	}
	return nil
}

// DataPayload is a table: named columns plus row objects keyed by column
// name.
type DataPayload struct {
	Columns   []planner.Column         `json:"columns"`
	Rows      []map[string]interface{} `json:"rows"`
	Truncated bool                     `json:"truncated"`
}

// ChartPayload is a declarative chart spec any renderer can interpret.
type ChartPayload struct {
	Kind   string      `json:"kind"`
	X      string      `json:"x"`
	Y      string      `json:"y"`
	Series string      `json:"series,omitempty"`
	Data   DataPayload `json:"data"`
}

type ClarificationPayload struct {
	Message string              `json:"message"`
	Choices map[string][]string `json:"choices,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func textEnvelope(source, text string) Envelope {
	return Envelope{Type: TypeText, Source: source, Text: text}
}

func errorEnvelope(source, code, message string) Envelope {
	return Envelope{Type: TypeError, Source: source, Err: &ErrorPayload{Code: code, Message: message}}
}
