// File path: internal/assembler/assemble.go
package assembler

import (
	"fmt"
	"strings"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/catalog"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/intent"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/planner"
)

// Assembler packages classifier and executor output into envelopes. It
// only ever describes what the catalog declares; nothing here invents
// columns or values.
type Assembler struct {
	reg *catalog.Registry
}

func New(reg *catalog.Registry) *Assembler {
	return &Assembler{reg: reg}
}

// Schema answers a schema question straight from the catalog.
func (a *Assembler) Schema(params *intent.SchemaParams) Envelope {
	switch params.Subject {
	case intent.SubjectDatasets:
		return textEnvelope(SourceCatalog, a.reg.DescribeDatasets())
	case intent.SubjectDataset:
		if text, ok := a.reg.DescribeDataset(params.Dataset); ok {
			return textEnvelope(SourceCatalog, text)
		}
	case intent.SubjectColumn:
		if text, ok := a.reg.DescribeColumn(params.Dataset, params.Name); ok {
			return textEnvelope(SourceCatalog, text)
		}
	}
	return errorEnvelope(SourceCatalog, "unknown_column",
		fmt.Sprintf("O catálogo não tem %q.", params.Name))
}

// Clarification wraps a structured ask for more input.
func (a *Assembler) Clarification(params *intent.ClarificationParams) Envelope {
	return Envelope{
		Type:   TypeClarification,
		Source: SourceClassifier,
		Clarification: &ClarificationPayload{
			Message: params.Prompt,
			Choices: params.Choices,
		},
	}
}

// Refusal surfaces a denied operation as an error envelope with its
// stable code.
func (a *Assembler) Refusal(params *intent.RefusalParams) Envelope {
	return errorEnvelope(SourceClassifier, params.ReasonCode, params.UserMessage)
}

// PlanError converts a planning failure into an error envelope.
func (a *Assembler) PlanError(perr *planner.PlanError) Envelope {
	return errorEnvelope(SourcePlanner, perr.Code, planErrorMessage(perr))
}

// ExecError converts an execution failure into an error envelope.
func (a *Assembler) ExecError(eerr *planner.ExecError) Envelope {
	message := eerr.Message
	if eerr.Code == planner.ExecDeadlineExceeded {
		message = "A consulta excedeu o tempo limite. Tente restringir a pergunta."
	}
	return errorEnvelope(SourceExecutor, eerr.Code, message)
}

// Result picks the envelope shape for an executed plan.
func (a *Assembler) Result(in intent.Intent, plan *planner.Plan, result *planner.Result) Envelope {
	switch in.Kind {
	case intent.KindLookupByKey:
		return a.lookupResult(in.Lookup, plan, result)
	case intent.KindAggregation:
		return a.aggregationResult(plan, result)
	case intent.KindRanking:
		return dataEnvelope(result)
	case intent.KindTrend:
		return a.trendResult(plan, result)
	default:
		return errorEnvelope(SourceAssembler, planner.ExecInternal,
			fmt.Sprintf("sem regra de montagem para a intenção %q", in.Kind))
	}
}

func (a *Assembler) lookupResult(params *intent.LookupParams, plan *planner.Plan, result *planner.Result) Envelope {
	if len(result.Rows) == 0 {
		return textEnvelope(SourceExecutor,
			fmt.Sprintf("Produto %s não encontrado.", FormatKey(params.KeyValue)))
	}
	if plan.Attribute != "" && len(result.Rows) == 1 {
		idx, col := columnIndex(result.Columns, plan.Attribute)
		if idx >= 0 {
			label := strings.ToLower(params.AttributeLabel)
			if label == "" {
				label = col.Name
			}
			return textEnvelope(SourceExecutor, fmt.Sprintf("O %s do produto %s é %s.",
				label, FormatKey(params.KeyValue), FormatValue(result.Rows[0][idx], col)))
		}
	}
	return dataEnvelope(result)
}

func (a *Assembler) aggregationResult(plan *planner.Plan, result *planner.Result) Envelope {
	if len(plan.GroupBy) == 0 && len(result.Rows) == 1 && len(result.Columns) == 1 {
		col := result.Columns[0]
		value := result.Rows[0][0]
		label := measureLabel(a.reg, plan)
		return textEnvelope(SourceExecutor,
			fmt.Sprintf("%s de %s: %s.", opLabel(plan.Agg), label, FormatValue(value, col)))
	}
	return dataEnvelope(result)
}

func (a *Assembler) trendResult(plan *planner.Plan, result *planner.Result) Envelope {
	payload := toDataPayload(result)
	return Envelope{
		Type:   TypeChart,
		Source: SourceExecutor,
		Chart: &ChartPayload{
			Kind: "line",
			X:    result.Columns[0].Name,
			Y:    result.Columns[1].Name,
			Data: payload,
		},
	}
}

func dataEnvelope(result *planner.Result) Envelope {
	payload := toDataPayload(result)
	return Envelope{Type: TypeData, Source: SourceExecutor, Data: &payload}
}

func toDataPayload(result *planner.Result) DataPayload {
	rows := make([]map[string]interface{}, len(result.Rows))
	for i, cells := range result.Rows {
		row := make(map[string]interface{}, len(result.Columns))
		for j, col := range result.Columns {
			row[col.Name] = cells[j]
		}
		rows[i] = row
	}
	return DataPayload{Columns: result.Columns, Rows: rows, Truncated: result.Truncated}
}

func columnIndex(columns []planner.Column, name string) (int, planner.Column) {
	for i, col := range columns {
		if col.Name == name {
			return i, col
		}
	}
	return -1, planner.Column{}
}

// measureLabel prefers the catalog's original spelling of the measure.
func measureLabel(reg *catalog.Registry, plan *planner.Plan) string {
	if plan.Measure == intent.CountAll {
		return "registros"
	}
	if entry, ok := reg.Entry(plan.Dataset); ok {
		if col, ok := entry.Column(plan.Measure); ok && col.RawName != "" {
			return col.RawName
		}
	}
	return plan.Measure
}

func opLabel(op intent.AggOp) string {
	switch op {
	case intent.OpSum:
		return "Soma"
	case intent.OpMean:
		return "Média"
	case intent.OpMin:
		return "Mínimo"
	case intent.OpMax:
		return "Máximo"
	case intent.OpCount:
		return "Contagem"
	}
	return string(op)
}

func planErrorMessage(perr *planner.PlanError) string {
	switch perr.Code {
	case planner.PlanUnknownColumn:
		return fmt.Sprintf("Coluna desconhecida: %s.", perr.Column)
	case planner.PlanIncompatibleType:
		return fmt.Sprintf("Tipo incompatível na coluna %s: %s", perr.Column, perr.Message)
	case planner.PlanUnknownCategory:
		return fmt.Sprintf("Valor de categoria desconhecido na coluna %s.", perr.Column)
	case planner.PlanAmbiguousColumn:
		return fmt.Sprintf("Coluna ambígua: %s.", perr.Column)
	case planner.PlanEmptyScope:
		return "A pergunta não alcança nenhum dado do catálogo."
	case planner.PlanBudgetExceeded:
		return "A consulta varreria dados demais. Adicione um filtro para restringir."
	}
	return perr.Message
}
