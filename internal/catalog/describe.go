// File path: internal/catalog/describe.go
package catalog

import (
	"fmt"
	"strings"
)

// DescribeDatasets renders the list of known datasets. Only catalog fields
// appear in the output; nothing is generated.
func (r *Registry) DescribeDatasets() string {
	if r == nil || len(r.entries) == 0 {
		return "Nenhuma tabela cadastrada no catálogo."
	}
	names := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		names = append(names, entry.DatasetName)
	}
	if len(names) == 1 {
		return fmt.Sprintf("Tabela disponível: %s.", names[0])
	}
	return fmt.Sprintf("Tabelas disponíveis: %s.", strings.Join(names, ", "))
}

// DescribeDataset renders the column listing of one dataset.
func (r *Registry) DescribeDataset(dataset string) (string, bool) {
	entry, ok := r.Entry(dataset)
	if !ok {
		return "", false
	}
	names := make([]string, 0, len(entry.Columns))
	for _, col := range entry.Columns {
		names = append(names, col.Name)
	}
	return fmt.Sprintf("%s tem as colunas: %s.", entry.DatasetName, strings.Join(names, ", ")), true
}

// DescribeColumn renders the catalog description of a single column.
func (r *Registry) DescribeColumn(dataset, column string) (string, bool) {
	entry, ok := r.Entry(dataset)
	if !ok {
		return "", false
	}
	col, ok := entry.Column(Normalize(column))
	if !ok {
		return "", false
	}
	desc := col.Description
	if desc == "" {
		desc = fmt.Sprintf("tipo %s", col.Type)
	}
	return fmt.Sprintf("A coluna %s de %s: %s", col.Name, entry.DatasetName, desc), true
}
