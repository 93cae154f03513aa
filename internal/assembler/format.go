// File path: internal/assembler/format.go
package assembler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/planner"
)

// currencyColumns are measure names treated as BRL amounts when the
// catalog declares no unit.
var currencyColumns = map[string]struct{}{
	"price":          {},
	"preco":          {},
	"valor":          {},
	"custo":          {},
	"preco_unitario": {},
}

// FormatValue renders a cell for Portuguese text answers: decimal comma,
// two places for decimals, and an R$ prefix for currency columns.
func FormatValue(value interface{}, col planner.Column) string {
	if value == nil {
		return "nulo"
	}
	switch v := value.(type) {
	case int64:
		if isCurrency(col) {
			return "R$ " + decimalComma(float64(v))
		}
		return strconv.FormatInt(v, 10)
	case float64:
		if isCurrency(col) {
			return "R$ " + decimalComma(v)
		}
		return decimalComma(v)
	case bool:
		if v {
			return "sim"
		}
		return "não"
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func isCurrency(col planner.Column) bool {
	if col.Unit == "BRL" {
		return true
	}
	if col.Unit != "" {
		return false
	}
	_, ok := currencyColumns[col.Name]
	return ok
}

// decimalComma formats with two decimal places and a comma separator, the
// pt-BR convention.
func decimalComma(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', 2, 64), ".", ",", 1)
}

// FormatKey renders a lookup key for answer text.
func FormatKey(value interface{}) string {
	switch v := value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
