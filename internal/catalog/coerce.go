// File path: internal/catalog/coerce.go
package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var booleanLiterals = map[string]bool{
	"true":  true,
	"false": false,
	"sim":   true,
	"nao":   false,
	"1":     true,
	"0":     false,
}

// CoerceValue converts a raw scalar into the typed representation declared
// for the column: int64 for integer, float64 for decimal, string for text,
// date and category, bool for boolean. Coercion is strict; anything that is
// not well-formed for the declared type is rejected.
func CoerceValue(col Column, raw interface{}) (interface{}, *PredicateError) {
	fail := func(msg string) (interface{}, *PredicateError) {
		return nil, &PredicateError{Code: PredicateIncompatibleType, Column: col.Name, Message: msg}
	}
	switch col.Type {
	case TypeText:
		s, ok := raw.(string)
		if !ok {
			return fail(fmt.Sprintf("expected text, got %T", raw))
		}
		return s, nil
	case TypeInteger:
		switch v := raw.(type) {
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case float64:
			if v != math.Trunc(v) {
				return fail("expected integer, got fractional number")
			}
			return int64(v), nil
		case string:
			trimmed := strings.TrimSpace(v)
			n, err := strconv.ParseInt(trimmed, 10, 64)
			if err != nil {
				return fail(fmt.Sprintf("not a well-formed integer: %q", v))
			}
			return n, nil
		}
		return fail(fmt.Sprintf("expected integer, got %T", raw))
	case TypeDecimal:
		switch v := raw.(type) {
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case float64:
			return v, nil
		case string:
			trimmed := strings.TrimSpace(v)
			if strings.ContainsAny(trimmed, "eE") {
				return fail(fmt.Sprintf("scientific notation rejected: %q", v))
			}
			f, err := strconv.ParseFloat(trimmed, 64)
			if err != nil {
				return fail(fmt.Sprintf("not a well-formed decimal: %q", v))
			}
			return f, nil
		}
		return fail(fmt.Sprintf("expected decimal, got %T", raw))
	case TypeDate:
		s, ok := raw.(string)
		if !ok {
			return fail(fmt.Sprintf("expected ISO-8601 date string, got %T", raw))
		}
		trimmed := strings.TrimSpace(s)
		if _, err := time.Parse("2006-01-02", trimmed); err != nil {
			return fail(fmt.Sprintf("date must be YYYY-MM-DD: %q", s))
		}
		return trimmed, nil
	case TypeBoolean:
		switch v := raw.(type) {
		case bool:
			return v, nil
		case string:
			key := Normalize(v)
			if b, ok := booleanLiterals[key]; ok {
				return b, nil
			}
			return fail(fmt.Sprintf("not a recognized boolean literal: %q", v))
		case int, int64, float64:
			key := strings.TrimSpace(fmt.Sprint(v))
			if b, ok := booleanLiterals[key]; ok {
				return b, nil
			}
			return fail(fmt.Sprintf("not a recognized boolean literal: %v", v))
		}
		return fail(fmt.Sprintf("expected boolean, got %T", raw))
	case TypeCategory:
		s, ok := raw.(string)
		if !ok {
			return fail(fmt.Sprintf("expected category value, got %T", raw))
		}
		trimmed := strings.TrimSpace(s)
		if len(col.Categories) == 0 {
			return trimmed, nil
		}
		normalized := Normalize(trimmed)
		for _, declared := range col.Categories {
			if Normalize(declared) == normalized {
				return declared, nil
			}
		}
		return nil, &PredicateError{
			Code:    PredicateUnknownCategory,
			Column:  col.Name,
			Message: fmt.Sprintf("value %q not in declared category set", s),
		}
	}
	return fail(fmt.Sprintf("unrecognized semantic type %q", col.Type))
}
