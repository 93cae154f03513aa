// File path: internal/semantic/tokens.go
package semantic

import (
	"strings"
	"unicode"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/catalog"
)

var stopwords = map[string]struct{}{
	"a": {}, "as": {}, "o": {}, "os": {}, "um": {}, "uma": {},
	"de": {}, "do": {}, "da": {}, "dos": {}, "das": {}, "em": {},
	"no": {}, "na": {}, "nos": {}, "nas": {}, "e": {}, "ou": {},
	"que": {}, "qual": {}, "quais": {}, "sao": {}, "com": {},
	"para": {}, "por": {}, "me": {}, "mostre": {}, "the": {}, "in": {},
	"is": {},
}

// Tokens normalizes free text into accent-folded, lightly stemmed tokens
// with Portuguese stopwords removed. The same tokenizer feeds the hash
// embedder and the classifier's lexical matching so both agree on what a
// word is.
func Tokens(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		token := catalog.Normalize(field)
		if token == "" {
			continue
		}
		if _, skip := stopwords[token]; skip {
			continue
		}
		out = append(out, Stem(token))
	}
	return out
}

// Stem strips plural and gender suffixes so "vendidos", "vendidas" and
// "vendido" collapse to one token. It is intentionally crude; it only has
// to be deterministic and consistent between index and query sides.
func Stem(token string) string {
	if len(token) > 3 && strings.HasSuffix(token, "s") {
		token = token[:len(token)-1]
	}
	if len(token) > 4 {
		switch token[len(token)-1] {
		case 'a', 'e', 'o':
			token = token[:len(token)-1]
		}
	}
	return token
}
