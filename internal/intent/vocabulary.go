// File path: internal/intent/vocabulary.go
package intent

import "regexp"

// WriteKeywords cover SQL-shaped administrative verbs plus their Portuguese
// equivalents, including imperative and present conjugations ("apague",
// "exclua"). Matching is case-insensitive on word boundaries.
var WriteKeywords = []string{
	"delete", "update", "insert", "drop", "alter", "create", "execute",
	"truncate", "deletar", "deleta", "apagar", "apague", "apaga",
	"excluir", "exclua", "exclui", "inserir", "insira", "insere",
	"atualizar", "atualize", "atualiza", "alterar", "altere", "altera",
	"criar", "crie", "cria", "executar", "executa", "remover", "remova",
	"remove",
}

var writePattern = regexp.MustCompile(`(?i)\b(` + joinAlternation(WriteKeywords) + `)\b`)

// aggregationWords map stemmed utterance tokens to aggregation operators.
// Keys are the output of semantic.Stem applied to the surface word.
var aggregationWords = map[string]AggOp{
	"soma":     OpSum,
	"somar":    OpSum,
	"total":    OpSum,
	"medi":     OpMean, // média
	"averag":   OpMean,
	"minim":    OpMin, // mínimo
	"menor":    OpMin,
	"maxim":    OpMax, // máximo
	"maior":    OpMax,
	"quant":    OpCount, // quantos, quantas
	"contagem": OpCount,
	"contar":   OpCount,
	"count":    OpCount,
}

// superlativeWords trigger the ranking variant; the boolean marks ascending
// order ("menos vendidos" ranks from the bottom). Keys are stemmed.
var superlativeWords = map[string]bool{
	"top":     false,
	"mai":     false, // mais
	"melhor":  false, // melhores
	"meno":    true,  // menos
	"pior":    true,  // piores
	"ultim":   true,  // últimos
	"rank":    false,
	"ranking": false,
}

// trendWords trigger the trend variant. Keys are stemmed.
var trendWords = map[string]struct{}{
	"evoluca":  {}, // evolução
	"tendenci": {}, // tendência
	"historic": {}, // histórico
	"trend":    {},
	"mensal":   {},
	"mensai":   {}, // mensais
	"evolui":   {},
}

// schemaWords suggest a question about the catalog itself. Keys are stemmed.
var schemaWords = map[string]struct{}{
	"tabel":    {}, // tabela(s)
	"colun":    {}, // coluna(s)
	"schem":    {},
	"estrutur": {},
	"catalog":  {},
	"dataset":  {},
}

func joinAlternation(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += "|"
		}
		out += regexp.QuoteMeta(w)
	}
	return out
}

// MentionsWrite reports whether the utterance contains a write or
// administrative keyword.
func MentionsWrite(utterance string) bool {
	return writePattern.MatchString(utterance)
}
