// File path: internal/intent/classifier.go
package intent

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/catalog"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/common"
	"github.com/devAndrejr/Agents-Solution-Business-sub001/internal/semantic"
)

// Input is one user turn to classify.
type Input struct {
	Utterance      string `json:"utterance"`
	HistorySummary string `json:"history_summary,omitempty"`
}

// Classifier maps a user turn to exactly one Intent. Implementations never
// fail: problems are encoded as clarification or refusal variants.
type Classifier interface {
	Classify(ctx context.Context, in Input) Intent
}

// RuleClassifier is a pure function of (utterance, history, catalog,
// index): identical inputs always produce identical intents.
type RuleClassifier struct {
	reg   *catalog.Registry
	index *semantic.Index
	topK  int

	// datasetTieband is the score band within which two datasets are
	// considered tied and clarification is requested.
	datasetTieband float64
}

func NewRuleClassifier(reg *catalog.Registry, index *semantic.Index, topK int) *RuleClassifier {
	if topK <= 0 {
		topK = 3
	}
	return &RuleClassifier{reg: reg, index: index, topK: topK, datasetTieband: 0.05}
}

// token keeps the three spellings of one utterance word the classifier
// matches against: the surface form, the accent-folded normalization, and
// the stem.
type token struct {
	Surface string
	Norm    string
	Stem    string
}

// candidate is one (dataset, column) binding with its best score. Label
// is the utterance word that produced the binding, when one word did.
type candidate struct {
	Ref   catalog.ColumnRef
	Score float64
	Label string
}

var (
	integerPattern = regexp.MustCompile(`\b\d+\b`)
	decimalPattern = regexp.MustCompile(`\b\d+[.,]\d+\b`)
	isoDatePattern = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	quotedPattern  = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
)

func (c *RuleClassifier) Classify(ctx context.Context, in Input) Intent {
	logger := common.Logger()
	utterance := strings.TrimSpace(in.Utterance)
	if utterance == "" {
		return clarify("Não entendi a pergunta. Pode reformular?", nil)
	}
	if MentionsWrite(utterance) {
		logger.Warn("intent: write operation refused", "utterance_length", len(utterance))
		return Intent{Kind: KindRefusal, Refusal: &RefusalParams{
			ReasonCode:  ReasonWriteDenied,
			UserMessage: "Operações de escrita ou administração não são permitidas; o assistente é somente leitura.",
		}}
	}

	tokens := tokenizeUtterance(utterance)
	ops := c.detectOperators(tokens)

	if intent, ok := c.classifySchema(tokens, ops); ok {
		return intent
	}

	candidates := c.collectCandidates(ctx, utterance, tokens)
	dataset, tied := c.resolveDataset(candidates, in.HistorySummary)
	if len(tied) > 1 {
		return clarify(
			"Sua pergunta pode se referir a mais de uma tabela. Qual delas?",
			map[string][]string{"dataset": tied},
		)
	}
	if dataset == "" {
		return clarify(
			"Não consegui relacionar a pergunta a nenhuma tabela do catálogo.",
			map[string][]string{"dataset": c.datasetNames()},
		)
	}
	entry, _ := c.reg.Entry(dataset)

	values := extractValues(utterance)
	filters, ambiguous := c.categoryFilters(entry, tokens)
	if ambiguous != nil {
		return clarify(
			fmt.Sprintf("Qual valor de %s você quer filtrar?", ambiguous.Column),
			map[string][]string{ambiguous.Column: ambiguous.Choices},
		)
	}
	for _, date := range values.Dates {
		if col, ok := firstDateColumn(entry); ok {
			filters = append(filters, catalog.Predicate{Column: col.Name, Op: catalog.OpEq, Value: date})
		}
	}

	// Variant precedence: ranking > aggregation > trend > lookup > schema.
	if ops.Superlative {
		return c.buildRanking(entry, candidates, values, filters, ops)
	}
	if ops.Agg != "" {
		return c.buildAggregation(ctx, entry, candidates, tokens, filters, ops)
	}
	if ops.Trend {
		return c.buildTrend(entry, candidates, values, filters)
	}
	if intent, ok := c.buildLookup(entry, candidates, values); ok {
		return intent
	}
	if ops.Schema {
		return Intent{Kind: KindSchemaQuestion, Schema: &SchemaParams{Subject: SubjectDataset, Dataset: entry.DatasetName, Name: entry.DatasetName}}
	}
	return clarify(
		"Não entendi o que você quer consultar. Pode detalhar a medida ou o produto?",
		map[string][]string{"dataset": {entry.DatasetName}},
	)
}

type operators struct {
	Agg         AggOp
	Superlative bool
	Ascending   bool
	Trend       bool
	Schema      bool
}

func (c *RuleClassifier) detectOperators(tokens []token) operators {
	var ops operators
	for _, tok := range tokens {
		if op, ok := aggregationWords[tok.Stem]; ok && ops.Agg == "" {
			ops.Agg = op
		}
		if asc, ok := superlativeWords[tok.Stem]; ok {
			if !ops.Superlative {
				ops.Ascending = asc
			}
			ops.Superlative = true
		}
		if _, ok := trendWords[tok.Stem]; ok {
			ops.Trend = true
		}
		if _, ok := schemaWords[tok.Stem]; ok {
			ops.Schema = true
		}
	}
	// "maior"/"menor" double as superlatives when no measure aggregation
	// phrasing is present; keep them as aggregation by default and let the
	// precedence rules decide.
	return ops
}

// classifySchema handles utterances that ask about the catalog itself.
func (c *RuleClassifier) classifySchema(tokens []token, ops operators) (Intent, bool) {
	if !ops.Schema || ops.Agg != "" || ops.Superlative || ops.Trend {
		return Intent{}, false
	}
	dataset := c.mentionedDataset(tokens)
	column := c.mentionedColumn(tokens, dataset)
	wantsColumns := false
	for _, tok := range tokens {
		if tok.Stem == "colun" {
			wantsColumns = true
		}
	}
	switch {
	case column != nil && wantsColumns && dataset == "":
		return Intent{Kind: KindSchemaQuestion, Schema: &SchemaParams{Subject: SubjectColumn, Dataset: column.Dataset, Name: column.Column}}, true
	case dataset != "":
		return Intent{Kind: KindSchemaQuestion, Schema: &SchemaParams{Subject: SubjectDataset, Dataset: dataset, Name: dataset}}, true
	case column != nil && wantsColumns:
		return Intent{Kind: KindSchemaQuestion, Schema: &SchemaParams{Subject: SubjectColumn, Dataset: column.Dataset, Name: column.Column}}, true
	default:
		return Intent{Kind: KindSchemaQuestion, Schema: &SchemaParams{Subject: SubjectDatasets}}, true
	}
}

// mentionedDataset finds a catalog dataset named in the utterance.
func (c *RuleClassifier) mentionedDataset(tokens []token) string {
	for _, entry := range c.reg.Entries() {
		name := entry.DatasetName
		stemmed := semantic.Stem(name)
		for _, tok := range tokens {
			if tok.Norm == name || tok.Stem == stemmed {
				return name
			}
		}
	}
	return ""
}

// mentionedColumn finds a catalog column named verbatim in the utterance.
func (c *RuleClassifier) mentionedColumn(tokens []token, dataset string) *catalog.ColumnRef {
	for _, entry := range c.reg.Entries() {
		if dataset != "" && entry.DatasetName != dataset {
			continue
		}
		for _, col := range entry.Columns {
			for _, tok := range tokens {
				if tok.Norm == col.Name {
					return &catalog.ColumnRef{Dataset: entry.DatasetName, Column: col.Name}
				}
			}
		}
	}
	return nil
}

// collectCandidates gathers (dataset, column) bindings from exact name
// matches, whole-utterance index hits, and per-word index hits.
func (c *RuleClassifier) collectCandidates(ctx context.Context, utterance string, tokens []token) map[string]candidate {
	candidates := make(map[string]candidate)
	record := func(ref catalog.ColumnRef, score float64, label string) {
		key := ref.Dataset + "|" + ref.Column
		existing, ok := candidates[key]
		if !ok || score > existing.Score {
			if label == "" && ok {
				label = existing.Label
			}
			candidates[key] = candidate{Ref: ref, Score: score, Label: label}
			return
		}
		if existing.Label == "" && label != "" {
			existing.Label = label
			candidates[key] = existing
		}
	}
	// Exact normalized-name mentions, including bigrams for names such as
	// last_sale_date.
	for i, tok := range tokens {
		for _, ref := range exactMatches(c.reg, tok.Norm) {
			record(ref, 1.0, tok.Surface)
		}
		if i+1 < len(tokens) {
			joined := tok.Norm + "_" + tokens[i+1].Norm
			for _, ref := range exactMatches(c.reg, joined) {
				record(ref, 1.0, tok.Surface+" "+tokens[i+1].Surface)
			}
		}
	}
	// Lexical description matches: a token whose stem names a column (or a
	// word of its description, plural and gender variants included) binds
	// almost as strongly as the column name itself.
	for _, tok := range tokens {
		if len(tok.Surface) < 4 || isDigits(tok.Norm) || c.ubiquitous(tok.Stem) {
			continue
		}
		for _, entry := range c.reg.Entries() {
			for _, col := range entry.Columns {
				if matchesColumnWord(col, tok) {
					record(catalog.ColumnRef{Dataset: entry.DatasetName, Column: col.Name}, descriptionMatchScore, tok.Surface)
				}
			}
		}
	}
	if c.index != nil {
		if hits, err := c.index.Search(ctx, utterance, c.topK); err == nil {
			for _, hit := range hits {
				record(catalog.ColumnRef{Dataset: hit.Dataset, Column: hit.Column}, hit.Score, "")
			}
		} else {
			common.Logger().Warn("intent: utterance index search failed", "error", err)
		}
		for _, tok := range tokens {
			if len(tok.Surface) < 4 || isDigits(tok.Norm) || c.ubiquitous(tok.Stem) {
				continue
			}
			hits, err := c.index.Search(ctx, tok.Surface, 1)
			if err != nil || len(hits) == 0 {
				continue
			}
			record(catalog.ColumnRef{Dataset: hits[0].Dataset, Column: hits[0].Column}, hits[0].Score, tok.Surface)
		}
	}
	return candidates
}

// ubiquitous reports whether a stem occurs in the descriptions of at
// least half the catalog's columns, or names a dataset (plural and
// cross-language variants included, so "produto" matches a dataset named
// "products"). Such words carry no signal about which column the user
// means.
func (c *RuleClassifier) ubiquitous(stem string) bool {
	total, matched := 0, 0
	for _, entry := range c.reg.Entries() {
		if stemsAlike(semantic.Stem(entry.DatasetName), stem) {
			return true
		}
		for _, col := range entry.Columns {
			total++
			for _, word := range semantic.Tokens(col.Description) {
				if word == stem {
					matched++
					break
				}
			}
		}
	}
	return total > 0 && matched*2 >= total
}

// stemsAlike reports whether two stems are equal or one is a prefix of the
// other with at least four shared characters, enough to collapse plural,
// gender, and light inflection variants ("vend"/"vendid").
func stemsAlike(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) < 4 || len(b) < 4 {
		return false
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

const descriptionMatchScore = 0.9

func exactMatches(reg *catalog.Registry, norm string) []catalog.ColumnRef {
	if norm == "" {
		return nil
	}
	var refs []catalog.ColumnRef
	for _, entry := range reg.Entries() {
		for _, col := range entry.Columns {
			if col.Name == norm {
				refs = append(refs, catalog.ColumnRef{Dataset: entry.DatasetName, Column: col.Name})
			}
		}
	}
	return refs
}

// resolveDataset scores datasets by their best candidate and applies the
// tie band (inclusive: datasets within 0.05 of the best tie). A history
// summary naming one of the tied datasets breaks the tie toward it.
func (c *RuleClassifier) resolveDataset(candidates map[string]candidate, history string) (string, []string) {
	scores := make(map[string]float64)
	for _, cand := range candidates {
		if cand.Score > scores[cand.Ref.Dataset] {
			scores[cand.Ref.Dataset] = cand.Score
		}
	}
	if len(scores) == 0 {
		if entries := c.reg.Entries(); len(entries) == 1 {
			return entries[0].DatasetName, nil
		}
		return "", nil
	}
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)
	best, bestScore := "", -1.0
	for _, name := range names {
		if scores[name] > bestScore {
			best, bestScore = name, scores[name]
		}
	}
	var tied []string
	for _, name := range names {
		if bestScore-scores[name] <= c.datasetTieband {
			tied = append(tied, name)
		}
	}
	if len(tied) > 1 {
		if history != "" {
			if prior := c.mentionedDataset(tokenizeUtterance(history)); prior != "" {
				for _, name := range tied {
					if name == prior {
						return prior, nil
					}
				}
			}
		}
		return "", tied
	}
	return best, nil
}

func (c *RuleClassifier) datasetNames() []string {
	entries := c.reg.Entries()
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.DatasetName)
	}
	return names
}

// extractedValues holds literal values found in the utterance.
type extractedValues struct {
	Integers []int64
	Years    []int
	Dates    []string
	Quoted   []string
	Decimals []float64
}

func extractValues(utterance string) extractedValues {
	var out extractedValues
	for _, match := range quotedPattern.FindAllStringSubmatch(utterance, -1) {
		if match[1] != "" {
			out.Quoted = append(out.Quoted, match[1])
		} else if match[2] != "" {
			out.Quoted = append(out.Quoted, match[2])
		}
	}
	stripped := quotedPattern.ReplaceAllString(utterance, " ")
	out.Dates = isoDatePattern.FindAllString(stripped, -1)
	stripped = isoDatePattern.ReplaceAllString(stripped, " ")
	for _, raw := range decimalPattern.FindAllString(stripped, -1) {
		f, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil {
			continue
		}
		out.Decimals = append(out.Decimals, f)
	}
	stripped = decimalPattern.ReplaceAllString(stripped, " ")
	for _, digits := range integerPattern.FindAllString(stripped, -1) {
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			continue
		}
		if n >= 1900 && n <= 2100 && len(digits) == 4 {
			out.Years = append(out.Years, int(n))
			continue
		}
		out.Integers = append(out.Integers, n)
	}
	return out
}

type ambiguousCategory struct {
	Column  string
	Choices []string
}

// categoryFilters maps utterance words onto declared category values of the
// dataset. A category column named without a concrete value is ambiguous.
func (c *RuleClassifier) categoryFilters(entry *catalog.Entry, tokens []token) ([]catalog.Predicate, *ambiguousCategory) {
	var filters []catalog.Predicate
	for _, col := range entry.Columns {
		if col.Type != catalog.TypeCategory || len(col.Categories) == 0 {
			continue
		}
		matched := ""
		for _, declared := range col.Categories {
			stemmed := semantic.Stem(catalog.Normalize(declared))
			for _, tok := range tokens {
				if tok.Stem == stemmed {
					matched = declared
				}
			}
		}
		if matched != "" {
			filters = append(filters, catalog.Predicate{Column: col.Name, Op: catalog.OpEq, Value: matched})
			continue
		}
		// The column itself was named ("por categoria" is grouping, a bare
		// "categoria X" without a known X is ambiguous) only when the word
		// directly precedes an unknown value; grouping is handled later, so
		// here we only flag "categoria" followed by an unrecognized word.
		for i, tok := range tokens {
			if tok.Norm != col.Name && semantic.Stem(col.Name) != tok.Stem {
				continue
			}
			if i == 0 || tokens[i-1].Norm != "por" {
				if i+1 < len(tokens) && !isDigits(tokens[i+1].Norm) && !knownCategory(col, tokens[i+1]) {
					return nil, &ambiguousCategory{Column: col.Name, Choices: append([]string(nil), col.Categories...)}
				}
			}
		}
	}
	return filters, nil
}

func knownCategory(col catalog.Column, tok token) bool {
	for _, declared := range col.Categories {
		if semantic.Stem(catalog.Normalize(declared)) == tok.Stem {
			return true
		}
	}
	return false
}

// resolveMeasure picks the best-scoring numeric column candidate. The
// dataset's key column never measures anything; it only identifies rows.
func resolveMeasure(entry *catalog.Entry, candidates map[string]candidate, exclude ...string) (string, bool) {
	skip := make(map[string]struct{}, len(exclude)+1)
	for _, name := range exclude {
		skip[name] = struct{}{}
	}
	if key, ok := entry.KeyColumn(); ok {
		skip[key.Name] = struct{}{}
	}
	keys := sortedCandidateKeys(candidates)
	best, bestScore := "", 0.0
	for _, key := range keys {
		cand := candidates[key]
		if cand.Ref.Dataset != entry.DatasetName {
			continue
		}
		if _, skipped := skip[cand.Ref.Column]; skipped {
			continue
		}
		col, ok := entry.Column(cand.Ref.Column)
		if !ok || !col.Type.Numeric() {
			continue
		}
		if cand.Score > bestScore {
			best, bestScore = col.Name, cand.Score
		}
	}
	return best, best != ""
}

func sortedCandidateKeys(candidates map[string]candidate) []string {
	keys := make([]string, 0, len(candidates))
	for key := range candidates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// resolveGroupBy finds "por <column>" phrasing.
func (c *RuleClassifier) resolveGroupBy(ctx context.Context, entry *catalog.Entry, tokens []token, measure string) []string {
	for i, tok := range tokens {
		if tok.Norm != "por" || i+1 >= len(tokens) {
			continue
		}
		next := tokens[i+1]
		if col, ok := entry.Column(next.Norm); ok && col.Name != measure {
			return []string{col.Name}
		}
		for _, col := range entry.Columns {
			if col.Name == measure {
				continue
			}
			if matchesColumnWord(col, next) {
				return []string{col.Name}
			}
		}
		if c.index != nil {
			if hits, err := c.index.Search(ctx, next.Surface, 1); err == nil && len(hits) > 0 {
				if hits[0].Dataset == entry.DatasetName && hits[0].Column != measure {
					return []string{hits[0].Column}
				}
			}
		}
	}
	return nil
}

// matchesColumnWord reports whether the token names the column, either by
// its normalized name or by a stemmed word of its description.
func matchesColumnWord(col catalog.Column, tok token) bool {
	if tok.Norm == col.Name || stemsAlike(semantic.Stem(col.Name), tok.Stem) {
		return true
	}
	for _, word := range semantic.Tokens(col.Description) {
		if stemsAlike(word, tok.Stem) {
			return true
		}
	}
	return false
}

func (c *RuleClassifier) buildRanking(entry *catalog.Entry, candidates map[string]candidate, values extractedValues, filters []catalog.Predicate, ops operators) Intent {
	measure, ok := resolveMeasure(entry, candidates)
	if !ok {
		return clarify(
			"Qual medida devo usar para o ranking?",
			map[string][]string{"measure": numericColumns(entry)},
		)
	}
	k := 0
	for _, n := range values.Integers {
		if n >= 1 && n <= 1000 {
			k = int(n)
			break
		}
	}
	order := OrderDesc
	if ops.Ascending {
		order = OrderAsc
	}
	return Intent{Kind: KindRanking, Ranking: &RankingParams{
		Dataset: entry.DatasetName,
		Measure: measure,
		Order:   order,
		K:       k,
		Filters: filters,
	}}
}

func (c *RuleClassifier) buildAggregation(ctx context.Context, entry *catalog.Entry, candidates map[string]candidate, tokens []token, filters []catalog.Predicate, ops operators) Intent {
	measure, ok := resolveMeasure(entry, candidates)
	if !ok {
		if ops.Agg == OpCount {
			measure = CountAll
		} else {
			return clarify(
				"Qual medida devo agregar?",
				map[string][]string{"measure": numericColumns(entry)},
			)
		}
	}
	groupBy := c.resolveGroupBy(ctx, entry, tokens, measure)
	return Intent{Kind: KindAggregation, Aggregation: &AggregationParams{
		Dataset: entry.DatasetName,
		Measure: measure,
		Op:      ops.Agg,
		GroupBy: groupBy,
		Filters: filters,
	}}
}

func (c *RuleClassifier) buildTrend(entry *catalog.Entry, candidates map[string]candidate, values extractedValues, filters []catalog.Predicate) Intent {
	timeCol, ok := firstDateColumn(entry)
	if !ok {
		return clarify(
			fmt.Sprintf("A tabela %s não tem coluna de data para montar a evolução.", entry.DatasetName),
			nil,
		)
	}
	measure, ok := resolveMeasure(entry, candidates)
	if !ok {
		return clarify(
			"Qual medida devo acompanhar na evolução?",
			map[string][]string{"measure": numericColumns(entry)},
		)
	}
	for _, year := range values.Years {
		filters = append(filters,
			catalog.Predicate{Column: timeCol.Name, Op: catalog.OpGe, Value: fmt.Sprintf("%04d-01-01", year)},
			catalog.Predicate{Column: timeCol.Name, Op: catalog.OpLe, Value: fmt.Sprintf("%04d-12-31", year)},
		)
	}
	return Intent{Kind: KindTrend, Trend: &TrendParams{
		Dataset:    entry.DatasetName,
		Measure:    measure,
		TimeColumn: timeCol.Name,
		Filters:    filters,
	}}
}

func (c *RuleClassifier) buildLookup(entry *catalog.Entry, candidates map[string]candidate, values extractedValues) (Intent, bool) {
	keyCol, ok := entry.KeyColumn()
	if !ok {
		return Intent{}, false
	}
	var keyValue interface{}
	if len(values.Integers) > 0 && keyCol.Type == catalog.TypeInteger {
		keyValue = values.Integers[0]
	} else if len(values.Quoted) > 0 {
		keyValue = values.Quoted[0]
	}
	if keyValue == nil {
		return Intent{}, false
	}
	// Candidates bound to an actual utterance word (Label set) beat
	// unlabeled whole-utterance index hits regardless of score.
	attribute, label := "", ""
	bestScore, bestLabeled := 0.0, false
	for _, key := range sortedCandidateKeys(candidates) {
		cand := candidates[key]
		if cand.Ref.Dataset != entry.DatasetName || cand.Ref.Column == keyCol.Name {
			continue
		}
		labeled := cand.Label != ""
		if bestLabeled && !labeled {
			continue
		}
		if (labeled && !bestLabeled) || cand.Score > bestScore {
			attribute, label, bestScore, bestLabeled = cand.Ref.Column, cand.Label, cand.Score, labeled
		}
	}
	return Intent{Kind: KindLookupByKey, Lookup: &LookupParams{
		Dataset:        entry.DatasetName,
		KeyColumn:      keyCol.Name,
		KeyValue:       keyValue,
		Attribute:      attribute,
		AttributeLabel: label,
	}}, true
}

func firstDateColumn(entry *catalog.Entry) (catalog.Column, bool) {
	for _, col := range entry.Columns {
		if col.Type == catalog.TypeDate {
			return col, true
		}
	}
	return catalog.Column{}, false
}

func numericColumns(entry *catalog.Entry) []string {
	var names []string
	for _, col := range entry.Columns {
		if col.Type.Numeric() {
			names = append(names, col.Name)
		}
	}
	return names
}

func clarify(prompt string, choices map[string][]string) Intent {
	return Intent{Kind: KindClarification, Clarification: &ClarificationParams{Prompt: prompt, Choices: choices}}
}

func tokenizeUtterance(utterance string) []token {
	fields := strings.FieldsFunc(utterance, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]token, 0, len(fields))
	for _, field := range fields {
		norm := catalog.Normalize(field)
		if norm == "" {
			continue
		}
		out = append(out, token{Surface: field, Norm: norm, Stem: semantic.Stem(norm)})
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
