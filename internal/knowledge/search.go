package knowledge

import (
	"sort"
	"strings"
)

const (
	exactQuestionScore    = 100
	questionContainsScore = 50
	keywordTokenScore     = 10
	questionTokenScore    = 5
	answerTokenScore      = 2
	priorityWeight        = 5

	minTokenLen = 3
)

// Match is a ranked search hit. TextScore excludes the priority bonus and
// KeywordHits counts query tokens found in the entry's keywords.
type Match struct {
	Entry       QAPair `json:"entry"`
	Score       int    `json:"score"`
	TextScore   int    `json:"text_score"`
	KeywordHits int    `json:"keyword_hits"`
}

// Matcher ranks store entries against free text with a linear scan.
type Matcher struct {
	store *Store
	// lowered copies, parallel to store.entries
	questions []string
	answers   []string
	keywords  [][]string
}

// NewMatcher precomputes the lower-cased fields of every entry.
func NewMatcher(store *Store) *Matcher {
	m := &Matcher{
		store:     store,
		questions: make([]string, len(store.entries)),
		answers:   make([]string, len(store.entries)),
		keywords:  make([][]string, len(store.entries)),
	}
	for i, e := range store.entries {
		m.questions[i] = lowerASCII(e.Question)
		m.answers[i] = lowerASCII(e.Answer)
		kws := make([]string, len(e.Keywords))
		for j, k := range e.Keywords {
			kws[j] = lowerASCII(k)
		}
		m.keywords[i] = kws
	}
	return m
}

// Store returns the underlying corpus.
func (m *Matcher) Store() *Store { return m.store }

// Search returns at most limit entries, most relevant first.
func (m *Matcher) Search(query string, limit int) []QAPair {
	matches := m.SearchScored(query, limit)
	out := make([]QAPair, len(matches))
	for i, mt := range matches {
		out[i] = mt.Entry
	}
	return out
}

// SearchScored is Search with the scores attached. Entries without any
// textual overlap are never returned, whatever their priority.
func (m *Matcher) SearchScored(query string, limit int) []Match {
	if limit <= 0 {
		return []Match{}
	}
	q := strings.TrimSpace(lowerASCII(query))
	tokens := Tokenize(q)

	matches := make([]Match, 0, 8)
	for i, e := range m.store.entries {
		text, hits := m.textScore(i, q, tokens)
		if text <= 0 {
			continue
		}
		matches = append(matches, Match{
			Entry:       e,
			Score:       text + priorityWeight*e.Priority,
			TextScore:   text,
			KeywordHits: hits,
		})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	return truncate(matches, limit)
}

func (m *Matcher) textScore(i int, q string, tokens []string) (score, keywordHits int) {
	question := m.questions[i]
	if q != "" {
		if question == q {
			score += exactQuestionScore
		}
		if strings.Contains(question, q) {
			score += questionContainsScore
		}
	}
	for _, tok := range tokens {
		for _, kw := range m.keywords[i] {
			if strings.Contains(kw, tok) {
				score += keywordTokenScore
				keywordHits++
				break
			}
		}
		if strings.Contains(question, tok) {
			score += questionTokenScore
		}
		if strings.Contains(m.answers[i], tok) {
			score += answerTokenScore
		}
	}
	return score, keywordHits
}

// Tokenize splits lower-cased text on whitespace and drops tokens shorter
// than three bytes.
func Tokenize(s string) []string {
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if len(f) >= minTokenLen {
			out = append(out, f)
		}
	}
	return out
}

// lowerASCII folds A-Z only, so results do not depend on locale.
func lowerASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if b[j] >= 'A' && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}
