package expansion

import (
	"sort"
	"strings"

	"github.com/BiradarScripts/Djaan/internal/textnorm"
)

// Expander unions each query word with its synonyms.
type Expander struct {
	lexicon Lexicon
}

// NewExpander returns an Expander over lex. A nil lexicon uses DefaultLexicon.
func NewExpander(lex Lexicon) *Expander {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Expander{lexicon: lex}
}

// Terms returns the sorted, de-duplicated union of the query's lowercase words and
// every synonym of every word.
func (e *Expander) Terms(query string) []string {
	set := make(map[string]struct{})
	for _, word := range textnorm.Words(query) {
		set[word] = struct{}{}
		for _, syn := range e.lexicon.Synonyms(word) {
			set[syn] = struct{}{}
		}
	}
	terms := make([]string, 0, len(set))
	for t := range set {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Expand returns Terms joined by single spaces. The result is only meant for embedding;
// explanations are computed from the original query.
func (e *Expander) Expand(query string) string {
	return strings.Join(e.Terms(query), " ")
}
