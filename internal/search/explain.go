package search

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/BiradarScripts/Djaan/internal/models"
	"github.com/BiradarScripts/Djaan/internal/textnorm"
	"github.com/BiradarScripts/Djaan/pkg/utils"
)

const summaryTemplate = "High cosine similarity (%s) with %d matching keywords."

// Explain reports which words of the original query occur in a document's cleaned text.
// CommonWords is sorted; OverlapRatio is |common| / |query words| rounded to 2 places,
// or 0 for a query without words.
func Explain(query, cleanedText string, score float64) models.Explanation {
	queryWords := textnorm.WordSet(query)
	docWords := textnorm.WordSet(cleanedText)

	common := make([]string, 0, len(queryWords))
	for w := range queryWords {
		if _, ok := docWords[w]; ok {
			common = append(common, w)
		}
	}
	sort.Strings(common)

	var ratio float64
	if len(queryWords) > 0 {
		ratio = utils.Round(float64(len(common))/float64(len(queryWords)), 2)
	}
	return models.Explanation{
		OverlapRatio:     ratio,
		CommonWords:      common,
		RelevanceSummary: fmt.Sprintf(summaryTemplate, formatScore(score), len(common)),
	}
}

// formatScore renders score rounded to 2 places without trailing zeros (0.5, not 0.50).
func formatScore(score float64) string {
	return strconv.FormatFloat(utils.Round(score, 2), 'f', -1, 64)
}
