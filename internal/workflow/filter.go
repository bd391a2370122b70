package workflow

import (
	"sort"
	"strings"

	"github.com/helixir/research-report-service/internal/domain"
)

// minSnippetLength drops results whose snippet is too short to score
// meaningfully.
const minSnippetLength = 50

// stopwords are excluded from relevance scoring.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "how": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {},
	"to": {}, "was": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"who": {}, "why": {}, "will": {}, "with": {},
}

// runFilter scores results against the query, sorts descending by score with
// original rank as the tie-break, and truncates to maxResults. Deterministic
// given identical inputs; it cannot fail transiently.
func (e *Engine) runFilter(job *domain.Job) Outcome {
	snap := job.Snapshot.Clone()

	queryTokens := tokenize(job.Query)

	filtered := make([]domain.SearchResult, 0, len(snap.RawResults))
	dropped := 0
	for _, r := range snap.RawResults {
		if len(r.Snippet) < minSnippetLength {
			dropped++
			continue
		}
		r.RelevanceScore = relevanceScore(queryTokens, r.Title+" "+r.Snippet)
		filtered = append(filtered, r)
	}

	// Stable sort preserves search rank for equal scores.
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].RelevanceScore > filtered[j].RelevanceScore
	})

	if len(filtered) > job.MaxResults {
		filtered = filtered[:job.MaxResults]
	}
	snap.FilteredResults = filtered

	if dropped > 0 && len(filtered) == 0 && len(snap.RawResults) > 0 {
		return partial(snap, "all search results were dropped as too short to score")
	}
	return success(snap)
}

// relevanceScore is the token-overlap ratio between the query terms and the
// candidate text, normalized to [0, 1].
func relevanceScore(queryTokens []string, text string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	textTokens := make(map[string]struct{})
	for _, tok := range tokenize(text) {
		textTokens[tok] = struct{}{}
	}
	matched := 0
	for _, tok := range queryTokens {
		if _, ok := textTokens[tok]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}

// tokenize lowercases, splits on non-alphanumeric runes, and removes
// stopwords and duplicates, preserving first-seen order.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}
