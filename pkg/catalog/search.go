package catalog

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ScoredEntry is a catalog entry with its relevance to a query
type ScoredEntry struct {
	Entry Entry
	Score int
}

// Search ranks catalog entries against a free-text query and returns up
// to limit results, best first. Scoring favors exact substring hits in
// the asset name, then fuzzy matches on the name and manifest entry id.
func (c *Catalog) Search(query string, limit int) []ScoredEntry {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" || limit <= 0 {
		return nil
	}

	tokens := strings.Fields(query)

	var scored []ScoredEntry
	for _, entry := range c.Entries {
		score := scoreEntry(entry, query, tokens)
		if score <= 0 {
			continue
		}
		scored = append(scored, ScoredEntry{Entry: entry, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func scoreEntry(entry Entry, query string, tokens []string) int {
	name := strings.ToLower(entry.Name)
	id := strings.ToLower(entry.ManifestEntryID)

	score := 0

	if strings.Contains(name, query) {
		score += 100
	}

	for _, token := range tokens {
		switch {
		case strings.Contains(name, token):
			score += 40
		case fuzzy.MatchNormalizedFold(token, name):
			score += 15
		}
		if strings.Contains(id, token) {
			score += 20
		}
	}

	// A close overall fuzzy match still counts when no token hit
	if score == 0 && fuzzy.RankMatchNormalizedFold(query, name) >= 0 {
		score = 5
	}

	return score
}
