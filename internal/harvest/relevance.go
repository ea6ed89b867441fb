package harvest

import "strings"

// relevantBlocks keeps markdown blocks that share terms with the query,
// filtering out navigation remnants and boilerplate the DOM-level exclusions
// miss. Blocks are paragraphs separated by blank lines; headers and blocks
// shorter than a sentence are kept as structural context.
func relevantBlocks(markdown, query string, minScore int) string {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return markdown
	}

	blocks := strings.Split(markdown, "\n\n")
	var kept []string
	for _, block := range blocks {
		trimmed := strings.TrimSpace(block)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") || len(trimmed) < 80 {
			kept = append(kept, trimmed)
			continue
		}
		if blockScore(trimmed, terms) >= minScore {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n\n")
}

func blockScore(block string, terms []string) int {
	lower := strings.ToLower(block)
	score := 0
	for _, term := range terms {
		score += strings.Count(lower, term)
	}
	return score
}

func queryTerms(query string) []string {
	var terms []string
	for _, field := range strings.Fields(strings.ToLower(query)) {
		if len(field) >= 3 {
			terms = append(terms, field)
		}
	}
	return terms
}
