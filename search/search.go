package search

import (
	"sort"
	"strings"
	"time"
)

// Filters narrows a search to one project or technology tag.
type Filters struct {
	Project    string
	Technology string
	Limit      int
}

const defaultLimit = 20

// Result is one ranked search hit.
type Result struct {
	SessionID    string    `json:"sessionId"`
	Title        string    `json:"title"`
	ProjectName  string    `json:"projectName"`
	ProjectPath  string    `json:"projectPath"`
	Technologies []string  `json:"technologies,omitempty"`
	Excerpt      string    `json:"excerpt,omitempty"`
	Score        float64   `json:"score"`
	ArchivedAt   time.Time `json:"archivedAt"`
}

// Search tokenizes the query with the same tokenizer used at index time,
// scores candidates by weighted field-match sum, applies filters and ranks
// the results. Ties break toward more recently archived sessions.
func (idx *Index) Search(query string, filters Filters) []Result {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}

	scores := make(map[string]float64)
	for _, token := range tokens {
		for sessionID, weight := range idx.Postings[token] {
			scores[sessionID] += weight
		}
	}

	var results []Result
	for sessionID, score := range scores {
		stored, ok := idx.Sessions[sessionID]
		if !ok {
			continue
		}
		if !matchesFilters(stored, filters) {
			continue
		}

		results = append(results, Result{
			SessionID:    stored.ID,
			Title:        stored.Title,
			ProjectName:  stored.ProjectName,
			ProjectPath:  stored.ProjectPath,
			Technologies: stored.Technologies,
			Excerpt:      stored.Snippet,
			Score:        score,
			ArchivedAt:   stored.ArchivedAt,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ArchivedAt.After(results[j].ArchivedAt)
	})

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func matchesFilters(stored StoredSession, filters Filters) bool {
	if filters.Project != "" &&
		stored.ProjectName != filters.Project && stored.ProjectPath != filters.Project {
		return false
	}

	if filters.Technology != "" {
		found := false
		for _, tech := range stored.Technologies {
			if strings.EqualFold(tech, filters.Technology) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
