package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/jacqueshq/jacques/entry"
	"github.com/jacqueshq/jacques/log"
)

// artifact is a markdown file staged for the commit phase of extraction.
type artifact struct {
	Name    string
	Content string
}

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s, collapses non-alphanumeric runs to a single hyphen
// and trims edge hyphens. Deterministic: the same input always yields the
// same slug.
func Slugify(s string) string {
	slug := nonSlugRe.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}

// explorationArtifacts extracts the final assistant message of each
// recognized exploration sub-agent into an explore_{agentId}_{slug}.md
// artifact. Transcripts that are missing or unreadable are skipped.
func explorationArtifacts(transcripts []SubagentTranscript) []artifact {
	var artifacts []artifact

	for _, t := range transcripts {
		if !t.IsExploration() || t.Path == "" {
			continue
		}

		entries, err := entry.ReadEntries(t.Path)
		if err != nil {
			log.Debug().Err(err).Str("agentId", t.AgentID).Msg("unreadable subagent transcript, skipping")
			continue
		}

		final := finalAssistantText(entries)
		if final == "" {
			continue
		}

		name := fmt.Sprintf("explore_%s_%s.md", t.AgentID, Slugify(t.Description))
		content := fmt.Sprintf("# Exploration: %s\n\n%s\n", t.Description, final)
		artifacts = append(artifacts, artifact{Name: name, Content: content})
	}

	return artifacts
}

func finalAssistantText(entries []entry.Entry) string {
	for i := len(entries) - 1; i >= 0; i-- {
		if am, ok := entries[i].(*entry.AssistantMessage); ok && strings.TrimSpace(am.Text) != "" {
			return strings.TrimSpace(am.Text)
		}
	}
	return ""
}

// searchGroup collects the query, results and synthesis entries of one web
// search exchange.
type searchGroup struct {
	Query       string
	ResultCount int
	URLs        []string
	Results     []string
	Synthesis   string
}

// searchArtifacts groups web_search entries into query+results+synthesis
// exchanges and renders one search_{slug}.md artifact per distinct query.
// Repeated identical queries within the session dedupe first-occurrence-wins;
// distinct queries whose slugs collide get a short query-hash disambiguator.
func searchArtifacts(entries []entry.Entry) []artifact {
	var groups []*searchGroup
	var current *searchGroup
	seenQueries := make(map[string]bool)

	for _, e := range entries {
		ws, ok := e.(*entry.WebSearch)
		if !ok {
			continue
		}

		switch ws.SearchType {
		case "query":
			if ws.SearchQuery == "" {
				current = nil
				continue
			}
			if seenQueries[ws.SearchQuery] {
				current = nil // duplicate query, first occurrence wins
				continue
			}
			seenQueries[ws.SearchQuery] = true
			current = &searchGroup{Query: ws.SearchQuery}
			groups = append(groups, current)

		case "results":
			if current == nil {
				continue
			}
			if ws.SearchResultCount > 0 {
				current.ResultCount = ws.SearchResultCount
			}
			current.URLs = append(current.URLs, ws.SearchURLs...)
			if ws.Text != "" {
				current.Results = append(current.Results, ws.Text)
			}

		case "synthesis":
			if current == nil {
				continue
			}
			if ws.Text != "" {
				current.Synthesis = ws.Text
			}
		}
	}

	usedNames := make(map[string]bool)
	var artifacts []artifact
	for _, g := range groups {
		name := "search_" + Slugify(g.Query) + ".md"
		if usedNames[name] {
			name = fmt.Sprintf("search_%s_%s.md", Slugify(g.Query), queryHash(g.Query))
		}
		usedNames[name] = true

		artifacts = append(artifacts, artifact{Name: name, Content: renderSearchGroup(g)})
	}
	return artifacts
}

func renderSearchGroup(g *searchGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Web Search: %s\n", g.Query)

	b.WriteString("\n## Results")
	if g.ResultCount > 0 {
		fmt.Fprintf(&b, " (%d)", g.ResultCount)
	}
	b.WriteString("\n\n")
	for _, url := range g.URLs {
		fmt.Fprintf(&b, "- %s\n", url)
	}
	for _, result := range g.Results {
		b.WriteString("\n")
		b.WriteString(result)
		b.WriteString("\n")
	}

	if g.Synthesis != "" {
		b.WriteString("\n## Synthesis\n\n")
		b.WriteString(g.Synthesis)
		b.WriteString("\n")
	}

	return b.String()
}

func queryHash(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])[:8]
}
