package catalog

import (
	"strings"
	"testing"

	"github.com/jacqueshq/jacques/entry"
)

func webSearch(searchType, query, text string) *entry.WebSearch {
	return &entry.WebSearch{
		Base:        entry.Base{Type: "web_search"},
		SearchType:  searchType,
		SearchQuery: query,
		Text:        text,
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Find all API endpoints & handlers!", "find-all-api-endpoints-handlers"},
		{"  spaced  out  ", "spaced-out"},
		{"already-fine", "already-fine"},
		{"ALLCAPS123", "allcaps123"},
		{"---", ""},
	}

	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSearchArtifacts_GroupsAndRenders(t *testing.T) {
	results := &entry.WebSearch{
		Base:              entry.Base{Type: "web_search"},
		SearchType:        "results",
		SearchResultCount: 2,
		SearchURLs:        []string{"https://example.com/a", "https://example.com/b"},
		Text:              "two relevant hits",
	}
	entries := []entry.Entry{
		webSearch("query", "gin middleware ordering", ""),
		results,
		webSearch("synthesis", "", "middleware runs in registration order"),
	}

	artifacts := searchArtifacts(entries)
	if len(artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(artifacts))
	}

	a := artifacts[0]
	if a.Name != "search_gin-middleware-ordering.md" {
		t.Errorf("unexpected name: %q", a.Name)
	}
	for _, want := range []string{
		"# Web Search: gin middleware ordering",
		"## Results (2)",
		"https://example.com/a",
		"two relevant hits",
		"## Synthesis",
		"middleware runs in registration order",
	} {
		if !strings.Contains(a.Content, want) {
			t.Errorf("content missing %q:\n%s", want, a.Content)
		}
	}
}

func TestSearchArtifacts_DuplicateQueriesDedupe(t *testing.T) {
	entries := []entry.Entry{
		webSearch("query", "redis eviction policies", ""),
		webSearch("synthesis", "", "first answer"),
		webSearch("query", "redis eviction policies", ""),
		webSearch("synthesis", "", "second answer"),
	}

	artifacts := searchArtifacts(entries)
	if len(artifacts) != 1 {
		t.Fatalf("expected 1 artifact for duplicate queries, got %d", len(artifacts))
	}
	if !strings.Contains(artifacts[0].Content, "first answer") {
		t.Error("first occurrence must win")
	}
	if strings.Contains(artifacts[0].Content, "second answer") {
		t.Error("duplicate query must not contribute content")
	}
}

func TestSearchArtifacts_SlugCollisionDisambiguated(t *testing.T) {
	// Distinct queries, identical slugs.
	entries := []entry.Entry{
		webSearch("query", "API design", ""),
		webSearch("query", "api design!", ""),
	}

	artifacts := searchArtifacts(entries)
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}
	if artifacts[0].Name != "search_api-design.md" {
		t.Errorf("first artifact keeps the plain slug: %q", artifacts[0].Name)
	}
	if artifacts[1].Name == artifacts[0].Name {
		t.Error("colliding slug must be disambiguated")
	}
	if !strings.HasPrefix(artifacts[1].Name, "search_api-design_") {
		t.Errorf("expected hash suffix on colliding name: %q", artifacts[1].Name)
	}
}

func TestSearchArtifacts_StrayEntriesIgnored(t *testing.T) {
	entries := []entry.Entry{
		// results and synthesis with no preceding query
		webSearch("results", "", "orphan results"),
		webSearch("synthesis", "", "orphan synthesis"),
		webSearch("query", "", ""), // empty query
	}

	if artifacts := searchArtifacts(entries); len(artifacts) != 0 {
		t.Errorf("expected no artifacts, got %d", len(artifacts))
	}
}

func TestFinalAssistantText(t *testing.T) {
	entries := []entry.Entry{
		&entry.AssistantMessage{Base: entry.Base{Type: "assistant_message"}, Text: "first"},
		&entry.AssistantMessage{Base: entry.Base{Type: "assistant_message"}, Text: "last answer"},
		&entry.AssistantMessage{Base: entry.Base{Type: "assistant_message"}, Text: "   "},
	}

	if got := finalAssistantText(entries); got != "last answer" {
		t.Errorf("expected final non-blank assistant text, got %q", got)
	}
	if got := finalAssistantText(nil); got != "" {
		t.Errorf("expected empty for no entries, got %q", got)
	}
}
