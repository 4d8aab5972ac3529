package search

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jacqueshq/jacques/log"
	"github.com/jacqueshq/jacques/manifest"
)

// Field weight classes. Title matches dominate, path matches are weakest.
const (
	weightTitle      = 3.0
	weightQuestion   = 2.0
	weightSnippet    = 1.5
	weightTechnology = 1.5
	weightPath       = 1.0
)

const indexVersion = 1

// StoredSession holds the per-session fields kept for ranking and preview.
type StoredSession struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ProjectName  string    `json:"projectName"`
	ProjectPath  string    `json:"projectPath"`
	Technologies []string  `json:"technologies,omitempty"`
	Snippet      string    `json:"snippet,omitempty"`
	ArchivedAt   time.Time `json:"archivedAt"`
}

// Index is an inverted index over manifest fields: token -> session id ->
// accumulated field weight. Single-writer; callers parallelizing extraction
// must serialize mutations themselves.
type Index struct {
	Version  int                           `json:"version"`
	Postings map[string]map[string]float64 `json:"postings"`
	Sessions map[string]StoredSession      `json:"sessions"`
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		Version:  indexVersion,
		Postings: make(map[string]map[string]float64),
		Sessions: make(map[string]StoredSession),
	}
}

// Load reads an index file. An absent or corrupt file yields a fresh empty
// index: index damage never blocks archiving, the index is rebuilt as
// sessions are re-archived.
func Load(path string) *Index {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewIndex()
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("search index corrupt, starting fresh")
		return NewIndex()
	}
	if idx.Postings == nil {
		idx.Postings = make(map[string]map[string]float64)
	}
	if idx.Sessions == nil {
		idx.Sessions = make(map[string]StoredSession)
	}
	idx.Version = indexVersion
	return &idx
}

// Save persists the index to path.
func (idx *Index) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create index dir: %w", err)
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal search index: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write search index: %w", err)
	}
	return nil
}

// Add indexes a manifest. Any existing postings for the session id are
// removed first, so updates never leak stale tokens.
func (idx *Index) Add(m manifest.ConversationManifest) {
	idx.Remove(m.ID)

	snippet := ""
	if len(m.ContextSnippets) > 0 {
		snippet = m.ContextSnippets[0]
	}
	idx.Sessions[m.ID] = StoredSession{
		ID:           m.ID,
		Title:        m.Title,
		ProjectName:  m.ProjectName,
		ProjectPath:  m.ProjectPath,
		Technologies: m.Technologies,
		Snippet:      snippet,
		ArchivedAt:   m.ArchivedAt,
	}

	idx.addTokens(m.ID, Tokenize(m.Title), weightTitle)
	for _, q := range m.UserQuestions {
		idx.addTokens(m.ID, Tokenize(q), weightQuestion)
	}
	for _, s := range m.ContextSnippets {
		idx.addTokens(m.ID, Tokenize(s), weightSnippet)
	}
	for _, tech := range m.Technologies {
		idx.addTokens(m.ID, Tokenize(tech), weightTechnology)
	}
	for _, path := range m.FilesModified {
		idx.addTokens(m.ID, ExtractPathKeywords(path), weightPath)
	}
}

// Remove deletes the session from every posting list, pruning tokens left
// empty. Missing ids are a no-op.
func (idx *Index) Remove(sessionID string) {
	for token, postings := range idx.Postings {
		if _, ok := postings[sessionID]; !ok {
			continue
		}
		delete(postings, sessionID)
		if len(postings) == 0 {
			delete(idx.Postings, token)
		}
	}
	delete(idx.Sessions, sessionID)
}

// Stats reports diagnostic counts.
type Stats struct {
	Tokens              int     `json:"tokens"`
	Sessions            int     `json:"sessions"`
	AvgPostingsPerToken float64 `json:"avgPostingsPerToken"`
}

// GetStats returns token/session counts and average postings per token.
func (idx *Index) GetStats() Stats {
	total := 0
	for _, postings := range idx.Postings {
		total += len(postings)
	}

	stats := Stats{
		Tokens:   len(idx.Postings),
		Sessions: len(idx.Sessions),
	}
	if stats.Tokens > 0 {
		stats.AvgPostingsPerToken = float64(total) / float64(stats.Tokens)
	}
	return stats
}

func (idx *Index) addTokens(sessionID string, tokens []string, weight float64) {
	for _, token := range tokens {
		postings, ok := idx.Postings[token]
		if !ok {
			postings = make(map[string]float64)
			idx.Postings[token] = postings
		}
		postings[sessionID] += weight
	}
}
