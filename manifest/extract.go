package manifest

import (
	"math"
	"path/filepath"
	"sort"
	"time"

	"github.com/jacqueshq/jacques/entry"
)

const (
	maxUserQuestionLen = 200
	maxSnippets        = 5
	maxSnippetLen      = 150
)

// writeTools are tool names whose invocations modify files. Read-only tools
// (Read, Grep, Glob, ...) never contribute to FilesModified.
var writeTools = map[string]bool{
	"Write":        true,
	"Edit":         true,
	"MultiEdit":    true,
	"NotebookEdit": true,
}

// Options carries caller-provided manifest fields.
type Options struct {
	UserLabel    string
	AutoArchived bool

	// PlansDir is the user's configured plans directory; paths under it are
	// treated as plan writes. Empty means only the generic plan-path rules apply.
	PlansDir string
}

// Extract builds a ConversationManifest from an entry sequence. It never
// fails: malformed or absent fields simply contribute nothing to the
// affected derived field. Deterministic given identical input, except for
// ArchivedAt which is stamped from the wall clock.
func Extract(entries []entry.Entry, projectPath, sourcePath string, opts Options) ConversationManifest {
	m := ConversationManifest{
		ID:           entry.SessionIDFromPath(sourcePath),
		ProjectPath:  projectPath,
		ProjectName:  filepath.Base(projectPath),
		SourcePath:   sourcePath,
		UserLabel:    opts.UserLabel,
		AutoArchived: opts.AutoArchived,
		ArchivedAt:   time.Now().UTC(),
	}

	files := make(map[string]bool)
	tools := make(map[string]bool)
	var textParts []string
	var usage TokenStats
	hasUsage := false

	for _, e := range entries {
		switch v := e.(type) {
		case *entry.UserMessage:
			m.MessageCount++
			if v.Text != "" {
				textParts = append(textParts, v.Text)
				if !v.IsCompactSummary {
					m.UserQuestions = append(m.UserQuestions, truncate(v.Text, maxUserQuestionLen))
				}
			}

		case *entry.AssistantMessage:
			m.MessageCount++
			if v.Text != "" {
				textParts = append(textParts, v.Text)
				if len(m.ContextSnippets) < maxSnippets {
					m.ContextSnippets = append(m.ContextSnippets, truncate(v.Text, maxSnippetLen))
				}
			}
			if v.Usage != nil {
				hasUsage = true
				usage.InputTokens += v.Usage.InputTokens
				usage.OutputTokens += v.Usage.OutputTokens
				usage.CacheCreation += v.Usage.CacheCreation
				usage.CacheRead += v.Usage.CacheRead
			}

		case *entry.ToolCall:
			m.ToolCallCount++
			if v.ToolName != "" {
				tools[v.ToolName] = true
			}
			if writeTools[v.ToolName] {
				if path := v.FilePath(); path != "" {
					files[path] = true
				}
			}

		case *entry.WebSearch:
			if v.SearchQuery != "" {
				textParts = append(textParts, v.SearchQuery)
			}
			if v.Text != "" {
				textParts = append(textParts, v.Text)
			}
		}
	}

	m.FilesModified = sortedKeys(files)
	m.ToolsUsed = sortedKeys(tools)
	if hasUsage {
		m.TokenStats = &usage
	}

	m.StartedAt, m.EndedAt, m.DurationMinutes = timeRange(entries)
	m.Plans = detectPlans(entries, opts.PlansDir)
	m.EmbeddedPlan = DetectEmbeddedPlan(entries)
	m.Technologies = detectTechnologies(textParts, m.FilesModified)
	m.Title = resolveTitle(entries, opts.PlansDir, m.StartedAt)

	return m
}

// timeRange computes the session's time span in whole rounded minutes.
// Entries without parseable timestamps are excluded; if none parse, the
// range collapses to now with zero duration.
func timeRange(entries []entry.Entry) (start, end time.Time, minutes int) {
	for _, e := range entries {
		ts := e.GetTimestamp()
		if ts == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			continue
		}
		if start.IsZero() || t.Before(start) {
			start = t
		}
		if end.IsZero() || t.After(end) {
			end = t
		}
	}

	if start.IsZero() {
		now := time.Now().UTC()
		return now, now, 0
	}

	return start, end, int(math.Round(end.Sub(start).Minutes()))
}

// truncate limits s to max runes, appending "..." when shortened. The result
// never exceeds max.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
