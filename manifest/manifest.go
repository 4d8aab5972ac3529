package manifest

import "time"

// ConversationManifest is the derived summary record for one session.
// It is a pure function of the input entry sequence; only ArchivedAt varies
// with the wall clock.
type ConversationManifest struct {
	ID          string `json:"id"` // equals the session id derived from the log
	ProjectPath string `json:"projectPath"`
	ProjectName string `json:"projectName"`
	SourcePath  string `json:"sourcePath"`

	Title           string    `json:"title"`
	StartedAt       time.Time `json:"startedAt"`
	EndedAt         time.Time `json:"endedAt"`
	DurationMinutes int       `json:"durationMinutes"`

	UserQuestions   []string        `json:"userQuestions,omitempty"`
	FilesModified   []string        `json:"filesModified,omitempty"`
	ToolsUsed       []string        `json:"toolsUsed,omitempty"`
	Technologies    []string        `json:"technologies,omitempty"`
	Plans           []PlanReference `json:"plans,omitempty"`
	EmbeddedPlan    *EmbeddedPlan   `json:"embeddedPlan,omitempty"`
	ContextSnippets []string        `json:"contextSnippets,omitempty"`

	MessageCount  int         `json:"messageCount"`
	ToolCallCount int         `json:"toolCallCount"`
	TokenStats    *TokenStats `json:"tokenStats,omitempty"`

	UserLabel    string    `json:"userLabel,omitempty"`
	AutoArchived bool      `json:"autoArchived,omitempty"`
	ArchivedAt   time.Time `json:"archivedAt"`
}

// PlanReference points at a plan written to disk during the session.
// ID is derived from content identity, so multiple sessions referencing the
// same plan share one id.
type PlanReference struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// EmbeddedPlan is a plan pasted verbatim into the first user message.
type EmbeddedPlan struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// TokenStats aggregates assistant token usage across the session.
type TokenStats struct {
	InputTokens   int `json:"inputTokens"`
	OutputTokens  int `json:"outputTokens"`
	CacheCreation int `json:"cacheCreation,omitempty"`
	CacheRead     int `json:"cacheRead,omitempty"`
}

// SessionManifest is the catalog variant of a manifest. JSONLModifiedAt
// records the log file's modification time at extraction and drives the
// incremental skip logic.
type SessionManifest struct {
	ConversationManifest
	JSONLModifiedAt time.Time `json:"jsonlModifiedAt"`
	ExtractedAt     time.Time `json:"extractedAt"`
}
