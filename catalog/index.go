package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jacqueshq/jacques/log"
)

// JacquesDirName is the per-project metadata directory.
const JacquesDirName = ".jacques"

const indexVersion = 2

// ProjectIndex is the single mutable per-project document. All four
// collections are id-keyed; no two entries in a collection share an id.
type ProjectIndex struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updatedAt"`

	ContextFiles []ContextFileEntry `json:"contextFiles"`
	Sessions     []SessionEntry     `json:"sessions"`
	Plans        []PlanEntry        `json:"plans"`
	Subagents    []SubagentEntry    `json:"subagents"`
}

// ContextFileEntry records a long-lived context document in the project.
type ContextFileEntry struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Label     string    `json:"label,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionEntry is the index row for one extracted session.
type SessionEntry struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	MessageCount    int       `json:"messageCount"`
	DurationMinutes int       `json:"durationMinutes"`
	ExtractedAt     time.Time `json:"extractedAt"`
}

// PlanEntry is the index row for a detected plan. SessionIDs lists every
// session referencing the plan.
type PlanEntry struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Path       string   `json:"path,omitempty"`
	SessionIDs []string `json:"sessionIds,omitempty"`
}

// SubagentEntry is the index row for an extracted sub-agent artifact.
type SubagentEntry struct {
	ID          string `json:"id"`
	SessionID   string `json:"sessionId"`
	Description string `json:"description,omitempty"`
	Artifact    string `json:"artifact,omitempty"`
}

// NewProjectIndex returns a fresh empty index document.
func NewProjectIndex() *ProjectIndex {
	return &ProjectIndex{
		Version:      indexVersion,
		ContextFiles: []ContextFileEntry{},
		Sessions:     []SessionEntry{},
		Plans:        []PlanEntry{},
		Subagents:    []SubagentEntry{},
	}
}

// JacquesDir returns the metadata directory for a project.
func JacquesDir(projectDir string) string {
	return filepath.Join(projectDir, JacquesDirName)
}

// IndexPath returns the project index location.
func IndexPath(projectDir string) string {
	return filepath.Join(JacquesDir(projectDir), "index.json")
}

// SessionsDir returns where manifests and artifacts live.
func SessionsDir(projectDir string) string {
	return filepath.Join(JacquesDir(projectDir), "sessions")
}

// ReadProjectIndex loads the index document for a project. An absent or
// corrupt document is treated identically to "absent": a fresh default is
// returned so extraction is never blocked by index damage. Documents from
// older schema versions get missing collections synthesized in memory; the
// migrated shape is persisted only on the next write.
func ReadProjectIndex(projectDir string) *ProjectIndex {
	data, err := os.ReadFile(IndexPath(projectDir))
	if err != nil {
		return NewProjectIndex()
	}

	var idx ProjectIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		log.Warn().Err(err).Str("project", projectDir).Msg("project index corrupt, starting fresh")
		return NewProjectIndex()
	}

	// Forward migration: older documents lack newer collections.
	if idx.ContextFiles == nil {
		idx.ContextFiles = []ContextFileEntry{}
	}
	if idx.Sessions == nil {
		idx.Sessions = []SessionEntry{}
	}
	if idx.Plans == nil {
		idx.Plans = []PlanEntry{}
	}
	if idx.Subagents == nil {
		idx.Subagents = []SubagentEntry{}
	}
	idx.Version = indexVersion

	return &idx
}

// WriteProjectIndex persists the index document, stamping UpdatedAt.
func WriteProjectIndex(projectDir string, idx *ProjectIndex) error {
	idx.Version = indexVersion
	idx.UpdatedAt = time.Now().UTC()

	if err := os.MkdirAll(JacquesDir(projectDir), 0755); err != nil {
		return fmt.Errorf("failed to create jacques dir: %w", err)
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project index: %w", err)
	}

	if err := os.WriteFile(IndexPath(projectDir), data, 0644); err != nil {
		return fmt.Errorf("failed to write project index: %w", err)
	}
	return nil
}

// UpsertSession replaces the entry with the same id in place, or appends.
func (idx *ProjectIndex) UpsertSession(e SessionEntry) {
	for i, existing := range idx.Sessions {
		if existing.ID == e.ID {
			idx.Sessions[i] = e
			return
		}
	}
	idx.Sessions = append(idx.Sessions, e)
}

// RemoveSession filters the entry by id; a missing id is a no-op.
func (idx *ProjectIndex) RemoveSession(id string) {
	idx.Sessions = removeByID(idx.Sessions, id, func(e SessionEntry) string { return e.ID })
}

// UpsertPlan replaces by id, merging session references so re-extraction
// never drops other sessions pointing at the same plan.
func (idx *ProjectIndex) UpsertPlan(e PlanEntry) {
	for i, existing := range idx.Plans {
		if existing.ID == e.ID {
			e.SessionIDs = mergeIDs(existing.SessionIDs, e.SessionIDs)
			idx.Plans[i] = e
			return
		}
	}
	idx.Plans = append(idx.Plans, e)
}

// RemovePlan filters the entry by id; a missing id is a no-op.
func (idx *ProjectIndex) RemovePlan(id string) {
	idx.Plans = removeByID(idx.Plans, id, func(e PlanEntry) string { return e.ID })
}

// UpsertSubagent replaces the entry with the same id in place, or appends.
func (idx *ProjectIndex) UpsertSubagent(e SubagentEntry) {
	for i, existing := range idx.Subagents {
		if existing.ID == e.ID {
			idx.Subagents[i] = e
			return
		}
	}
	idx.Subagents = append(idx.Subagents, e)
}

// RemoveSubagent filters the entry by id; a missing id is a no-op.
func (idx *ProjectIndex) RemoveSubagent(id string) {
	idx.Subagents = removeByID(idx.Subagents, id, func(e SubagentEntry) string { return e.ID })
}

// UpsertContextFile replaces the entry with the same id in place, or appends.
func (idx *ProjectIndex) UpsertContextFile(e ContextFileEntry) {
	for i, existing := range idx.ContextFiles {
		if existing.ID == e.ID {
			idx.ContextFiles[i] = e
			return
		}
	}
	idx.ContextFiles = append(idx.ContextFiles, e)
}

// RemoveContextFile filters the entry by id; a missing id is a no-op.
func (idx *ProjectIndex) RemoveContextFile(id string) {
	idx.ContextFiles = removeByID(idx.ContextFiles, id, func(e ContextFileEntry) string { return e.ID })
}

func removeByID[T any](entries []T, id string, idOf func(T) string) []T {
	out := entries[:0]
	for _, e := range entries {
		if idOf(e) != id {
			out = append(out, e)
		}
	}
	return out
}

func mergeIDs(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	merged := make([]string, 0, len(existing)+len(incoming))
	for _, id := range existing {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	for _, id := range incoming {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	return merged
}
