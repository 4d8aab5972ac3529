package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jacqueshq/jacques/config"
	"github.com/jacqueshq/jacques/entry"
	"github.com/jacqueshq/jacques/log"
	"github.com/jacqueshq/jacques/manifest"
)

// Service runs catalog extraction. The settings snapshot is taken once at
// construction and passed down explicitly, so a run is deterministic even if
// the settings document changes mid-flight.
type Service struct {
	settings config.UserSettings
	locator  SubagentLocator

	// Index read-modify-write is serialized per project root. The embedding
	// host may parallelize session extraction freely.
	mu        sync.Mutex
	rootLocks map[string]*sync.Mutex
}

// NewService creates a catalog service with the default sub-agent locator.
func NewService(settings config.UserSettings) *Service {
	return &Service{
		settings:  settings,
		locator:   NewDirLocator(),
		rootLocks: make(map[string]*sync.Mutex),
	}
}

// SetLocator substitutes the sub-agent transcript locator.
func (s *Service) SetLocator(locator SubagentLocator) { s.locator = locator }

// Options controls one extraction.
type Options struct {
	// Force re-extracts even when the log's modification time is unchanged.
	Force bool
}

// Result reports the outcome of one session extraction. Error is a
// human-readable failure description; when set, the project index and any
// previously stored manifest are untouched.
type Result struct {
	SessionID          string `json:"sessionId"`
	Skipped            bool   `json:"skipped"`
	SubagentsExtracted int    `json:"subagentsExtracted"`
	PlansExtracted     int    `json:"plansExtracted"`
	Error              string `json:"error,omitempty"`
}

// ExtractSessionCatalog extracts the catalog entry for one session log.
//
// The stored manifest's jsonlModifiedAt is compared against the live file's
// modification time; when equal and not forced, the call returns skipped
// with zero side effects. Otherwise the manifest is rebuilt, exploration and
// search artifacts are staged, and artifacts + index upsert + manifest are
// committed, in that order, only if every prior sub-step succeeded.
func (s *Service) ExtractSessionCatalog(logPath, projectDir string, opts Options) Result {
	sessionID := entry.SessionIDFromPath(logPath)
	result := Result{SessionID: sessionID}

	info, err := os.Stat(logPath)
	if err != nil {
		result.Error = fmt.Sprintf("failed to stat session log: %v", err)
		return result
	}
	modTime := info.ModTime().UTC()

	if !opts.Force {
		if existing := readSessionManifest(projectDir, sessionID); existing != nil &&
			existing.JSONLModifiedAt.Equal(modTime) {
			result.Skipped = true
			return result
		}
	}

	entries, err := entry.ReadEntries(logPath)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read session log: %v", err)
		return result
	}

	m := manifest.Extract(entries, projectDir, logPath, manifest.Options{
		PlansDir: s.settings.PlansDir,
	})

	sm := manifest.SessionManifest{
		ConversationManifest: m,
		JSONLModifiedAt:      modTime,
		ExtractedAt:          time.Now().UTC(),
	}

	// Stage artifacts in memory before touching disk.
	transcripts := s.locator.Locate(logPath, entries)
	explorations := explorationArtifacts(transcripts)
	searches := searchArtifacts(entries)

	// Commit phase: artifacts, index, then the manifest. The stored manifest
	// carries the modification time that drives the skip check, so it lands
	// only after everything else succeeded; a failed commit leaves the prior
	// manifest in place and the next run retries.
	sessionsDir := SessionsDir(projectDir)
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		result.Error = fmt.Sprintf("failed to create sessions dir: %v", err)
		return result
	}
	for _, a := range append(explorations, searches...) {
		if err := os.WriteFile(filepath.Join(sessionsDir, a.Name), []byte(a.Content), 0644); err != nil {
			result.Error = fmt.Sprintf("failed to write artifact %s: %v", a.Name, err)
			return result
		}
	}

	if err := s.updateIndex(projectDir, &sm, transcripts, explorations); err != nil {
		result.Error = err.Error()
		return result
	}

	if err := writeSessionManifest(projectDir, &sm); err != nil {
		result.Error = err.Error()
		return result
	}

	result.SubagentsExtracted = len(explorations)
	result.PlansExtracted = len(m.Plans)
	if m.EmbeddedPlan != nil {
		result.PlansExtracted++
	}

	log.Debug().
		Str("sessionId", sessionID).
		Int("plans", result.PlansExtracted).
		Int("subagents", result.SubagentsExtracted).
		Msg("session catalog extracted")

	return result
}

// updateIndex upserts Session/Plan/Subagent entries into the shared project
// index under the per-root lock.
func (s *Service) updateIndex(projectDir string, sm *manifest.SessionManifest, transcripts []SubagentTranscript, explorations []artifact) error {
	unlock := s.lockRoot(projectDir)
	defer unlock()

	idx := ReadProjectIndex(projectDir)

	idx.UpsertSession(SessionEntry{
		ID:              sm.ID,
		Title:           sm.Title,
		MessageCount:    sm.MessageCount,
		DurationMinutes: sm.DurationMinutes,
		ExtractedAt:     sm.ExtractedAt,
	})

	for _, plan := range sm.Plans {
		idx.UpsertPlan(PlanEntry{
			ID:         plan.ID,
			Title:      plan.Title,
			Path:       plan.Path,
			SessionIDs: []string{sm.ID},
		})
	}
	if sm.EmbeddedPlan != nil {
		idx.UpsertPlan(PlanEntry{
			ID:         sm.EmbeddedPlan.ID,
			Title:      sm.EmbeddedPlan.Title,
			SessionIDs: []string{sm.ID},
		})
	}

	byAgentID := make(map[string]artifact, len(explorations))
	for _, t := range transcripts {
		name := fmt.Sprintf("explore_%s_%s.md", t.AgentID, Slugify(t.Description))
		for _, a := range explorations {
			if a.Name == name {
				byAgentID[t.AgentID] = a
			}
		}
	}
	for _, t := range transcripts {
		a, ok := byAgentID[t.AgentID]
		if !ok {
			continue
		}
		idx.UpsertSubagent(SubagentEntry{
			ID:          t.AgentID,
			SessionID:   sm.ID,
			Description: t.Description,
			Artifact:    a.Name,
		})
	}

	return WriteProjectIndex(projectDir, idx)
}

func (s *Service) lockRoot(projectDir string) func() {
	s.mu.Lock()
	lock, ok := s.rootLocks[projectDir]
	if !ok {
		lock = &sync.Mutex{}
		s.rootLocks[projectDir] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// readSessionManifest loads a previously stored manifest, or nil when absent
// or unreadable (either way a fresh extraction follows).
func readSessionManifest(projectDir, sessionID string) *manifest.SessionManifest {
	data, err := os.ReadFile(filepath.Join(SessionsDir(projectDir), sessionID+".json"))
	if err != nil {
		return nil
	}

	var sm manifest.SessionManifest
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil
	}
	return &sm
}

func writeSessionManifest(projectDir string, sm *manifest.SessionManifest) error {
	dir := SessionsDir(projectDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create sessions dir: %w", err)
	}

	data, err := json.MarshalIndent(sm, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, sm.ID+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write session manifest: %w", err)
	}
	return nil
}
