package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jacqueshq/jacques/catalog"
	"github.com/jacqueshq/jacques/entry"
	"github.com/jacqueshq/jacques/log"
	"github.com/jacqueshq/jacques/manifest"
	"github.com/jacqueshq/jacques/search"
)

// Store is the global cross-project archive root: content-addressed
// manifest/conversation/plan persistence plus the search index. A single
// local writer is assumed; the store serializes its own mutations.
type Store struct {
	root string
	mu   sync.Mutex
}

// NewStore opens (creating if needed) an archive store at root.
func NewStore(root string) (*Store, error) {
	for _, dir := range []string{root, filepath.Join(root, "manifests"), filepath.Join(root, "conversations"), filepath.Join(root, "plans")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create archive dir: %w", err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the archive root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) manifestPath(id string) string {
	return filepath.Join(s.root, "manifests", id+".json")
}

func (s *Store) conversationPath(id string) string {
	return filepath.Join(s.root, "conversations", id+".jsonl")
}

func (s *Store) planPath(id string) string {
	return filepath.Join(s.root, "plans", id+".md")
}

func (s *Store) plansMetaPath() string {
	return filepath.Join(s.root, "plans.json")
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, "search-index.json")
}

// ArchiveOptions controls one archive call.
type ArchiveOptions struct {
	// SaveToLocal mirrors a manifest pointer into the session's project
	// .jacques directory alongside its catalog.
	SaveToLocal bool
}

// ArchivedPlan identifies a plan newly stored (not merely linked) by one
// archive call.
type ArchivedPlan struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// planMeta is the stored record for one content-addressed plan.
type planMeta struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Sessions []string `json:"sessions,omitempty"`
}

// localPointer is the per-project mirror entry: a pointer at the global
// archive, not a duplicate blob.
type localPointer struct {
	SessionID  string    `json:"sessionId"`
	Title      string    `json:"title"`
	ArchivedAt time.Time `json:"archivedAt"`
	Manifest   string    `json:"manifest"`
}

// ArchiveConversation persists the manifest and full conversation snapshot
// globally keyed by manifest id (wholesale rewrite, so re-archiving is an
// upsert), archives newly detected plans by content hash, updates the search
// index, and optionally mirrors the manifest into the project's local root.
// Returns the plans newly archived in this call.
func (s *Store) ArchiveConversation(entries []entry.Entry, m manifest.ConversationManifest, opts ArchiveOptions) ([]ArchivedPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(s.manifestPath(m.ID), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	if err := s.writeConversation(m.ID, entries); err != nil {
		return nil, err
	}

	newPlans, err := s.archivePlans(m)
	if err != nil {
		return nil, err
	}

	idx := search.Load(s.indexPath())
	idx.Add(m)
	if err := idx.Save(s.indexPath()); err != nil {
		return nil, err
	}

	if opts.SaveToLocal && m.ProjectPath != "" {
		if err := s.mirrorToLocal(m); err != nil {
			// The global archive already succeeded; a broken mirror is
			// logged, not fatal.
			log.Warn().Err(err).Str("sessionId", m.ID).Msg("failed to mirror manifest locally")
		}
	}

	log.Debug().Str("sessionId", m.ID).Int("newPlans", len(newPlans)).Msg("conversation archived")
	return newPlans, nil
}

// writeConversation stores the full entry snapshot as JSONL, preserving the
// original lines via raw passthrough.
func (s *Store) writeConversation(id string, entries []entry.Entry) error {
	file, err := os.Create(s.conversationPath(id))
	if err != nil {
		return fmt.Errorf("failed to create conversation file: %w", err)
	}
	defer file.Close()

	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			continue // one bad entry never loses the snapshot
		}
		if _, err := file.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("failed to write conversation: %w", err)
		}
	}
	return nil
}

// archivePlans stores plans by content hash. Byte-identical content resolves
// to one stored plan id shared by all referencing sessions; only plans first
// stored in this call are returned.
func (s *Store) archivePlans(m manifest.ConversationManifest) ([]ArchivedPlan, error) {
	meta := s.readPlansMeta()
	var newPlans []ArchivedPlan

	record := func(id, title, content string) error {
		existing, ok := meta[id]
		if !ok {
			if err := os.WriteFile(s.planPath(id), []byte(content), 0644); err != nil {
				return fmt.Errorf("failed to write plan: %w", err)
			}
			meta[id] = &planMeta{ID: id, Title: title, Sessions: []string{m.ID}}
			newPlans = append(newPlans, ArchivedPlan{ID: id, Title: title})
			return nil
		}

		for _, sid := range existing.Sessions {
			if sid == m.ID {
				return nil
			}
		}
		existing.Sessions = append(existing.Sessions, m.ID)
		return nil
	}

	for _, plan := range m.Plans {
		content, err := os.ReadFile(plan.Path)
		if err != nil {
			// The plan file may have been moved or deleted since the session;
			// nothing to archive.
			log.Debug().Err(err).Str("path", plan.Path).Msg("plan file unreadable, skipping")
			continue
		}
		id := manifest.PlanID(string(content))
		if err := record(id, plan.Title, string(content)); err != nil {
			return nil, err
		}
	}

	if m.EmbeddedPlan != nil {
		if err := record(m.EmbeddedPlan.ID, m.EmbeddedPlan.Title, m.EmbeddedPlan.Content); err != nil {
			return nil, err
		}
	}

	if err := s.writePlansMeta(meta); err != nil {
		return nil, err
	}
	return newPlans, nil
}

func (s *Store) readPlansMeta() map[string]*planMeta {
	meta := make(map[string]*planMeta)
	data, err := os.ReadFile(s.plansMetaPath())
	if err != nil {
		return meta
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		log.Warn().Err(err).Msg("plans metadata corrupt, starting fresh")
		return make(map[string]*planMeta)
	}
	return meta
}

func (s *Store) writePlansMeta(meta map[string]*planMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plans metadata: %w", err)
	}
	if err := os.WriteFile(s.plansMetaPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write plans metadata: %w", err)
	}
	return nil
}

func (s *Store) mirrorToLocal(m manifest.ConversationManifest) error {
	localDir := filepath.Join(catalog.JacquesDir(m.ProjectPath), "archive")
	if err := os.MkdirAll(localDir, 0755); err != nil {
		return fmt.Errorf("failed to create local archive dir: %w", err)
	}

	pointer := localPointer{
		SessionID:  m.ID,
		Title:      m.Title,
		ArchivedAt: m.ArchivedAt,
		Manifest:   s.manifestPath(m.ID),
	}
	data, err := json.MarshalIndent(pointer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal local pointer: %w", err)
	}
	return os.WriteFile(filepath.Join(localDir, m.ID+".json"), data, 0644)
}

// SearchConversations queries the archive's search index.
func (s *Store) SearchConversations(query string, filters search.Filters) []search.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return search.Load(s.indexPath()).Search(query, filters)
}

// RemoveFromIndex drops a session from the search index, e.g. after its
// archived conversation was deleted by hand.
func (s *Store) RemoveFromIndex(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := search.Load(s.indexPath())
	idx.Remove(sessionID)
	return idx.Save(s.indexPath())
}
