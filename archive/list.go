package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jacqueshq/jacques/manifest"
	"github.com/jacqueshq/jacques/search"
)

// ListSessions returns all archived manifests, newest first. Unparsable
// manifests are skipped, matching the tolerant listing behavior of the
// catalog side.
func (s *Store) ListSessions() ([]manifest.ConversationManifest, error) {
	dirEntries, err := os.ReadDir(filepath.Join(s.root, "manifests"))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifests dir: %w", err)
	}

	manifests := make([]manifest.ConversationManifest, 0)
	for _, e := range dirEntries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.root, "manifests", e.Name()))
		if err != nil {
			continue
		}

		var m manifest.ConversationManifest
		if err := json.Unmarshal(data, &m); err != nil {
			continue
		}
		manifests = append(manifests, m)
	}

	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].ArchivedAt.After(manifests[j].ArchivedAt)
	})
	return manifests, nil
}

// ListSessionsByProject groups archived manifests by project name.
func (s *Store) ListSessionsByProject() (map[string][]manifest.ConversationManifest, error) {
	manifests, err := s.ListSessions()
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]manifest.ConversationManifest)
	for _, m := range manifests {
		grouped[m.ProjectName] = append(grouped[m.ProjectName], m)
	}
	return grouped, nil
}

// GetManifest loads one archived manifest by session id.
func (s *Store) GetManifest(sessionID string) (*manifest.ConversationManifest, error) {
	data, err := os.ReadFile(s.manifestPath(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to read archived manifest: %w", err)
	}

	var m manifest.ConversationManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse archived manifest: %w", err)
	}
	return &m, nil
}

// ArchiveStats summarizes the archive for dashboards and the stats command.
type ArchiveStats struct {
	Sessions int          `json:"sessions"`
	Projects int          `json:"projects"`
	Plans    int          `json:"plans"`
	Index    search.Stats `json:"index"`
}

// Stats performs a read-only scan of the global root.
func (s *Store) Stats() (ArchiveStats, error) {
	manifests, err := s.ListSessions()
	if err != nil {
		return ArchiveStats{}, err
	}

	projects := make(map[string]bool)
	for _, m := range manifests {
		projects[m.ProjectName] = true
	}

	stats := ArchiveStats{
		Sessions: len(manifests),
		Projects: len(projects),
		Plans:    len(s.readPlansMeta()),
		Index:    search.Load(s.indexPath()).GetStats(),
	}
	return stats, nil
}
