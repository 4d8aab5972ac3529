package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jacqueshq/jacques/entry"
	"github.com/jacqueshq/jacques/manifest"
	"github.com/jacqueshq/jacques/search"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "archive"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func testManifest(id, title string) manifest.ConversationManifest {
	return manifest.ConversationManifest{
		ID:          id,
		Title:       title,
		ProjectName: "webapp",
		ProjectPath: "/home/u/webapp",
		ArchivedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func testEntries() []entry.Entry {
	return []entry.Entry{
		&entry.UserMessage{Base: entry.Base{Type: "user_message", UUID: "u1"}, Text: "hello"},
		&entry.AssistantMessage{Base: entry.Base{Type: "assistant_message", UUID: "a1"}, Text: "hi"},
	}
}

func TestNewStore_CreatesLayout(t *testing.T) {
	store := newTestStore(t)

	for _, sub := range []string{"manifests", "conversations", "plans"} {
		if _, err := os.Stat(filepath.Join(store.Root(), sub)); err != nil {
			t.Errorf("expected %s dir: %v", sub, err)
		}
	}
}

func TestArchiveConversation_PersistsAndIndexes(t *testing.T) {
	store := newTestStore(t)
	m := testManifest("sess-1", "JWT authentication best practices")

	newPlans, err := store.ArchiveConversation(testEntries(), m, ArchiveOptions{})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if len(newPlans) != 0 {
		t.Errorf("no plans expected, got %v", newPlans)
	}

	got, err := store.GetManifest("sess-1")
	if err != nil {
		t.Fatalf("GetManifest: %v", err)
	}
	if got.Title != m.Title {
		t.Errorf("manifest round trip lost title: %q", got.Title)
	}

	convo, err := os.ReadFile(filepath.Join(store.Root(), "conversations", "sess-1.jsonl"))
	if err != nil {
		t.Fatalf("conversation not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(convo)), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 conversation lines, got %d", len(lines))
	}

	results := store.SearchConversations("jwt", search.Filters{})
	if len(results) != 1 || results[0].SessionID != "sess-1" {
		t.Errorf("archived session must be searchable: %+v", results)
	}
}

func TestArchiveConversation_ReArchiveIsUpsert(t *testing.T) {
	store := newTestStore(t)

	m := testManifest("sess-1", "first title")
	if _, err := store.ArchiveConversation(testEntries(), m, ArchiveOptions{}); err != nil {
		t.Fatal(err)
	}

	m.Title = "second title"
	if _, err := store.ArchiveConversation(testEntries(), m, ArchiveOptions{}); err != nil {
		t.Fatal(err)
	}

	sessions, err := store.ListSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Fatalf("re-archiving must not duplicate, got %d sessions", len(sessions))
	}
	if sessions[0].Title != "second title" {
		t.Errorf("re-archive must replace the manifest: %q", sessions[0].Title)
	}

	if results := store.SearchConversations("first", search.Filters{}); len(results) != 0 {
		t.Errorf("stale title must not match after re-archive: %+v", results)
	}
}

func TestArchiveConversation_PlanContentDedup(t *testing.T) {
	store := newTestStore(t)

	planContent := "# Shared Plan\n\n## Steps\ndo the thing\n"
	planFile := filepath.Join(t.TempDir(), "shared-plan.md")
	if err := os.WriteFile(planFile, []byte(planContent), 0o644); err != nil {
		t.Fatal(err)
	}
	planID := manifest.PlanID(planContent)

	ref := manifest.PlanReference{ID: planID, Title: "Shared Plan", Path: planFile}

	m1 := testManifest("sess-1", "first session")
	m1.Plans = []manifest.PlanReference{ref}
	newPlans, err := store.ArchiveConversation(testEntries(), m1, ArchiveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(newPlans) != 1 || newPlans[0].ID != planID {
		t.Fatalf("first archive must store the plan: %+v", newPlans)
	}

	m2 := testManifest("sess-2", "second session")
	m2.Plans = []manifest.PlanReference{ref}
	newPlans, err = store.ArchiveConversation(testEntries(), m2, ArchiveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(newPlans) != 0 {
		t.Errorf("identical content must not archive twice: %+v", newPlans)
	}

	// One stored blob, referenced by both sessions.
	planDir, err := os.ReadDir(filepath.Join(store.Root(), "plans"))
	if err != nil {
		t.Fatal(err)
	}
	if len(planDir) != 1 {
		t.Fatalf("expected 1 stored plan file, got %d", len(planDir))
	}

	var meta map[string]struct {
		Sessions []string `json:"sessions"`
	}
	raw, err := os.ReadFile(filepath.Join(store.Root(), "plans.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		t.Fatal(err)
	}
	if got := meta[planID].Sessions; len(got) != 2 {
		t.Errorf("both sessions must reference the plan: %v", got)
	}
}

func TestArchiveConversation_EmbeddedPlanStored(t *testing.T) {
	store := newTestStore(t)

	content := "# Cache Layer\n\n## Phase 1\nadd redis"
	m := testManifest("sess-1", "cache work")
	m.EmbeddedPlan = &manifest.EmbeddedPlan{
		ID:      manifest.PlanID(content),
		Title:   "Cache Layer",
		Content: content,
	}

	newPlans, err := store.ArchiveConversation(testEntries(), m, ArchiveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(newPlans) != 1 || newPlans[0].Title != "Cache Layer" {
		t.Fatalf("embedded plan must be stored: %+v", newPlans)
	}

	stored, err := os.ReadFile(filepath.Join(store.Root(), "plans", m.EmbeddedPlan.ID+".md"))
	if err != nil {
		t.Fatalf("plan blob missing: %v", err)
	}
	if string(stored) != content {
		t.Errorf("plan content mismatch: %q", stored)
	}
}

func TestArchiveConversation_MissingPlanFileSkipped(t *testing.T) {
	store := newTestStore(t)

	m := testManifest("sess-1", "work")
	m.Plans = []manifest.PlanReference{{ID: "dead", Title: "Gone", Path: "/nowhere/plan.md"}}

	newPlans, err := store.ArchiveConversation(testEntries(), m, ArchiveOptions{})
	if err != nil {
		t.Fatalf("missing plan file must not fail the archive: %v", err)
	}
	if len(newPlans) != 0 {
		t.Errorf("nothing should be stored: %+v", newPlans)
	}
}

func TestArchiveConversation_LocalMirror(t *testing.T) {
	store := newTestStore(t)

	projectDir := t.TempDir()
	m := testManifest("sess-1", "mirrored")
	m.ProjectPath = projectDir

	if _, err := store.ArchiveConversation(testEntries(), m, ArchiveOptions{SaveToLocal: true}); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(projectDir, ".jacques", "archive", "sess-1.json"))
	if err != nil {
		t.Fatalf("local pointer not written: %v", err)
	}

	var pointer struct {
		SessionID string `json:"sessionId"`
		Manifest  string `json:"manifest"`
	}
	if err := json.Unmarshal(raw, &pointer); err != nil {
		t.Fatal(err)
	}
	if pointer.SessionID != "sess-1" {
		t.Errorf("unexpected pointer session: %q", pointer.SessionID)
	}
	if _, err := os.Stat(pointer.Manifest); err != nil {
		t.Errorf("pointer must reference the global manifest: %v", err)
	}
}

func TestRemoveFromIndex(t *testing.T) {
	store := newTestStore(t)

	m := testManifest("sess-1", "terraform modules")
	if _, err := store.ArchiveConversation(testEntries(), m, ArchiveOptions{}); err != nil {
		t.Fatal(err)
	}

	if err := store.RemoveFromIndex("sess-1"); err != nil {
		t.Fatalf("RemoveFromIndex: %v", err)
	}
	if results := store.SearchConversations("terraform", search.Filters{}); len(results) != 0 {
		t.Errorf("removed session must not match: %+v", results)
	}
}

func TestListSessionsAndStats(t *testing.T) {
	store := newTestStore(t)

	a := testManifest("sess-a", "older")
	a.ArchivedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := testManifest("sess-b", "newer")
	b.ArchivedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	b.ProjectName = "infra"

	for _, m := range []manifest.ConversationManifest{a, b} {
		if _, err := store.ArchiveConversation(testEntries(), m, ArchiveOptions{}); err != nil {
			t.Fatal(err)
		}
	}

	sessions, err := store.ListSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 || sessions[0].ID != "sess-b" {
		t.Errorf("expected newest first: %+v", sessions)
	}

	grouped, err := store.ListSessionsByProject()
	if err != nil {
		t.Fatal(err)
	}
	if len(grouped["webapp"]) != 1 || len(grouped["infra"]) != 1 {
		t.Errorf("unexpected grouping: %v", grouped)
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Sessions != 2 || stats.Projects != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.Index.Sessions != 2 {
		t.Errorf("index stats must cover both sessions: %+v", stats.Index)
	}
}

func TestGetManifest_Missing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetManifest("nope"); err == nil {
		t.Error("expected error for missing manifest")
	}
}
