package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jacqueshq/jacques/archive"
	"github.com/jacqueshq/jacques/catalog"
	"github.com/jacqueshq/jacques/config"
	"github.com/jacqueshq/jacques/manifest"
)

func newTestRouter(t *testing.T) (*gin.Engine, *archive.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := archive.NewStore(filepath.Join(t.TempDir(), "archive"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	h := NewHandlers(&config.Config{}, catalog.NewService(config.UserSettings{}), store)
	r := gin.New()
	SetupRoutes(r, h)
	return r, store
}

func TestSearchEndpoint(t *testing.T) {
	r, store := newTestRouter(t)

	m := manifest.ConversationManifest{
		ID:          "sess-1",
		Title:       "JWT authentication best practices",
		ProjectName: "webapp",
	}
	if _, err := store.ArchiveConversation(nil, m, archive.ArchiveOptions{}); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/search?q=jwt", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp DataResponse[SearchResponse]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.Total != 1 || len(resp.Data.Results) != 1 {
		t.Fatalf("expected 1 result, got %+v", resp.Data)
	}
	if resp.Data.Results[0].SessionID != "sess-1" {
		t.Errorf("unexpected result: %+v", resp.Data.Results[0])
	}
	if resp.Data.Query != "jwt" {
		t.Errorf("response must echo the query: %q", resp.Data.Query)
	}
}

func TestSearchEndpoint_MissingQuery(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/search", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error.Code != ErrCodeBadRequest {
		t.Errorf("unexpected error code: %q", resp.Error.Code)
	}
}

func TestSearchEndpoint_NoMatchesYieldsEmptyArray(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/search?q=nothing", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp DataResponse[SearchResponse]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Results == nil {
		t.Error("results must be an empty array, not null")
	}
	if resp.Data.Total != 0 {
		t.Errorf("expected no results, got %d", resp.Data.Total)
	}
}

func TestGetArchivedManifestEndpoint(t *testing.T) {
	r, store := newTestRouter(t)

	m := manifest.ConversationManifest{ID: "sess-1", Title: "archived work"}
	if _, err := store.ArchiveConversation(nil, m, archive.ArchiveOptions{}); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/archive/sessions/sess-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp DataResponse[manifest.ConversationManifest]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Title != "archived work" {
		t.Errorf("unexpected manifest: %+v", resp.Data)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/archive/sessions/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown session, got %d", w.Code)
	}
}
