package manifest

import (
	"strings"
	"testing"

	"github.com/jacqueshq/jacques/entry"
)

func userMsg(text string) *entry.UserMessage {
	return &entry.UserMessage{Base: entry.Base{Type: "user_message"}, Text: text}
}

func userMsgAt(text, ts string) *entry.UserMessage {
	return &entry.UserMessage{Base: entry.Base{Type: "user_message", Timestamp: ts}, Text: text}
}

func assistantMsg(text string) *entry.AssistantMessage {
	return &entry.AssistantMessage{Base: entry.Base{Type: "assistant_message"}, Text: text}
}

func toolCall(name string, input map[string]any) *entry.ToolCall {
	return &entry.ToolCall{Base: entry.Base{Type: "tool_call"}, ToolName: name, ToolInput: input}
}

func TestExtract_Basics(t *testing.T) {
	entries := []entry.Entry{
		userMsgAt("Fix the login bug", "2026-01-01T10:00:00Z"),
		assistantMsg("Looking at the auth package now."),
		toolCall("Read", map[string]any{"file_path": "/src/auth/login.go"}),
		toolCall("Edit", map[string]any{"file_path": "/src/auth/login.go"}),
		toolCall("Write", map[string]any{"file_path": "/src/auth/session.go"}),
		&entry.AssistantMessage{
			Base:  entry.Base{Type: "assistant_message", Timestamp: "2026-01-01T10:30:00Z"},
			Text:  "Done, both files updated.",
			Usage: &entry.TokenUsage{InputTokens: 500, OutputTokens: 80},
		},
	}

	m := Extract(entries, "/home/u/projects/webapp", "/logs/sess-1.jsonl", Options{})

	if m.ID != "sess-1" {
		t.Errorf("unexpected id: %q", m.ID)
	}
	if m.ProjectName != "webapp" {
		t.Errorf("unexpected project name: %q", m.ProjectName)
	}
	if m.MessageCount != 3 {
		t.Errorf("expected 3 messages, got %d", m.MessageCount)
	}
	if m.ToolCallCount != 3 {
		t.Errorf("expected 3 tool calls, got %d", m.ToolCallCount)
	}

	// Read is not a write tool; /src/auth/login.go appears once despite the edit.
	wantFiles := []string{"/src/auth/login.go", "/src/auth/session.go"}
	if len(m.FilesModified) != len(wantFiles) {
		t.Fatalf("expected files %v, got %v", wantFiles, m.FilesModified)
	}
	for i, f := range wantFiles {
		if m.FilesModified[i] != f {
			t.Errorf("files[%d]: expected %q, got %q", i, f, m.FilesModified[i])
		}
	}

	wantTools := []string{"Edit", "Read", "Write"}
	if strings.Join(m.ToolsUsed, ",") != strings.Join(wantTools, ",") {
		t.Errorf("expected tools %v, got %v", wantTools, m.ToolsUsed)
	}

	if m.DurationMinutes != 30 {
		t.Errorf("expected 30 minute duration, got %d", m.DurationMinutes)
	}
	if m.TokenStats == nil || m.TokenStats.InputTokens != 500 || m.TokenStats.OutputTokens != 80 {
		t.Errorf("unexpected token stats: %+v", m.TokenStats)
	}
}

func TestExtract_UserQuestionsTruncated(t *testing.T) {
	long := strings.Repeat("x", 300)
	entries := []entry.Entry{
		userMsg(long),
		userMsg("short question"),
	}

	m := Extract(entries, "/p", "/logs/s.jsonl", Options{})

	if len(m.UserQuestions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(m.UserQuestions))
	}
	if got := len([]rune(m.UserQuestions[0])); got != 200 {
		t.Errorf("expected first question truncated to 200 runes, got %d", got)
	}
	if !strings.HasSuffix(m.UserQuestions[0], "...") {
		t.Errorf("truncated question should end in ellipsis: %q", m.UserQuestions[0])
	}
	if m.UserQuestions[1] != "short question" {
		t.Errorf("short question must pass through unchanged: %q", m.UserQuestions[1])
	}
}

func TestExtract_CompactSummaryExcludedFromQuestions(t *testing.T) {
	compact := &entry.UserMessage{
		Base:             entry.Base{Type: "user_message"},
		Text:             "This session is a continuation of earlier work...",
		IsCompactSummary: true,
	}
	entries := []entry.Entry{compact, userMsg("real question here")}

	m := Extract(entries, "/p", "/logs/s.jsonl", Options{})

	if len(m.UserQuestions) != 1 || m.UserQuestions[0] != "real question here" {
		t.Errorf("compact summary must not appear in questions: %v", m.UserQuestions)
	}
	if m.MessageCount != 2 {
		t.Errorf("compact summary still counts as a message, got %d", m.MessageCount)
	}
}

func TestExtract_SnippetsCapped(t *testing.T) {
	var entries []entry.Entry
	for i := 0; i < 8; i++ {
		entries = append(entries, assistantMsg(strings.Repeat("a", 200)))
	}

	m := Extract(entries, "/p", "/logs/s.jsonl", Options{})

	if len(m.ContextSnippets) != 5 {
		t.Fatalf("expected 5 snippets, got %d", len(m.ContextSnippets))
	}
	for i, s := range m.ContextSnippets {
		if got := len([]rune(s)); got != 150 {
			t.Errorf("snippet %d: expected 150 runes, got %d", i, got)
		}
	}
}

func TestExtract_NoUsageLeavesNilStats(t *testing.T) {
	m := Extract([]entry.Entry{userMsg("hi there")}, "/p", "/logs/s.jsonl", Options{})
	if m.TokenStats != nil {
		t.Errorf("expected nil token stats, got %+v", m.TokenStats)
	}
}

func TestExtract_EmptyEntries(t *testing.T) {
	m := Extract(nil, "/p", "/logs/empty.jsonl", Options{})
	if m.ID != "empty" {
		t.Errorf("unexpected id: %q", m.ID)
	}
	if m.MessageCount != 0 || m.ToolCallCount != 0 {
		t.Errorf("expected zero counts, got %d messages, %d tool calls", m.MessageCount, m.ToolCallCount)
	}
	if m.DurationMinutes != 0 {
		t.Errorf("expected zero duration, got %d", m.DurationMinutes)
	}
	if !strings.HasPrefix(m.Title, "Session ") {
		t.Errorf("expected dated fallback title, got %q", m.Title)
	}
}

func TestExtract_UnparseableTimestampsIgnored(t *testing.T) {
	entries := []entry.Entry{
		userMsgAt("first", "not-a-timestamp"),
		userMsgAt("second", "2026-01-01T10:00:00Z"),
		userMsgAt("third", "2026-01-01T10:10:00Z"),
	}

	m := Extract(entries, "/p", "/logs/s.jsonl", Options{})
	if m.DurationMinutes != 10 {
		t.Errorf("expected 10 minute duration, got %d", m.DurationMinutes)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("short string must pass through: %q", got)
	}
	if got := truncate("hello world", 8); got != "hello..." {
		t.Errorf("unexpected truncation: %q", got)
	}
	if got := truncate("héllo wörld désu", 10); len([]rune(got)) != 10 {
		t.Errorf("rune-safe truncation failed: %q", got)
	}
}

func TestDetectTechnologies(t *testing.T) {
	texts := []string{"we should add a Dockerfile and wire up PostgreSQL"}
	paths := []string{"/src/handlers/auth.go", "/src/web/app.tsx"}

	tags := detectTechnologies(texts, paths)

	want := map[string]bool{"go": true, "docker": true, "postgres": true}
	for _, tag := range tags {
		delete(want, tag)
	}
	if len(want) != 0 {
		t.Errorf("missing expected tags %v in %v", want, tags)
	}

	for i := 1; i < len(tags); i++ {
		if tags[i] == tags[i-1] {
			t.Errorf("duplicate tag %q", tags[i])
		}
	}
}

func TestDetectTechnologies_DockerVariants(t *testing.T) {
	for _, text := range []string{"run it in docker", "write a Dockerfile", "tweak docker-compose.yml"} {
		tags := detectTechnologies([]string{text}, nil)
		found := false
		for _, tag := range tags {
			if tag == "docker" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected docker tag for %q, got %v", text, tags)
		}
	}
}
