package catalog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jacqueshq/jacques/entry"
)

// SubagentTranscript identifies a sub-agent spawned during a session and
// the location of its own transcript, when one exists on disk.
type SubagentTranscript struct {
	AgentID     string
	AgentType   string
	Description string
	Path        string // empty when no transcript file was found
}

// IsExploration reports whether this sub-agent is a recognized exploration
// agent whose final answer is worth extracting.
func (t SubagentTranscript) IsExploration() bool {
	return strings.Contains(strings.ToLower(t.AgentType), "explore")
}

// SubagentLocator finds sub-agent transcripts associated with a session log.
// The production locator scans the log's own directory; tests substitute
// their own.
type SubagentLocator interface {
	Locate(logPath string, entries []entry.Entry) []SubagentTranscript
}

// dirLocator resolves transcripts as sibling files of the session log,
// trying "{agentId}.jsonl" then "{sessionId}-agent-{agentId}.jsonl".
type dirLocator struct{}

// NewDirLocator returns the default sibling-file locator.
func NewDirLocator() SubagentLocator { return dirLocator{} }

func (dirLocator) Locate(logPath string, entries []entry.Entry) []SubagentTranscript {
	dir := filepath.Dir(logPath)
	sessionID := entry.SessionIDFromPath(logPath)

	seen := make(map[string]bool)
	var transcripts []SubagentTranscript

	for _, e := range entries {
		progress, ok := e.(*entry.AgentProgress)
		if !ok || progress.AgentID == "" || seen[progress.AgentID] {
			continue
		}
		seen[progress.AgentID] = true

		t := SubagentTranscript{
			AgentID:     progress.AgentID,
			AgentType:   progress.AgentType,
			Description: progress.AgentDescription,
		}

		candidates := []string{
			filepath.Join(dir, progress.AgentID+".jsonl"),
			filepath.Join(dir, sessionID+"-agent-"+progress.AgentID+".jsonl"),
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				t.Path = candidate
				break
			}
		}

		transcripts = append(transcripts, t)
	}

	return transcripts
}
