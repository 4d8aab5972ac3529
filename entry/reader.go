package entry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jacqueshq/jacques/log"
)

// ReadEntries reads a session JSONL file and returns typed entries.
// Each line is parsed into its specific type (UserMessage, ToolCall, etc.)
// All entries preserve raw JSON for passthrough serialization via MarshalJSON().
//
// Malformed lines degrade to Unknown rather than failing the whole read;
// only an unreadable file is an error.
func ReadEntries(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer file.Close()

	var entries []Entry
	reader := bufio.NewReader(file)
	lineNum := 0

	for {
		lineNum++

		// ReadBytes reads until delimiter, no size limit
		lineBytes, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(lineBytes) > 0 {
					if e := parseTypedEntry(lineBytes, lineNum); e != nil {
						entries = append(entries, e)
					}
				}
				break
			}
			return nil, fmt.Errorf("error reading session file: %w", err)
		}

		if e := parseTypedEntry(lineBytes, lineNum); e != nil {
			entries = append(entries, e)
		}
	}

	return entries, nil
}

// SessionIDFromPath derives the session id from a log filename stem,
// e.g. "/x/y/abc123.jsonl" -> "abc123".
func SessionIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseTypedEntry parses a line into the appropriate typed entry struct.
// Returns nil only for empty lines.
func parseTypedEntry(lineBytes []byte, lineNum int) Entry {
	line := strings.TrimSpace(string(lineBytes))
	if line == "" {
		return nil
	}

	// Copy for the Raw field - used for serialization
	rawCopy := make([]byte, len(line))
	copy(rawCopy, line)

	// Extract type to determine which struct to use
	var typeOnly struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(line), &typeOnly); err != nil {
		log.Warn().
			Err(err).
			Int("line", lineNum).
			Msg("failed to parse entry type, returning unknown")
		return &Unknown{
			RawJSON: RawJSON{Raw: rawCopy},
		}
	}

	switch typeOnly.Type {
	case "user_message":
		var e UserMessage
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			log.Warn().Err(err).Int("line", lineNum).Str("type", typeOnly.Type).Msg("failed to parse user message")
		}
		e.Raw = rawCopy
		return &e

	case "assistant_message":
		var e AssistantMessage
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			log.Warn().Err(err).Int("line", lineNum).Str("type", typeOnly.Type).Msg("failed to parse assistant message")
		}
		e.Raw = rawCopy
		return &e

	case "tool_call":
		var e ToolCall
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			log.Warn().Err(err).Int("line", lineNum).Str("type", typeOnly.Type).Msg("failed to parse tool call")
		}
		e.Raw = rawCopy
		return &e

	case "agent_progress":
		var e AgentProgress
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			log.Warn().Err(err).Int("line", lineNum).Str("type", typeOnly.Type).Msg("failed to parse agent progress")
		}
		e.Raw = rawCopy
		return &e

	case "web_search":
		var e WebSearch
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			log.Warn().Err(err).Int("line", lineNum).Str("type", typeOnly.Type).Msg("failed to parse web search")
		}
		e.Raw = rawCopy
		return &e

	case "summary":
		var e Summary
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			log.Warn().Err(err).Int("line", lineNum).Str("type", typeOnly.Type).Msg("failed to parse summary")
		}
		e.Raw = rawCopy
		return &e

	default:
		log.Debug().
			Str("type", typeOnly.Type).
			Int("line", lineNum).
			Msg("unknown entry type, returning raw")
		return &Unknown{
			RawJSON: RawJSON{Raw: rawCopy},
			Base:    Base{Type: typeOnly.Type},
		}
	}
}
