package entry

import "encoding/json"

// Entry is implemented by all session entry types.
type Entry interface {
	json.Marshaler
	GetType() string
	GetUUID() string
	GetTimestamp() string
	GetSessionID() string
}

// Ensure all types implement Entry
var (
	_ Entry = (*UserMessage)(nil)
	_ Entry = (*AssistantMessage)(nil)
	_ Entry = (*ToolCall)(nil)
	_ Entry = (*AgentProgress)(nil)
	_ Entry = (*WebSearch)(nil)
	_ Entry = (*Summary)(nil)
	_ Entry = (*Unknown)(nil)
)

// RawJSON preserves the original line for passthrough serialization.
type RawJSON struct {
	Raw json.RawMessage `json:"-"`
}

// Base contains fields common to all entry types.
type Base struct {
	Type       string  `json:"type"`
	UUID       string  `json:"uuid"`
	ParentUUID *string `json:"parentUuid"`
	Timestamp  string  `json:"timestamp"`
	SessionID  string  `json:"sessionId,omitempty"`
}

// GetType returns the entry type.
func (b Base) GetType() string { return b.Type }

// GetUUID returns the entry UUID.
func (b Base) GetUUID() string { return b.UUID }

// GetTimestamp returns the entry timestamp (ISO-8601, may be empty).
func (b Base) GetTimestamp() string { return b.Timestamp }

// GetSessionID returns the session the entry belongs to.
func (b Base) GetSessionID() string { return b.SessionID }

// TokenUsage carries per-response token accounting.
type TokenUsage struct {
	InputTokens   int `json:"inputTokens,omitempty"`
	OutputTokens  int `json:"outputTokens,omitempty"`
	CacheCreation int `json:"cacheCreation,omitempty"`
	CacheRead     int `json:"cacheRead,omitempty"`
}

// UserMessage is text typed by the user.
type UserMessage struct {
	RawJSON
	Base
	Text             string `json:"text,omitempty"`
	IsCompactSummary bool   `json:"isCompactSummary,omitempty"`
}

func (m UserMessage) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	type Alias UserMessage
	return json.Marshal(Alias(m))
}

// AssistantMessage is a textual assistant response.
type AssistantMessage struct {
	RawJSON
	Base
	Text  string      `json:"text,omitempty"`
	Usage *TokenUsage `json:"usage,omitempty"`
}

func (m AssistantMessage) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	type Alias AssistantMessage
	return json.Marshal(Alias(m))
}

// ToolCall is a tool invocation made by the assistant.
type ToolCall struct {
	RawJSON
	Base
	ToolName  string         `json:"toolName,omitempty"`
	ToolInput map[string]any `json:"toolInput,omitempty"`
}

func (m ToolCall) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	type Alias ToolCall
	return json.Marshal(Alias(m))
}

// FilePath returns the target path of a write/edit style invocation, or ""
// when the input carries no recognizable path field.
func (m *ToolCall) FilePath() string {
	for _, key := range []string{"file_path", "path", "notebook_path"} {
		if v, ok := m.ToolInput[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// InputString returns a string field from the tool input, or "".
func (m *ToolCall) InputString(key string) string {
	if v, ok := m.ToolInput[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// AgentProgress reports activity of a spawned sub-agent.
type AgentProgress struct {
	RawJSON
	Base
	AgentID          string `json:"agentId,omitempty"`
	AgentType        string `json:"agentType,omitempty"`
	AgentDescription string `json:"agentDescription,omitempty"`
}

func (m AgentProgress) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	type Alias AgentProgress
	return json.Marshal(Alias(m))
}

// WebSearch is one step of a web search exchange. SearchType distinguishes
// "query", "results" and "synthesis" entries belonging to the same search.
type WebSearch struct {
	RawJSON
	Base
	SearchType        string   `json:"searchType,omitempty"`
	SearchQuery       string   `json:"searchQuery,omitempty"`
	SearchResultCount int      `json:"searchResultCount,omitempty"`
	SearchURLs        []string `json:"searchUrls,omitempty"`
	Text              string   `json:"text,omitempty"`
}

func (m WebSearch) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	type Alias WebSearch
	return json.Marshal(Alias(m))
}

// Summary is an auto-generated session summary.
type Summary struct {
	RawJSON
	Base
	Summary string `json:"summary,omitempty"`
}

func (m Summary) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	type Alias Summary
	return json.Marshal(Alias(m))
}

// Unknown preserves entries of types this version does not understand.
type Unknown struct {
	RawJSON
	Base
}

func (m Unknown) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	type Alias Unknown
	return json.Marshal(Alias(m))
}
