package manifest

import (
	"regexp"
	"strings"
	"time"

	"github.com/jacqueshq/jacques/entry"
)

const (
	maxTitleLen = 100
	minTitleLen = 3
)

// boilerplatePrefixes mark system-injected first messages that make useless
// titles (hook payloads, slash command envelopes, system reminders).
var boilerplatePrefixes = []string{
	"<local-command",
	"<command-name>",
	"<system-",
	"<user-prompt-",
	"[",
}

var (
	markupTagRe   = regexp.MustCompile(`<[^>]*>`)
	headingMarkRe = regexp.MustCompile(`^#{1,6}\s*`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// resolveTitle picks a session title in priority order: explicit summary
// entry, heading of a plan-looking write, cleaned first user message, then
// a dated fallback.
func resolveTitle(entries []entry.Entry, plansDir string, startedAt time.Time) string {
	// 1. Explicit summary entry
	for _, e := range entries {
		if s, ok := e.(*entry.Summary); ok && strings.TrimSpace(s.Summary) != "" {
			return truncate(strings.TrimSpace(s.Summary), maxTitleLen)
		}
	}

	// 2. Heading from a plan-looking write tool call
	for _, e := range entries {
		tc, ok := e.(*entry.ToolCall)
		if !ok || !writeTools[tc.ToolName] {
			continue
		}
		if !isPlanPath(tc.FilePath(), plansDir) {
			continue
		}
		if heading := firstTopHeading(tc.InputString("content")); heading != "" {
			return truncate(heading, maxTitleLen)
		}
	}

	// 3. First user message that cleans to something usable. Boilerplate
	// openers (hook payloads, slash commands) are skipped, not fatal.
	for _, e := range entries {
		um, ok := e.(*entry.UserMessage)
		if !ok || um.IsCompactSummary {
			continue
		}
		if title := cleanTitle(um.Text); title != "" {
			return title
		}
	}

	// 4. Dated fallback
	return "Session " + startedAt.Format("2006-01-02")
}

// cleanTitle turns a raw user message into a usable title. Returns "" when
// the message is boilerplate, and "Untitled Session" when cleaning leaves
// fewer than three characters of real content.
func cleanTitle(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}

	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return ""
		}
	}

	cleaned := headingMarkRe.ReplaceAllString(trimmed, "")
	cleaned = markupTagRe.ReplaceAllString(cleaned, "")
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	if len([]rune(cleaned)) < minTitleLen {
		return "Untitled Session"
	}

	return truncate(cleaned, maxTitleLen)
}

// firstTopHeading returns the text of the first "# " heading in content.
func firstTopHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}
