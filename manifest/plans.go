package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jacqueshq/jacques/entry"
)

// PlanID derives a stable plan id from content identity. Byte-identical
// content always yields the same id, so sessions referencing the same plan
// share it.
func PlanID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:12]
}

// isPlanPath reports whether a write targets a plan document: under the
// configured plans directory, inside any "plans/" segment, or a markdown
// file with "plan" in its path.
func isPlanPath(path, plansDir string) bool {
	if path == "" {
		return false
	}

	if plansDir != "" {
		if rel, err := filepath.Rel(plansDir, path); err == nil && !strings.HasPrefix(rel, "..") {
			return true
		}
	}

	normalized := strings.ToLower(filepath.ToSlash(path))
	if strings.Contains(normalized, "plans/") {
		return true
	}
	return strings.Contains(normalized, "plan") && strings.HasSuffix(normalized, ".md")
}

// detectPlans collects plan writes from the entry sequence, deduplicated by
// absolute path (first write wins; later writes to the same path are the
// same plan evolving).
func detectPlans(entries []entry.Entry, plansDir string) []PlanReference {
	seen := make(map[string]bool)
	var plans []PlanReference

	for _, e := range entries {
		tc, ok := e.(*entry.ToolCall)
		if !ok || !writeTools[tc.ToolName] {
			continue
		}

		path := tc.FilePath()
		if !isPlanPath(path, plansDir) {
			continue
		}

		abs := path
		if !filepath.IsAbs(abs) {
			abs, _ = filepath.Abs(path)
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true

		content := tc.InputString("content")
		identity := content
		if identity == "" {
			// Edit-style calls carry no full content; fall back to path identity.
			identity = abs
		}

		title := firstTopHeading(content)
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}

		plans = append(plans, PlanReference{
			ID:    PlanID(identity),
			Title: title,
			Path:  abs,
		})
	}

	return plans
}

// embeddedPlanPrefixes are the known "here is a plan, implement it"
// boilerplate openers. Matching is case-insensitive and best-effort:
// differently phrased prompts simply yield no embedded plan.
var embeddedPlanPrefixes = []string{
	"implement the following plan",
	"please implement the following plan",
	"implement this plan",
	"implement the plan below",
	"execute the following plan",
}

// DetectEmbeddedPlan examines only the first user message. The remainder
// after the boilerplate prefix must look plan-shaped (a top-level heading
// up front, or a nested heading somewhere) or the candidate is rejected.
func DetectEmbeddedPlan(entries []entry.Entry) *EmbeddedPlan {
	um := firstUserMessage(entries)
	if um == nil {
		return nil
	}

	text := strings.TrimSpace(um.Text)
	lower := strings.ToLower(text)

	var rest string
	matched := false
	for _, prefix := range embeddedPlanPrefixes {
		if strings.HasPrefix(lower, prefix) {
			rest = strings.TrimSpace(text[len(prefix):])
			rest = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
			matched = true
			break
		}
	}
	if !matched || rest == "" {
		return nil
	}

	if !strings.HasPrefix(rest, "# ") && !strings.Contains(rest, "\n## ") {
		return nil
	}

	title := firstTopHeading(rest)
	if title == "" {
		title = "Embedded Plan"
	}

	return &EmbeddedPlan{
		ID:      PlanID(rest),
		Title:   title,
		Content: rest,
	}
}

// ReplaceEmbeddedPlan returns a copy of the entries with the embedded plan
// text in the first user message replaced by a short reference string, so a
// conversation view need not repeat the full plan. The input slice is never
// mutated. No-op copy when plan is nil or no user message exists.
func ReplaceEmbeddedPlan(entries []entry.Entry, plan *EmbeddedPlan) []entry.Entry {
	out := make([]entry.Entry, len(entries))
	copy(out, entries)
	if plan == nil {
		return out
	}

	for i, e := range out {
		um, ok := e.(*entry.UserMessage)
		if !ok {
			continue
		}
		replaced := *um
		replaced.Text = fmt.Sprintf("[Embedded plan: %s (%s)]", plan.Title, plan.ID)
		replaced.Raw = nil // force re-serialization with the replaced text
		out[i] = &replaced
		break
	}

	return out
}

func firstUserMessage(entries []entry.Entry) *entry.UserMessage {
	for _, e := range entries {
		if um, ok := e.(*entry.UserMessage); ok {
			return um
		}
	}
	return nil
}
