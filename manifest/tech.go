package manifest

import (
	"regexp"
	"strings"
)

// techRule maps a detection pattern to a technology tag. The table is
// ordered and fixed; a tag is present iff its pattern matches anywhere in
// the session's concatenated text plus modified file paths. No scoring.
type techRule struct {
	pattern *regexp.Regexp
	tag     string
}

var techRules = []techRule{
	{regexp.MustCompile(`(?i)\btypescript\b|\.tsx?\b`), "typescript"},
	{regexp.MustCompile(`(?i)\bjavascript\b|\.jsx?\b`), "javascript"},
	{regexp.MustCompile(`(?i)\breact\b`), "react"},
	{regexp.MustCompile(`(?i)\bnext\.?js\b`), "nextjs"},
	{regexp.MustCompile(`(?i)\bvue\b`), "vue"},
	{regexp.MustCompile(`(?i)\bsvelte\b`), "svelte"},
	{regexp.MustCompile(`(?i)\bgolang\b|\.go\b`), "go"},
	{regexp.MustCompile(`(?i)\bpython\b|\.py\b`), "python"},
	{regexp.MustCompile(`(?i)\brust\b|\.rs\b`), "rust"},
	{regexp.MustCompile(`(?i)\bjava\b`), "java"},
	{regexp.MustCompile(`(?i)\bkotlin\b`), "kotlin"},
	{regexp.MustCompile(`(?i)\bswift\b`), "swift"},
	{regexp.MustCompile(`(?i)\bdocker(file)?\b`), "docker"},
	{regexp.MustCompile(`(?i)\bkubernetes\b|\bk8s\b`), "kubernetes"},
	{regexp.MustCompile(`(?i)\bterraform\b`), "terraform"},
	{regexp.MustCompile(`(?i)\bpostgres(?:ql)?\b`), "postgres"},
	{regexp.MustCompile(`(?i)\bmysql\b`), "mysql"},
	{regexp.MustCompile(`(?i)\bsqlite\b`), "sqlite"},
	{regexp.MustCompile(`(?i)\bredis\b`), "redis"},
	{regexp.MustCompile(`(?i)\bgraphql\b`), "graphql"},
	{regexp.MustCompile(`(?i)\bgrpc\b`), "grpc"},
	{regexp.MustCompile(`(?i)\btailwind\b`), "tailwind"},
	{regexp.MustCompile(`(?i)\bwebpack\b`), "webpack"},
	{regexp.MustCompile(`(?i)\bvite\b`), "vite"},
	{regexp.MustCompile(`(?i)\bjwt\b|\boauth\b`), "auth"},
	{regexp.MustCompile(`(?i)\baws\b|\bs3\b|\blambda\b`), "aws"},
}

// detectTechnologies runs the rule table over all textual content plus the
// modified file paths. Set semantics: each tag appears at most once, in
// table order.
func detectTechnologies(textParts, paths []string) []string {
	var haystack strings.Builder
	for _, part := range textParts {
		haystack.WriteString(part)
		haystack.WriteByte('\n')
	}
	for _, path := range paths {
		haystack.WriteString(path)
		haystack.WriteByte('\n')
	}

	content := haystack.String()
	if content == "" {
		return nil
	}

	var tags []string
	for _, rule := range techRules {
		if rule.pattern.MatchString(content) {
			tags = append(tags, rule.tag)
		}
	}
	return tags
}
