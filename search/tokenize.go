package search

import (
	"path/filepath"
	"strings"
	"unicode"
)

// minTokenLen drops single-character noise. No stemming is applied: queries
// must use the same word forms as the indexed text.
const minTokenLen = 2

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"to": true, "of": true, "in": true, "on": true, "for": true,
	"with": true, "is": true, "it": true, "this": true, "that": true,
	"be": true, "as": true, "at": true, "by": true, "from": true,
}

// Tokenize lower-cases text and splits it on non-alphanumeric boundaries,
// dropping short tokens and stop words.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tokens []string
	for _, f := range fields {
		if len(f) < minTokenLen || stopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// ExtractPathKeywords splits a file path into segment tokens plus the
// filename stem, so "internal/auth/jwt_token.go" is findable via "auth",
// "jwt" or "token".
func ExtractPathKeywords(path string) []string {
	if path == "" {
		return nil
	}

	normalized := filepath.ToSlash(path)
	var tokens []string

	for _, segment := range strings.Split(normalized, "/") {
		tokens = append(tokens, Tokenize(segment)...)
	}

	base := filepath.Base(normalized)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	tokens = append(tokens, Tokenize(stem)...)

	return dedupe(tokens)
}

func dedupe(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
