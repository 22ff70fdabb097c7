package logging

import "regexp"

const redactedPlaceholder = "[REDACTED]"

// Sanitizer redacts credential-shaped strings from log output. Provider
// CLIs occasionally echo keys or tokens into stderr; nothing of that
// shape may reach the log sink.
type Sanitizer struct {
	patterns []*regexp.Regexp
}

// NewSanitizer creates a sanitizer with the default pattern set.
func NewSanitizer() *Sanitizer {
	raw := []string{
		// Anthropic keys (checked before the generic OpenAI prefix)
		`sk-ant-[a-zA-Z0-9-]{40,}`,
		// OpenAI keys
		`sk-[A-Za-z0-9]{20,}`,
		// Google AI keys
		`AIza[a-zA-Z0-9_-]{35}`,
		// GitHub tokens (PAT, OAuth, app)
		`gh[pousr]_[A-Za-z0-9]{36}`,
		// Bearer headers
		`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`,
		// Generic key/secret/token assignments
		`(?i)api[_-]?key["'\s:=]+[a-zA-Z0-9_-]{16,}`,
		`(?i)secret["'\s:=]+[a-zA-Z0-9_-]{16,}`,
		`(?i)token["'\s:=]+[a-zA-Z0-9_-]{16,}`,
		`(?i)password["'\s:=]+[^\s"']{8,}`,
	}

	compiled := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return &Sanitizer{patterns: compiled}
}

// Sanitize redacts every matching substring.
func (s *Sanitizer) Sanitize(input string) string {
	out := input
	for _, p := range s.patterns {
		out = p.ReplaceAllString(out, redactedPlaceholder)
	}
	return out
}

// AddPattern registers an extra redaction pattern.
func (s *Sanitizer) AddPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	s.patterns = append(s.patterns, re)
	return nil
}
