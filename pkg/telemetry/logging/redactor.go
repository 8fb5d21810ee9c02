package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks credentials in log attributes: reasoning-service API keys,
// bearer tokens and passwords embedded in database DSNs.
type Redactor struct {
	patterns      []redactPattern
	sensitiveKeys map[string]bool
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// NewRedactor creates a Redactor with the built-in patterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: []redactPattern{
			{regexp.MustCompile(`sk-[a-zA-Z0-9_-]{8,}`), "sk-***"},
			{regexp.MustCompile(`AIza[0-9A-Za-z_-]{20,}`), "AIza***"},
			{regexp.MustCompile(`(?i)bearer\s+[a-z0-9._-]+`), "Bearer ***"},
			{regexp.MustCompile(`(://[^:/@\s]+:)[^@\s]+@`), "${1}***@"},
		},
		sensitiveKeys: map[string]bool{
			"api_key":  true,
			"apikey":   true,
			"password": true,
			"token":    true,
			"secret":   true,
		},
	}
}

// Redact masks credentials in a string.
func (r *Redactor) Redact(s string) string {
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if r.sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "***")
	}
	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.Redact(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.Redact(err.Error()))
		}
	}
	return a
}
