package utils

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy  = bluemonday.StrictPolicy()
	inlineSpace   = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankLineRun  = regexp.MustCompile(`\n{3,}`)
	allWhitespace = regexp.MustCompile(`\s+`)
)

// CleanText strips any markup from an extracted value, normalizes
// whitespace while keeping paragraph breaks, and returns nil when nothing
// is left.
func CleanText(s string) *string {
	if s == "" {
		return nil
	}
	if strings.ContainsAny(s, "<>") {
		s = html.UnescapeString(strictPolicy.Sanitize(s))
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = inlineSpace.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = blankLineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// CleanInline is CleanText collapsed onto a single line, used for short
// fields like titles and locations.
func CleanInline(s string) *string {
	v := CleanText(s)
	if v == nil {
		return nil
	}
	flat := allWhitespace.ReplaceAllString(*v, " ")
	return &flat
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// Deref returns the pointed-to string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
