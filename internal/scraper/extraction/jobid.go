package extraction

import (
	"regexp"
	"strings"

	"jobscout/internal/scraper"
)

// hrefIDPatterns are tried in order against a link's href
var hrefIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/jobs?/(\w+)`),
	regexp.MustCompile(`/positions?/(\w+)`),
	regexp.MustCompile(`/careers?/(\w+)`),
	regexp.MustCompile(`[?&]id=(\w+)`),
	regexp.MustCompile(`jobId=(\w+)`),
	regexp.MustCompile(`positionId=(\w+)`),
	regexp.MustCompile(`/(\d+)/?$`),
}

// idAttributes are read in order when the href yields nothing
var idAttributes = []string{"data-id", "data-job-id", "data-position-id", "id"}

// ResolveJobID returns the first identifier found on el: an href pattern,
// then an id attribute, then purely numeric text. Nil when none applies.
func ResolveJobID(el scraper.Element) *string {
	if href, ok, err := el.Attribute("href"); err == nil && ok && href != "" {
		if id := JobIDFromURL(href); id != nil {
			return id
		}
	}

	for _, attr := range idAttributes {
		if v, ok, err := el.Attribute(attr); err == nil && ok {
			if v = strings.TrimSpace(v); v != "" {
				return &v
			}
		}
	}

	if text, err := el.Text(); err == nil {
		if text = strings.TrimSpace(text); isDigits(text) {
			return &text
		}
	}
	return nil
}

// JobIDFromURL applies the href patterns alone
func JobIDFromURL(href string) *string {
	for _, pattern := range hrefIDPatterns {
		if m := pattern.FindStringSubmatch(href); m != nil {
			id := m[1]
			return &id
		}
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
