package resilience

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
)

// ErrorKind is the retry class of a failed attempt
type ErrorKind int

const (
	KindTransient ErrorKind = iota
	KindQuota
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindQuota:
		return "quota"
	case KindMalformed:
		return "malformed"
	default:
		return "transient"
	}
}

// quotaMarkers are matched against lowercased error text when no status
// code settles the question. "rate" only counts as a whole word and "limit"
// only in phrases, so "generate" and "token limit" stay transient.
var quotaMarkers = []string{
	"rate exceeded",
	"limit reached",
	"throttl",
	"quota",
	"rate limit",
	"rate_limit",
	"ratelimit",
	"rate-limit",
	"limit exceeded",
	"too many requests",
	"resource_exhausted",
	"resource exhausted",
	"exhausted",
	"429",
}

var rateWord = regexp.MustCompile(`\brate\b`)

// Classify decides how the fallback client treats a failed attempt. A 429
// status is authoritative; otherwise the message is scanned for quota
// markers.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindTransient
	}

	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return KindMalformed
	}

	var quota *QuotaExceededError
	if errors.As(err, &quota) {
		return KindQuota
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return KindQuota
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return KindQuota
		}
	}
	if rateWord.MatchString(msg) {
		return KindQuota
	}
	return KindTransient
}
