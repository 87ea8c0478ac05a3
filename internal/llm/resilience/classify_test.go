package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"status 429", &APIError{StatusCode: 429, Message: "slow down"}, KindQuota},
		{"wrapped status 429", &TransientCallError{Model: "m", Err: &APIError{StatusCode: 429}}, KindQuota},
		{"status 500", &APIError{StatusCode: 500, Message: "internal"}, KindTransient},
		{"quota text", errors.New("Quota exceeded for metric generate_requests"), KindQuota},
		{"resource exhausted", errors.New("rpc error: code = ResourceExhausted desc = RESOURCE_EXHAUSTED"), KindQuota},
		{"rate limit text", fmt.Errorf("call: %w", errors.New("rate limit reached")), KindQuota},
		{"too many requests", errors.New("Too Many Requests"), KindQuota},
		{"rate exceeded", errors.New("Rate exceeded"), KindQuota},
		{"limit reached", errors.New("request limit reached for model"), KindQuota},
		{"bare rate word", errors.New("user rate reached"), KindQuota},
		{"throttled", errors.New("ThrottlingException: slow down"), KindQuota},
		{"generate is not rate", errors.New("failed to generate content"), KindTransient},
		{"token limit is not quota", errors.New("max_tokens limit is too small"), KindTransient},
		{"timeout", context.DeadlineExceeded, KindTransient},
		{"malformed", &MalformedResponseError{Model: "m", Err: errors.New("quota")}, KindMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestParseObject(t *testing.T) {
	obj, err := ParseObject("```json\n{\"job_item\": \"li.job\"}\n```")
	assert.NoError(t, err)
	assert.Equal(t, "li.job", obj["job_item"])

	_, err = ParseObject("   ")
	assert.Error(t, err)

	_, err = ParseObject("[1,2]")
	assert.Error(t, err)

	_, err = ParseObject("null")
	assert.Error(t, err)

	_, err = ParseObject("Sure! Here are the selectors")
	assert.Error(t, err)
}
