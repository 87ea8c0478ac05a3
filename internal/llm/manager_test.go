package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/clock"
	"jobscout/internal/config"
	"jobscout/internal/llm/resilience"
	"jobscout/internal/logging"
	"jobscout/pkg/models"
)

type fakeProvider struct {
	mu         sync.Mutex
	markups    []string
	prompts    []string
	GenerateFn func(model string) (string, error)
}

func (p *fakeProvider) Generate(_ context.Context, model, prompt, markup string) (string, error) {
	p.mu.Lock()
	p.prompts = append(p.prompts, prompt)
	p.markups = append(p.markups, markup)
	p.mu.Unlock()
	return p.GenerateFn(model)
}

func (p *fakeProvider) IsHealthy(context.Context) error { return nil }

func (p *fakeProvider) Name() string { return "fake" }

func newTestManager(t *testing.T, provider Provider) (*Manager, *clock.Fake) {
	t.Helper()
	cfg := config.Default()
	cfg.LLM.Models = []config.ModelConfig{{Name: "primary"}, {Name: "fallback"}}
	clk := clock.NewFake(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	m, err := NewManager(cfg, WithProvider(provider), WithClock(clk), WithLogger(logging.NewMultiLogger()))
	require.NoError(t, err)
	return m, clk
}

const careersPage = `<html><body><header>menu</header><main><div class="job" data-job-id="7"><a href="/jobs/7">Engineer</a><script>x()</script></div></main></body></html>`

func TestDiscoverListSelectorsSendsNormalizedMarkup(t *testing.T) {
	provider := &fakeProvider{GenerateFn: func(string) (string, error) {
		return `{"job_item":"div.job","title":"a","location":null,"job_link":"a","job_id":"a","description":"","pagination_next":null,"extra":"ignored"}`, nil
	}}
	m, _ := newTestManager(t, provider)

	selectors, err := m.DiscoverListSelectors(context.Background(), careersPage, "https://careers.example.com")
	require.NoError(t, err)

	require.NotNil(t, selectors.JobItem)
	assert.Equal(t, "div.job", *selectors.JobItem)
	assert.Nil(t, selectors.Location)
	assert.Nil(t, selectors.Description)
	assert.Equal(t, 4, selectors.Found())

	require.Len(t, provider.markups, 1)
	assert.True(t, strings.HasPrefix(provider.markups[0], "<main>"))
	assert.NotContains(t, provider.markups[0], "script")
	assert.Contains(t, provider.prompts[0], "pagination_next")
}

func TestDiscoverListSelectorsQuotaFallsBackWithoutMinuteWait(t *testing.T) {
	provider := &fakeProvider{GenerateFn: func(model string) (string, error) {
		if model == "primary" {
			return "", &resilience.APIError{StatusCode: 429, Message: "quota"}
		}
		return `{"job_item":"div.job"}`, nil
	}}
	m, clk := newTestManager(t, provider)

	selectors, err := m.DiscoverListSelectors(context.Background(), careersPage, "https://careers.example.com")
	require.NoError(t, err)
	assert.Equal(t, "div.job", *selectors.JobItem)
	assert.Less(t, clk.Slept(), time.Minute)

	st := m.Status()
	assert.Equal(t, []string{"fallback"}, st.Fallback.AvailableModels)
	assert.Equal(t, 2, st.RequestsInWindow)
	assert.Equal(t, 15, st.RequestsPerMinute)
}

func TestDiscoverDetailSelectorsExhausted(t *testing.T) {
	provider := &fakeProvider{GenerateFn: func(string) (string, error) {
		return "", errors.New("resource exhausted")
	}}
	m, _ := newTestManager(t, provider)

	detail, err := m.DiscoverDetailSelectors(context.Background(), careersPage)
	assert.ErrorIs(t, err, resilience.ErrAllModelsExhausted)
	assert.True(t, detail.Empty())
}

func TestDiscoverRejectsEmptyMarkup(t *testing.T) {
	provider := &fakeProvider{GenerateFn: func(string) (string, error) { return "{}", nil }}
	m, _ := newTestManager(t, provider)

	_, err := m.DiscoverListSelectors(context.Background(), "", "https://x.test")
	assert.ErrorIs(t, err, ErrEmptyMarkup)
	assert.Empty(t, provider.prompts)
}

func TestListPromptSiteHints(t *testing.T) {
	assert.Contains(t, ListPrompt("https://careers.google.com/jobs"), "data-job-id attributes")
	assert.Contains(t, ListPrompt("https://jobs.careers.microsoft.com"), ".ms-List-cell")
	generic := ListPrompt("https://example.com/careers")
	assert.NotContains(t, generic, "SPECIFIC HINTS")
	for _, key := range models.ListSelectorKeys {
		assert.Contains(t, generic, key)
	}
	for _, key := range models.DetailSelectorKeys {
		assert.Contains(t, DetailPrompt(), key)
	}
}
