package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobscout/internal/clock"
	"jobscout/internal/logging"
)

type call struct {
	Model string
}

// fakeGenerator answers from GenerateFn and records every call
type fakeGenerator struct {
	mu         sync.Mutex
	calls      []call
	GenerateFn func(model string, n int) (string, error)
}

func (g *fakeGenerator) Generate(_ context.Context, model, _, _ string) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, call{Model: model})
	n := 0
	for _, c := range g.calls {
		if c.Model == model {
			n++
		}
	}
	g.mu.Unlock()
	return g.GenerateFn(model, n)
}

func (g *fakeGenerator) modelsCalled() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []string
	for _, c := range g.calls {
		out = append(out, c.Model)
	}
	return out
}

type noopLimiter struct{ acquired int }

func (l *noopLimiter) Acquire(ctx context.Context) error {
	l.acquired++
	return ctx.Err()
}

var hierarchy = []ModelDescriptor{
	{Name: "primary", Description: "fast"},
	{Name: "fallback", Description: "reliable"},
	{Name: "emergency", Description: "stable"},
}

const selectorsJSON = `{"job_item":"li.job","title":"h3"}`

func newTestClient(gen Generator, clk *clock.Fake, limiter Limiter) *FallbackClient {
	return NewFallbackClient(gen, ClientConfig{
		Models:     hierarchy,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		Cooldown:   5 * time.Minute,
		Limiter:    limiter,
		Cooldowns:  NewCooldownTracker(clk),
		Clock:      clk,
		Logger:     logging.NewMultiLogger(),
	})
}

func TestResolveQuotaSwitchesImmediately(t *testing.T) {
	clk := clock.NewFake(epoch)
	gen := &fakeGenerator{GenerateFn: func(model string, _ int) (string, error) {
		if model == "primary" {
			return "", &APIError{StatusCode: 429, Message: "rate_limit_error"}
		}
		return selectorsJSON, nil
	}}
	client := newTestClient(gen, clk, &noopLimiter{})

	res, err := client.Resolve(context.Background(), "prompt", "<html/>")
	require.NoError(t, err)

	assert.Equal(t, "fallback", res.Model)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, "li.job", res.Object["job_item"])
	assert.Equal(t, []string{"primary", "fallback"}, gen.modelsCalled())
	assert.Empty(t, clk.Sleeps(), "no sleep between a quota failure and the next model")
	assert.True(t, client.cooldowns.IsCooled("primary", 5*time.Minute))
}

func TestResolveQuotaWithSharedRateLimiterStaysUnderAMinute(t *testing.T) {
	clk := clock.NewFake(epoch)
	gen := &fakeGenerator{GenerateFn: func(model string, _ int) (string, error) {
		if model == "primary" {
			return "", errors.New("429 Resource has been exhausted (e.g. check quota).")
		}
		return selectorsJSON, nil
	}}
	client := newTestClient(gen, clk, NewRateLimiter(15, time.Second, clk))

	res, err := client.Resolve(context.Background(), "prompt", "")
	require.NoError(t, err)
	assert.Equal(t, "fallback", res.Model)
	assert.Less(t, clk.Slept(), time.Minute)
	// only the limiter's minimum spacing was waited
	assert.Equal(t, []time.Duration{5 * time.Second}, clk.Sleeps())
}

func TestResolveMalformedTwiceThenSuccessStaysOnPrimary(t *testing.T) {
	clk := clock.NewFake(epoch)
	gen := &fakeGenerator{GenerateFn: func(model string, n int) (string, error) {
		if n < 3 {
			return "I could not find a JSON object, sorry", nil
		}
		return "```json\n" + selectorsJSON + "\n```", nil
	}}
	limiter := &noopLimiter{}
	client := newTestClient(gen, clk, limiter)

	res, err := client.Resolve(context.Background(), "prompt", "")
	require.NoError(t, err)

	assert.Equal(t, "primary", res.Model)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, []string{"primary", "primary", "primary"}, gen.modelsCalled())
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, clk.Sleeps())
	assert.Equal(t, 3, limiter.acquired)
	assert.False(t, client.cooldowns.IsCooled("primary", 5*time.Minute))
}

func TestResolveTransientExhaustionAdvancesWithoutCooldown(t *testing.T) {
	clk := clock.NewFake(epoch)
	gen := &fakeGenerator{GenerateFn: func(model string, _ int) (string, error) {
		if model == "primary" {
			return "", &APIError{StatusCode: 503, Message: "overloaded"}
		}
		return selectorsJSON, nil
	}}
	client := newTestClient(gen, clk, &noopLimiter{})

	res, err := client.Resolve(context.Background(), "prompt", "")
	require.NoError(t, err)

	assert.Equal(t, "fallback", res.Model)
	assert.Equal(t, []string{"primary", "primary", "primary", "fallback"}, gen.modelsCalled())
	// retry delays only between attempts on the same model
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, clk.Sleeps())
	assert.False(t, client.cooldowns.IsCooled("primary", 5*time.Minute))
}

func TestResolveAllModelsExhausted(t *testing.T) {
	clk := clock.NewFake(epoch)
	gen := &fakeGenerator{GenerateFn: func(model string, _ int) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	client := newTestClient(gen, clk, &noopLimiter{})

	res, err := client.Resolve(context.Background(), "prompt", "")
	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllModelsExhausted)
	assert.Equal(t, []string{"primary", "fallback", "emergency"}, gen.modelsCalled())

	// every model is now cooled, so a second call makes no requests at all
	_, err = client.Resolve(context.Background(), "prompt", "")
	assert.ErrorIs(t, err, ErrAllModelsExhausted)
	assert.Len(t, gen.modelsCalled(), 3)
}

func TestResolveSkipsCooledModelUntilCooldownElapses(t *testing.T) {
	clk := clock.NewFake(epoch)
	gen := &fakeGenerator{GenerateFn: func(string, int) (string, error) { return selectorsJSON, nil }}
	client := newTestClient(gen, clk, &noopLimiter{})
	client.cooldowns.MarkCooled("primary")

	res, err := client.Resolve(context.Background(), "prompt", "")
	require.NoError(t, err)
	assert.Equal(t, "fallback", res.Model)

	st := client.Status()
	assert.Equal(t, []string{"fallback", "emergency"}, st.AvailableModels)
	require.Len(t, st.CooledModels, 1)
	assert.Equal(t, "primary", st.CooledModels[0].Name)
	assert.Equal(t, 3, st.TotalFallbackOptions)
	assert.Equal(t, 1, st.ModelHierarchy[0].PriorityRank)

	clk.Advance(5 * time.Minute)
	res, err = client.Resolve(context.Background(), "prompt", "")
	require.NoError(t, err)
	assert.Equal(t, "primary", res.Model)
}

func TestResolveStopsOnCancelledContext(t *testing.T) {
	clk := clock.NewFake(epoch)
	ctx, cancel := context.WithCancel(context.Background())
	gen := &fakeGenerator{GenerateFn: func(string, int) (string, error) {
		cancel()
		return "", errors.New("connection reset")
	}}
	client := newTestClient(gen, clk, &noopLimiter{})

	_, err := client.Resolve(ctx, "prompt", "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, gen.modelsCalled(), 1)
}
