package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeSleepAdvancesAndRecords(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)

	assert.NoError(t, f.Sleep(context.Background(), 3*time.Second))
	assert.NoError(t, f.Sleep(context.Background(), 0))
	f.Advance(time.Second)

	assert.Equal(t, start.Add(4*time.Second), f.Now())
	assert.Equal(t, []time.Duration{3 * time.Second}, f.Sleeps())
	assert.Equal(t, 3*time.Second, f.Slept())
}

func TestSleepHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, Real().Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, NewFake(time.Now()).Sleep(ctx, time.Hour), context.Canceled)
}
