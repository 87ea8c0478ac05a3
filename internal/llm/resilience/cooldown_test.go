package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jobscout/internal/clock"
)

func TestCooldownExpiresExactlyAfterDuration(t *testing.T) {
	clk := clock.NewFake(epoch)
	tracker := NewCooldownTracker(clk)

	assert.False(t, tracker.IsCooled("primary", DefaultCooldown))

	tracker.MarkCooled("primary")
	assert.True(t, tracker.IsCooled("primary", DefaultCooldown))
	assert.False(t, tracker.IsCooled("secondary", DefaultCooldown))

	clk.Advance(DefaultCooldown - time.Nanosecond)
	assert.True(t, tracker.IsCooled("primary", DefaultCooldown))
	assert.Equal(t, time.Nanosecond, tracker.Remaining("primary", DefaultCooldown))

	clk.Advance(time.Nanosecond)
	assert.False(t, tracker.IsCooled("primary", DefaultCooldown))
	assert.Empty(t, tracker.marks, "expired mark is removed on check")
}

func TestCooldownRemarkRestartsWindow(t *testing.T) {
	clk := clock.NewFake(epoch)
	tracker := NewCooldownTracker(clk)

	tracker.MarkCooled("m")
	clk.Advance(4 * time.Minute)
	tracker.MarkCooled("m")
	clk.Advance(2 * time.Minute)

	assert.True(t, tracker.IsCooled("m", DefaultCooldown))
}
