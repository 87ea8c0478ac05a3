package resilience

import (
	"sync"
	"time"

	"jobscout/internal/clock"
)

// DefaultCooldown is how long a model stays excluded after a quota signal
const DefaultCooldown = 5 * time.Minute

// CooldownTracker remembers models that recently reported quota exhaustion
type CooldownTracker struct {
	mu    sync.Mutex
	clock clock.Clock
	marks map[string]time.Time
}

func NewCooldownTracker(clk clock.Clock) *CooldownTracker {
	if clk == nil {
		clk = clock.Real()
	}
	return &CooldownTracker{clock: clk, marks: make(map[string]time.Time)}
}

// MarkCooled records now as the model's quota signal time
func (t *CooldownTracker) MarkCooled(model string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.marks[model] = t.clock.Now()
}

// IsCooled reports whether the model was marked less than d ago. Expired
// marks are removed.
func (t *CooldownTracker) IsCooled(model string, d time.Duration) bool {
	return t.Remaining(model, d) > 0
}

// Remaining returns how long the model stays cooled, or 0
func (t *CooldownTracker) Remaining(model string, d time.Duration) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	mark, ok := t.marks[model]
	if !ok {
		return 0
	}
	elapsed := t.clock.Now().Sub(mark)
	if elapsed < d {
		return d - elapsed
	}
	delete(t.marks, model)
	return 0
}

// Clear removes every mark
func (t *CooldownTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.marks = make(map[string]time.Time)
}
