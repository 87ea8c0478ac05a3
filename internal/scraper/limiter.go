package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
)

// ErrCircuitOpen is returned while a host is failing repeatedly
var ErrCircuitOpen = errors.New("circuit breaker open for host")

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (cs CircuitState) String() string {
	switch cs {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

type hostState struct {
	limiter      *rate.Limiter
	requests     int64
	failureCount int
	lastFailTime time.Time
	state        CircuitState
}

// HostLimiter spaces page loads per host with a token bucket and stops
// hitting a host after consecutive failures until a reset timeout passes
type HostLimiter struct {
	limit        rate.Limit
	burst        int
	maxFailures  int
	resetTimeout time.Duration
	hosts        map[string]*hostState
	mu           sync.Mutex
	logger       types.Logger
}

// NewHostLimiter creates a limiter allowing perSecond loads per host. A
// non-positive rate disables spacing but keeps the circuit breaker.
func NewHostLimiter(perSecond float64, burst int) *HostLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		limit:        limit,
		burst:        burst,
		maxFailures:  5,
		resetTimeout: 30 * time.Second,
		hosts:        make(map[string]*hostState),
		logger:       logging.GetGlobalLogger().WithField("component", "host_limiter"),
	}
}

// Wait blocks until a load of rawURL is allowed
func (hl *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	host := HostOf(rawURL)

	hl.mu.Lock()
	st := hl.host(host)
	if st.state == CircuitOpen {
		if time.Since(st.lastFailTime) <= hl.resetTimeout {
			hl.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrCircuitOpen, host)
		}
		st.state = CircuitHalfOpen
		hl.logger.Info("Circuit breaker transitioned to half-open", map[string]interface{}{"host": host})
	}
	limiter := st.limiter
	st.requests++
	hl.mu.Unlock()

	return limiter.Wait(ctx)
}

// RecordSuccess closes a half-open circuit
func (hl *HostLimiter) RecordSuccess(rawURL string) {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	st := hl.host(HostOf(rawURL))
	if st.state != CircuitClosed {
		hl.logger.Info("Circuit breaker closed after successful request", map[string]interface{}{"host": HostOf(rawURL)})
	}
	st.state = CircuitClosed
	st.failureCount = 0
}

// RecordFailure counts a failed load and opens the circuit at the threshold
func (hl *HostLimiter) RecordFailure(rawURL string, err error) {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	host := HostOf(rawURL)
	st := hl.host(host)
	st.failureCount++
	st.lastFailTime = time.Now()

	if st.state == CircuitHalfOpen || (st.failureCount >= hl.maxFailures && st.state == CircuitClosed) {
		st.state = CircuitOpen
		hl.logger.Warn("Circuit breaker opened due to failures", map[string]interface{}{
			"host":     host,
			"failures": st.failureCount,
			"error":    err.Error(),
		})
	}
}

// State returns the circuit state of the host of rawURL
func (hl *HostLimiter) State(rawURL string) CircuitState {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	if st, ok := hl.hosts[HostOf(rawURL)]; ok {
		return st.state
	}
	return CircuitClosed
}

// host gets or creates the state for a host. Caller holds hl.mu.
func (hl *HostLimiter) host(host string) *hostState {
	if st, ok := hl.hosts[host]; ok {
		return st
	}
	st := &hostState{limiter: rate.NewLimiter(hl.limit, hl.burst)}
	hl.hosts[host] = st
	return st
}

// HostOf extracts the lowercased host of a URL, or "unknown"
func HostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(parsed.Hostname())
}
