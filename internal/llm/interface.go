package llm

import (
	"context"

	"jobscout/internal/llm/resilience"
)

// Provider is one AI backend. Generate sends a single prompt plus page
// markup to a named model and returns the raw text answer.
type Provider interface {
	resilience.Generator

	// IsHealthy checks if the provider is configured and reachable
	IsHealthy(ctx context.Context) error

	// Name returns the name of the provider
	Name() string
}
