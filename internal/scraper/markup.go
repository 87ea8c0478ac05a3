package scraper

import (
	"context"
	"fmt"
	"time"

	"jobscout/internal/clock"
)

// EngineMarkupSource fetches markup by loading the page in an engine
// session and waiting a fixed settle period for client-side rendering
type EngineMarkupSource struct {
	Engine     Engine
	SettleWait time.Duration
	Clock      clock.Clock
}

func (s *EngineMarkupSource) FetchMarkup(ctx context.Context, url string) (string, error) {
	session, err := s.Engine.Open(ctx)
	if err != nil {
		return "", err
	}
	defer session.Close()

	page, err := session.NewPage(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(ctx, url); err != nil {
		return "", err
	}

	clk := s.Clock
	if clk == nil {
		clk = clock.Real()
	}
	if err := clk.Sleep(ctx, s.SettleWait); err != nil {
		return "", err
	}
	return page.HTML(ctx)
}
