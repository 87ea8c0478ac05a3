package headed

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"jobscout/internal/config"
	"jobscout/internal/logging"
	"jobscout/internal/logging/types"
	"jobscout/internal/scraper"
	"jobscout/pkg/utils"
)

// BrowserManager launches one Chrome instance per session and caps how many
// run at once
type BrowserManager struct {
	config  *config.Config
	limiter *scraper.HostLimiter
	slots   chan struct{}
	logger  types.Logger
}

// NewBrowserManager creates the headed engine
func NewBrowserManager(cfg *config.Config, limiter *scraper.HostLimiter) *BrowserManager {
	maxInstances := cfg.Scraper.MaxBrowsers
	if maxInstances < 1 {
		maxInstances = 1
	}
	if limiter == nil {
		limiter = scraper.NewHostLimiter(cfg.Scraper.HostRateLimit, cfg.Scraper.HostBurst)
	}
	return &BrowserManager{
		config:  cfg,
		limiter: limiter,
		slots:   make(chan struct{}, maxInstances),
		logger:  logging.GetGlobalLogger().WithField("engine", "headed"),
	}
}

func (bm *BrowserManager) Name() string { return "headed" }

// Open waits for a free slot, then launches and connects a browser
func (bm *BrowserManager) Open(ctx context.Context) (scraper.Session, error) {
	select {
	case bm.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	l := bm.newLauncher()
	controlURL, err := l.Context(ctx).Launch()
	if err != nil {
		<-bm.slots
		return nil, utils.NewBrowserError(fmt.Sprintf("failed to launch browser: %v", err)).Wrap(err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		<-bm.slots
		return nil, utils.NewBrowserError(fmt.Sprintf("failed to connect to browser: %v", err)).Wrap(err)
	}

	bm.logger.Info("New browser instance created", map[string]interface{}{
		"headless": bm.config.Scraper.HeadlessMode,
	})
	return &browserSession{manager: bm, browser: browser, launcher: l}, nil
}

func (bm *BrowserManager) newLauncher() *launcher.Launcher {
	// Docker needs the sandbox, gpu and dev-shm flags
	l := launcher.New().
		Headless(bm.config.Scraper.HeadlessMode).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")

	if chromePath := getSystemChromePath(); chromePath != "" {
		l = l.Bin(chromePath)
		bm.logger.Debug("Using system Chrome browser", map[string]interface{}{
			"chrome_path": chromePath,
		})
	}
	if bm.config.Scraper.UserAgent != "" {
		l = l.Set("user-agent", bm.config.Scraper.UserAgent)
	}
	return l
}

type browserSession struct {
	manager  *BrowserManager
	browser  *rod.Browser
	launcher *launcher.Launcher
	once     sync.Once
}

// NewPage opens a tab, with stealth evasions when configured
func (s *browserSession) NewPage(ctx context.Context) (scraper.Page, error) {
	cfg := s.manager.config

	var (
		p   *rod.Page
		err error
	)
	if cfg.Scraper.StealthMode {
		p, err = stealth.Page(s.browser)
	} else {
		p, err = s.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, utils.NewBrowserError(fmt.Sprintf("failed to create page: %v", err)).Wrap(err)
	}

	err = p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		s.manager.logger.Warn("Failed to set viewport", map[string]interface{}{"error": err.Error()})
	}

	if cfg.Scraper.UserAgent != "" {
		err = p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.Scraper.UserAgent})
		if err != nil {
			s.manager.logger.Warn("Failed to set user agent", map[string]interface{}{"error": err.Error()})
		}
	}

	if _, err := p.SetExtraHeaders([]string{"Accept-Language", "en-US,en;q=0.9"}); err != nil {
		s.manager.logger.Debug("Failed to set extra headers", map[string]interface{}{"error": err.Error()})
	}

	return &rodPage{
		page:       p,
		navTimeout: cfg.Scraper.BrowserTimeout,
		limiter:    s.manager.limiter,
		logger:     s.manager.logger,
	}, nil
}

// Close shuts the browser down and frees the slot. Safe to call twice.
func (s *browserSession) Close() error {
	var err error
	s.once.Do(func() {
		err = s.browser.Close()
		s.launcher.Cleanup()
		<-s.manager.slots
		s.manager.logger.Debug("Browser instance released")
	})
	return err
}

// getSystemChromePath finds the system-installed Chrome/Chromium browser
func getSystemChromePath() string {
	// Docker images set one of these
	for _, env := range []string{"CHROME_BIN", "CHROME_PATH"} {
		if path := os.Getenv(env); path != "" {
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	commonPaths := []string{
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/opt/google/chrome/chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
