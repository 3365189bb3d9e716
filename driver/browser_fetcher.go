// ABOUTME: Page fetcher backed by a remote Chromium controlled over the DevTools protocol
// ABOUTME: Each session is an isolated incognito context with its own user agent
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"ad-monitor/config"
	"ad-monitor/domain"
	"ad-monitor/service"
)

const defaultReadyWait = 10 * time.Second

var softBlockMarkers = []string{"login", "checkpoint"}

// IsSoftBlocked reports whether a landing URL is a login or checkpoint wall.
func IsSoftBlocked(landingURL string) bool {
	lower := strings.ToLower(landingURL)
	for _, marker := range softBlockMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

type BrowserFetcher struct {
	settings config.BrowserSettings
	agents   *config.UserAgentRotator
	logger   *slog.Logger

	mu      sync.Mutex
	browser *rod.Browser
}

func NewBrowserFetcher(settings config.BrowserSettings, logger *slog.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		settings: settings,
		agents:   config.NewUserAgentRotator(settings.UserAgents),
		logger:   logger,
	}
}

// connect returns the shared browser connection, dialing it on first use or
// after the previous connection died.
func (f *BrowserFetcher) connect(ctx context.Context) (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		if _, err := f.browser.Version(); err == nil {
			return f.browser, nil
		}
		f.logger.WarnContext(ctx, "browser connection lost, reconnecting")
		f.browser = nil
	}

	browser := rod.New()
	if f.settings.UseLauncher {
		l, err := launcher.NewManaged(f.settings.ControlURL)
		if err != nil {
			return nil, fmt.Errorf("failed to reach browser launcher %s: %w", f.settings.ControlURL, err)
		}
		client, err := l.Client()
		if err != nil {
			return nil, fmt.Errorf("failed to start managed browser: %w", err)
		}
		browser = browser.Client(client)
	} else {
		wsURL := f.settings.ControlURL
		if !strings.HasPrefix(wsURL, "ws") {
			resolved, err := launcher.ResolveURL(wsURL)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve devtools url %s: %w", wsURL, err)
			}
			wsURL = resolved
		}
		browser = browser.ControlURL(wsURL)
	}

	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	f.logger.InfoContext(ctx, "Connected to browser", "control_url", f.settings.ControlURL, "launcher", f.settings.UseLauncher)
	f.browser = browser
	return browser, nil
}

// Open creates an incognito context and a page with a random desktop user agent.
func (f *BrowserFetcher) Open(ctx context.Context) (service.FetchSession, error) {
	root, err := f.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSession, err)
	}

	incognito, err := root.Incognito()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create browser context: %w", domain.ErrSession, err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("%w: failed to open page: %w", domain.ErrSession, err)
	}

	ua := f.agents.Random()
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
		_ = page.Close()
		_ = incognito.Close()
		return nil, fmt.Errorf("%w: failed to set user agent: %w", domain.ErrSession, err)
	}

	f.logger.DebugContext(ctx, "opened browser session", "user_agent", ua)
	return &BrowserSession{
		browser:  incognito,
		page:     page,
		settings: f.settings,
		logger:   f.logger,
	}, nil
}

// Close drops the shared connection. With a launcher the browser process goes with it.
func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser == nil {
		return nil
	}
	var err error
	if f.settings.UseLauncher {
		err = f.browser.Close()
	}
	f.browser = nil
	return err
}

type BrowserSession struct {
	browser  *rod.Browser
	page     *rod.Page
	settings config.BrowserSettings
	logger   *slog.Logger
	closed   bool
}

func (s *BrowserSession) Fetch(ctx context.Context, url string) (string, error) {
	if s.closed {
		return "", fmt.Errorf("%w: session already closed", domain.ErrSession)
	}

	page := s.page.Context(ctx).Timeout(s.settings.PageTimeout)
	defer page.CancelTimeout()

	s.logger.InfoContext(ctx, "requesting page", "url", url)
	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("%w: navigate %s: %w", domain.ErrTransientFetch, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("%w: wait load %s: %w", domain.ErrTransientFetch, url, err)
	}

	info, err := page.Info()
	if err != nil {
		return "", fmt.Errorf("%w: page info %s: %w", domain.ErrTransientFetch, url, err)
	}
	if IsSoftBlocked(info.URL) {
		return "", fmt.Errorf("%w: landed on %s", domain.ErrSoftBlocked, info.URL)
	}

	if s.settings.ReadySelect != "" {
		if err := s.waitReady(ctx, page, url); err != nil {
			return "", err
		}
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("%w: read html %s: %w", domain.ErrTransientFetch, url, err)
	}
	return html, nil
}

func (s *BrowserSession) waitReady(ctx context.Context, page *rod.Page, url string) error {
	waiting := page.Timeout(readyWait(s.settings))
	defer waiting.CancelTimeout()

	if _, err := waiting.Element(s.settings.ReadySelect); err != nil {
		// Search pages without results never render the selector.
		if !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: wait for listings %s: %w", domain.ErrTransientFetch, url, err)
		}
		s.logger.WarnContext(ctx, "listing selector not found before timeout", "url", url, "selector", s.settings.ReadySelect)
	}
	return nil
}

func readyWait(settings config.BrowserSettings) time.Duration {
	if settings.ReadyWait <= 0 {
		return defaultReadyWait
	}
	return settings.ReadyWait
}

// Close releases the page and its incognito context. Errors are reported but
// the session is unusable afterwards regardless.
func (s *BrowserSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	pageErr := s.page.Close()
	ctxErr := s.browser.Close()
	return errors.Join(pageErr, ctxErr)
}
