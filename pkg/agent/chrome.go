package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/tabula/internal/logger"
	"github.com/jmylchreest/tabula/pkg/fetcher"
)

// ErrNoHistory is returned by Back on the first page.
var ErrNoHistory = errors.New("no previous page")

// ChromeConfig configures a ChromeBrowser.
type ChromeConfig struct {
	UserAgent string
	Stealth   bool
	// Timeout bounds each browser action. Default 30s.
	Timeout time.Duration
}

// ChromeBrowser is a Browser backed by one headless Chrome tab.
type ChromeBrowser struct {
	config ChromeConfig

	mu          sync.Mutex
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	started     bool
	history     []string
}

// NewChromeBrowser creates a browser. Chrome starts on the first action.
func NewChromeBrowser(cfg ChromeConfig) *ChromeBrowser {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), fetcher.BrowserOptions(cfg.UserAgent, cfg.Stealth)...)

	log := logger.Component("agent")
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			log.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)
	return &ChromeBrowser{
		config:      cfg,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}
}

// run executes actions on the tab, bounded by the caller's ctx and the
// action timeout.
func (b *ChromeBrowser) run(ctx context.Context, actions ...chromedp.Action) error {
	// The first Run allocates the browser and ties its lifetime to the
	// context it receives, so it must not be a timeout context.
	if !b.started {
		if err := chromedp.Run(b.tabCtx); err != nil {
			return fmt.Errorf("start browser: %w", err)
		}
		if b.config.Stealth {
			if err := chromedp.Run(b.tabCtx, fetcher.InjectStealth()); err != nil {
				return fmt.Errorf("inject stealth script: %w", err)
			}
		}
		b.started = true
	}

	runCtx, cancel := context.WithTimeout(b.tabCtx, b.config.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// Navigate loads url in the tab.
func (b *ChromeBrowser) Navigate(ctx context.Context, url string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var resp *network.Response
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		resp, err = chromedp.RunResponse(ctx, chromedp.Navigate(url))
		return err
	}))
	if err != nil {
		return 0, fmt.Errorf("navigate %s: %w", url, err)
	}
	b.history = append(b.history, url)
	if resp == nil {
		return 0, nil
	}
	return int(resp.Status), nil
}

// Back returns to the previous page.
func (b *ChromeBrowser) Back(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.history) < 2 {
		return "", ErrNoHistory
	}
	var loc string
	if err := b.run(ctx, chromedp.NavigateBack(), chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("navigate back: %w", err)
	}
	b.history = b.history[:len(b.history)-1]
	return loc, nil
}

// URL returns the current location.
func (b *ChromeBrowser) URL(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.history) == 0 {
		return "about:blank", nil
	}
	var loc string
	if err := b.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

// HTML returns the current page's outer HTML.
func (b *ChromeBrowser) HTML(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out string
	if err := b.run(ctx, chromedp.WaitReady("body", chromedp.ByQuery), chromedp.OuterHTML("html", &out, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return out, nil
}

// Click clicks the first visible element matching selector.
func (b *ChromeBrowser) Click(ctx context.Context, selector string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

// Close shuts the tab and the browser process.
func (b *ChromeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tabCancel()
	b.allocCancel()
	return nil
}

var _ Browser = (*ChromeBrowser)(nil)
