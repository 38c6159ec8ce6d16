package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/tabula/internal/logger"
)

// DynamicFetcher uses chromedp for JavaScript-rendered pages, such as the
// stock screener whose table is built client-side.
type DynamicFetcher struct {
	config    Config
	allocCtx  context.Context
	cancelCtx context.CancelFunc
}

// NewDynamic creates a new dynamic fetcher with a browser allocator.
// Chrome itself is started lazily on the first Fetch.
func NewDynamic(cfg Config) (*DynamicFetcher, error) {
	cfg = cfg.withDefaults()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), BrowserOptions(cfg.UserAgent, cfg.Stealth)...)

	logger.Debug("dynamic fetcher created", "timeout", cfg.Timeout, "stealth", cfg.Stealth)

	return &DynamicFetcher{
		config:    cfg,
		allocCtx:  allocCtx,
		cancelCtx: cancelAlloc,
	}, nil
}

// BrowserOptions returns the headless Chrome allocator options.
func BrowserOptions(userAgent string, stealth bool) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
	)
	// chromedp's default lookup may miss distro-specific install paths
	if chromePath := FindChromePath(); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	if stealth {
		opts = append(opts, stealthOptions()...)
	}
	return opts
}

// Fetch retrieves page content using a headless browser.
func (f *DynamicFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	log := logger.Component("fetch")
	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			log.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)
	defer cancelBrowser()

	// Cancel the browser when the caller gives up.
	stop := context.AfterFunc(ctx, cancelBrowser)
	defer stop()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	var html, title string
	var actions []chromedp.Action
	if f.config.Stealth {
		actions = append(actions, InjectStealth())
	}
	actions = append(actions, chromedp.Navigate(targetURL))

	// WaitReady rather than WaitVisible, which can poll forever.
	if opts.WaitForSelector != "" {
		actions = append(actions, chromedp.WaitReady(opts.WaitForSelector))
	} else {
		actions = append(actions, chromedp.WaitReady("body"))
	}
	if opts.WaitDuration > 0 {
		actions = append(actions, chromedp.Sleep(opts.WaitDuration))
	}
	actions = append(actions,
		chromedp.OuterHTML("html", &html),
		chromedp.Title(&title),
	)

	log.Debug("dynamic fetch starting",
		"url", targetURL,
		"wait_for", opts.WaitForSelector,
		"timeout", timeout)

	if err := chromedp.Run(timeoutCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) || timeoutCtx.Err() != nil {
			log.Warn("browser timeout", "url", targetURL, "timeout", timeout)
			return result, fmt.Errorf("%w: %v", ErrChallengeTimeout, err)
		}
		return result, fmt.Errorf("browser automation failed: %w", err)
	}

	result.HTML = html
	result.Title = title
	result.StatusCode = 200 // chromedp doesn't easily expose status codes

	if challenge := detectChallengePage(title, html); challenge != "" {
		log.Warn("challenge page detected", "url", targetURL, "type", challenge)
		return result, fmt.Errorf("%w: %s", ErrAntiBot, challenge)
	}

	if err := parseContent(&result); err != nil {
		return result, fmt.Errorf("failed to parse content: %w", err)
	}

	log.Debug("dynamic fetch complete",
		"url", targetURL,
		"title", title,
		"text_size", len(result.Text),
		"links", len(result.Links))
	return result, nil
}

// Close releases browser resources.
func (f *DynamicFetcher) Close() error {
	if f.cancelCtx != nil {
		f.cancelCtx()
	}
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return ModeDynamic
}
