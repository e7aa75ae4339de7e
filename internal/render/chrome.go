package render

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	defaultScrollSteps = 8
	defaultScrollPause = 800 * time.Millisecond
	defaultNavTimeout  = 60 * time.Second
	scrollDelta        = 4000
)

// ChromeRenderer implements Renderer with a headless Chrome driven over the
// DevTools protocol. Each call launches a fresh browser context; the monitor
// renders few pages per run, so reuse is not worth the lifecycle handling.
type ChromeRenderer struct {
	userAgent   string
	scrollSteps int
	scrollPause time.Duration
	navTimeout  time.Duration
}

// ChromeOption configures the ChromeRenderer.
type ChromeOption func(*ChromeRenderer)

// WithUserAgent sets the browser user agent.
func WithUserAgent(ua string) ChromeOption {
	return func(r *ChromeRenderer) {
		r.userAgent = ua
	}
}

// WithScrollSteps bounds the number of simulated scroll steps.
func WithScrollSteps(n int) ChromeOption {
	return func(r *ChromeRenderer) {
		r.scrollSteps = n
	}
}

// WithScrollPause sets the pause after each scroll step.
func WithScrollPause(d time.Duration) ChromeOption {
	return func(r *ChromeRenderer) {
		r.scrollPause = d
	}
}

// WithNavTimeout bounds a single page render.
func WithNavTimeout(d time.Duration) ChromeOption {
	return func(r *ChromeRenderer) {
		r.navTimeout = d
	}
}

// NewChromeRenderer creates a headless Chrome renderer.
func NewChromeRenderer(opts ...ChromeOption) *ChromeRenderer {
	r := &ChromeRenderer{
		scrollSteps: defaultScrollSteps,
		scrollPause: defaultScrollPause,
		navTimeout:  defaultNavTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ChromeRenderer) browserContext(
	ctx context.Context,
) (context.Context, context.CancelFunc) {
	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1400, 1000),
	)
	if r.userAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(r.userAgent))
	}

	ctx, cancelTimeout := context.WithTimeout(ctx, r.navTimeout)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	cancel := func() {
		cancelBrowser()
		cancelAlloc()
		cancelTimeout()
	}
	return browserCtx, cancel
}

// CollectLinks implements Renderer.
func (r *ChromeRenderer) CollectLinks(ctx context.Context, url string) ([]string, error) {
	bctx, cancel := r.browserContext(ctx)
	defer cancel()

	if err := chromedp.Run(bctx, chromedp.Navigate(url)); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", url, err)
	}

	seen := map[string]struct{}{}
	var links []string

	collect := func() error {
		var hrefs []string
		err := chromedp.Run(bctx, chromedp.Evaluate(
			`Array.from(document.querySelectorAll('a[href*="/products/"]'))`+
				`.map(a => a.getAttribute('href'))`,
			&hrefs,
		))
		if err != nil {
			return err
		}
		for _, h := range hrefs {
			if _, ok := seen[h]; !ok {
				seen[h] = struct{}{}
				links = append(links, h)
			}
		}
		return nil
	}

	var lastHeight float64
	for step := 0; step < r.scrollSteps; step++ {
		if err := collect(); err != nil {
			return nil, fmt.Errorf("collecting links from %s: %w", url, err)
		}

		var height float64
		err := chromedp.Run(bctx,
			chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", scrollDelta), nil),
			chromedp.Sleep(r.scrollPause),
			chromedp.Evaluate("document.body.scrollHeight", &height),
		)
		if err != nil {
			return nil, fmt.Errorf("scrolling %s: %w", url, err)
		}

		if height == lastHeight {
			break
		}
		lastHeight = height
	}

	if err := collect(); err != nil {
		return nil, fmt.Errorf("collecting links from %s: %w", url, err)
	}

	return links, nil
}

// RenderedDocument implements Renderer.
func (r *ChromeRenderer) RenderedDocument(ctx context.Context, url string) (string, error) {
	bctx, cancel := r.browserContext(ctx)
	defer cancel()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", url, err)
	}

	return html, nil
}
