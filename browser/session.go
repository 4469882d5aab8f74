package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"kings-scraper/config"
	"kings-scraper/utils"
)

const settleDelay = 3 * time.Second

// Session is an explicitly owned browser session. It is created once, passed
// by reference into the crawl, and torn down by the caller on every exit path.
type Session struct {
	cfg    *config.Config
	logger *utils.Logger

	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	tabCtx      context.Context
	cancelTab   context.CancelFunc
}

// NewSession creates an unstarted Session.
func NewSession(cfg *config.Config, logger *utils.Logger) *Session {
	return &Session{cfg: cfg, logger: logger}
}

// Start launches the browser process.
func (s *Session) Start(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if bin := findChromeBinary(s.cfg.ChromeBin); bin != "" {
		s.logger.Info("[browser] Using browser binary: %s", bin)
		opts = append(opts, chromedp.ExecPath(bin))
	}

	s.allocCtx, s.cancelAlloc = chromedp.NewExecAllocator(ctx, opts...)

	// Suppress chromedp log noise
	s.tabCtx, s.cancelTab = chromedp.NewContext(s.allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	if err := chromedp.Run(s.tabCtx); err != nil {
		s.Stop()
		return fmt.Errorf("browser start: %w", err)
	}

	s.logger.Info("[browser] Session started (headless: %v)", s.cfg.Headless)
	return nil
}

// Stop tears the browser down. Safe to call more than once.
func (s *Session) Stop() {
	if s.cancelTab != nil {
		s.cancelTab()
		s.cancelTab = nil
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
		s.cancelAlloc = nil
	}
	s.logger.Info("[browser] Session stopped")
}

// Load navigates to pageURL, waits for the document to settle and scrolls
// through it to trigger lazy loading. The whole operation is bounded by the
// configured timeout.
func (s *Session) Load(ctx context.Context, pageURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tctx, cancel := context.WithTimeout(s.tabCtx, s.cfg.Timeout())
	defer cancel()

	err := chromedp.Run(tctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(settleDelay),
	)
	if err != nil {
		return fmt.Errorf("load %q: %w", pageURL, err)
	}

	s.scrollPage(tctx)
	return nil
}

// HTML returns a snapshot of the live DOM.
func (s *Session) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tctx, cancel := context.WithTimeout(s.tabCtx, s.cfg.Timeout())
	defer cancel()

	var html string
	if err := chromedp.Run(tctx, chromedp.OuterHTML("html", &html)); err != nil {
		return "", fmt.Errorf("snapshot: %w", err)
	}
	return html, nil
}

// NextPage clicks the pager control for the target page number, falling back
// to a generic "next" control. It returns false when no enabled control was
// found; disabled and absent both mean no next page. When the returned bool
// is true the click registered, even if an error is also returned.
func (s *Session) NextPage(ctx context.Context, target int) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	tctx, cancel := context.WithTimeout(s.tabCtx, s.cfg.Timeout())
	defer cancel()

	script := fmt.Sprintf(`(() => {
		const isDisabled = (n) => {
			if (!n) return true;
			if (n.disabled) return true;
			if (n.classList && n.classList.contains('disabled')) return true;
			const aria = (n.getAttribute && n.getAttribute('aria-disabled')) || '';
			return aria.toLowerCase() === 'true';
		};
		const buttons = Array.from(document.querySelectorAll(
			'.js-paginate-btn, .page-link, .pagination a, .pager a'));
		for (const b of buttons) {
			if (isDisabled(b)) continue;
			if ((b.textContent || '').trim() === '%d') {
				b.click();
				return true;
			}
		}
		const nextish = buttons.concat(Array.from(
			document.querySelectorAll('a[aria-label="Next"], [aria-label="next"]')));
		for (const b of nextish) {
			if (isDisabled(b)) continue;
			const text = (b.textContent || '').trim().toLowerCase();
			const aria = ((b.getAttribute && b.getAttribute('aria-label')) || '').toLowerCase();
			if (text === 'next' || text === '>' || aria === 'next') {
				b.click();
				return true;
			}
		}
		return false;
	})()`, target)

	var clicked bool
	if err := chromedp.Run(tctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return false, fmt.Errorf("next-page click: %w", err)
	}
	if !clicked {
		return false, nil
	}

	// The click already registered; report moved=true even when the settle
	// wait fails so the caller never re-clicks past the target page.
	if err := chromedp.Run(tctx, chromedp.Sleep(settleDelay)); err != nil {
		return true, fmt.Errorf("next-page settle: %w", err)
	}
	s.scrollPage(tctx)
	return true, nil
}

// scrollPage scrolls to the bottom until the document stops growing, then
// returns to the top for extraction. Scrolling is best effort.
func (s *Session) scrollPage(ctx context.Context) {
	var lastHeight int64
	if err := chromedp.Run(ctx,
		chromedp.Evaluate(`document.body.scrollHeight`, &lastHeight)); err != nil {
		s.logger.Debug("[browser] Scroll skipped: %v", err)
		return
	}

	for attempt := 0; attempt < 10; attempt++ {
		var newHeight int64
		err := chromedp.Run(ctx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(time.Second),
			chromedp.Evaluate(`document.body.scrollHeight`, &newHeight),
		)
		if err != nil {
			s.logger.Debug("[browser] Scroll aborted: %v", err)
			return
		}
		if newHeight == lastHeight {
			break
		}
		lastHeight = newHeight
	}

	_ = chromedp.Run(ctx,
		chromedp.Evaluate(`window.scrollTo(0, 0)`, nil),
		chromedp.Sleep(500*time.Millisecond),
	)
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured override.
func findChromeBinary(override string) string {
	if override != "" {
		return override
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
