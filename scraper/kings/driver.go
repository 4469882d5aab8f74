package kings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"kings-scraper/config"
	"kings-scraper/models"
	"kings-scraper/observability"
	"kings-scraper/utils"
)

// State is the pagination driver's lifecycle state.
type State int

const (
	StateLoading State = iota
	StateExtracting
	StateAdvancing
	// StateDone means the crawl reached its natural end: no next control,
	// page cap, or the loop guard fired.
	StateDone
	// StateFailed means the crawl ended early on an unrecoverable navigation
	// error. Records collected before the failure are kept.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "LOADING"
	case StateExtracting:
		return "EXTRACTING"
	case StateAdvancing:
		return "ADVANCING"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	}
	return "UNKNOWN"
}

// Browser is the session surface the driver needs. Load and NextPage block
// until the page has settled or the configured timeout expires.
type Browser interface {
	Load(ctx context.Context, pageURL string) error
	HTML(ctx context.Context) (string, error)
	NextPage(ctx context.Context, target int) (bool, error)
}

// Driver orchestrates the page walker across pages: load, extract, advance,
// stop on a terminal condition or the page cap. It runs strictly
// sequentially and is the sole owner of the aggregate record slice.
type Driver struct {
	cfg     *config.Config
	logger  *utils.Logger
	browser Browser
	walker  *Walker
	retry   *utils.RetryConfig
	limiter *rate.Limiter
	seen    *utils.IDSet

	state      State
	properties []*models.Property
}

// NewDriver creates a Driver for the given browser session.
func NewDriver(cfg *config.Config, logger *utils.Logger, b Browser) *Driver {
	limit := rate.Inf
	if cfg.PageDelayMs > 0 {
		limit = rate.Every(cfg.PageDelay())
	}
	return &Driver{
		cfg:     cfg,
		logger:  logger,
		browser: b,
		walker:  NewWalker(logger),
		retry: &utils.RetryConfig{
			// The retry policy is load-once, retry-once.
			MaxAttempts: 2,
			BaseDelay:   cfg.PageDelay(),
			Logger:      logger,
			OnRetry:     func() { observability.NavigationRetries.Inc() },
		},
		limiter: rate.NewLimiter(limit, 1),
		seen:    utils.NewIDSet(),
	}
}

// State returns the driver's current (or final) state.
func (d *Driver) State() State {
	return d.state
}

// Run crawls from the configured start URL until a terminal state is
// reached. Whatever records were collected before a failure are always
// returned alongside the final state.
func (d *Driver) Run(ctx context.Context) ([]*models.Property, State, error) {
	d.state = StateLoading
	d.logger.Info("[driver] Starting crawl at %s (page cap: %d)", d.cfg.StartURL, d.cfg.MaxPages)

	err := d.retry.Do(ctx, "load-start-page", func() error {
		return d.browser.Load(ctx, d.cfg.StartURL)
	})
	if err != nil {
		observability.NavigationFailures.Inc()
		d.state = StateFailed
		return d.properties, d.state, fmt.Errorf("initial page load: %w", err)
	}

	page := 1
	res, err := d.extractPage(ctx, page)
	if err != nil {
		d.state = StateFailed
		return d.properties, d.state, err
	}
	d.collect(res, page)

	for {
		d.state = StateAdvancing

		if !res.HasNext {
			d.logger.Info("[driver] No next page after page %d — crawl complete", page)
			d.state = StateDone
			break
		}
		if d.cfg.MaxPages > 0 && page >= d.cfg.MaxPages {
			d.logger.Info("[driver] Page cap %d reached", d.cfg.MaxPages)
			d.state = StateDone
			break
		}

		if err := d.limiter.Wait(ctx); err != nil {
			d.state = StateFailed
			return d.properties, d.state, err
		}

		moved, err := d.advance(ctx, page+1)
		if err != nil {
			observability.NavigationFailures.Inc()
			d.state = StateFailed
			return d.properties, d.state, fmt.Errorf("advance to page %d: %w", page+1, err)
		}
		if !moved {
			// The control disappeared between snapshot and click.
			d.logger.Warn("[driver] Next control vanished before click — treating as last page")
			d.state = StateDone
			break
		}

		next, err := d.extractPage(ctx, page+1)
		if err != nil {
			d.state = StateFailed
			return d.properties, d.state, err
		}

		// Loop guard: a click that leaves the first listing unchanged means
		// the pager is stuck; stop instead of re-collecting the page.
		if next.Fingerprint != "" && next.Fingerprint == res.Fingerprint {
			d.logger.Warn("[driver] Page content unchanged after pagination (first listing %s) — stopping",
				next.Fingerprint)
			d.state = StateDone
			break
		}

		page++
		d.collect(next, page)
		res = next
	}

	d.logger.Info("[driver] Crawl finished: %s — %d properties across %d page(s)",
		d.state, len(d.properties), page)
	return d.properties, d.state, nil
}

// extractPage snapshots the live DOM and walks it.
func (d *Driver) extractPage(ctx context.Context, page int) (*PageResult, error) {
	d.state = StateExtracting

	html, err := d.browser.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("page %d snapshot: %w", page, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("page %d parse: %w", page, err)
	}

	res := d.walker.Walk(doc, d.cfg.StartURL, page)
	if res.ActivePage != 0 && res.ActivePage != page {
		d.logger.Debug("[driver] Pager reports page %d, driver counter is %d",
			res.ActivePage, page)
	}
	if res.TotalListings > 0 {
		d.logger.Debug("[driver] Site reports %d total listings across %d pages",
			res.TotalListings, res.TotalPages)
	}
	return res, nil
}

// collect stamps and appends a page's records. Records enter the aggregate
// fully populated and are never touched again.
func (d *Driver) collect(res *PageResult, page int) {
	now := time.Now()
	for _, p := range res.Properties {
		p.PageNumber = page
		p.ScrapedAt = now
		if !d.seen.Add(p.PropertyID) {
			d.logger.Debug("[driver] Duplicate property id %s on page %d", p.PropertyID, page)
		}
		d.properties = append(d.properties, p)
	}

	observability.PagesScraped.Inc()
	observability.PropertiesExtracted.Add(float64(len(res.Properties)))
	d.logger.Info("[driver] Page %d done — %d listings (%d total)",
		page, len(res.Properties), len(d.properties))
}

// advance clicks through to the target page. Only a click that never
// registered is retried; when the click landed but the page failed to settle,
// a second click would skip past the target, so the driver proceeds and lets
// the next snapshot surface a genuinely broken load.
func (d *Driver) advance(ctx context.Context, target int) (bool, error) {
	for attempt := 1; ; attempt++ {
		moved, err := d.browser.NextPage(ctx, target)
		if err == nil {
			return moved, nil
		}
		if moved {
			d.logger.Warn("[driver] Click to page %d registered but page did not settle: %v", target, err)
			return true, nil
		}
		if attempt >= d.retry.MaxAttempts {
			return false, fmt.Errorf("advance-page-%d failed after %d attempts: %w", target, attempt, err)
		}
		d.logger.Warn("[driver] Click to page %d failed (attempt %d): %v — retrying", target, attempt, err)
		observability.NavigationRetries.Inc()
	}
}
