package kings

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"kings-scraper/models"
	"kings-scraper/utils"
)

// PageResult is what the walker reports for one loaded page.
type PageResult struct {
	Properties []*models.Property

	// Pagination state. ActivePage is 0 when the pager is absent.
	ActivePage    int
	TotalPages    int
	TotalListings int

	// HasNext is true only when a next-page control exists and is enabled.
	HasNext bool

	// Fingerprint is a page-independent identity of the first listing, used
	// by the driver to detect a pager that clicks but never advances.
	Fingerprint string
}

// Walker enumerates the listing subtrees of a parsed page and runs the field
// extractor on each.
type Walker struct {
	logger *utils.Logger
}

// NewWalker creates a Walker.
func NewWalker(logger *utils.Logger) *Walker {
	return &Walker{logger: logger}
}

// Walk extracts every listing on the page and determines pagination state.
// Zero listings is reported, not fatal; the caller decides whether an empty
// page ends the crawl.
func (w *Walker) Walk(doc *goquery.Document, pageURL string, pageNum int) *PageResult {
	res := &PageResult{}

	base, err := url.Parse(pageURL)
	if err != nil {
		w.logger.Debug("[walker] Unparseable page URL %q: %v", pageURL, err)
		base = nil
	}

	items, usedSelector := findListings(doc)
	if items == nil {
		w.logger.Warn("[walker] No listing container matched on page %d", pageNum)
	} else {
		w.logger.Debug("[walker] Page %d — selector %q matched %d listings",
			pageNum, usedSelector, items.Length())

		items.Each(func(i int, sel *goquery.Selection) {
			res.Properties = append(res.Properties, extractProperty(sel, base, pageNum, i+1))
		})
	}

	if len(res.Properties) == 0 {
		w.logger.Warn("[walker] Page %d yielded 0 listings", pageNum)
	} else {
		res.Fingerprint = fingerprintOf(res.Properties[0])
	}

	w.readPagination(doc, pageNum, res)
	return res
}

// fingerprintOf returns a page-independent identity for the first listing.
// The positional fallback in PropertyID embeds the driver's page counter,
// which changes across a stuck pagination click and would blind the loop
// guard, so the fingerprint prefers the URL-derived key and falls back to
// the listing URL and title instead.
func fingerprintOf(p *models.Property) string {
	if p.URL != nil && *p.URL != "" {
		if u, err := url.Parse(*p.URL); err == nil {
			if id := u.Query().Get(propertyIDParam); id != "" {
				return id
			}
		}
		return *p.URL
	}
	return p.Title
}

// findListings tries the container selector chain in order and returns the
// first non-empty match.
func findListings(doc *goquery.Document) (*goquery.Selection, string) {
	for _, selector := range listingContainerSelectors {
		items := doc.Find(selector)
		if items.Length() > 0 {
			return items, selector
		}
	}
	return nil, ""
}

// readPagination fills the pager-derived fields: active page, totals, and
// whether an enabled next control exists. A disabled or absent control both
// mean "no next page".
func (w *Walker) readPagination(doc *goquery.Document, pageNum int, res *PageResult) {
	if text := cleanText(doc.Find(activePageSelector).First().Text()); text != "" {
		if n, err := strconv.Atoi(text); err == nil {
			res.ActivePage = n
		}
	}

	active := res.ActivePage
	if active == 0 {
		active = pageNum
	}

	doc.Find(paginateButtonSelector).Each(func(_ int, btn *goquery.Selection) {
		n, err := strconv.Atoi(cleanText(btn.Text()))
		if err != nil {
			return
		}
		if n > res.TotalPages {
			res.TotalPages = n
		}
		if n == active+1 && !controlDisabled(btn) {
			res.HasNext = true
		}
	})

	// Generic "next" links cover markup without numbered buttons.
	if !res.HasNext {
		doc.Find("a, button").EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := strings.ToLower(cleanText(el.Text()))
			aria, _ := el.Attr("aria-label")
			if text != "next" && text != ">" && !strings.EqualFold(aria, "next") {
				return true
			}
			if !controlDisabled(el) {
				res.HasNext = true
				return false
			}
			return true
		})
	}

	if total := cleanText(doc.Find(totalContainerSelector).First().Text()); total != "" {
		res.TotalListings = parseTotalListings(total)
	}
}

// controlDisabled reports whether a pager control is unclickable.
func controlDisabled(el *goquery.Selection) bool {
	if _, ok := el.Attr("disabled"); ok {
		return true
	}
	if aria, ok := el.Attr("aria-disabled"); ok && strings.EqualFold(aria, "true") {
		return true
	}
	if class, ok := el.Attr("class"); ok {
		for _, c := range strings.Fields(class) {
			if c == "disabled" {
				return true
			}
		}
	}
	return false
}

// parseTotalListings pulls the count out of text like "1 - 12 out of 87
// listings".
func parseTotalListings(text string) int {
	idx := strings.Index(strings.ToLower(text), "out of")
	if idx < 0 {
		return 0
	}
	rest := strings.ToLower(text[idx+len("out of"):])
	rest = strings.TrimSpace(strings.ReplaceAll(rest, "listings", ""))
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0
	}
	return n
}
