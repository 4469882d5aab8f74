package kings

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"kings-scraper/models"
	"kings-scraper/observability"
)

// unknownValue marks fields whose markup was absent, matching the site's
// historical export format.
const unknownValue = "Unknown"

// extractProperty builds a Property from one listing subtree. A missing
// sub-element never aborts extraction; the affected field is left null (or
// "Unknown" for the plain-text fields) and the rest of the record is still
// captured. page_number and scraped_at are left for the caller to fill.
func extractProperty(sel *goquery.Selection, base *url.URL, pageNum, position int) *models.Property {
	p := &models.Property{}

	rawURL, _ := lookupListingURL(sel)
	if rawURL != "" {
		resolved := resolveURL(base, rawURL)
		p.URL = &resolved
		rawURL = resolved
	}

	p.PropertyID = deriveID(rawURL, pageNum, position)

	if src, alt, ok := lookupImage(sel); ok {
		resolved := resolveURL(base, src)
		p.ImageURL = &resolved
		p.ImageAlt = &alt
	}

	p.ListingType = unknownValue
	if banner, ok := lookupText(sel, bannerSelector); ok {
		p.ListingType = strings.ToUpper(banner)
	}
	p.ForLease = strings.Contains(p.ListingType, "LEASE")
	p.ForSale = strings.Contains(p.ListingType, "SALE")
	if strings.Contains(p.ListingType, "BOTH") {
		p.ForLease = true
		p.ForSale = true
	}

	p.Title = unknownValue
	for _, s := range titleSelectors {
		if title, ok := lookupText(sel, s); ok {
			p.Title = title
			break
		}
	}

	p.Location = unknownValue
	if loc, ok := lookupLocation(sel); ok {
		p.Location = loc
	}

	extractDetails(sel, p)
	return p
}

// extractDetails fills Details from the label/value table when it can be
// paired, and SecondaryInfo from the free-form info lines. When structured
// pairing yields nothing the raw lines are still kept, so a malformed detail
// block degrades to unstructured capture instead of being dropped.
func extractDetails(sel *goquery.Selection, p *models.Property) {
	sel.Find(detailTableSelector).First().Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := normalizeLabel(cells.Eq(0).Text())
		value := cleanText(cells.Eq(1).Text())
		if label == "" || value == "" {
			return
		}
		p.Details.Set(label, value)
	})

	sel.Find(secondaryInfoSelector).Each(func(_ int, info *goquery.Selection) {
		text := cleanText(info.Text())
		if text == "" || text == "-" {
			return
		}
		p.SecondaryInfo = append(p.SecondaryInfo, text)
	})

	if p.Details.Len() == 0 && len(p.SecondaryInfo) > 0 {
		observability.ExtractionFallbacks.Inc()
	}

	// Recover well-known attributes from the free-form lines when the table
	// did not carry them.
	for _, info := range p.SecondaryInfo {
		lower := strings.ToLower(info)
		switch {
		case strings.Contains(lower, "sf") && !hasDetail(p, "available_space"):
			p.Details.Set("available_space", info)
		case strings.Contains(lower, "call agent") && !hasDetail(p, "price"):
			p.Details.Set("price", info)
		case strings.Contains(lower, "spaces") && !hasDetail(p, "number_of_spaces"):
			p.Details.Set("number_of_spaces", info)
		case strings.Contains(lower, "bldg") && !hasDetail(p, "building_size"):
			p.Details.Set("building_size", info)
		case isPropertyType(lower) && !hasDetail(p, "property_type"):
			p.Details.Set("property_type", info)
		}
	}
}

func hasDetail(p *models.Property, key string) bool {
	_, ok := p.Details.Get(key)
	return ok
}

func isPropertyType(lower string) bool {
	switch lower {
	case "manufacturing", "office", "warehouse", "retail", "industrial":
		return true
	}
	return false
}

// lookupText finds the first element matching selector and returns its
// cleaned text. It never errors; absence is reported through ok.
func lookupText(sel *goquery.Selection, selector string) (string, bool) {
	found := sel.Find(selector).First()
	if found.Length() == 0 {
		return "", false
	}
	text := cleanText(found.Text())
	if text == "" {
		return "", false
	}
	return text, true
}

// lookupListingURL returns the listing's link target, checking the subtree's
// first anchor and then the subtree root itself.
func lookupListingURL(sel *goquery.Selection) (string, bool) {
	if href, ok := sel.Find("a[href]").First().Attr("href"); ok && href != "" {
		return href, true
	}
	if goquery.NodeName(sel) == "a" {
		if href, ok := sel.Attr("href"); ok && href != "" {
			return href, true
		}
	}
	return "", false
}

func lookupImage(sel *goquery.Selection) (src, alt string, ok bool) {
	for _, s := range imageSelectors {
		img := sel.Find(s).First()
		if img.Length() == 0 {
			continue
		}
		if src, ok = img.Attr("src"); ok {
			alt, _ = img.Attr("alt")
			return src, alt, true
		}
	}
	return "", "", false
}

// lookupLocation returns the first secondary-information line that looks like
// an address rather than a price or availability note.
func lookupLocation(sel *goquery.Selection) (string, bool) {
	first := sel.Find(secondaryInfoSelector).First()
	if first.Length() == 0 {
		return "", false
	}
	text := cleanText(first.Text())
	if text == "" {
		return "", false
	}
	for _, prefix := range []string{"$", "Call", "Available"} {
		if strings.HasPrefix(text, prefix) {
			return "", false
		}
	}
	return text, true
}

// deriveID extracts the natural key from the listing URL's propertyId query
// parameter, falling back to a positional id so every record has a non-empty
// key for duplicate tracking and the pagination loop guard.
func deriveID(rawURL string, pageNum, position int) string {
	if rawURL != "" {
		if u, err := url.Parse(rawURL); err == nil {
			if id := u.Query().Get(propertyIDParam); id != "" {
				return id
			}
		}
	}
	return fmt.Sprintf("p%d-%d", pageNum, position)
}

func resolveURL(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// cleanText strips leading/trailing whitespace and collapses internal
// whitespace.
func cleanText(s string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

// normalizeLabel turns a detail-table label into a stable snake_case key.
func normalizeLabel(s string) string {
	return strings.ReplaceAll(strings.ToLower(cleanText(s)), " ", "_")
}
