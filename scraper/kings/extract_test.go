package kings

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"kings-scraper/models"
)

func parseListing(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	sel := doc.Find(".grid-item").First()
	if sel.Length() == 0 {
		t.Fatal("fixture has no .grid-item")
	}
	return sel
}

func testBase(t *testing.T) *url.URL {
	t.Helper()
	base, err := url.Parse("https://www.kingindustrial.com/properties/")
	if err != nil {
		t.Fatal(err)
	}
	return base
}

func TestExtractFullListing(t *testing.T) {
	html := `<div class="grid-item">
		<a href="/property-details/?propertyId=4711">
			<img class="image-cover" src="/img/4711.jpg" alt="Street view">
		</a>
		<div class="list-item-banner">For Lease</div>
		<h5 class="mb-0">4711 Industrial Way</h5>
		<div class="secondary-information">Atlanta, GA</div>
		<div class="secondary-information">12,000 SF Available</div>
		<table class="mt-2">
			<tr><td>Building Size</td><td>45,000 SF</td></tr>
			<tr><td>Zoning</td><td>M-1</td></tr>
		</table>
	</div>`

	p := extractProperty(parseListing(t, html), testBase(t), 1, 1)

	if p.PropertyID != "4711" {
		t.Errorf("PropertyID = %q; want 4711", p.PropertyID)
	}
	if p.URL == nil || *p.URL != "https://www.kingindustrial.com/property-details/?propertyId=4711" {
		t.Errorf("URL = %v; want resolved absolute URL", p.URL)
	}
	if p.ImageURL == nil || *p.ImageURL != "https://www.kingindustrial.com/img/4711.jpg" {
		t.Errorf("ImageURL = %v; want resolved absolute URL", p.ImageURL)
	}
	if p.ImageAlt == nil || *p.ImageAlt != "Street view" {
		t.Errorf("ImageAlt = %v", p.ImageAlt)
	}
	if p.ListingType != "FOR LEASE" || !p.ForLease || p.ForSale {
		t.Errorf("listing type = %q lease=%v sale=%v", p.ListingType, p.ForLease, p.ForSale)
	}
	if p.Title != "4711 Industrial Way" {
		t.Errorf("Title = %q", p.Title)
	}
	if p.Location != "Atlanta, GA" {
		t.Errorf("Location = %q", p.Location)
	}
	keys := p.Details.Keys()
	if len(keys) < 2 || keys[0] != "building_size" || keys[1] != "zoning" {
		t.Errorf("details keys = %v; want document order [building_size zoning ...]", keys)
	}
	if v, _ := p.Details.Get("building_size"); v != "45,000 SF" {
		t.Errorf("building_size = %q", v)
	}
	if len(p.SecondaryInfo) != 2 {
		t.Errorf("SecondaryInfo = %v; want 2 entries", p.SecondaryInfo)
	}
	if p.PageNumber != 0 || !p.ScrapedAt.IsZero() {
		t.Error("page_number and scraped_at must be left for the caller")
	}
}

func TestExtractMissingFieldsNeverAborts(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		check func(t *testing.T, p *models.Property)
	}{
		{
			name: "no link",
			html: `<div class="grid-item"><h5>Lot 9</h5></div>`,
			check: func(t *testing.T, p *models.Property) {
				if p.URL != nil {
					t.Errorf("URL = %v; want null", p.URL)
				}
				if p.PropertyID != "p3-7" {
					t.Errorf("PropertyID = %q; want positional fallback p3-7", p.PropertyID)
				}
				if p.Title != "Lot 9" {
					t.Errorf("Title = %q", p.Title)
				}
			},
		},
		{
			name: "no image",
			html: `<div class="grid-item"><a href="/property-details/?propertyId=8"></a></div>`,
			check: func(t *testing.T, p *models.Property) {
				if p.ImageURL != nil || p.ImageAlt != nil {
					t.Errorf("image fields = %v %v; want null", p.ImageURL, p.ImageAlt)
				}
				if p.PropertyID != "8" {
					t.Errorf("PropertyID = %q; want 8", p.PropertyID)
				}
			},
		},
		{
			name: "no banner or title",
			html: `<div class="grid-item"><a href="/x"></a></div>`,
			check: func(t *testing.T, p *models.Property) {
				if p.ListingType != "Unknown" {
					t.Errorf("ListingType = %q; want Unknown", p.ListingType)
				}
				if p.ForLease || p.ForSale {
					t.Error("flags must be false without a banner")
				}
				if p.Title != "Unknown" {
					t.Errorf("Title = %q; want Unknown", p.Title)
				}
			},
		},
		{
			name: "empty subtree",
			html: `<div class="grid-item"></div>`,
			check: func(t *testing.T, p *models.Property) {
				if p.Details.Len() != 0 || len(p.SecondaryInfo) != 0 {
					t.Error("empty subtree should yield empty detail capture")
				}
				if p.Location != "Unknown" {
					t.Errorf("Location = %q; want Unknown", p.Location)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := extractProperty(parseListing(t, tt.html), testBase(t), 3, 7)
			if p == nil {
				t.Fatal("extraction must never fail for a malformed listing")
			}
			tt.check(t, p)
		})
	}
}

func TestExtractImageURLResolution(t *testing.T) {
	tests := []struct {
		name, src, want string
	}{
		{"relative path", "/img/9.jpg", "https://www.kingindustrial.com/img/9.jpg"},
		{"relative to page", "img/9.jpg", "https://www.kingindustrial.com/properties/img/9.jpg"},
		{"already absolute", "https://cdn.example.com/9.jpg", "https://cdn.example.com/9.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<div class="grid-item"><img class="image-cover" src="` + tt.src + `" alt="x"></div>`
			p := extractProperty(parseListing(t, html), testBase(t), 1, 1)
			if p.ImageURL == nil || *p.ImageURL != tt.want {
				t.Errorf("ImageURL = %v; want %q", p.ImageURL, tt.want)
			}
		})
	}
}

func TestExtractUnpairableDetailBlockFallsBack(t *testing.T) {
	// Rows with a single cell cannot be label/value paired; capture must
	// degrade to the unstructured secondary list instead of dropping both.
	html := `<div class="grid-item">
		<table class="mt-2">
			<tr><td>Building Size 45,000</td></tr>
			<tr><td>Zoning M-1</td></tr>
		</table>
		<div class="secondary-information">Prime corner lot</div>
		<div class="secondary-information">Rail access</div>
	</div>`

	p := extractProperty(parseListing(t, html), testBase(t), 1, 1)

	if p.Details.Len() != 0 {
		t.Errorf("details = %v; want empty when pairing fails", p.Details.Keys())
	}
	if len(p.SecondaryInfo) != 2 {
		t.Errorf("SecondaryInfo = %v; want the raw lines", p.SecondaryInfo)
	}
}

func TestExtractSecondaryInfoHeuristics(t *testing.T) {
	html := `<div class="grid-item">
		<div class="secondary-information">Marietta, GA</div>
		<div class="secondary-information">12,000 SF Available</div>
		<div class="secondary-information">Call Agent for pricing</div>
		<div class="secondary-information">3 Spaces</div>
		<div class="secondary-information">Warehouse</div>
	</div>`

	p := extractProperty(parseListing(t, html), testBase(t), 1, 1)

	want := map[string]string{
		"available_space":  "12,000 SF Available",
		"price":            "Call Agent for pricing",
		"number_of_spaces": "3 Spaces",
		"property_type":    "Warehouse",
	}
	for key, wantVal := range want {
		got, ok := p.Details.Get(key)
		if !ok || got != wantVal {
			t.Errorf("Details[%s] = %q (%v); want %q", key, got, ok, wantVal)
		}
	}
	if p.Location != "Marietta, GA" {
		t.Errorf("Location = %q", p.Location)
	}
}

func TestExtractLocationSkipsPriceLikeLines(t *testing.T) {
	html := `<div class="grid-item">
		<div class="secondary-information">$1,200 / month</div>
	</div>`

	p := extractProperty(parseListing(t, html), testBase(t), 1, 1)
	if p.Location != "Unknown" {
		t.Errorf("Location = %q; price-like first line must not become a location", p.Location)
	}
}

func TestExtractBothLeaseAndSale(t *testing.T) {
	html := `<div class="grid-item">
		<div class="list-item-banner">For Sale / For Lease</div>
	</div>`

	p := extractProperty(parseListing(t, html), testBase(t), 1, 1)
	if !p.ForLease || !p.ForSale {
		t.Errorf("banner %q should set both flags, got lease=%v sale=%v",
			p.ListingType, p.ForLease, p.ForSale)
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello  world  ", "hello world"},
		{"\n\tAtlanta,\n GA\t", "Atlanta, GA"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := cleanText(tt.in); got != tt.want {
			t.Errorf("cleanText(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Building Size", "building_size"},
		{"  # of Spaces ", "#_of_spaces"},
		{"ZONING", "zoning"},
	}
	for _, tt := range tests {
		if got := normalizeLabel(tt.in); got != tt.want {
			t.Errorf("normalizeLabel(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
