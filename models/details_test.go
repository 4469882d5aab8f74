package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDetailsPreservesInsertionOrder(t *testing.T) {
	var d Details
	d.Set("zoning", "M-1")
	d.Set("building_size", "45,000 SF")
	d.Set("available_space", "12,000 SF")

	got, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"zoning":"M-1","building_size":"45,000 SF","available_space":"12,000 SF"}`
	if string(got) != want {
		t.Errorf("marshal = %s; want %s", got, want)
	}
}

func TestDetailsSetOverwritesWithoutReordering(t *testing.T) {
	var d Details
	d.Set("price", "Call Agent")
	d.Set("zoning", "M-1")
	d.Set("price", "$1,200,000")

	if d.Len() != 2 {
		t.Fatalf("Len() = %d; want 2", d.Len())
	}
	keys := d.Keys()
	if keys[0] != "price" || keys[1] != "zoning" {
		t.Errorf("Keys() = %v; want [price zoning]", keys)
	}
	if v, _ := d.Get("price"); v != "$1,200,000" {
		t.Errorf("Get(price) = %q; want updated value", v)
	}
}

func TestDetailsRoundTrip(t *testing.T) {
	var d Details
	d.Set("zoning", "M-1")
	d.Set("available_space", "12,000 SF")
	d.Set("building_size", "45,000 SF")

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Details
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if back.Len() != d.Len() {
		t.Fatalf("round trip lost pairs: %d != %d", back.Len(), d.Len())
	}
	wantKeys := d.Keys()
	gotKeys := back.Keys()
	for i := range wantKeys {
		if gotKeys[i] != wantKeys[i] {
			t.Errorf("key %d = %q; want %q", i, gotKeys[i], wantKeys[i])
		}
		wv, _ := d.Get(wantKeys[i])
		gv, _ := back.Get(wantKeys[i])
		if gv != wv {
			t.Errorf("value for %q = %q; want %q", wantKeys[i], gv, wv)
		}
	}
}

func TestDetailsEmptyMarshalsAsObject(t *testing.T) {
	var d Details
	got, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(got) != "{}" {
		t.Errorf("empty details = %s; want {}", got)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	u := "https://www.kingindustrial.com/property-details/?propertyId=42"
	img := "https://www.kingindustrial.com/img/42.jpg"

	p := &Property{
		PropertyID:    "42",
		Title:         "42 Industrial Way",
		Location:      "Atlanta, GA",
		ListingType:   "FOR LEASE",
		ForLease:      true,
		URL:           &u,
		ImageURL:      &img,
		SecondaryInfo: []string{"Atlanta, GA", "12,000 SF Available"},
		PageNumber:    2,
		ScrapedAt:     time.Now(),
	}
	p.Details.Set("zoning", "M-1")
	p.Details.Set("building_size", "45,000 SF")

	doc := &Document{
		Metadata: RunMetadata{
			RunID:           "run-1",
			ScrapedAt:       time.Now(),
			TotalProperties: 1,
			ScraperVersion:  "1.0",
		},
		Properties: []*Property{p},
	}

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Document
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if back.Metadata.TotalProperties != 1 || back.Metadata.ScraperVersion != "1.0" {
		t.Errorf("metadata mismatch: %+v", back.Metadata)
	}
	if len(back.Properties) != 1 {
		t.Fatalf("expected 1 property, got %d", len(back.Properties))
	}

	bp := back.Properties[0]
	if bp.PropertyID != p.PropertyID || bp.Title != p.Title ||
		bp.Location != p.Location || bp.ListingType != p.ListingType ||
		bp.ForLease != p.ForLease || bp.ForSale != p.ForSale ||
		bp.PageNumber != p.PageNumber {
		t.Errorf("scalar fields mismatch: %+v", bp)
	}
	if bp.URL == nil || *bp.URL != u {
		t.Errorf("url mismatch: %v", bp.URL)
	}
	if bp.ImageAlt != nil {
		t.Errorf("absent image alt should stay null, got %v", *bp.ImageAlt)
	}
	if !bp.ScrapedAt.Equal(p.ScrapedAt) {
		t.Errorf("scraped_at mismatch: %v != %v", bp.ScrapedAt, p.ScrapedAt)
	}
	if got := bp.Details.Keys(); len(got) != 2 || got[0] != "zoning" || got[1] != "building_size" {
		t.Errorf("details order lost: %v", got)
	}
}
