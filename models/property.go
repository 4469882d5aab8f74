package models

import "time"

// Property is one scraped listing. A record is fully populated before it is
// appended to the run's collection and never mutated afterwards.
type Property struct {
	PropertyID    string    `json:"property_id"`
	Title         string    `json:"title"`
	Location      string    `json:"location"`
	ListingType   string    `json:"listing_type"`
	ForLease      bool      `json:"for_lease"`
	ForSale       bool      `json:"for_sale"`
	URL           *string   `json:"url"`
	ImageURL      *string   `json:"image_url"`
	ImageAlt      *string   `json:"image_alt"`
	Details       Details   `json:"details"`
	SecondaryInfo []string  `json:"secondary_info"`
	PageNumber    int       `json:"page_number"`
	ScrapedAt     time.Time `json:"scraped_at"`
}

// RunMetadata describes one scraper run as a whole.
type RunMetadata struct {
	RunID           string    `json:"run_id"`
	ScrapedAt       time.Time `json:"scraped_at"`
	TotalProperties int       `json:"total_properties"`
	ScraperVersion  string    `json:"scraper_version"`
}

// Document is the serializable output of a run.
type Document struct {
	Metadata   RunMetadata `json:"metadata"`
	Properties []*Property `json:"properties"`
}
