package kings

// CSS selectors for the Kings Industrial listings markup.
// Centralising them makes future updates trivial.
const (
	bannerSelector        = ".list-item-banner"
	detailTableSelector   = "table.mt-2"
	secondaryInfoSelector = ".secondary-information"

	// Pagination
	paginateButtonSelector = ".js-paginate-btn"
	activePageSelector     = ".js-paginate-btn.active"
	totalContainerSelector = ".js-total-container"

	// Listing URLs carry the natural record key in this query parameter.
	propertyIDParam = "propertyId"
)

// listingContainerSelectors are tried in order until one matches; the site
// has shuffled its card markup before.
var listingContainerSelectors = []string{
	".js-listing-container .grid-item",
	".grid-item",
	".property-item",
	".listing-item",
	".property-card",
	`div[class*="property"]`,
	`div[class*="listing"]`,
}

var titleSelectors = []string{
	"h5.mb-0",
	"h5",
	"h4",
	"h3",
	".title",
	".property-title",
	".listing-title",
}

var imageSelectors = []string{
	"img.image-cover",
	".property-image img",
	".listing-image img",
	"img",
}
