package kings

import (
	"time"

	"github.com/google/uuid"

	"kings-scraper/models"
	"kings-scraper/utils"
)

// Version is the static scraper version stamped into run metadata.
const Version = "1.0"

// Aggregator turns the driver's record collection into the serializable
// output document. Writing it anywhere is the storage layer's job.
type Aggregator struct {
	logger *utils.Logger
}

// NewAggregator creates an Aggregator.
func NewAggregator(logger *utils.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Build produces the metadata + properties document. Order is preserved as
// collected (page order, then discovery order within a page). A nil record
// slice still yields a valid document with an empty properties array.
func (a *Aggregator) Build(properties []*models.Property, startedAt time.Time) *models.Document {
	if properties == nil {
		properties = []*models.Property{}
	}

	doc := &models.Document{
		Metadata: models.RunMetadata{
			RunID:           uuid.NewString(),
			ScrapedAt:       startedAt,
			TotalProperties: len(properties),
			ScraperVersion:  Version,
		},
		Properties: properties,
	}

	a.logger.Info("[aggregate] Built document: run %s, %d properties",
		doc.Metadata.RunID, doc.Metadata.TotalProperties)
	return doc
}
