package storage

import "kings-scraper/models"

// DocumentWriter is the interface for persisting a run's output document.
type DocumentWriter interface {
	Write(doc *models.Document) error
	Close() error
}

// PropertyWriter is the interface for storage backends that persist
// individual property records.
type PropertyWriter interface {
	Write(properties []*models.Property) error
	Close() error
}
