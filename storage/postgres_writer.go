package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"kings-scraper/models"
)

// PostgresWriter persists scraped properties to PostgreSQL. It is an
// optional backend; the JSON document remains the primary output.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS properties (
			id             SERIAL PRIMARY KEY,
			property_id    VARCHAR(100) NOT NULL,
			title          TEXT         NOT NULL DEFAULT '',
			location       TEXT         NOT NULL DEFAULT '',
			listing_type   VARCHAR(50)  NOT NULL DEFAULT '',
			for_lease      BOOLEAN      NOT NULL DEFAULT FALSE,
			for_sale       BOOLEAN      NOT NULL DEFAULT FALSE,
			url            TEXT,
			image_url      TEXT,
			details        JSONB        NOT NULL DEFAULT '{}',
			secondary_info JSONB        NOT NULL DEFAULT '[]',
			page_number    INTEGER      NOT NULL,
			scraped_at     TIMESTAMPTZ  NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_properties_property_id  ON properties(property_id);
		CREATE INDEX IF NOT EXISTS idx_properties_listing_type ON properties(listing_type);
		CREATE INDEX IF NOT EXISTS idx_properties_page_number  ON properties(page_number);
	`)
	return err
}

// Clear deletes all existing properties from the table.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM properties")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write batch-inserts ALL scraped properties, clearing old data first.
func (pw *PostgresWriter) Write(properties []*models.Property) error {
	if len(properties) == 0 {
		return nil
	}

	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < len(properties); i += batchSize {
		end := i + batchSize
		if end > len(properties) {
			end = len(properties)
		}
		if err := pw.insertBatch(properties[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.Property) error {
	const cols = 12
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, p := range batch {
		base := idx * cols
		placeholders := make([]string, cols)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", base+i+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		details, err := json.Marshal(p.Details)
		if err != nil {
			return fmt.Errorf("postgres: marshal details: %w", err)
		}
		secondary, err := json.Marshal(p.SecondaryInfo)
		if err != nil {
			return fmt.Errorf("postgres: marshal secondary info: %w", err)
		}

		valueArgs = append(valueArgs,
			p.PropertyID, p.Title, p.Location, p.ListingType,
			p.ForLease, p.ForSale, p.URL, p.ImageURL,
			details, secondary, p.PageNumber, p.ScrapedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO properties (
			property_id, title, location, listing_type,
			for_lease, for_sale, url, image_url,
			details, secondary_info, page_number, scraped_at
		)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
