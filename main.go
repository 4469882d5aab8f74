package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"kings-scraper/browser"
	"kings-scraper/config"
	"kings-scraper/observability"
	"kings-scraper/scraper/kings"
	"kings-scraper/storage"
	"kings-scraper/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "scrape failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger := utils.NewLogger()
	defer logger.Close()

	if cfg.Debug {
		logger.EnableDebug()
	}
	if cfg.LogFile != "" {
		if err := logger.LogToFile(cfg.LogFile); err != nil {
			logger.Warn("Could not open log file: %v", err)
		}
	}

	logger.Info("=== Kings Properties Scraping System starting ===")
	logger.Info("Config — start: %s | headless: %v | timeout: %ds | page cap: %d",
		cfg.StartURL, cfg.Headless, cfg.TimeoutSec, cfg.MaxPages)

	if cfg.MetricsPort != "" {
		observability.Start(cfg.MetricsPort, logger)
		logger.Info("Metrics exposed on :%s/metrics", cfg.MetricsPort)
	}

	jsonWriter, err := storage.NewJSONWriter(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("create JSON writer: %w", err)
	}
	defer jsonWriter.Close()

	session := browser.NewSession(cfg, logger)
	if err := session.Start(context.Background()); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer session.Stop()

	startedAt := time.Now()
	driver := kings.NewDriver(cfg, logger, session)
	properties, state, err := driver.Run(context.Background())
	if err != nil {
		// The crawl ended early; everything collected so far still gets
		// written below.
		logger.Error("Crawl ended early in state %s: %v", state, err)
	}

	doc := kings.NewAggregator(logger).Build(properties, startedAt)
	if err := jsonWriter.Write(doc); err != nil {
		return fmt.Errorf("write output document: %w", err)
	}
	logger.Info("Results saved to %s", cfg.OutputPath)

	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("PostgreSQL connection failed: %v", err)
		} else {
			defer pgWriter.Close()
			if err := pgWriter.Write(properties); err != nil {
				logger.Error("PostgreSQL write failed: %v", err)
			} else {
				logger.Info("Properties stored in PostgreSQL (table: properties)")
			}
		}
	}

	fmt.Printf("\n  Done. %d properties (state %s) → %s\n\n",
		len(properties), state, cfg.OutputPath)
	return nil
}
