package config

import "fmt"

// Validate performs range checks on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite3", "sqlite":
	default:
		return fmt.Errorf("db.driver must be sqlite3 or sqlite (got %q)", c.DB.Driver)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("db.path is required")
	}
	if err := c.Ingest.validate(); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	if err := c.Enrich.validate(); err != nil {
		return fmt.Errorf("enrich: %w", err)
	}
	return nil
}

func (i *IngestConfig) validate() error {
	if i.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", i.BatchSize)
	}
	if i.OccurrenceCap <= 0 {
		return fmt.Errorf("occurrence_cap must be > 0 (got %d)", i.OccurrenceCap)
	}
	if i.ChapterWorkers <= 0 || i.DocumentWorkers <= 0 {
		return fmt.Errorf("worker counts must be > 0 (got chapter=%d document=%d)", i.ChapterWorkers, i.DocumentWorkers)
	}
	if i.FlushInterval < 0 {
		return fmt.Errorf("flush_interval must not be negative")
	}
	return nil
}

func (e *EnrichConfig) validate() error {
	if e.TargetLanguage == "" {
		return fmt.Errorf("target_language is required")
	}
	if e.Inline < 0 {
		return fmt.Errorf("inline must be >= 0 (got %d)", e.Inline)
	}
	if e.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", e.Timeout)
	}
	if e.Delay < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	if e.BackgroundWorkers <= 0 {
		return fmt.Errorf("background_workers must be > 0 (got %d)", e.BackgroundWorkers)
	}
	return nil
}
