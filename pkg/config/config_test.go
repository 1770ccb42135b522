package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "lexindex.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
db:
  driver: "sqlite"
  path: "/tmp/vocab.db"

log:
  level: "debug"
  format: "json"

ingest:
  batch_size: 50
  occurrence_cap: 10
  chapter_workers: 2
  document_workers: 1

enrich:
  target_language: "de"
  inline: 3
  delay: "10ms"
  timeout: "2s"
  kaikki_files:
    it: "/data/kaikki-it.jsonl"

languages:
  plurals: ["en", "it"]
`

func TestLoadFile_ValidYAML(t *testing.T) {
	path := writeYAML(t, t.TempDir(), validYAML)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.DB.Driver != "sqlite" || cfg.DB.Path != "/tmp/vocab.db" {
		t.Errorf("db: got %+v", cfg.DB)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "debug" {
		t.Errorf("log: got %+v", cfg.Log)
	}
	if cfg.Ingest.BatchSize != 50 || cfg.Ingest.OccurrenceCap != 10 {
		t.Errorf("ingest: got %+v", cfg.Ingest)
	}
	if cfg.Enrich.TargetLanguage != "de" || cfg.Enrich.Inline != 3 {
		t.Errorf("enrich: got %+v", cfg.Enrich)
	}
	if cfg.Enrich.Delay != 10*time.Millisecond || cfg.Enrich.Timeout != 2*time.Second {
		t.Errorf("enrich durations: delay=%v timeout=%v", cfg.Enrich.Delay, cfg.Enrich.Timeout)
	}
	if cfg.Enrich.KaikkiFiles["it"] != "/data/kaikki-it.jsonl" {
		t.Errorf("kaikki files: got %v", cfg.Enrich.KaikkiFiles)
	}
	if !cfg.Languages.PluralsFor("it") || cfg.Languages.PluralsFor("fr") {
		t.Errorf("plurals: got %v", cfg.Languages.Plurals)
	}
}

func TestLoadFile_DefaultsFromEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.DB.Driver != "sqlite3" {
		t.Errorf("driver: got %q, want sqlite3", cfg.DB.Driver)
	}
	if cfg.Ingest.BatchSize != 100 {
		t.Errorf("batch size: got %d, want 100", cfg.Ingest.BatchSize)
	}
	if cfg.Ingest.OccurrenceCap != 20 {
		t.Errorf("occurrence cap: got %d, want 20", cfg.Ingest.OccurrenceCap)
	}
	if cfg.Enrich.Timeout != 5*time.Second {
		t.Errorf("timeout: got %v, want 5s", cfg.Enrich.Timeout)
	}
	for _, lang := range []string{"en", "es", "fr"} {
		if !cfg.Languages.PluralsFor(lang) {
			t.Errorf("plurals should default on for %s", lang)
		}
	}
	if cfg.Languages.PluralsFor("it") {
		t.Error("plurals should default off for it")
	}
}

func TestLoadFile_ExplicitMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad driver", func(c *Config) { c.DB.Driver = "postgres" }},
		{"empty path", func(c *Config) { c.DB.Path = "" }},
		{"zero batch", func(c *Config) { c.Ingest.BatchSize = 0 }},
		{"zero cap", func(c *Config) { c.Ingest.OccurrenceCap = 0 }},
		{"zero workers", func(c *Config) { c.Ingest.DocumentWorkers = 0 }},
		{"no target", func(c *Config) { c.Enrich.TargetLanguage = "" }},
		{"zero timeout", func(c *Config) { c.Enrich.Timeout = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func validConfig() Config {
	return Config{
		DB:  DBConfig{Driver: "sqlite3", Path: "x.db"},
		Log: LogConfig{Level: "info", Format: "text"},
		Ingest: IngestConfig{
			BatchSize: 100, FlushInterval: time.Second, OccurrenceCap: 20,
			ChapterWorkers: 1, DocumentWorkers: 1,
		},
		Enrich: EnrichConfig{
			TargetLanguage: "en", Inline: 10, Delay: time.Millisecond,
			Timeout: time.Second, BackgroundWorkers: 1,
		},
	}
}
