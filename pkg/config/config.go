package config

import (
	"slices"
	"strings"
	"time"
)

// Config is the root configuration of lexindex.
type Config struct {
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Enrich    EnrichConfig    `yaml:"enrich"`
	Languages LanguagesConfig `yaml:"languages"`
}

// DBConfig selects the SQLite driver and database location.
// Driver "sqlite3" is the cgo driver, "sqlite" the pure-Go one.
type DBConfig struct {
	Driver string `yaml:"driver" env:"LEXINDEX_DB_DRIVER" env-default:"sqlite3"`
	Path   string `yaml:"path"   env:"LEXINDEX_DB_PATH"   env-default:"lexindex.db"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LEXINDEX_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LEXINDEX_LOG_FORMAT" env-default:"text"`
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	BatchSize       int           `yaml:"batch_size"        env:"LEXINDEX_BATCH_SIZE"        env-default:"100"`
	FlushInterval   time.Duration `yaml:"flush_interval"    env:"LEXINDEX_FLUSH_INTERVAL"    env-default:"500ms"`
	OccurrenceCap   int           `yaml:"occurrence_cap"    env:"LEXINDEX_OCCURRENCE_CAP"    env-default:"20"`
	ChapterWorkers  int           `yaml:"chapter_workers"   env:"LEXINDEX_CHAPTER_WORKERS"   env-default:"4"`
	DocumentWorkers int           `yaml:"document_workers"  env:"LEXINDEX_DOCUMENT_WORKERS"  env-default:"2"`
	NormalizeCache  int           `yaml:"normalize_cache"   env:"LEXINDEX_NORMALIZE_CACHE"   env-default:"200000"`
}

// EnrichConfig configures the enrichment source chain.
type EnrichConfig struct {
	TargetLanguage    string        `yaml:"target_language"     env:"LEXINDEX_TARGET_LANGUAGE"     env-default:"en"`
	Inline            int           `yaml:"inline"              env:"LEXINDEX_ENRICH_INLINE"       env-default:"10"`
	Delay             time.Duration `yaml:"delay"               env:"LEXINDEX_ENRICH_DELAY"        env-default:"75ms"`
	Timeout           time.Duration `yaml:"timeout"             env:"LEXINDEX_ENRICH_TIMEOUT"      env-default:"5s"`
	BackgroundWorkers int           `yaml:"background_workers"  env:"LEXINDEX_ENRICH_WORKERS"      env-default:"2"`
	Offline           bool          `yaml:"offline"             env:"LEXINDEX_ENRICH_OFFLINE"      env-default:"false"`
	MyMemoryURL       string        `yaml:"mymemory_url"        env:"LEXINDEX_MYMEMORY_URL"        env-default:"https://api.mymemory.translated.net/get"`
	LibreTranslateURL string        `yaml:"libretranslate_url"  env:"LEXINDEX_LIBRETRANSLATE_URL"  env-default:"https://libretranslate.com/translate"`
	FreeDictionaryURL string        `yaml:"freedictionary_url"  env:"LEXINDEX_FREEDICTIONARY_URL"  env-default:"https://api.dictionaryapi.dev/api/v2/entries/en"`
	// KaikkiFiles maps a source language code to a kaikki.org JSONL dump.
	KaikkiFiles map[string]string `yaml:"kaikki_files" env:"LEXINDEX_KAIKKI_FILES" env-separator:","`
	// FrequencyFiles maps a language code to a "word count" frequency list.
	FrequencyFiles map[string]string `yaml:"frequency_files" env:"LEXINDEX_FREQUENCY_FILES" env-separator:","`
	JMdictPath     string            `yaml:"jmdict_path"     env:"LEXINDEX_JMDICT_PATH"`
}

// LanguagesConfig holds per-language switches.
type LanguagesConfig struct {
	// Plurals lists the languages whose plural nouns are normalized to the singular.
	Plurals []string `yaml:"plurals" env:"LEXINDEX_PLURALS" env-default:"en,es,fr" env-separator:","`
}

// PluralsFor reports whether plural normalization is enabled for lang.
func (l LanguagesConfig) PluralsFor(lang string) bool {
	return slices.Contains(l.Plurals, strings.ToLower(strings.TrimSpace(lang)))
}

// PluralFlags returns the plural switches as a map keyed by language code.
func (l LanguagesConfig) PluralFlags() map[string]bool {
	out := make(map[string]bool, len(l.Plurals))
	for _, code := range l.Plurals {
		code = strings.ToLower(strings.TrimSpace(code))
		if code != "" {
			out[code] = true
		}
	}
	return out
}
