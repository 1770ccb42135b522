package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/japaniel/lexindex/pkg/config"
	"github.com/japaniel/lexindex/pkg/logging"
)

// rootOptions holds the persistent flags and the app built from them.
type rootOptions struct {
	configPath string
	dbPath     string
	driver     string
	format     string
	logLevel   string
	offline    bool

	app *app
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "lexindex",
		Short:        "Vocabulary index for language learners",
		Long:         "Ingest books and articles into a deduplicated, lemmatized and enriched vocabulary index.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if opts.app == nil {
				return nil
			}
			return opts.app.close()
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Config file (default: $LEXINDEX_CONFIG or ./lexindex.yaml)")
	f.StringVarP(&opts.dbPath, "db", "d", "", "Database path (overrides db.path)")
	f.StringVar(&opts.driver, "driver", "", "SQLite driver: sqlite3 or sqlite (overrides db.driver)")
	f.StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	f.BoolVar(&opts.offline, "offline", false, "Do not contact remote dictionaries or translators")

	root.AddCommand(
		newIngestCmd(opts),
		newResumeCmd(opts),
		newReprocessCmd(opts),
		newStatusCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newMarkCmd(opts),
		newEnrichCmd(opts),
		newImportDictCmd(opts),
	)
	return root
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	if o.format != "text" && o.format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", o.format)
	}

	path := o.configPath
	if path == "" {
		path = os.Getenv("LEXINDEX_CONFIG")
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if o.dbPath != "" {
		cfg.DB.Path = o.dbPath
	}
	if o.driver != "" {
		cfg.DB.Driver = o.driver
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.offline {
		cfg.Enrich.Offline = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: validate: %w", err)
	}

	logger := logging.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	o.app = a
	return nil
}

// print writes v as indented JSON or through text, depending on --format.
func (o *rootOptions) print(w io.Writer, v any, text func(io.Writer)) error {
	if o.format == "json" {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	text(w)
	return nil
}
