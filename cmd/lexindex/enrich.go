package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/japaniel/lexindex/pkg/db"
	"github.com/japaniel/lexindex/pkg/enrich"
	"github.com/japaniel/lexindex/pkg/language"
	"github.com/japaniel/lexindex/pkg/lexdata"
)

func newEnrichCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "enrich [document-id]",
		Short: "Look up translations and definitions for unenriched lemmas",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := opts.app
			var docID, target string
			if len(args) == 1 {
				docID = args[0]
				doc, err := db.GetDocument(ctx, a.conn, docID)
				if err != nil {
					return fmt.Errorf("document %s: %w", docID, err)
				}
				target = doc.TargetLanguage
			}
			lemmas, err := db.LemmasNeedingEnrichment(ctx, a.conn, docID, limit)
			if err != nil {
				return err
			}
			e, err := a.getEnricher(ctx)
			if err != nil {
				return err
			}
			n, err := e.EnrichBatch(ctx, lemmas, target, len(lemmas))
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), map[string]int{"candidates": len(lemmas), "enriched": n}, func(w io.Writer) {
				fmt.Fprintf(w, "Enriched %d of %d lemmas.\n", n, len(lemmas))
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 500, "Maximum lemmas to look up (0 for all)")
	return cmd
}

// newImportDictCmd fills unenriched lemmas from a local dictionary file
// without touching the network.
func newImportDictCmd(opts *rootOptions) *cobra.Command {
	var lang, format string
	cmd := &cobra.Command{
		Use:   "import-dict <path>",
		Short: "Fill definitions from a kaikki.org or JMdict-simplified dictionary file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := opts.app
			path := args[0]

			var ix *lexdata.Index
			switch format {
			case "kaikki":
				if lang == "" {
					return fmt.Errorf("--lang is required for kaikki dictionaries")
				}
				var stats lexdata.Stats
				var err error
				ix, stats, err = lexdata.LoadKaikkiFile(path, language.Normalize(lang))
				if err != nil {
					return fmt.Errorf("load dictionary: %w", err)
				}
				a.log.InfoContext(ctx, "dictionary loaded", slog.String("path", path),
					slog.Int("lines", stats.TotalLines), slog.Int("entries", stats.Entries),
					slog.Int("malformed", stats.MalformedLines), slog.Int("other_lang", stats.OtherLangLines))
			case "jmdict":
				var err error
				if ix, err = lexdata.LoadJMdictFile(path); err != nil {
					return fmt.Errorf("load dictionary: %w", err)
				}
				a.log.InfoContext(ctx, "dictionary loaded", slog.String("path", path), slog.Int("entries", ix.Len()))
			default:
				return fmt.Errorf("unknown dictionary format %q (want kaikki or jmdict)", format)
			}

			var todo []db.Lemma
			lemmas, err := db.LemmasNeedingEnrichment(ctx, a.conn, "", 0)
			if err != nil {
				return err
			}
			for _, l := range lemmas {
				if l.Language == ix.Lang {
					todo = append(todo, l)
				}
			}

			r := enrich.NewResolver([]enrich.Source{enrich.NewIndexSource(ix)}, enrich.WithLogger(a.log))
			e := enrich.NewEnricher(a.conn, r, nil, a.cfg.Enrich.TargetLanguage, a.log)
			n, err := e.EnrichBatch(ctx, todo, "", len(todo))
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), map[string]int{"entries": ix.Len(), "candidates": len(todo), "updated": n}, func(w io.Writer) {
				fmt.Fprintf(w, "Loaded %d entries. Updated definitions for %d of %d lemmas.\n", ix.Len(), n, len(todo))
			})
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Dictionary language (kaikki only; JMdict is Japanese)")
	cmd.Flags().StringVar(&format, "dict-format", "kaikki", "Dictionary format: kaikki or jmdict")
	return cmd
}
