package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/japaniel/lexindex/pkg/db"
	"github.com/japaniel/lexindex/pkg/document"
	"github.com/japaniel/lexindex/pkg/language"
	"github.com/japaniel/lexindex/pkg/vocab"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var lang, title, author, target string
	cmd := &cobra.Command{
		Use:   "ingest <file|url>",
		Short: "Load a document and build its vocabulary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := opts.app

			code := language.Normalize(lang)
			if !a.rules.Supported(code) {
				return fmt.Errorf("unsupported language %q (supported: %v)", lang, a.rules.Languages())
			}
			if target == "" {
				target = a.cfg.Enrich.TargetLanguage
			}

			src, err := document.NewLoader(a.log).Load(ctx, args[0])
			if err != nil {
				return fmt.Errorf("load %s: %w", args[0], err)
			}
			if title == "" {
				title = src.Title
			}
			if author == "" {
				author = src.Author
			}
			id, err := db.CreateDocument(ctx, a.conn, db.Document{
				Title:          title,
				Author:         author,
				Origin:         src.Origin,
				Language:       code,
				TargetLanguage: language.Normalize(target),
				Content:        src.Text,
			})
			if err != nil {
				return err
			}
			return opts.process(cmd, id)
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Document language (ISO 639-1)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Title (default: extracted from the source)")
	cmd.Flags().StringVar(&author, "author", "", "Author (default: extracted from the source)")
	cmd.Flags().StringVar(&target, "target", "", "Translation language (default: enrich.target_language)")
	_ = cmd.MarkFlagRequired("lang")
	return cmd
}

func newReprocessCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reprocess <document-id>",
		Short: "Rebuild the vocabulary of a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := opts.app
			if _, err := db.GetDocument(cmd.Context(), a.conn, args[0]); err != nil {
				return fmt.Errorf("document %s: %w", args[0], err)
			}
			if err := db.SetDocumentStatus(cmd.Context(), a.conn, args[0], db.DocumentPending, ""); err != nil {
				return err
			}
			return opts.process(cmd, args[0])
		},
	}
}

func newResumeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Process documents left pending or unfinished",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := opts.app.scheduler(ctx)
			if err != nil {
				return err
			}
			n, err := s.Resume(ctx)
			s.Close()
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), map[string]int{"resumed": n}, func(w io.Writer) {
				fmt.Fprintf(w, "Resumed %d documents.\n", n)
			})
		},
	}
}

// process runs docID through the scheduler, waits for it and prints its
// final status.
func (o *rootOptions) process(cmd *cobra.Command, docID string) error {
	ctx := cmd.Context()
	s, err := o.app.scheduler(ctx)
	if err != nil {
		return err
	}
	if err := s.Submit(ctx, docID); err != nil {
		s.Close()
		return err
	}
	s.Close()

	p, err := vocab.New(o.app.conn, nil, o.app.log).DocumentStatus(ctx, docID)
	if err != nil {
		return err
	}
	if err := o.print(cmd.OutOrStdout(), p, func(w io.Writer) { printProgress(w, p) }); err != nil {
		return err
	}
	if p.Status == db.DocumentFailed {
		return fmt.Errorf("document %s failed: %s", docID, p.Error)
	}
	return nil
}
