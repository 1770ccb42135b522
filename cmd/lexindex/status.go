package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/japaniel/lexindex/pkg/vocab"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status [document-id]",
		Short: "Show processing progress of one or all documents",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.app.vocab(cmd.Context(), false)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				p, err := svc.DocumentStatus(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("document %s: %w", args[0], err)
				}
				return opts.print(cmd.OutOrStdout(), p, func(w io.Writer) { printProgress(w, p) })
			}

			docs, err := svc.Documents(cmd.Context())
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), docs, func(w io.Writer) {
				if len(docs) == 0 {
					fmt.Fprintln(w, "No documents.")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tLANG\tSTATUS\tPROGRESS\tWORDS\tLEMMAS\tTITLE")
				for _, d := range docs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%d\t%d\t%s\n",
						d.ID, d.Language, d.Status, d.Percent, d.TotalWords, d.UniqueLemmas, d.Title)
				}
				tw.Flush()
			})
		},
	}
}

func printProgress(w io.Writer, p *vocab.Progress) {
	fmt.Fprintf(w, "Document %s (%s)\n", p.ID, p.Title)
	fmt.Fprintf(w, "  status:   %s\n", p.Status)
	fmt.Fprintf(w, "  progress: %.0f%%\n", p.Percent)
	fmt.Fprintf(w, "  words:    %d\n", p.TotalWords)
	fmt.Fprintf(w, "  lemmas:   %d\n", p.UniqueLemmas)
	if p.Error != "" {
		fmt.Fprintf(w, "  error:    %s\n", p.Error)
	}
}
