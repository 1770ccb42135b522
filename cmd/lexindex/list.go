package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/japaniel/lexindex/pkg/db"
	"github.com/japaniel/lexindex/pkg/vocab"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var f vocab.Filter
	var noEnrich bool
	cmd := &cobra.Command{
		Use:   "list <document-id>",
		Short: "List the vocabulary of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.app.vocab(cmd.Context(), !noEnrich)
			if err != nil {
				return err
			}
			page, err := svc.ListLemmas(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), page, func(w io.Writer) {
				fmt.Fprintf(w, "%d-%d of %d lemmas (%s)\n",
					min(page.Offset+1, page.Total), page.Offset+len(page.Items), page.Total, page.Sort)
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tLEMMA\tFREQ\tDIFF\tSTATUS\tPOS\tTRANSLATION")
				for _, it := range page.Items {
					fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\t%s\t%s\n",
						it.ID, it.Display, it.DocFrequency, it.Difficulty, it.Status, it.POS, it.Translation)
				}
				tw.Flush()
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.Status, "status", "s", "", "Learning status: new, learning, known or ignored")
	fl.StringVar(&f.Sort, "sort", "frequency", "Sort order: frequency, alpha or random")
	fl.Int64Var(&f.Seed, "seed", 0, "Seed for random order")
	fl.IntVarP(&f.Limit, "limit", "n", vocab.DefaultLimit, "Page size")
	fl.IntVar(&f.Offset, "offset", 0, "Page offset")
	fl.BoolVar(&noEnrich, "no-enrich", false, "Do not enrich unenriched lemmas")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var noEnrich bool
	cmd := &cobra.Command{
		Use:   "show <lemma-id>",
		Short: "Show a lemma with its forms and sample sentences",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid lemma id %q", args[0])
			}
			svc, err := opts.app.vocab(cmd.Context(), !noEnrich)
			if err != nil {
				return err
			}
			d, err := svc.LemmaDetail(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("lemma %d: %w", id, err)
			}
			return opts.print(cmd.OutOrStdout(), d, func(w io.Writer) { printDetail(w, d) })
		},
	}
	cmd.Flags().BoolVar(&noEnrich, "no-enrich", false, "Do not enrich the lemma if it has no definition")
	return cmd
}

func printDetail(w io.Writer, d *vocab.Detail) {
	l := d.Lemma
	fmt.Fprintf(w, "%s [%s] #%d\n", l.Lemma, l.Language, l.ID)
	if l.POS != "" {
		fmt.Fprintf(w, "  pos:         %s\n", l.POS)
	}
	if l.Translation != "" {
		fmt.Fprintf(w, "  translation: %s\n", l.Translation)
	}
	if l.Definition != "" {
		fmt.Fprintf(w, "  definition:  %s\n", l.Definition)
	}
	for _, k := range slices.Sorted(maps.Keys(l.Grammar)) {
		fmt.Fprintf(w, "  %-12s %s\n", k+":", l.Grammar[k])
	}
	fmt.Fprintf(w, "  frequency:   %d\n", l.Frequency)
	fmt.Fprintf(w, "  difficulty:  %d\n", l.Difficulty)
	fmt.Fprintf(w, "  status:      %s\n", d.Status)
	for _, u := range d.Documents {
		forms := make([]string, len(u.Forms))
		for i, f := range u.Forms {
			forms[i] = fmt.Sprintf("%s (%d)", f.Form, f.Count)
		}
		fmt.Fprintf(w, "  in %s: %d times, %s\n", u.DocumentID, u.Frequency, strings.Join(forms, ", "))
	}
	for _, o := range d.Occurrences {
		fmt.Fprintf(w, "  > %s\n", o.Context)
	}
}

func newMarkCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mark <status> <lemma-id>...",
		Short: "Set the learning status of lemmas",
		Long:  "Set the learning status (new, learning, known, ignored) of one or more lemmas. learned and mastered mean known.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := args[0]
			ids := make([]int64, 0, len(args)-1)
			for _, raw := range args[1:] {
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid lemma id %q", raw)
				}
				ids = append(ids, id)
			}
			svc, err := opts.app.vocab(cmd.Context(), false)
			if err != nil {
				return err
			}

			if len(ids) == 1 {
				st, err := svc.SetStatus(cmd.Context(), ids[0], status)
				if err != nil {
					return fmt.Errorf("lemma %d: %w", ids[0], err)
				}
				return opts.print(cmd.OutOrStdout(), map[string]any{"lemma_id": ids[0], "status": st}, func(w io.Writer) {
					fmt.Fprintf(w, "Lemma %d marked %s.\n", ids[0], st)
				})
			}

			updates := make(map[int64]string, len(ids))
			for _, id := range ids {
				updates[id] = status
			}
			n, err := svc.SetStatuses(cmd.Context(), updates)
			if err != nil {
				return err
			}
			st, _ := db.ParseLearningStatus(status)
			return opts.print(cmd.OutOrStdout(), map[string]any{"updated": n, "status": st}, func(w io.Writer) {
				fmt.Fprintf(w, "%d lemmas marked %s.\n", n, st)
			})
		},
	}
}
