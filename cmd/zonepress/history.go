package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit int
		id    int64
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded publications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openLedger()
			if err != nil {
				return err
			}
			if db == nil {
				return errors.New("no ledger configured (ledger.path)")
			}
			defer db.Close()

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			if id > 0 {
				p, err := db.GetPublication(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "publication %d: %s serial %s (was %s) at %s\n",
					p.ID, p.ZoneFile, p.Serial, p.PreviousSerial, p.PublishedAt.Format("2006-01-02 15:04:05"))
				for _, d := range p.Documents {
					fmt.Fprintf(tw, "  %s\t%s\t%s\t%d chunks\t%s %s\n", d.Name, d.Path, d.MimeType, d.ChunkCount, d.HashAlgorithm, d.Hash)
				}
				return tw.Flush()
			}

			pubs, err := db.ListPublications(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, p := range pubs {
				changed := "unchanged"
				if p.Changed {
					changed = "changed"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.PublishedAt.Format("2006-01-02 15:04:05"), p.Serial, p.ZoneFile, changed)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of publications to list; 0 lists all")
	cmd.Flags().Int64Var(&id, "id", 0, "Show one publication with its documents")
	return cmd
}
