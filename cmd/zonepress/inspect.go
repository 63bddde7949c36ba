package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/miekg/dns"
	"github.com/spf13/cobra"

	"github.com/jroosing/zonepress/internal/client"
	"github.com/jroosing/zonepress/internal/zone"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <zone-file>",
		Short: "List the documents published in a zone file and check them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			z, err := zone.LoadFile(a.fs, args[0])
			if err != nil {
				return fmt.Errorf("failed to load zone: %w", err)
			}
			fmt.Fprintf(a.stdout, "ORIGIN: %s\n", z.Origin)
			fmt.Fprintf(a.stdout, "DEFAULT_TTL: %d\n", z.DefaultTTL)
			if rr := z.SOA(dns.ClassINET); rr != nil {
				if data, ok := rr.RData.(zone.SOAData); ok {
					fmt.Fprintf(a.stdout, "SERIAL: %d\n", data.Serial)
				}
			}

			entries := client.ListDocuments(z)
			fmt.Fprintf(a.stdout, "DOCUMENTS: %d\n", len(entries))
			c := client.New(&client.ZoneResolver{Zone: z}, a.verifier(), z.Origin, a.logger)
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			ok := color.New(color.FgGreen).SprintFunc()
			bad := color.New(color.FgRed).SprintFunc()
			for _, e := range entries {
				status := ok("verified")
				doc, err := c.Fetch(cmd.Context(), e.Name)
				switch {
				case err != nil:
					status = bad("broken: " + err.Error())
				case !doc.Verified:
					status = bad("hash mismatch")
				}
				fmt.Fprintf(tw, "  %s\t%s\t%d chunks\t%s\t%s\n", e.Name, e.Index.MimeType, e.Index.ChunkCount, e.Index.Hash, status)
			}
			return tw.Flush()
		},
	}
}
