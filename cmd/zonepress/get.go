package main

import (
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jroosing/zonepress/internal/client"
)

func newGetCmd(a *app) *cobra.Command {
	var zoneFile, server, origin string
	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Fetch a document from DNS and print it",
		Long: `get resolves the metadata record of a document, fetches its chunks,
prints the reassembled body to stdout and reports on stderr whether it
matches the published hash. Name is a document path or its record name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if server != "" {
				a.cfg.Client.Server = server
			}
			if origin != "" {
				a.cfg.Client.Origin = origin
			}
			if zoneFile == "" {
				zoneFile = a.cfg.Client.ZoneFile
			}
			lib, err := a.library(zoneFile, nil)
			if err != nil {
				return err
			}
			doc, err := lib.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if _, err := a.stdout.Write(doc.Body); err != nil {
				return err
			}
			trustLine(a.stderr, doc)
			return nil
		},
	}
	cmd.Flags().StringVar(&zoneFile, "zone-file", "", "Read from a zone file instead of DNS")
	cmd.Flags().StringVar(&server, "server", "", "DNS server host:port")
	cmd.Flags().StringVar(&origin, "origin", "", "Zone the document is published in")
	return cmd
}

func trustLine(w io.Writer, doc *client.Document) {
	if doc.Verified {
		color.New(color.FgGreen).Fprintf(w, "verified: %s %s\n", doc.Index.HashAlgorithm, doc.Index.Hash)
		return
	}
	color.New(color.FgYellow).Fprintf(w, "unverified: content could not be checked against %s\n", doc.Index.Hash)
}
