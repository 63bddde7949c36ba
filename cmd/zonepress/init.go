package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jroosing/zonepress/internal/publish"
)

func newInitCmd(a *app) *cobra.Command {
	var tmpl publish.ZoneTemplate
	cmd := &cobra.Command{
		Use:   "init <zone-file>",
		Short: "Create a zone file ready for publishing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl.Marker = a.cfg.Zone.Marker
			header, err := publish.InitZone(a.fs, args[0], tmpl, a.now())
			if err != nil {
				return err
			}
			a.logger.Info("zone file created", "zone_file", args[0], "origin", header.Origin, "serial", header.Serial.String())
			fmt.Fprintf(a.stdout, "created %s (%s, serial %s)\n", args[0], header.Origin, header.Serial)
			return nil
		},
	}
	cmd.Flags().StringVar(&tmpl.Origin, "origin", "", "Zone origin, e.g. blog.example.com")
	cmd.Flags().StringVar(&tmpl.Master, "master", "", "Primary name server")
	cmd.Flags().StringVar(&tmpl.Contact, "contact", "", "Responsible mailbox in DNS form, e.g. hostmaster.example.com")
	cmd.Flags().Uint32Var(&tmpl.TTL, "ttl", 0, "Zone default TTL (default 3600)")
	_ = cmd.MarkFlagRequired("origin")
	_ = cmd.MarkFlagRequired("master")
	_ = cmd.MarkFlagRequired("contact")
	return cmd
}
