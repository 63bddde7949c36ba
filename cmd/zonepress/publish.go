package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jroosing/zonepress/internal/publish"
	"github.com/jroosing/zonepress/internal/records"
	"github.com/jroosing/zonepress/internal/zone"
)

func newPublishCmd(a *app) *cobra.Command {
	var (
		contentRoot     string
		ignore          string
		dryRun          bool
		bump            string
		canonicalHeader bool
	)
	cmd := &cobra.Command{
		Use:   "publish [zone-file]",
		Short: "Regenerate the records of a zone file from the content directory",
		Long: `publish walks the content directory, encodes every file into TXT records,
replaces everything below the marker line of the zone file with them and
increments the SOA serial. The updated zone header is echoed to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if len(args) == 1 {
				cfg.Zone.File = args[0]
			}
			if cfg.Zone.File == "" {
				return errors.New("no zone file given (argument or zone.file)")
			}
			if cmd.Flags().Changed("content") {
				cfg.Content.Root = contentRoot
			}
			if cmd.Flags().Changed("ignore") {
				cfg.Content.Ignore = &ignore
			}
			if cmd.Flags().Changed("bump") {
				cfg.Zone.Bump = bump
			}
			if cmd.Flags().Changed("canonical-header") {
				cfg.Zone.CanonicalHeader = canonicalHeader
			}
			policy, err := zone.ParseBumpPolicy(cfg.Zone.Bump)
			if err != nil {
				return err
			}
			builder, err := records.NewBuilder(cfg.Records.TTL, cfg.Records.ChunkLength, cfg.Records.HashAlgorithm)
			if err != nil {
				return err
			}

			p := &publish.Publisher{
				Fs:          a.fs,
				ZoneFile:    cfg.Zone.File,
				ContentRoot: cfg.Content.Root,
				Ignore:      cfg.Content.IgnorePattern(),
				Assembler: &zone.Assembler{
					Marker:          cfg.Zone.Marker,
					Builder:         builder,
					Policy:          policy,
					CanonicalHeader: cfg.Zone.CanonicalHeader,
					Logger:          a.logger,
				},
				Stdout: a.stdout,
				DryRun: dryRun,
				Now:    a.now,
				Logger: a.logger,
			}
			if !dryRun {
				ledger, err := a.openLedger()
				if err != nil {
					return err
				}
				if ledger != nil {
					defer ledger.Close()
					p.Ledger = ledger
				}
			}

			_, err = p.Run(cmd.Context())
			return err
		},
	}
	cmd.Flags().StringVar(&contentRoot, "content", "", "Content directory (default from config, \"content\")")
	cmd.Flags().StringVar(&ignore, "ignore", "", "Skip paths containing this text; empty disables skipping")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the new zone instead of writing it")
	cmd.Flags().StringVar(&bump, "bump", "", "Serial policy: always or on-change")
	cmd.Flags().BoolVar(&canonicalHeader, "canonical-header", false, "Rewrite the zone header from the parsed SOA")
	return cmd
}
