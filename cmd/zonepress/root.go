package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/jroosing/zonepress/internal/client"
	"github.com/jroosing/zonepress/internal/config"
	"github.com/jroosing/zonepress/internal/database"
	"github.com/jroosing/zonepress/internal/logging"
)

// app holds what every subcommand shares. Tests swap the filesystem, the
// output streams and the clock.
type app struct {
	configPath string
	debug      bool
	jsonLogs   bool

	cfg    *config.Config
	logger *slog.Logger

	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

func newApp() *app {
	return &app{
		fs:     afero.NewOsFs(),
		stdout: os.Stdout,
		stderr: os.Stderr,
		now:    time.Now,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "zonepress",
		Short: "Publish files as DNS TXT records",
		Long: `zonepress encodes a directory of small files (markdown, scripts, text)
into base64 TXT records below a marker line in a zone file, bumping the SOA
serial on every run, and reconstructs and verifies them from DNS answers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to YAML configuration file (or set "+config.EnvConfigPath+")")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&a.jsonLogs, "json-logs", false, "Enable JSON structured logging")

	root.AddCommand(
		newPublishCmd(a),
		newInitCmd(a),
		newGetCmd(a),
		newInspectCmd(a),
		newServeCmd(a),
		newHistoryCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(config.ResolveConfigPath(a.configPath))
	if err != nil {
		return err
	}
	if a.jsonLogs {
		cfg.Logging.Structured = true
		cfg.Logging.StructuredFormat = "json"
	}
	if a.debug {
		cfg.Logging.Level = "DEBUG"
	}
	a.cfg = cfg
	a.logger = logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
		IncludePID:       cfg.Logging.IncludePID,
		ExtraFields:      cfg.Logging.ExtraFields,
		Output:           a.stderr,
	})
	return nil
}

func (a *app) verifier() *client.Verifier {
	return client.NewVerifier(client.StdDigester{}, a.logger)
}

// openLedger opens the configured ledger, or returns nil when none is configured.
func (a *app) openLedger() (*database.DB, error) {
	if a.cfg.Ledger.Path == "" {
		return nil, nil
	}
	db, err := database.Open(a.cfg.Ledger.Path)
	if err != nil {
		return nil, fmt.Errorf("ledger %s: %w", a.cfg.Ledger.Path, err)
	}
	return db, nil
}

// library reads from zoneFile when set and from DNS otherwise. Over DNS the
// document names come from the latest ledger entry, if there is a ledger.
func (a *app) library(zoneFile string, ledger *database.DB) (client.Library, error) {
	if zoneFile != "" {
		return &client.ZoneFileLibrary{Fs: a.fs, Path: zoneFile, Verifier: a.verifier(), Logger: a.logger}, nil
	}
	if a.cfg.Client.Origin == "" {
		return nil, fmt.Errorf("client.origin is required to read over DNS (or pass --zone-file)")
	}
	var resolver client.Resolver = client.NewDNSResolver(a.cfg.Client.Server, a.cfg.Client.Parsed)
	if n := a.cfg.Client.CacheSize; n > 0 {
		ttl := time.Duration(a.cfg.Records.TTL) * time.Second
		resolver = client.NewCachingResolver(resolver, n, ttl)
	}
	lib := &client.DNSLibrary{Client: client.New(resolver, a.verifier(), a.cfg.Client.Origin, a.logger)}
	if ledger != nil {
		lib.Names = func(ctx context.Context) ([]string, error) {
			return latestNames(ctx, ledger)
		}
	}
	return lib, nil
}

func latestNames(ctx context.Context, ledger *database.DB) ([]string, error) {
	pubs, err := ledger.ListPublications(ctx, 1)
	if err != nil || len(pubs) == 0 {
		return nil, err
	}
	p, err := ledger.GetPublication(ctx, pubs[0].ID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(p.Documents))
	for _, d := range p.Documents {
		names = append(names, d.Name)
	}
	return names, nil
}
