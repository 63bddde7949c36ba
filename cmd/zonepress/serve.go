package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jroosing/zonepress/internal/api"
	"github.com/jroosing/zonepress/internal/api/handlers"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		zoneFile  string
		host      string
		port      int
		staticDir string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP read gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if host != "" {
				cfg.API.Host = host
			}
			if port != 0 {
				cfg.API.Port = port
			}
			if staticDir != "" {
				cfg.API.StaticDir = staticDir
			}
			if zoneFile == "" {
				zoneFile = cfg.Client.ZoneFile
			}

			db, err := a.openLedger()
			if err != nil {
				return err
			}
			var ledger handlers.Ledger
			if db != nil {
				defer db.Close()
				ledger = db
			}
			lib, err := a.library(zoneFile, db)
			if err != nil {
				return err
			}

			srv := api.New(cfg, lib, ledger, a.logger)
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down read gateway")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&zoneFile, "zone-file", "", "Serve documents from a zone file instead of DNS")
	cmd.Flags().StringVar(&host, "host", "", "Override bind host")
	cmd.Flags().IntVar(&port, "port", 0, "Override bind port")
	cmd.Flags().StringVar(&staticDir, "static", "", "Directory served at / for a browser reader")
	return cmd
}
