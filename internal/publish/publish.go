// Package publish runs one publication cycle against a zone file on disk.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/jroosing/zonepress/internal/database"
	"github.com/jroosing/zonepress/internal/source"
	"github.com/jroosing/zonepress/internal/zone"
)

// ErrZoneFileNotFound is returned when the zone file does not exist.
var ErrZoneFileNotFound = errors.New("zone file does not exist")

// Ledger records finished publications.
type Ledger interface {
	RecordPublication(ctx context.Context, p database.Publication) (int64, error)
}

// Publisher regenerates one zone file from a content directory.
type Publisher struct {
	Fs          afero.Fs
	ZoneFile    string
	ContentRoot string
	Ignore      string
	Assembler   *zone.Assembler
	// Ledger is optional.
	Ledger Ledger
	// Stdout receives the zone header, or the whole zone on a dry run.
	Stdout io.Writer
	DryRun bool
	Now    func() time.Time
	Logger *slog.Logger
}

// Run reads the zone file and the content, assembles the new zone and writes
// it back. Nothing is written when any step before the write fails.
func (p *Publisher) Run(ctx context.Context) (zone.Result, error) {
	logger := p.logger()

	existing, err := afero.ReadFile(p.Fs, p.ZoneFile)
	if errors.Is(err, os.ErrNotExist) {
		return zone.Result{}, fmt.Errorf("%w: %s", ErrZoneFileNotFound, p.ZoneFile)
	}
	if err != nil {
		return zone.Result{}, fmt.Errorf("read zone file: %w", err)
	}

	docs, err := source.Load(p.Fs, p.ContentRoot, p.Ignore)
	if err != nil {
		return zone.Result{}, err
	}
	logger.Debug("content loaded", "root", p.ContentRoot, "documents", len(docs))

	res, err := p.Assembler.Assemble(string(existing), docs, p.now())
	if err != nil {
		return zone.Result{}, fmt.Errorf("%s: %w", p.ZoneFile, err)
	}

	if err := p.echo(res); err != nil {
		return zone.Result{}, err
	}
	if p.DryRun {
		logger.Info("dry run, zone file not written", "zone_file", p.ZoneFile, "serial", res.SOA.Serial.String())
		return res, nil
	}
	if !res.Bumped {
		return res, nil
	}

	if err := writeAtomic(p.Fs, p.ZoneFile, []byte(res.Text)); err != nil {
		return zone.Result{}, err
	}
	logger.Info("zone file written", "zone_file", p.ZoneFile, "serial", res.SOA.Serial.String(), "bytes", len(res.Text))

	if p.Ledger != nil {
		id, err := p.Ledger.RecordPublication(ctx, ledgerEntry(p.ZoneFile, res))
		if err != nil {
			// the zone is already written; losing history is not fatal
			logger.Warn("failed to record publication", "error", err)
		} else {
			logger.Debug("publication recorded", "id", id)
		}
	}
	return res, nil
}

func (p *Publisher) echo(res zone.Result) error {
	if p.Stdout == nil {
		return nil
	}
	out := res.Text
	if !p.DryRun {
		marker := p.Assembler.Marker
		if marker == "" {
			marker = zone.DefaultMarker
		}
		head, _, err := zone.SplitAtMarker(res.Text, marker)
		if err != nil {
			return err
		}
		out = head
	}
	_, err := io.WriteString(p.Stdout, out)
	return err
}

func ledgerEntry(zoneFile string, res zone.Result) database.Publication {
	pub := database.Publication{
		ZoneFile:       zoneFile,
		Origin:         res.SOA.Origin,
		Serial:         res.SOA.Serial.String(),
		PreviousSerial: res.Previous.String(),
		Changed:        res.Changed,
		Bumped:         res.Bumped,
	}
	for _, set := range res.Sets {
		pub.Documents = append(pub.Documents, database.PublishedDocument{
			Name:          set.Metadata().Name,
			Path:          set.Document.Path,
			MimeType:      set.Index.MimeType,
			HashAlgorithm: set.Index.HashAlgorithm,
			Hash:          set.Index.Hash,
			ChunkCount:    set.Index.ChunkCount,
		})
	}
	return pub
}

// writeAtomic writes data next to path and renames it into place, keeping
// the mode of the file it replaces.
func writeAtomic(fsys afero.Fs, path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := fsys.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := afero.TempFile(fsys, filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp zone file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = fsys.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp zone file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp zone file: %w", err)
	}
	if err := fsys.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp zone file: %w", err)
	}
	if err := fsys.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace zone file: %w", err)
	}
	return nil
}

func (p *Publisher) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Publisher) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}
