package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/jroosing/zonepress/internal/zone"
)

// ErrListUnsupported is returned by List when the library cannot enumerate documents.
var ErrListUnsupported = errors.New("document listing not available")

// Library lists and fetches published documents.
type Library interface {
	List(ctx context.Context) ([]Entry, error)
	Fetch(ctx context.Context, name string) (*Document, error)
}

// ZoneFileLibrary reads documents from a zone file. The file is parsed again
// on every call so a running gateway sees each publication.
type ZoneFileLibrary struct {
	Fs       afero.Fs
	Path     string
	Verifier *Verifier
	Logger   *slog.Logger
}

// List returns the documents in the zone file.
func (l *ZoneFileLibrary) List(_ context.Context) ([]Entry, error) {
	z, err := l.load()
	if err != nil {
		return nil, err
	}
	return ListDocuments(z), nil
}

// Fetch reads one document from the zone file.
func (l *ZoneFileLibrary) Fetch(ctx context.Context, name string) (*Document, error) {
	z, err := l.load()
	if err != nil {
		return nil, err
	}
	return New(&ZoneResolver{Zone: z}, l.Verifier, z.Origin, l.Logger).Fetch(ctx, name)
}

func (l *ZoneFileLibrary) load() (*zone.Zone, error) {
	z, err := zone.LoadFile(l.Fs, l.Path)
	if err != nil {
		return nil, fmt.Errorf("load zone %s: %w", l.Path, err)
	}
	return z, nil
}

// DNSLibrary reads documents over DNS. DNS cannot enumerate a zone, so List
// resolves the metadata records of the names returned by Names.
type DNSLibrary struct {
	Client *Client
	// Names is optional; without it List returns ErrListUnsupported.
	Names func(ctx context.Context) ([]string, error)
}

// List resolves the metadata record of every known name. Names that no longer
// resolve are skipped.
func (l *DNSLibrary) List(ctx context.Context) ([]Entry, error) {
	if l.Names == nil {
		return nil, ErrListUnsupported
	}
	names, err := l.Names(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		ix, err := l.Client.FetchIndex(ctx, name)
		if err != nil {
			l.Client.Logger.Debug("listed document did not resolve", "name", name, "error", err)
			continue
		}
		out = append(out, Entry{Name: name, Index: ix})
	}
	return out, nil
}

// Fetch reads one document over DNS.
func (l *DNSLibrary) Fetch(ctx context.Context, name string) (*Document, error) {
	return l.Client.Fetch(ctx, name)
}
