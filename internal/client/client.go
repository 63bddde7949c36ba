// Package client reads documents back out of DNS.
//
// A read resolves the document's metadata record, learns the chunk count and
// hash from it, resolves "<i>.<hash>" for every chunk in order, base64
// decodes the concatenation and checks the digest against the published hash.
package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/miekg/dns"

	"github.com/jroosing/zonepress/internal/content"
	"github.com/jroosing/zonepress/internal/records"
	"github.com/jroosing/zonepress/internal/zone"
)

// ErrChunkCountMismatch is returned when the fetched chunks do not match the metadata record.
var ErrChunkCountMismatch = errors.New("chunk count mismatch")

// Document is a document read back from DNS.
type Document struct {
	Name     string
	Index    records.Index
	Body     []byte
	Verified bool
}

// Client fetches documents published under Origin.
type Client struct {
	Resolver Resolver
	Verifier *Verifier
	Origin   string
	Logger   *slog.Logger
}

// New returns a Client.
func New(resolver Resolver, verifier *Verifier, origin string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{Resolver: resolver, Verifier: verifier, Origin: origin, Logger: logger}
}

// Fetch reads the document published as name. Name may be a document path
// ("posts/hello.md") or its record name ("posts-hello-md").
func (c *Client) Fetch(ctx context.Context, name string) (*Document, error) {
	recordName := content.DNSName(name)
	ix, err := c.FetchIndex(ctx, recordName)
	if err != nil {
		return nil, err
	}

	// ParseIndex bounds ChunkCount; the capacity hint stays small regardless.
	chunks := make([]string, 0, min(ix.ChunkCount, 256))
	for i := range ix.ChunkCount {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		txt, err := c.Resolver.LookupTXT(ctx, c.qualify(records.ChunkName(i, ix.Hash)))
		if err != nil {
			return nil, fmt.Errorf("%s chunk %d: %w", recordName, i, err)
		}
		chunk, ok := singleValue(txt)
		if !ok {
			return nil, fmt.Errorf("%w: %s chunk %d has %d records", ErrChunkCountMismatch, recordName, i, len(txt))
		}
		chunks = append(chunks, chunk)
	}
	body, err := Reassemble(chunks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", recordName, err)
	}

	doc := &Document{Name: recordName, Index: ix, Body: body}
	if c.Verifier != nil {
		doc.Verified = c.Verifier.Verify(ctx, body, ix)
	}
	c.Logger.Debug("document fetched",
		"name", recordName,
		"chunks", ix.ChunkCount,
		"bytes", len(body),
		"verified", doc.Verified,
	)
	return doc, nil
}

// singleValue returns the answer of a chunk lookup. Documents with identical
// bodies share chunk records, so identical duplicates count as one.
func singleValue(txt []string) (string, bool) {
	if len(txt) == 0 {
		return "", false
	}
	for _, v := range txt[1:] {
		if v != txt[0] {
			return "", false
		}
	}
	return txt[0], true
}

// FetchIndex resolves and decodes the metadata record of recordName.
func (c *Client) FetchIndex(ctx context.Context, recordName string) (records.Index, error) {
	txt, err := c.Resolver.LookupTXT(ctx, c.qualify(recordName))
	if err != nil {
		return records.Index{}, err
	}
	var lastErr error
	for _, value := range txt {
		ix, err := records.ParseIndex(value)
		if err == nil {
			return ix, nil
		}
		lastErr = err
	}
	return records.Index{}, fmt.Errorf("%s: %w", recordName, lastErr)
}

// Entry is a document found in a zone.
type Entry struct {
	Name  string
	Index records.Index
}

// ListDocuments returns the documents published in z, in zone file order.
// A name is a document when one of its TXT records decodes as a metadata record.
func ListDocuments(z *zone.Zone) []Entry {
	var out []Entry
	seen := make(map[string]bool)
	for _, rr := range z.Records {
		if rr.Type != dns.TypeTXT || seen[rr.Name] {
			continue
		}
		strs, _ := rr.RData.([]string)
		ix, err := records.ParseIndex(strings.Join(strs, ""))
		if err != nil {
			continue
		}
		seen[rr.Name] = true
		name := strings.TrimSuffix(strings.TrimSuffix(rr.Name, "."), "."+strings.TrimSuffix(z.Origin, "."))
		out = append(out, Entry{Name: name, Index: ix})
	}
	return out
}

// Reassemble concatenates chunks in order and base64 decodes the result.
func Reassemble(chunks []string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.Join(chunks, ""))
}

func (c *Client) qualify(name string) string {
	origin := strings.Trim(c.Origin, ".")
	if origin == "" {
		return name
	}
	return name + "." + origin
}
