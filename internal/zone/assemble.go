// Package zone reads zone files and regenerates the published region of one.
//
// A published zone file has two parts. Everything up to and including the
// marker line is hand-maintained and kept as it is, apart from the SOA serial.
// Everything after the marker is owned by the Assembler and rebuilt from the
// source documents on every run.
package zone

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jroosing/zonepress/internal/content"
	"github.com/jroosing/zonepress/internal/records"
	"github.com/jroosing/zonepress/internal/soa"
)

// DefaultMarker separates the preserved header from the generated records.
const DefaultMarker = ";; START BLOG RECORDS"

var (
	// ErrMarkerNotFound is returned when the zone text has no marker line.
	ErrMarkerNotFound = errors.New("marker line not found")
	// ErrDuplicateName is returned when two documents map to the same record name.
	ErrDuplicateName = errors.New("duplicate document record name")
)

// BumpPolicy decides when the SOA serial is incremented.
type BumpPolicy string

const (
	// BumpAlways increments the serial on every run.
	BumpAlways BumpPolicy = "always"
	// BumpOnChange leaves the zone untouched when the generated region is unchanged.
	BumpOnChange BumpPolicy = "on-change"
)

// ParseBumpPolicy parses a policy name; empty means BumpAlways.
func ParseBumpPolicy(s string) (BumpPolicy, error) {
	switch BumpPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", BumpAlways:
		return BumpAlways, nil
	case BumpOnChange:
		return BumpOnChange, nil
	default:
		return "", fmt.Errorf("unknown bump policy %q (want %q or %q)", s, BumpAlways, BumpOnChange)
	}
}

// Assembler regenerates the region after the marker line.
type Assembler struct {
	Marker  string
	Builder records.Builder
	Policy  BumpPolicy
	// CanonicalHeader replaces the preserved header with the rendered SOA.
	CanonicalHeader bool
	Logger          *slog.Logger
}

// Result is the outcome of one assembly.
type Result struct {
	Text string
	// SOA carries the serial in effect after the run.
	SOA      soa.SOA
	Previous soa.Serial
	// Changed reports whether the generated region differs from the existing one.
	Changed bool
	// Bumped reports whether the serial was incremented.
	Bumped bool
	Sets   []records.Set
}

// Assemble builds the new zone text from the existing text and documents,
// in the order given. It does no I/O; today decides the serial.
func (a *Assembler) Assemble(existing string, docs []content.Document, today time.Time) (Result, error) {
	logger := a.logger()
	marker := a.marker()

	prefix, region, err := SplitAtMarker(existing, marker)
	if err != nil {
		return Result{}, err
	}
	header, err := soa.FromText(prefix)
	if err != nil {
		return Result{}, err
	}

	sets := make([]records.Set, 0, len(docs))
	seen := make(map[string]string, len(docs))
	for _, doc := range docs {
		set, err := a.Builder.Build(doc)
		if err != nil {
			return Result{}, err
		}
		name := strings.ToLower(set.Metadata().Name)
		if other, dup := seen[name]; dup {
			return Result{}, fmt.Errorf("%w: %s and %s both publish %s", ErrDuplicateName, other, doc.Path, name)
		}
		seen[name] = doc.Path
		logger.Debug("document encoded",
			"path", doc.Path,
			"name", set.Metadata().Name,
			"mime", set.Index.MimeType,
			"chunks", set.Index.ChunkCount,
			"hash", set.Index.Hash,
		)
		sets = append(sets, set)
	}

	body := RenderRegion(sets)
	res := Result{SOA: header, Previous: header.Serial, Changed: body != region, Sets: sets}
	if a.Policy == BumpOnChange && !res.Changed {
		logger.Info("zone unchanged, serial kept", "origin", header.Origin, "serial", header.Serial.String())
		res.Text = existing
		return res, nil
	}

	next, err := header.Serial.Next(today)
	if err != nil {
		return Result{}, err
	}
	res.SOA.Serial = next
	res.Bumped = true

	var head string
	if a.CanonicalHeader {
		head = res.SOA.Text() + marker + "\n"
	} else {
		head, err = soa.ReplaceSerial(prefix, next)
		if err != nil {
			return Result{}, err
		}
	}
	res.Text = head + body

	logger.Info("zone assembled",
		"origin", header.Origin,
		"serial", next.String(),
		"previous_serial", header.Serial.String(),
		"documents", len(sets),
		"changed", res.Changed,
	)
	return res, nil
}

// RenderRegion renders record sets as the generated part of a zone file: a
// blank line and a comment naming each document, then one line per record.
// Documents with identical bodies share chunk names, so their chunks are
// written once, under the first such document.
func RenderRegion(sets []records.Set) string {
	var b strings.Builder
	written := make(map[string]bool, len(sets))
	for _, set := range sets {
		b.WriteString("\n; ")
		b.WriteString(set.Metadata().Name)
		b.WriteByte('\n')
		b.WriteString(set.Metadata().Line())
		b.WriteByte('\n')

		key := strings.ToLower(set.Index.Hash)
		if written[key] {
			if set.Index.ChunkCount > 0 {
				b.WriteString("; chunks shared with an identical document\n")
			}
			continue
		}
		written[key] = true
		for _, rec := range set.Chunks() {
			b.WriteString(rec.Line())
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// SplitAtMarker returns the text up to and including the first line that
// starts with marker, and the text after it. The prefix always ends in a
// newline. A comment marker matches regardless of how many semicolons open
// the line, so ";; START BLOG RECORDS" and ";;; START BLOG RECORDS" are the
// same marker.
func SplitAtMarker(text, marker string) (string, string, error) {
	offset := 0
	for offset <= len(text) {
		end := strings.IndexByte(text[offset:], '\n')
		line := text[offset:]
		if end >= 0 {
			line = text[offset : offset+end]
		}
		if matchesMarker(line, marker) {
			if end < 0 {
				return text + "\n", "", nil
			}
			return text[:offset+end+1], text[offset+end+1:], nil
		}
		if end < 0 {
			break
		}
		offset += end + 1
	}
	return "", "", fmt.Errorf("%w: %q", ErrMarkerNotFound, marker)
}

func matchesMarker(line, marker string) bool {
	if strings.HasPrefix(line, marker) {
		return true
	}
	if !strings.HasPrefix(marker, ";") || !strings.HasPrefix(line, ";") {
		return false
	}
	return strings.HasPrefix(strings.TrimLeft(line, ";"), strings.TrimLeft(marker, ";"))
}

func (a *Assembler) marker() string {
	if a.Marker == "" {
		return DefaultMarker
	}
	return a.Marker
}

func (a *Assembler) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}
