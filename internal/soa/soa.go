// Package soa reads, renders and advances the SOA header of a zone file.
//
// The header is read with a structured scan: $ORIGIN and $TTL directives,
// then the SOA record's owner, optional TTL and class, and its seven rdata
// fields, which may span a parenthesized multi-line block. The scan remembers
// where the serial sits so it can be rewritten without touching any other byte.
package soa

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jroosing/zonepress/internal/zonetext"
)

// DefaultTTL is assumed when the header has no $TTL directive.
const DefaultTTL = 3600

// ErrMalformedZoneHeader is returned when a required header field is missing or invalid.
var ErrMalformedZoneHeader = errors.New("malformed zone header")

// SOA is the start of authority of a zone plus its default TTL.
type SOA struct {
	Origin     string
	DefaultTTL uint32
	Master     string
	Contact    string
	Serial     Serial
	Refresh    uint32
	Retry      uint32
	Expire     uint32
	Minimum    uint32
}

// rdata field names, in SOA order.
var fieldNames = [...]string{"master server", "contact", "serial", "refresh", "retry", "expire", "minimum"}

type position struct {
	line int
	tok  zonetext.Token
}

type scan struct {
	origin     string
	defaultTTL uint32
	owner      string
	rdata      []position
}

// FromText reads the SOA header from zone text.
func FromText(text string) (SOA, error) {
	sc, err := scanHeader(text)
	if err != nil {
		return SOA{}, err
	}

	s := SOA{
		Origin:     sc.origin,
		DefaultTTL: sc.defaultTTL,
		Master:     sc.rdata[0].tok.Text,
		Contact:    sc.rdata[1].tok.Text,
	}
	if s.Origin == "" {
		if !strings.HasSuffix(sc.owner, ".") {
			return SOA{}, fmt.Errorf("%w: origin: no $ORIGIN and SOA owner %q is not absolute", ErrMalformedZoneHeader, sc.owner)
		}
		s.Origin = sc.owner
	}

	s.Serial, err = ParseSerial(sc.rdata[2].tok.Text)
	if err != nil {
		return SOA{}, fmt.Errorf("%w: serial: %w", ErrMalformedZoneHeader, err)
	}
	intervals := []*uint32{&s.Refresh, &s.Retry, &s.Expire, &s.Minimum}
	for i, dst := range intervals {
		v, err := zonetext.ParseTTL(sc.rdata[3+i].tok.Text)
		if err != nil {
			return SOA{}, fmt.Errorf("%w: %s: %w", ErrMalformedZoneHeader, fieldNames[3+i], err)
		}
		*dst = v
	}
	return s, nil
}

// ReplaceSerial rewrites the serial field of the SOA record in text. All other
// bytes are left as they are.
func ReplaceSerial(text string, serial Serial) (string, error) {
	sc, err := scanHeader(text)
	if err != nil {
		return "", err
	}
	pos := sc.rdata[2]
	lines := strings.Split(text, "\n")
	line := lines[pos.line]
	lines[pos.line] = line[:pos.tok.Col] + serial.String() + line[pos.tok.Col+len(pos.tok.Text):]
	return strings.Join(lines, "\n"), nil
}

// Text renders the header in canonical form: $ORIGIN, $TTL, a multi-line SOA
// record and the NS record of the master server.
func (s SOA) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "$ORIGIN %s\n", s.Origin)
	fmt.Fprintf(&b, "$TTL %d\n", s.DefaultTTL)
	fmt.Fprintf(&b, "@\tIN\tSOA\t%s %s (\n", s.Master, s.Contact)
	fmt.Fprintf(&b, "\t\t%s\t; serial\n", s.Serial)
	fmt.Fprintf(&b, "\t\t%d\t; refresh\n", s.Refresh)
	fmt.Fprintf(&b, "\t\t%d\t; retry\n", s.Retry)
	fmt.Fprintf(&b, "\t\t%d\t; expire\n", s.Expire)
	fmt.Fprintf(&b, "\t\t%d\t; minimum\n", s.Minimum)
	b.WriteString("\t)\n")
	fmt.Fprintf(&b, "@\tIN\tNS\t%s\n", s.Master)
	return b.String()
}

func scanHeader(text string) (scan, error) {
	sc := scan{defaultTTL: DefaultTTL}
	lastOwner := ""
	collecting := false

	for i, raw := range strings.Split(text, "\n") {
		toks := zonetext.Tokenize(raw)
		if len(toks) == 0 {
			continue
		}
		if collecting {
			sc.rdata = appendRData(sc.rdata, i, toks)
			if len(sc.rdata) == len(fieldNames) {
				return sc, nil
			}
			continue
		}

		switch strings.ToUpper(toks[0].Text) {
		case "$ORIGIN":
			if len(toks) != 2 {
				return scan{}, fmt.Errorf("%w: invalid $ORIGIN directive on line %d", ErrMalformedZoneHeader, i+1)
			}
			sc.origin = toks[1].Text
			continue
		case "$TTL":
			if len(toks) != 2 {
				return scan{}, fmt.Errorf("%w: invalid $TTL directive on line %d", ErrMalformedZoneHeader, i+1)
			}
			ttl, err := zonetext.ParseTTL(toks[1].Text)
			if err != nil {
				return scan{}, fmt.Errorf("%w: default TTL: %w", ErrMalformedZoneHeader, err)
			}
			sc.defaultTTL = ttl
			continue
		}

		ownerOmitted := raw[0] == ' ' || raw[0] == '\t'
		if !ownerOmitted {
			lastOwner = toks[0].Text
		}
		k := soaIndex(toks, ownerOmitted)
		if k < 0 {
			continue
		}
		sc.owner = lastOwner
		collecting = true
		sc.rdata = appendRData(sc.rdata, i, toks[k+1:])
		if len(sc.rdata) == len(fieldNames) {
			return sc, nil
		}
	}

	if !collecting {
		return scan{}, fmt.Errorf("%w: no SOA record", ErrMalformedZoneHeader)
	}
	return scan{}, fmt.Errorf("%w: missing %s", ErrMalformedZoneHeader, fieldNames[len(sc.rdata)])
}

// soaIndex returns the position of the SOA type token, or -1. Only the
// owner, TTL and class may precede it.
func soaIndex(toks []zonetext.Token, ownerOmitted bool) int {
	start := 1
	if ownerOmitted {
		start = 0
	}
	for k := start; k < len(toks); k++ {
		t := strings.ToUpper(toks[k].Text)
		switch {
		case t == "SOA":
			return k
		case t == "IN" || zonetext.LooksLikeTTL(t):
			continue
		default:
			return -1
		}
	}
	return -1
}

func appendRData(dst []position, line int, toks []zonetext.Token) []position {
	for _, tok := range toks {
		if len(dst) == len(fieldNames) {
			break
		}
		dst = append(dst, position{line: line, tok: tok})
	}
	return dst
}

// String is a one-line summary for logs.
func (s SOA) String() string {
	return s.Origin + " serial=" + s.Serial.String() + " ttl=" + strconv.FormatUint(uint64(s.DefaultTTL), 10)
}
