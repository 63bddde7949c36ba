package zone

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/miekg/dns"
	"github.com/spf13/afero"

	"github.com/jroosing/zonepress/internal/zonetext"
)

type Record struct {
	Name  string
	Type  uint16
	Class uint16
	TTL   uint32
	// RData depends on Type:
	// - A/AAAA: string (ip)
	// - CNAME/NS/PTR: string (fqdn)
	// - MX: MX
	// - SOA: SOAData
	// - TXT: []string (character-strings, unquoted)
	RData any
}

type MX struct {
	Preference uint16
	Exchange   string
}

type SOAData struct {
	Mname   string
	Rname   string
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

// Zone is a parsed zone file. Names are stored without the trailing dot.
type Zone struct {
	Origin     string
	DefaultTTL uint32
	Records    []Record

	nameIndex   map[string][]int // normalized name -> indices into Records
	originLower string
}

// LoadFile reads and parses the zone file at path.
func LoadFile(fsys afero.Fs, path string) (*Zone, error) {
	b, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	return ParseText(string(b))
}

// ParseText parses zone file text. Records of unsupported types are skipped.
func ParseText(text string) (*Zone, error) {
	origin := ""
	defaultTTL := uint32(3600)
	lastOwner := ""
	recs := make([]Record, 0)

	lines, err := logicalLines(text)
	if err != nil {
		return nil, err
	}
	for _, tokens := range lines {
		switch strings.ToUpper(tokens[0]) {
		case "$ORIGIN":
			if len(tokens) != 2 {
				return nil, errors.New("invalid $ORIGIN directive")
			}
			origin = normalizeFQDN(tokens[1], "")
			continue
		case "$TTL":
			if len(tokens) != 2 {
				return nil, errors.New("invalid $TTL directive")
			}
			ttl, err := zonetext.ParseTTL(tokens[1])
			if err != nil {
				return nil, err
			}
			defaultTTL = ttl
			continue
		}
		if origin == "" {
			return nil, errors.New("zone file missing $ORIGIN")
		}

		owner, rest, err := parseOwner(tokens, origin, lastOwner)
		if err != nil {
			return nil, err
		}
		lastOwner = owner
		ttl, class, typ, rdata, err := parseRRFields(rest, defaultTTL)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", owner, err)
		}
		typeCode, ok := dns.StringToType[typ]
		if !ok || !supportedType(typeCode) {
			continue
		}
		final, err := transformRData(typeCode, rdata, origin)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", owner, err)
		}

		recs = append(recs, Record{Name: owner, Type: typeCode, Class: class, TTL: ttl, RData: final})
	}

	z := &Zone{Origin: origin, DefaultTTL: defaultTTL, Records: recs}
	z.buildIndex()
	return z, nil
}

func (z *Zone) buildIndex() {
	z.originLower = strings.ToLower(strings.TrimSuffix(z.Origin, "."))
	z.nameIndex = make(map[string][]int, len(z.Records))
	for i, rr := range z.Records {
		key := normalizeKey(rr.Name)
		z.nameIndex[key] = append(z.nameIndex[key], i)
	}
}

func normalizeKey(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, "."))
}

func (z *Zone) ContainsName(qname string) bool {
	q := normalizeKey(qname)
	return q == z.originLower || strings.HasSuffix(q, "."+z.originLower)
}

// NameExists checks if any records exist for the given name.
func (z *Zone) NameExists(qname string, qclass uint16) bool {
	for _, idx := range z.nameIndex[normalizeKey(qname)] {
		if z.Records[idx].Class == qclass {
			return true
		}
	}
	return false
}

// Lookup retrieves records matching the given name, type, and class.
func (z *Zone) Lookup(qname string, qtype uint16, qclass uint16) []Record {
	indices := z.nameIndex[normalizeKey(qname)]
	if len(indices) == 0 {
		return nil
	}

	out := make([]Record, 0, len(indices))
	for _, idx := range indices {
		rr := z.Records[idx]
		if rr.Class == qclass && rr.Type == qtype {
			out = append(out, rr)
		}
	}
	return out
}

// TXT returns the TXT records of qname, each with its character-strings
// concatenated, in zone file order.
func (z *Zone) TXT(qname string) []string {
	rrs := z.Lookup(qname, dns.TypeTXT, dns.ClassINET)
	out := make([]string, 0, len(rrs))
	for _, rr := range rrs {
		strs, _ := rr.RData.([]string)
		out = append(out, strings.Join(strs, ""))
	}
	return out
}

// SOA returns the SOA record for this zone, or nil if not found.
func (z *Zone) SOA(qclass uint16) *Record {
	for _, idx := range z.nameIndex[z.originLower] {
		rr := &z.Records[idx]
		if rr.Class == qclass && rr.Type == dns.TypeSOA {
			return rr
		}
	}
	return nil
}

// --- parsing helpers ---

// logicalLines tokenizes text, joining parenthesized blocks into one line.
// Comments are dropped; quoted strings stay single tokens.
func logicalLines(text string) ([][]string, error) {
	var (
		buf   []string
		depth int
		out   [][]string
	)
	for _, raw := range strings.Split(text, "\n") {
		line := zonetext.StripComment(raw)
		depth += parenDelta(line)
		for _, tok := range zonetext.Tokenize(line) {
			buf = append(buf, tok.Text)
		}
		if depth > 0 {
			continue
		}
		if depth < 0 {
			return nil, errors.New("unbalanced ')' in zone file")
		}
		if len(buf) > 0 {
			out = append(out, buf)
			buf = nil
		}
	}
	if depth != 0 {
		return nil, errors.New("unterminated '(' in zone file")
	}
	return out, nil
}

// parenDelta counts '(' minus ')' outside quoted strings.
func parenDelta(line string) int {
	delta := 0
	quoted := false
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '\\' && quoted:
			i++
		case c == '"':
			quoted = !quoted
		case c == '(' && !quoted:
			delta++
		case c == ')' && !quoted:
			delta--
		}
	}
	return delta
}

func normalizeFQDN(name string, origin string) string {
	name = strings.TrimSpace(name)
	origin = strings.TrimSuffix(origin, ".")
	if name == "@" {
		return origin
	}
	if strings.HasSuffix(name, ".") || origin == "" {
		return strings.TrimSuffix(name, ".")
	}
	return name + "." + origin
}

func looksLikeClass(tok string) bool { return strings.ToUpper(tok) == "IN" }

func looksLikeType(tok string) bool {
	_, ok := dns.StringToType[strings.ToUpper(tok)]
	return ok
}

func supportedType(t uint16) bool {
	switch t {
	case dns.TypeA, dns.TypeAAAA, dns.TypeCNAME, dns.TypeNS, dns.TypeSOA, dns.TypeMX, dns.TypeTXT, dns.TypePTR:
		return true
	default:
		return false
	}
}

func parseOwner(tokens []string, origin, lastOwner string) (string, []string, error) {
	if len(tokens) == 0 {
		return "", nil, errors.New("invalid empty RR")
	}
	first := tokens[0]
	if zonetext.LooksLikeTTL(first) || looksLikeClass(first) || looksLikeType(first) {
		if lastOwner == "" {
			return "", nil, errors.New("owner name omitted on first RR")
		}
		return lastOwner, tokens, nil
	}
	return normalizeFQDN(first, origin), tokens[1:], nil
}

func parseRRFields(rest []string, defaultTTL uint32) (uint32, uint16, string, []string, error) {
	var (
		haveTTL   bool
		haveClass bool
		idx       int
	)
	ttl := defaultTTL
	class := uint16(dns.ClassINET)
	for idx < len(rest) {
		tok := rest[idx]
		if !haveTTL && zonetext.LooksLikeTTL(tok) {
			n, e := zonetext.ParseTTL(tok)
			if e != nil {
				return 0, 0, "", nil, e
			}
			ttl = n
			haveTTL = true
			idx++
			continue
		}
		if !haveClass && looksLikeClass(tok) {
			haveClass = true
			idx++
			continue
		}
		break
	}
	if idx >= len(rest) {
		return 0, 0, "", nil, errors.New("missing RR type")
	}
	typ := strings.ToUpper(rest[idx])
	idx++
	if idx >= len(rest) {
		return 0, 0, "", nil, errors.New("missing RR rdata")
	}
	return ttl, class, typ, rest[idx:], nil
}

func transformRData(typeCode uint16, rdata []string, origin string) (any, error) {
	switch typeCode {
	case dns.TypeA:
		addr, err := netip.ParseAddr(rdata[0])
		if err != nil || !addr.Is4() {
			return nil, errors.New("invalid IPv4 address")
		}
		return rdata[0], nil
	case dns.TypeAAAA:
		addr, err := netip.ParseAddr(rdata[0])
		if err != nil || !addr.Is6() {
			return nil, errors.New("invalid IPv6 address")
		}
		return rdata[0], nil
	case dns.TypeMX:
		if len(rdata) != 2 {
			return nil, errors.New("MX rdata must be: <preference> <exchange>")
		}
		pref, err := strconv.Atoi(rdata[0])
		if err != nil || pref < 0 || pref > 65535 {
			return nil, errors.New("MX preference must be 0..65535")
		}
		return MX{Preference: uint16(pref), Exchange: normalizeFQDN(rdata[1], origin)}, nil
	case dns.TypeSOA:
		return parseSOARData(rdata, origin)
	case dns.TypeTXT:
		return parseTXTStrings(rdata)
	default:
		return normalizeFQDN(rdata[0], origin), nil
	}
}

func parseSOARData(rdata []string, origin string) (SOAData, error) {
	// MNAME RNAME SERIAL REFRESH RETRY EXPIRE MINIMUM
	if len(rdata) != 7 {
		return SOAData{}, errors.New("SOA rdata must be: MNAME RNAME SERIAL REFRESH RETRY EXPIRE MINIMUM")
	}
	serial, err := strconv.ParseUint(rdata[2], 10, 32)
	if err != nil {
		return SOAData{}, errors.New("invalid SOA serial")
	}
	soa := SOAData{
		Mname:  normalizeFQDN(rdata[0], origin),
		Rname:  normalizeFQDN(rdata[1], origin),
		Serial: uint32(serial),
	}
	names := []string{"refresh", "retry", "expire", "minimum"}
	for i, dst := range []*uint32{&soa.Refresh, &soa.Retry, &soa.Expire, &soa.Minimum} {
		v, err := zonetext.ParseTTL(rdata[3+i])
		if err != nil {
			return SOAData{}, fmt.Errorf("invalid SOA %s", names[i])
		}
		*dst = v
	}
	return soa, nil
}

// parseTXTStrings unquotes TXT character-strings. Unquoted tokens are taken
// as they are.
func parseTXTStrings(rdata []string) ([]string, error) {
	out := make([]string, 0, len(rdata))
	for _, tok := range rdata {
		if !strings.HasPrefix(tok, `"`) {
			out = append(out, tok)
			continue
		}
		if len(tok) < 2 || !strings.HasSuffix(tok, `"`) || strings.HasSuffix(tok, `\"`) && !strings.HasSuffix(tok, `\\"`) {
			return nil, errors.New("unterminated TXT string")
		}
		var b strings.Builder
		inner := tok[1 : len(tok)-1]
		for i := 0; i < len(inner); i++ {
			if inner[i] == '\\' && i+1 < len(inner) {
				i++
			}
			b.WriteByte(inner[i])
		}
		out = append(out, b.String())
	}
	return out, nil
}
