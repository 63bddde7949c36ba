package publish

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/miekg/dns"
	"github.com/spf13/afero"

	"github.com/jroosing/zonepress/internal/soa"
	"github.com/jroosing/zonepress/internal/zone"
)

// ErrZoneFileExists is returned by InitZone when path is already present.
var ErrZoneFileExists = errors.New("zone file already exists")

// ZoneTemplate describes a new zone file.
type ZoneTemplate struct {
	Origin  string
	Master  string
	Contact string
	Marker  string
	TTL     uint32
}

// InitZone writes a new zone file: canonical SOA and NS records, the marker
// line and no documents. The serial is the first serial of today.
func InitZone(fsys afero.Fs, path string, tmpl ZoneTemplate, today time.Time) (soa.SOA, error) {
	if _, err := fsys.Stat(path); err == nil {
		return soa.SOA{}, fmt.Errorf("%w: %s", ErrZoneFileExists, path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return soa.SOA{}, err
	}

	for _, f := range []struct{ field, name string }{
		{"origin", tmpl.Origin},
		{"master", tmpl.Master},
		{"contact", tmpl.Contact},
	} {
		if _, ok := dns.IsDomainName(f.name); !ok || f.name == "" {
			return soa.SOA{}, fmt.Errorf("%w: invalid %s %q", soa.ErrMalformedZoneHeader, f.field, f.name)
		}
	}
	marker := tmpl.Marker
	if marker == "" {
		marker = zone.DefaultMarker
	}
	ttl := tmpl.TTL
	if ttl == 0 {
		ttl = soa.DefaultTTL
	}

	header := soa.SOA{
		Origin:     dns.Fqdn(tmpl.Origin),
		DefaultTTL: ttl,
		Master:     dns.Fqdn(tmpl.Master),
		Contact:    dns.Fqdn(tmpl.Contact),
		Serial:     soa.FirstSerial(today),
		Refresh:    3600,
		Retry:      900,
		Expire:     604800,
		Minimum:    60,
	}
	if err := afero.WriteFile(fsys, path, []byte(header.Text()+marker+"\n"), 0o644); err != nil {
		return soa.SOA{}, fmt.Errorf("write zone file: %w", err)
	}
	return header, nil
}
