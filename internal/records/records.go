// Package records turns documents into DNS TXT records.
//
// Each document yields one metadata record, named after the document, followed
// by one record per base64 chunk, named "<index>.<hash>":
//
//	posts-hello-md	60	IN	TXT	"t=text/markdown;c=2;ha=SHA-1;h=<hex>;m=<b64>"
//	0.<hex>	60	IN	TXT	"<chunk 0>"
//	1.<hex>	60	IN	TXT	"<chunk 1>"
//
// The metadata record always comes first: a reader learns the chunk count and
// hash from it before fetching chunks.
package records

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/miekg/dns"

	"github.com/jroosing/zonepress/internal/content"
)

// MaxStringLength is the limit of a single DNS character-string.
const MaxStringLength = 255

// MaxLabelLength is the limit of a single DNS label.
const MaxLabelLength = 63

// MaxRDataLength is the limit of one TXT record's RDATA: its character-strings
// plus one length octet each.
const MaxRDataLength = 65535

var (
	// ErrRecordLengthExceeded is returned when a chunk does not fit one
	// character-string or a record does not fit one TXT RDATA.
	ErrRecordLengthExceeded = errors.New("record content too long")
	// ErrInvalidRecordName is returned when a record name is not a valid relative DNS name.
	ErrInvalidRecordName = errors.New("invalid record name")
	// ErrHashTooLongForLabel is returned for hash algorithms whose hex digest cannot be a DNS label.
	ErrHashTooLongForLabel = errors.New("hash digest does not fit in a DNS label")
)

// Kind distinguishes metadata records from chunk records.
type Kind int

const (
	KindMetadata Kind = iota
	KindChunk
)

// Record is one TXT record. Values are complete once constructed.
type Record struct {
	Name    string
	TTL     uint32
	Content string
	Kind    Kind
}

// NewMetadataRecord returns the metadata record for doc.
func NewMetadataRecord(doc content.Document, ix Index, ttl uint32) (Record, error) {
	rec := Record{Name: doc.Name(), TTL: ttl, Content: ix.String(), Kind: KindMetadata}
	if err := rec.Validate(); err != nil {
		return Record{}, fmt.Errorf("%s: %w", doc.Path, err)
	}
	return rec, nil
}

// NewChunkRecord returns the record carrying chunk number index.
func NewChunkRecord(index int, chunk, hash string, ttl uint32) (Record, error) {
	rec := Record{Name: ChunkName(index, hash), TTL: ttl, Content: chunk, Kind: KindChunk}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ChunkName returns "<index>.<hash>".
func ChunkName(index int, hash string) string {
	return strconv.Itoa(index) + "." + hash
}

// Validate checks the name and the content length. A chunk must fit one
// character-string; metadata may span several.
func (r Record) Validate() error {
	if err := ValidateName(r.Name); err != nil {
		return err
	}
	if r.Kind == KindChunk && len(r.Content) > MaxStringLength {
		return fmt.Errorf("%w: %s has %d octets, limit %d", ErrRecordLengthExceeded, r.Name, len(r.Content), MaxStringLength)
	}
	if n := len(r.Strings()); len(r.Content)+n > MaxRDataLength {
		return fmt.Errorf("%w: %s has %d octets, limit %d", ErrRecordLengthExceeded, r.Name, len(r.Content)+n, MaxRDataLength)
	}
	return nil
}

// Strings splits the content into character-strings of at most
// MaxStringLength octets. Readers join them back in order.
func (r Record) Strings() []string {
	if len(r.Content) <= MaxStringLength {
		return []string{r.Content}
	}
	out := make([]string, 0, len(r.Content)/MaxStringLength+1)
	for rest := r.Content; rest != ""; {
		n := min(len(rest), MaxStringLength)
		out = append(out, rest[:n])
		rest = rest[n:]
	}
	return out
}

// Line renders the record as a zone file line, one quoted string per
// character-string.
func (r Record) Line() string {
	var b strings.Builder
	b.WriteString(r.Name + "\t" + strconv.FormatUint(uint64(r.TTL), 10) + "\tIN\tTXT\t")
	for i, s := range r.Strings() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(`"` + s + `"`)
	}
	return b.String()
}

// ValidateName reports whether name is usable as a relative owner name.
// Labels are limited to letters, digits, '-' and '_' so the name stays a
// single token in zone file syntax.
func ValidateName(name string) error {
	if name == "" || strings.HasSuffix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidRecordName, name)
	}
	if _, ok := dns.IsDomainName(name); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidRecordName, name)
	}
	for _, label := range strings.Split(name, ".") {
		if label == "" {
			return fmt.Errorf("%w: %q has an empty label", ErrInvalidRecordName, name)
		}
		if len(label) > MaxLabelLength {
			return fmt.Errorf("%w: label %q is longer than %d octets", ErrInvalidRecordName, label, MaxLabelLength)
		}
		for i := 0; i < len(label); i++ {
			if !content.IsLabelByte(label[i]) {
				return fmt.Errorf("%w: %q contains %q", ErrInvalidRecordName, name, label[i])
			}
		}
	}
	return nil
}

// ValidateChunkLength checks a configured chunk length against the
// character-string limit.
func ValidateChunkLength(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: got %d", content.ErrInvalidChunkLength, n)
	}
	if n > MaxStringLength {
		return fmt.Errorf("%w: chunk length %d", ErrRecordLengthExceeded, n)
	}
	return nil
}

// ValidateAlgorithm checks that alg's hex digest can serve as a chunk label.
func ValidateAlgorithm(alg content.Algorithm) error {
	if alg.HexLen > MaxLabelLength {
		return fmt.Errorf("%w: %s digest is %d characters", ErrHashTooLongForLabel, alg.Name, alg.HexLen)
	}
	return nil
}
