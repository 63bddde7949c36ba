// Package content turns source files into publishable documents: mime type
// detection, front matter stripping, hashing and base64 chunking.
package content

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jroosing/zonepress/internal/frontmatter"
)

// MarkdownType is the only mime type that carries front matter.
const MarkdownType = "text/markdown"

var extensionTypes = map[string]string{
	".md":       MarkdownType,
	".markdown": MarkdownType,
	".js":       "text/javascript",
	".txt":      "text/plain",
	".html":     "text/html",
	".htm":      "text/html",
	".css":      "text/css",
	".json":     "application/json",
	".sh":       "text/x-shellscript",
	".svg":      "image/svg+xml",
}

// Document is a source file ready for encoding. Body is never modified after
// construction; hashes and chunks are derived from it alone.
type Document struct {
	Path     string
	Raw      []byte
	MimeType string
	Metadata frontmatter.Metadata
	Body     []byte
}

// NewDocument builds a Document from a slash-separated path relative to the
// content root and the file's bytes.
func NewDocument(p string, raw []byte) (Document, error) {
	doc := Document{
		Path:     p,
		Raw:      raw,
		MimeType: DetectMimeType(p, raw),
		Body:     raw,
	}
	if doc.MimeType != MarkdownType {
		return doc, nil
	}

	meta, body, err := frontmatter.Parse(raw)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", p, err)
	}
	doc.Metadata = meta
	doc.Body = body
	return doc, nil
}

// Name returns the DNS-safe name of the document.
func (d Document) Name() string {
	return DNSName(d.Path)
}

// DetectMimeType maps well-known extensions and falls back to sniffing the
// content. Media type parameters are dropped.
func DetectMimeType(p string, raw []byte) string {
	if t, ok := extensionTypes[strings.ToLower(path.Ext(p))]; ok {
		return t
	}
	detected := mimetype.Detect(raw).String()
	t, _, _ := strings.Cut(detected, ";")
	return strings.TrimSpace(t)
}

// DNSName turns a document path into a single DNS label. Slashes,
// backslashes and dots become hyphens, and so does every other character
// outside letters, digits, '-' and '_'.
func DNSName(p string) string {
	return strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf && IsLabelByte(byte(r)) {
			return r
		}
		return '-'
	}, p)
}

// IsLabelByte reports whether c may appear in a published record label.
func IsLabelByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return c == '-' || c == '_'
}
