// Package frontmatter strips and decodes the "+++"-delimited key/value block
// at the top of markdown documents.
//
// Block format:
//
//	+++
//	title = Hello world
//	date = 2024-01-01
//	+++
//	Body text...
//
// Each non-blank line inside the block is split on its first '='. Keys and
// values are trimmed; values are kept verbatim otherwise (quotes included).
package frontmatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Delimiter opens and closes a front matter block.
const Delimiter = "+++"

// ErrMalformedFrontMatterLine is returned for a block line that has no '=' or an empty key.
var ErrMalformedFrontMatterLine = errors.New("malformed front matter line")

// Field is a single key/value pair from a front matter block.
type Field struct {
	Key   string
	Value string
}

// Metadata is an insertion-ordered string mapping.
type Metadata struct {
	fields []Field
}

// Set adds key or replaces its value. A replaced key keeps its original position.
func (m *Metadata) Set(key, value string) {
	for i := range m.fields {
		if m.fields[i].Key == key {
			m.fields[i].Value = value
			return
		}
	}
	m.fields = append(m.fields, Field{Key: key, Value: value})
}

// Get returns the value for key.
func (m Metadata) Get(key string) (string, bool) {
	for _, f := range m.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Len returns the number of fields.
func (m Metadata) Len() int { return len(m.fields) }

// Fields returns a copy of the fields in insertion order.
func (m Metadata) Fields() []Field {
	return append([]Field(nil), m.fields...)
}

// MarshalJSON encodes the mapping as a JSON object, preserving field order.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of string values, preserving key order.
// An empty JSON array is accepted as an empty mapping.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	m.fields = nil
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("metadata must be a JSON object")
	}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errors.New("metadata key must be a string")
		}
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("metadata value for %q: %w", key, err)
		}
		m.Set(key, value)
	}
	_, err = dec.Token()
	return err
}

// Parse splits raw into metadata and body.
//
// When raw does not open with Delimiter, or the closing delimiter is missing,
// the metadata is empty and body is raw unchanged. Otherwise body is the text
// after the closing delimiter, trimmed, with exactly one trailing newline.
func Parse(raw []byte) (Metadata, []byte, error) {
	var meta Metadata
	if !bytes.HasPrefix(raw, []byte(Delimiter)) {
		return meta, raw, nil
	}
	end := bytes.Index(raw[2:], []byte(Delimiter))
	if end < 0 {
		return meta, raw, nil
	}
	end += 2
	// an opening "++++" would otherwise close on itself
	if end < len(Delimiter) {
		next := bytes.Index(raw[len(Delimiter):], []byte(Delimiter))
		if next < 0 {
			return meta, raw, nil
		}
		end = next + len(Delimiter)
	}

	block := string(raw[len(Delimiter):end])
	for i, line := range splitLines(block) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return Metadata{}, nil, fmt.Errorf("%w: line %d: %q", ErrMalformedFrontMatterLine, i+1, strings.TrimSpace(line))
		}
		meta.Set(key, strings.TrimSpace(value))
	}

	rest := bytes.TrimSpace(raw[end+len(Delimiter):])
	body := make([]byte, 0, len(rest)+1)
	body = append(body, rest...)
	body = append(body, '\n')
	return meta, body, nil
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimPrefix(s, "\n")
	return strings.Split(s, "\n")
}
