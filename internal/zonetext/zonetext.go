// Package zonetext holds the lexical pieces shared by the zone-file readers:
// a quote-aware tokenizer that reports byte offsets, comment stripping and
// TTL parsing with unit suffixes.
package zonetext

import (
	"errors"
	"strconv"
	"strings"
)

var (
	errTTLSyntax   = errors.New("TTL must be an integer seconds or use suffixes (w/d/h/m/s)")
	errTTLTooLarge = errors.New("TTL too large")
)

// Token is a whitespace separated field of a zone file line. Quoted strings
// are single tokens and keep their quotes.
type Token struct {
	Text string
	// Col is the byte offset of Text in the line.
	Col int
}

// Tokenize splits line into tokens. Parentheses are separators, and
// everything after an unquoted ';' is a comment.
func Tokenize(line string) []Token {
	var toks []Token
	i := 0
	for i < len(line) {
		c := line[i]
		switch {
		case c == ';':
			return toks
		case isSpace(c) || c == '(' || c == ')':
			i++
		case c == '"':
			j := quoteEnd(line, i)
			toks = append(toks, Token{Text: line[i:j], Col: i})
			i = j
		default:
			j := i
			for j < len(line) && !isSeparator(line[j]) {
				j++
			}
			toks = append(toks, Token{Text: line[i:j], Col: i})
			i = j
		}
	}
	return toks
}

// StripComment removes an unquoted ';' comment from line.
func StripComment(line string) string {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			i = quoteEnd(line, i) - 1
		case ';':
			return line[:i]
		}
	}
	return line
}

// quoteEnd returns the offset just past the string opened at line[start].
func quoteEnd(line string, start int) int {
	j := start + 1
	for j < len(line) && line[j] != '"' {
		if line[j] == '\\' {
			j++
		}
		j++
	}
	return min(j+1, len(line))
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }

func isSeparator(c byte) bool {
	return isSpace(c) || c == '(' || c == ')' || c == ';' || c == '"'
}

// LooksLikeTTL reports whether tok has TTL syntax: digits with optional
// w/d/h/m/s unit suffixes, repeated ("1h30m").
func LooksLikeTTL(tok string) bool {
	tok = strings.TrimSpace(tok)
	if tok == "" || !isDigit(tok[0]) {
		return false
	}
	for i := range len(tok) {
		if !isDigit(tok[i]) && unitSeconds(tok[i]) == 0 {
			return false
		}
	}
	return true
}

// ParseTTL parses a TTL in seconds, accepting unit suffixes.
func ParseTTL(tok string) (uint32, error) {
	tok = strings.TrimSpace(tok)
	if !LooksLikeTTL(tok) {
		return 0, errTTLSyntax
	}
	var total uint64
	start := 0
	for i := 0; i <= len(tok); i++ {
		if i < len(tok) && isDigit(tok[i]) {
			continue
		}
		mul := uint64(1)
		if i < len(tok) {
			mul = unitSeconds(tok[i])
		}
		if start == i {
			if i < len(tok) {
				return 0, errTTLSyntax
			}
			break
		}
		n, err := strconv.ParseUint(tok[start:i], 10, 32)
		if err != nil {
			return 0, errTTLTooLarge
		}
		total += n * mul
		if total > uint64(^uint32(0)) {
			return 0, errTTLTooLarge
		}
		start = i + 1
	}
	return uint32(total), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func unitSeconds(c byte) uint64 {
	switch c {
	case 's', 'S':
		return 1
	case 'm', 'M':
		return 60
	case 'h', 'H':
		return 3600
	case 'd', 'D':
		return 86400
	case 'w', 'W':
		return 604800
	default:
		return 0
	}
}
