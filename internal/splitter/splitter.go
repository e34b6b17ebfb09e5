// Package splitter turns a raw DDL blob, as produced by DBMS_METADATA or
// concatenated from ALL_SOURCE, into standalone executable statements.
// Older Oracle drivers reject multi-statement text and choke on control
// characters, so the blob is scrubbed before it is split.
package splitter

import (
	"strings"
	"unicode"
)

// Split converts raw DDL text into an ordered list of executable
// statements. A semicolon terminates a statement only outside quoted
// regions; a backslash escapes the following character. Emitted statements
// are trimmed and never empty. If splitting yields nothing but the input
// itself is non-blank, the trimmed input is returned as a single statement
// so callers always receive at least one unit of work.
func Split(raw string) []string {
	cleaned := scrub(raw)

	var statements []string
	var buf strings.Builder
	var quote rune
	escaped := false

	for _, r := range cleaned {
		switch {
		case escaped:
			buf.WriteRune(r)
			escaped = false
		case r == '\\':
			buf.WriteRune(r)
			escaped = true
		case quote != 0:
			buf.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			buf.WriteRune(r)
			quote = r
		case r == ';':
			if stmt := strings.TrimSpace(buf.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			buf.Reset()
		default:
			buf.WriteRune(r)
		}
	}
	if stmt := strings.TrimSpace(buf.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	if len(statements) == 0 {
		if trimmed := strings.TrimSpace(cleaned); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}
	return statements
}

// scrub normalizes line endings, drops byte-order marks and zero-width
// characters, and replaces any remaining control character other than tab
// with a space, line by line. Printable text, including non-ASCII data
// inside literals, passes through untouched.
func scrub(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\uFEFF', '\u200B', '\u200C', '\u200D':
			return -1
		}
		return r
	}, s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Map(func(r rune) rune {
			if r == '\t' {
				return r
			}
			if unicode.IsControl(r) {
				return ' '
			}
			return r
		}, line)
	}
	return strings.Join(lines, "\n")
}
