// Vendorbase - Vendor, Contract and Project Data Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vendorbase

package database

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// placeholderStyle is a backend's native bind syntax.
type placeholderStyle int

const (
	styleQuestion placeholderStyle = iota // ?
	styleDollar                           // $1, $2, ...
)

// rewritePlaceholders converts "?" and "%s" markers to style and checks the
// count against want. Quoted literals, quoted identifiers and comments are
// copied unchanged. "%%" outside literals becomes "%".
func rewritePlaceholders(statement string, style placeholderStyle, want int) (string, error) {
	var b strings.Builder
	b.Grow(len(statement) + 8)

	n := 0
	emit := func() {
		n++
		if style == styleDollar {
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		} else {
			b.WriteByte('?')
		}
	}

	for i := 0; i < len(statement); i++ {
		ch := statement[i]
		switch {
		case ch == '\'' || ch == '"':
			end := closingQuote(statement, i)
			b.WriteString(statement[i:end])
			i = end - 1
		case ch == '-' && i+1 < len(statement) && statement[i+1] == '-':
			end := strings.IndexByte(statement[i:], '\n')
			if end < 0 {
				end = len(statement) - i
			}
			b.WriteString(statement[i : i+end])
			i += end - 1
		case ch == '/' && i+1 < len(statement) && statement[i+1] == '*':
			end := strings.Index(statement[i+2:], "*/")
			if end < 0 {
				b.WriteString(statement[i:])
				i = len(statement)
				break
			}
			b.WriteString(statement[i : i+end+4])
			i += end + 3
		case ch == '?':
			emit()
		case ch == '%' && i+1 < len(statement) && statement[i+1] == 's':
			emit()
			i++
		case ch == '%' && i+1 < len(statement) && statement[i+1] == '%':
			b.WriteByte('%')
			i++
		default:
			b.WriteByte(ch)
		}
	}

	if n != want {
		return "", fmt.Errorf("statement has %d placeholders but %d parameters were given", n, want)
	}
	return b.String(), nil
}

// closingQuote returns the index just past the literal starting at start.
// A doubled quote character is an escape. Unterminated literals run to the end.
func closingQuote(s string, start int) int {
	q := s[start]
	for i := start + 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

// qualifierStripper removes schema prefixes so warehouse SQL runs against a
// single local database file.
type qualifierStripper struct {
	patterns []*regexp.Regexp
}

// newQualifierStripper builds case-insensitive matchers, longest first so
// "db.schema." wins over "schema.".
func newQualifierStripper(qualifiers []string) *qualifierStripper {
	sorted := make([]string, 0, len(qualifiers))
	for _, q := range qualifiers {
		if q = strings.TrimSpace(q); q != "" {
			if !strings.HasSuffix(q, ".") {
				q += "."
			}
			sorted = append(sorted, q)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	s := &qualifierStripper{}
	for _, q := range sorted {
		s.patterns = append(s.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(q)))
	}
	return s
}

func (s *qualifierStripper) strip(statement string) string {
	for _, re := range s.patterns {
		statement = re.ReplaceAllString(statement, "")
	}
	return statement
}

// localParams converts values the embedded engines cannot bind natively.
// time.Time becomes ISO-8601 text; midnight UTC values become plain dates.
func localParams(params []any) []any {
	out := make([]any, len(params))
	for i, p := range params {
		switch v := p.(type) {
		case time.Time:
			out[i] = isoTime(v)
		case *time.Time:
			if v == nil {
				out[i] = nil
			} else {
				out[i] = isoTime(*v)
			}
		default:
			out[i] = p
		}
	}
	return out
}

func isoTime(t time.Time) string {
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return u.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339Nano)
}
