/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package loganalysis

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// File layout:
//
//	clog-filters 1
//	option ignore-columns 0
//	option ignore-numeric false
//	option delimiters ""
//	count 2
//	f service started ok|fail
//	f a b c
//	end
//
// Slots are separated by one space and alternatives by '|'.
// '\' escapes '|' and '\'. Space, tab, CR and LF inside a word are written as
// \s, \t, \r and \n, and an empty word as \e.
const (
	formatMagic   = "clog-filters"
	formatVersion = 1

	optionIgnoreColumns = "ignore-columns"
	optionIgnoreNumeric = "ignore-numeric"
	optionDelimiters    = "delimiters"
)

type (
	// FormatError reports malformed or truncated filter file content.
	FormatError struct {
		// Line is 1-based, 0 when the error is not tied to a line.
		Line int
		Msg  string
	}
)

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid filter file at line %d: %s", e.Line, e.Msg)
	}
	return "invalid filter file: " + e.Msg
}

func formatErrorf(line int, format string, args ...interface{}) *FormatError {
	return &FormatError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Marshal encodes the whole set. Unmarshal(Marshal(fs)) reproduces fs.
func Marshal(fs *FilterSet) []byte {
	bb := bytes.NewBuffer(nil)
	fmt.Fprintf(bb, "%s %d\n", formatMagic, formatVersion)
	fmt.Fprintf(bb, "option %s %d\n", optionIgnoreColumns, fs.Tokenizer.IgnoreFirstColumns)
	fmt.Fprintf(bb, "option %s %t\n", optionIgnoreNumeric, fs.Tokenizer.IgnoreNumericWords)
	fmt.Fprintf(bb, "option %s %s\n", optionDelimiters, strconv.Quote(fs.Tokenizer.Delimiters))
	fmt.Fprintf(bb, "count %d\n", fs.Len())
	for _, f := range fs.filters {
		bb.WriteString("f")
		for _, s := range f.slots {
			bb.WriteByte(' ')
			for i, token := range s.tokens {
				if i > 0 {
					bb.WriteByte('|')
				}
				writeEscaped(bb, token)
			}
		}
		bb.WriteByte('\n')
	}
	bb.WriteString("end\n")
	return bb.Bytes()
}

func writeEscaped(bb *bytes.Buffer, token string) {
	if token == "" {
		bb.WriteString(`\e`)
		return
	}
	for i := 0; i < len(token); i++ {
		switch c := token[i]; c {
		case '|', '\\':
			bb.WriteByte('\\')
			bb.WriteByte(c)
		case ' ':
			bb.WriteString(`\s`)
		case '\t':
			bb.WriteString(`\t`)
		case '\r':
			bb.WriteString(`\r`)
		case '\n':
			bb.WriteString(`\n`)
		default:
			bb.WriteByte(c)
		}
	}
}

// Unmarshal decodes content produced by Marshal.
// Any malformed or truncated content yields a *FormatError.
func Unmarshal(b []byte) (*FilterSet, error) {
	lines := strings.Split(string(b), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) == 0 {
		return nil, formatErrorf(0, "empty content")
	}

	if err := parseMagic(lines[0]); err != nil {
		return nil, err
	}

	fs := NewFilterSet()
	expected := -1
	ended := false
	for i := 1; i < len(lines); i++ {
		lineNo := i + 1
		line := lines[i]
		if ended {
			return nil, formatErrorf(lineNo, "content after end")
		}

		kind, rest, _ := strings.Cut(line, " ")
		switch kind {
		case "option":
			if expected >= 0 {
				return nil, formatErrorf(lineNo, "option after count")
			}
			if err := parseOption(&fs.Tokenizer, rest); err != nil {
				return nil, formatErrorf(lineNo, "%s", err.Error())
			}
		case "count":
			if expected >= 0 {
				return nil, formatErrorf(lineNo, "duplicated count")
			}
			n, err := strconv.Atoi(rest)
			if err != nil || n < 0 {
				return nil, formatErrorf(lineNo, "bad count %q", rest)
			}
			expected = n
		case "f":
			if expected < 0 {
				return nil, formatErrorf(lineNo, "filter before count")
			}
			f, err := parseFilter(rest)
			if err != nil {
				return nil, formatErrorf(lineNo, "%s", err.Error())
			}
			fs.Append(f)
		case "end":
			if rest != "" {
				return nil, formatErrorf(lineNo, "bad end record %q", line)
			}
			ended = true
		default:
			return nil, formatErrorf(lineNo, "unknown record %q", kind)
		}
	}

	if !ended {
		return nil, formatErrorf(0, "truncated content, missing end record")
	}
	if expected < 0 {
		return nil, formatErrorf(0, "missing count record")
	}
	if expected != fs.Len() {
		return nil, formatErrorf(0, "expected %d filters, found %d", expected, fs.Len())
	}
	return fs, nil
}

func parseMagic(line string) error {
	magic, version, ok := strings.Cut(line, " ")
	if !ok || magic != formatMagic {
		return formatErrorf(1, "not a filter file")
	}
	if v, err := strconv.Atoi(version); err != nil || v != formatVersion {
		return formatErrorf(1, "unsupported version %q", version)
	}
	return nil
}

func parseOption(t *Tokenizer, s string) error {
	key, value, ok := strings.Cut(s, " ")
	if !ok {
		return fmt.Errorf("bad option %q", s)
	}
	switch key {
	case optionIgnoreColumns:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("bad %s %q", key, value)
		}
		t.IgnoreFirstColumns = n
	case optionIgnoreNumeric:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("bad %s %q", key, value)
		}
		t.IgnoreNumericWords = b
	case optionDelimiters:
		d, err := strconv.Unquote(value)
		if err != nil {
			return fmt.Errorf("bad %s %q", key, value)
		}
		t.Delimiters = d
	default:
		return fmt.Errorf("unknown option %q", key)
	}
	return nil
}

func parseFilter(s string) (*Filter, error) {
	if s == "" {
		return nil, fmt.Errorf("filter has no slots")
	}
	parts := strings.Split(s, " ")
	f := &Filter{slots: make([]*Slot, 0, len(parts))}
	for _, part := range parts {
		alternatives, err := splitAlternatives(part)
		if err != nil {
			return nil, err
		}
		slot := newSlot(alternatives[0])
		for _, alt := range alternatives[1:] {
			slot.Add(alt)
		}
		f.slots = append(f.slots, slot)
	}
	return f, nil
}

// splitAlternatives splits `a|b\|c` into ["a", "b|c"].
func splitAlternatives(s string) ([]string, error) {
	var ret []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			// the escaped byte is checked by unescape
			i++
		case '|':
			alt, err := unescape(s[start:i])
			if err != nil {
				return nil, err
			}
			ret = append(ret, alt)
			start = i + 1
		}
	}
	alt, err := unescape(s[start:])
	if err != nil {
		return nil, err
	}
	return append(ret, alt), nil
}

func unescape(s string) (string, error) {
	switch s {
	case "":
		return "", fmt.Errorf("empty alternative")
	case `\e`:
		return "", nil
	}
	sb := strings.Builder{}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i == len(s) {
			return "", fmt.Errorf("dangling escape in %q", s)
		}
		switch s[i] {
		case '|', '\\':
			sb.WriteByte(s[i])
		case 's':
			sb.WriteByte(' ')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'n':
			sb.WriteByte('\n')
		default:
			return "", fmt.Errorf("bad escape \\%c in %q", s[i], s)
		}
	}
	return sb.String(), nil
}
