/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package loganalysis

import (
	"strings"
	"unicode"
)

// Punctuation splits words on common log punctuation as well.
const Punctuation = `/,.:"'(){}[]`

type (
	// Tokenizer splits a raw line into words.
	// The zero value splits on whitespace runs only.
	Tokenizer struct {
		// IgnoreFirstColumns drops the first N words, usually a timestamp.
		IgnoreFirstColumns int
		// IgnoreNumericWords drops words made only of digits, '*' or '#'.
		// Dropped words do not count as columns.
		IgnoreNumericWords bool
		// Delimiters are extra single-character separators besides whitespace.
		Delimiters string
	}
)

// Tokenize never fails. It returns an empty slice for blank lines.
// Returned words never contain whitespace.
func (t Tokenizer) Tokenize(line string) []string {
	var raw []string
	if t.Delimiters == "" {
		raw = strings.Fields(line)
	} else {
		raw = strings.FieldsFunc(line, func(r rune) bool {
			return unicode.IsSpace(r) || strings.ContainsRune(t.Delimiters, r)
		})
	}

	if !t.IgnoreNumericWords && t.IgnoreFirstColumns <= 0 {
		return raw
	}

	words := raw[:0]
	skipped := 0
	for _, w := range raw {
		if t.IgnoreNumericWords && isNumericWord(w) {
			continue
		}
		if skipped < t.IgnoreFirstColumns {
			skipped++
			continue
		}
		words = append(words, w)
	}
	return words
}

func isNumericWord(w string) bool {
	if w == "" {
		return false
	}
	for _, c := range w {
		if c == '*' || c == '#' || unicode.IsNumber(c) {
			continue
		}
		return false
	}
	return true
}
