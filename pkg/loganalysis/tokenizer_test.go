/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package loganalysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizer_Whitespace(t *testing.T) {
	tk := Tokenizer{}
	assert.Equal(t, []string{"service", "started", "ok"}, tk.Tokenize("service started ok"))
	assert.Equal(t, []string{"a", "b", "c"}, tk.Tokenize("  a\tb \r\n c  "))
	assert.Empty(t, tk.Tokenize(""))
	assert.Empty(t, tk.Tokenize(" \t "))
	// punctuation is kept by default
	assert.Equal(t, []string{"kernel:", "wlp2s0:", "authenticated"}, tk.Tokenize("kernel: wlp2s0: authenticated"))
}

func TestTokenizer_Punctuation(t *testing.T) {
	tk := Tokenizer{Delimiters: Punctuation}
	assert.Equal(t,
		[]string{"Sep", "16", "20", "17", "04", "AM", "kernel", "wlp2s0", "authenticated"},
		tk.Tokenize("Sep 16 20:17:04 AM kernel: wlp2s0: authenticated"))
	assert.Equal(t, []string{"a", "b", "c", "d"}, tk.Tokenize(`"a"/[b]{c}(d)`))
}

func TestTokenizer_IgnoreColumnsAndNumbers(t *testing.T) {
	tk := Tokenizer{Delimiters: Punctuation, IgnoreFirstColumns: 2, IgnoreNumericWords: true}
	// numeric words are dropped before columns are counted
	assert.Equal(t, []string{"kernel", "wlp2s0", "authenticated"}, tk.Tokenize("Sep 16 20:17:04 AM kernel: wlp2s0: authenticated"))

	tk = Tokenizer{IgnoreFirstColumns: 5}
	assert.Empty(t, tk.Tokenize("a b c"))

	tk = Tokenizer{IgnoreNumericWords: true}
	assert.Equal(t, []string{"id", "a1", "x"}, tk.Tokenize("id 1234 a1 *** #12 x"))
}

func TestIsNumericWord(t *testing.T) {
	assert.False(t, isNumericWord(""))
	assert.False(t, isNumericWord("asdf"))
	assert.False(t, isNumericWord("12a"))
	assert.True(t, isNumericWord("1234"))
	assert.True(t, isNumericWord("*#1"))
}
