/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package loganalysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSameFilters(t *testing.T, want, got *FilterSet) {
	require.Equal(t, want.Len(), got.Len())
	assert.Equal(t, want.Tokenizer, got.Tokenizer)
	want.Each(func(index int, f *Filter) bool {
		g := got.Get(index)
		require.Equal(t, f.Len(), g.Len(), "filter %d", index)
		for pos := 0; pos < f.Len(); pos++ {
			assert.ElementsMatch(t, f.Slot(pos).Tokens(), g.Slot(pos).Tokens(), "filter %d slot %d", index, pos)
		}
		return true
	})
}

func TestMarshal_Layout(t *testing.T) {
	fs := NewFilterSet()
	f := mustFilter(t, "service started ok")
	f.ExtendSlot(2, "fail")
	fs.Append(f)
	fs.Append(mustFilter(t, "a b c"))

	expected := "clog-filters 1\n" +
		"option ignore-columns 0\n" +
		"option ignore-numeric false\n" +
		"option delimiters \"\"\n" +
		"count 2\n" +
		"f service started ok|fail\n" +
		"f a b c\n" +
		"end\n"
	assert.Equal(t, expected, string(Marshal(fs)))
}

func TestMarshal_RoundTrip(t *testing.T) {
	fs := NewFilterSet()
	fs.Tokenizer = Tokenizer{IgnoreFirstColumns: 2, IgnoreNumericWords: true, Delimiters: Punctuation + " "}

	f := mustFilter(t, `pipe|word back\slash [x] plain`)
	f.ExtendSlot(0, "a||b")
	f.ExtendSlot(1, `\|`)
	f.ExtendSlot(3, "日志")
	fs.Append(f)
	fs.Append(mustFilter(t, "end"))
	fs.Append(mustFilter(t, "f count option"))

	got, err := Unmarshal(Marshal(fs))
	require.NoError(t, err)
	assertSameFilters(t, fs, got)

	// append order and lookups survive a load
	assert.Equal(t, []int{1}, got.withLength(1))
	assert.True(t, got.Get(0).Slot(1).Contains(`\|`))

	// stable across save/load cycles
	assert.Equal(t, Marshal(fs), Marshal(got))
}

func TestMarshal_RoundTripAnyWord(t *testing.T) {
	fs := NewFilterSet()
	f, err := NewFilter([]string{"a b", "c", "x\ny"})
	require.NoError(t, err)
	f.ExtendSlot(0, "")
	f.ExtendSlot(1, "tab\there")
	f.ExtendSlot(1, "cr\r")
	f.ExtendSlot(2, `\e`)
	f.ExtendSlot(2, `\s|\n`)
	fs.Append(f)
	empty, err := NewFilter([]string{""})
	require.NoError(t, err)
	fs.Append(empty)

	b := Marshal(fs)
	assert.Contains(t, string(b), "count 2\nf a\\sb|\\e c|tab\\there|cr\\r x\\ny|\\\\e|\\\\s\\|\\\\n\nf \\e\nend\n")

	got, err := Unmarshal(b)
	require.NoError(t, err)
	assertSameFilters(t, fs, got)
	assert.Equal(t, 3, got.Get(0).Len())
	assert.True(t, got.Get(0).Slot(0).Contains("a b"))
	assert.True(t, got.Get(0).Slot(0).Contains(""))
	assert.True(t, got.Get(0).Slot(2).Contains("x\ny"))
	assert.True(t, got.Get(1).Slot(0).Contains(""))
	assert.Equal(t, b, Marshal(got))
}

func TestUnmarshal_EscapeInsideWord(t *testing.T) {
	_, err := Unmarshal([]byte("clog-filters 1\ncount 1\nf a\\eb\nend\n"))
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestMarshal_RoundTripEmpty(t *testing.T) {
	fs := NewFilterSet()
	got, err := Unmarshal(Marshal(fs))
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestUnmarshal_WithoutTrailingNewline(t *testing.T) {
	got, err := Unmarshal([]byte("clog-filters 1\ncount 1\nf a b\nend"))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
	assert.Equal(t, Tokenizer{}, got.Tokenizer)
}

func TestUnmarshal_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"bad magic":        "clog 1\ncount 0\nend\n",
		"bad version":      "clog-filters 2\ncount 0\nend\n",
		"missing end":      "clog-filters 1\ncount 1\nf a b\n",
		"missing count":    "clog-filters 1\nend\n",
		"count mismatch":   "clog-filters 1\ncount 2\nf a b\nend\n",
		"bad count":        "clog-filters 1\ncount x\nend\n",
		"filter first":     "clog-filters 1\nf a\ncount 1\nend\n",
		"option late":      "clog-filters 1\ncount 0\noption ignore-columns 1\nend\n",
		"unknown option":   "clog-filters 1\noption color red\ncount 0\nend\n",
		"bad option value": "clog-filters 1\noption ignore-numeric maybe\ncount 0\nend\n",
		"bad delimiters":   "clog-filters 1\noption delimiters abc\ncount 0\nend\n",
		"unknown record":   "clog-filters 1\ncount 0\nx\nend\n",
		"empty filter":     "clog-filters 1\ncount 1\nf\nend\n",
		"empty slot":       "clog-filters 1\ncount 1\nf a  b\nend\n",
		"empty alt":        "clog-filters 1\ncount 1\nf a|\nend\n",
		"bad escape":       "clog-filters 1\ncount 1\nf a\\x\nend\n",
		"dangling escape":  "clog-filters 1\ncount 1\nf a\\\nend\n",
		"after end":        "clog-filters 1\ncount 0\nend\nf a\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Unmarshal([]byte(content))
			require.Error(t, err)
			var fe *FormatError
			assert.ErrorAs(t, err, &fe)
		})
	}
}

func TestUnmarshal_Truncated(t *testing.T) {
	fs := NewFilterSet()
	fs.Append(mustFilter(t, "service started ok"))
	fs.Append(mustFilter(t, "disk full on sda"))
	b := Marshal(fs)

	for n := 0; n < len(b)-1; n++ {
		_, err := Unmarshal(b[:n])
		var fe *FormatError
		assert.ErrorAs(t, err, &fe, "truncated at %d", n)
	}
}

func TestFormatError_Error(t *testing.T) {
	assert.Equal(t, "invalid filter file at line 3: boom", (&FormatError{Line: 3, Msg: "boom"}).Error())
	assert.Equal(t, "invalid filter file: boom", (&FormatError{Msg: "boom"}).Error())
}
