/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package loganalysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFilter(t *testing.T, line string) *Filter {
	f, err := NewFilter(Tokenizer{}.Tokenize(line))
	require.NoError(t, err)
	return f
}

func TestNewFilter(t *testing.T) {
	f := mustFilter(t, "service started ok")
	assert.Equal(t, 3, f.Len())
	for i, want := range []string{"service", "started", "ok"} {
		assert.Equal(t, []string{want}, f.Slot(i).Tokens())
	}

	_, err := NewFilter(nil)
	assert.ErrorIs(t, err, ErrEmptyLine)
	_, err = NewFilter([]string{})
	assert.ErrorIs(t, err, ErrEmptyLine)
}

func TestFilter_ExtendSlot(t *testing.T) {
	f := mustFilter(t, "aaa bbb ccc")
	assert.True(t, f.ExtendSlot(2, "ddd"))
	assert.False(t, f.ExtendSlot(2, "ddd"))
	assert.False(t, f.ExtendSlot(0, "aaa"))
	assert.Equal(t, []string{"ccc", "ddd"}, f.Slot(2).Tokens())
	assert.True(t, f.Slot(2).Contains("ddd"))
	assert.False(t, f.Slot(1).Contains("ddd"))
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, "[aaa],[bbb],[ccc,ddd]", f.String())

	assert.Panics(t, func() { f.ExtendSlot(3, "x") })
}

func TestSlot_TokensIsCopy(t *testing.T) {
	f := mustFilter(t, "a")
	tokens := f.Slot(0).Tokens()
	tokens[0] = "changed"
	assert.True(t, f.Slot(0).Contains("a"))
	assert.Equal(t, []string{"a"}, f.Slot(0).Tokens())
}

func TestFilterSet_AppendOrder(t *testing.T) {
	fs := NewFilterSet()
	assert.Equal(t, 0, fs.Len())
	assert.Equal(t, "", fs.String())

	assert.Equal(t, 0, fs.Append(mustFilter(t, "aaa bbb ccc ddd")))
	assert.Equal(t, 1, fs.Append(mustFilter(t, "xxx yyy zzz")))
	assert.Equal(t, 2, fs.Append(mustFilter(t, "eee fff ggg")))

	var visited []int
	fs.Each(func(index int, f *Filter) bool {
		visited = append(visited, index)
		return true
	})
	assert.Equal(t, []int{0, 1, 2}, visited)
	assert.Equal(t, []int{1, 2}, fs.withLength(3))
	assert.Equal(t, []int{0}, fs.withLength(4))
	assert.Empty(t, fs.withLength(5))

	visited = nil
	fs.Each(func(index int, f *Filter) bool {
		visited = append(visited, index)
		return index < 1
	})
	assert.Equal(t, []int{0, 1}, visited)

	assert.Equal(t, "[aaa],[bbb],[ccc],[ddd],\n[xxx],[yyy],[zzz],\n[eee],[fff],[ggg]", fs.String())
}

func TestFilterSet_ZeroValueAppend(t *testing.T) {
	fs := &FilterSet{}
	fs.Append(mustFilter(t, "a b"))
	assert.Equal(t, []int{0}, fs.withLength(2))
}
