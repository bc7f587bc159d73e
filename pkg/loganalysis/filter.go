/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package loganalysis

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyLine is returned when a line has no words left after tokenizing.
	// Such a line can neither seed nor extend a filter.
	ErrEmptyLine = errors.New("line has no words")
)

type (
	// Slot is the set of admissible words at one filter position.
	// It only grows. Tokens keeps insertion order so persisted files are stable.
	Slot struct {
		tokens []string
		index  map[string]struct{}
	}

	// Filter is a fixed-length sequence of slots, one shape of log line.
	Filter struct {
		slots []*Slot
	}

	// FilterSet is the ordered collection of all known filters.
	// Filter indexes never change: new filters are appended.
	FilterSet struct {
		// Tokenizer is the tokenizer the filters were learned with.
		Tokenizer Tokenizer
		filters   []*Filter
		// byLength maps a filter length to filter indexes in ascending order.
		byLength map[int][]int
	}
)

func newSlot(token string) *Slot {
	return &Slot{
		tokens: []string{token},
		index:  map[string]struct{}{token: {}},
	}
}

// Contains reports whether token is admissible at this slot.
func (s *Slot) Contains(token string) bool {
	_, ok := s.index[token]
	return ok
}

// Add adds token to the slot. It returns false if token was already present.
func (s *Slot) Add(token string) bool {
	if _, ok := s.index[token]; ok {
		return false
	}
	// the token may point into a much larger line
	token = strings.Clone(token)
	s.index[token] = struct{}{}
	s.tokens = append(s.tokens, token)
	return true
}

func (s *Slot) Len() int {
	return len(s.tokens)
}

// Tokens returns a copy of the admissible words in insertion order.
func (s *Slot) Tokens() []string {
	ret := make([]string, len(s.tokens))
	copy(ret, s.tokens)
	return ret
}

// NewFilter creates a filter with one singleton slot per token.
func NewFilter(tokens []string) (*Filter, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptyLine
	}
	f := &Filter{slots: make([]*Slot, len(tokens))}
	for i, token := range tokens {
		f.slots[i] = newSlot(strings.Clone(token))
	}
	return f, nil
}

func (f *Filter) Len() int {
	return len(f.slots)
}

func (f *Filter) Slot(pos int) *Slot {
	return f.slots[pos]
}

// ExtendSlot adds token to the slot at pos and reports whether the slot grew.
// It panics if pos is out of range.
func (f *Filter) ExtendSlot(pos int, token string) bool {
	return f.slots[pos].Add(token)
}

// String renders the filter like "[a],[b,c],[d]".
func (f *Filter) String() string {
	sb := strings.Builder{}
	for i, s := range f.slots {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('[')
		sb.WriteString(strings.Join(s.tokens, ","))
		sb.WriteByte(']')
	}
	return sb.String()
}

func NewFilterSet() *FilterSet {
	return &FilterSet{byLength: make(map[int][]int)}
}

// Append adds f at the end of the set and returns its index.
func (fs *FilterSet) Append(f *Filter) int {
	index := len(fs.filters)
	fs.filters = append(fs.filters, f)
	if fs.byLength == nil {
		fs.byLength = make(map[int][]int)
	}
	fs.byLength[f.Len()] = append(fs.byLength[f.Len()], index)
	return index
}

func (fs *FilterSet) Len() int {
	return len(fs.filters)
}

func (fs *FilterSet) Get(index int) *Filter {
	return fs.filters[index]
}

// Each visits filters in append order until fn returns false.
func (fs *FilterSet) Each(fn func(index int, f *Filter) bool) {
	for i, f := range fs.filters {
		if !fn(i, f) {
			return
		}
	}
}

// withLength returns indexes of filters of length n in ascending order.
func (fs *FilterSet) withLength(n int) []int {
	return fs.byLength[n]
}

// String renders all filters, one per line, in append order.
func (fs *FilterSet) String() string {
	lines := make([]string, 0, len(fs.filters))
	for _, f := range fs.filters {
		lines = append(lines, f.String())
	}
	return strings.Join(lines, ",\n")
}
