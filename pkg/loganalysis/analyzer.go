/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package loganalysis

import (
	"errors"
)

const (
	// OutcomeKnown means a filter matched the line exactly.
	OutcomeKnown OutcomeKind = iota
	// OutcomeUnknown means no filter matched exactly in passive mode.
	OutcomeUnknown
	// OutcomeExtended means a filter absorbed the line's new words.
	OutcomeExtended
	// OutcomeCreated means the line seeded a new filter.
	OutcomeCreated
	// OutcomeDropped means the line needed a new filter but the set is full.
	OutcomeDropped
	// OutcomeEmpty means the line has no words.
	OutcomeEmpty
)

var (
	ErrPassiveMode = errors.New("analyzer is in passive mode")
)

type (
	OutcomeKind uint8

	Outcome struct {
		Kind OutcomeKind
		// Index of the matched, extended or created filter, -1 otherwise.
		Index int
		// Added is the number of words added to slots by an extension.
		Added int
	}

	// Analyzer runs lines through a FilterSet one at a time.
	// It owns the set for the duration of a run and is not safe for concurrent use.
	Analyzer struct {
		filters   *FilterSet
		mode      Mode
		tolerance Tolerance
		// maxFilters caps the set size in learning mode, 0 means unlimited.
		maxFilters int
	}
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeKnown:
		return "known"
	case OutcomeUnknown:
		return "unknown"
	case OutcomeExtended:
		return "extended"
	case OutcomeCreated:
		return "created"
	case OutcomeDropped:
		return "dropped"
	case OutcomeEmpty:
		return "empty"
	default:
		return "invalid"
	}
}

func NewAnalyzer(fs *FilterSet, mode Mode, tolerance Tolerance, maxFilters int) *Analyzer {
	if fs == nil {
		fs = NewFilterSet()
	}
	if maxFilters < 0 {
		maxFilters = 0
	}
	return &Analyzer{
		filters:    fs,
		mode:       mode,
		tolerance:  tolerance,
		maxFilters: maxFilters,
	}
}

func (a *Analyzer) Filters() *FilterSet {
	return a.filters
}

func (a *Analyzer) Mode() Mode {
	return a.mode
}

// Process learns or classifies the line depending on the analyzer mode.
// Empty lines yield OutcomeEmpty in both modes.
func (a *Analyzer) Process(line string) Outcome {
	if a.mode == ModePassive {
		return a.Classify(line)
	}
	o, _ := a.Learn(line)
	return o
}

// Classify never mutates the set.
func (a *Analyzer) Classify(line string) Outcome {
	tokens := a.filters.Tokenizer.Tokenize(line)
	if len(tokens) == 0 {
		return Outcome{Kind: OutcomeEmpty, Index: -1}
	}
	sel := Select(tokens, a.filters, ModePassive, a.tolerance)
	if sel.Kind == ExactMatch {
		return Outcome{Kind: OutcomeKnown, Index: sel.Index}
	}
	return Outcome{Kind: OutcomeUnknown, Index: -1}
}

// Learn extends the best acceptable filter with the line's words or appends
// a new filter seeded from them.
func (a *Analyzer) Learn(line string) (Outcome, error) {
	if a.mode != ModeLearning {
		return Outcome{Kind: OutcomeUnknown, Index: -1}, ErrPassiveMode
	}
	tokens := a.filters.Tokenizer.Tokenize(line)
	if len(tokens) == 0 {
		return Outcome{Kind: OutcomeEmpty, Index: -1}, ErrEmptyLine
	}

	sel := Select(tokens, a.filters, ModeLearning, a.tolerance)
	switch sel.Kind {
	case ExactMatch:
		return Outcome{Kind: OutcomeKnown, Index: sel.Index}, nil
	case ExtendableMatch:
		f := a.filters.Get(sel.Index)
		added := 0
		for i, token := range tokens {
			if f.ExtendSlot(i, token) {
				added++
			}
		}
		return Outcome{Kind: OutcomeExtended, Index: sel.Index, Added: added}, nil
	}

	if a.maxFilters > 0 && a.filters.Len() >= a.maxFilters {
		return Outcome{Kind: OutcomeDropped, Index: -1}, nil
	}
	f, err := NewFilter(tokens)
	if err != nil {
		return Outcome{Kind: OutcomeEmpty, Index: -1}, err
	}
	return Outcome{Kind: OutcomeCreated, Index: a.filters.Append(f)}, nil
}
