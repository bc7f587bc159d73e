/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package loganalysis

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultMaxMisses = 1
	DefaultMinHits   = 1
)

type (
	// MatchOutcome is the positional comparison of a line against one filter.
	// Hits + Misses always equals the filter length.
	MatchOutcome struct {
		Hits   int
		Misses int
	}

	// Tolerance decides whether a learning-mode candidate may absorb a line.
	Tolerance struct {
		// MaxMisses is the absolute number of mismatching words allowed.
		MaxMisses int
		// MaxMissRatio allows floor(MaxMissRatio*length) mismatching words when > 0.
		// A candidate passes if either limit allows it.
		MaxMissRatio float64
		// MinHits is the number of matching words a candidate needs at least.
		MinHits int
	}
)

// Score compares tokens with f position by position.
// It returns false when the lengths differ: such a filter never applies.
func Score(tokens []string, f *Filter) (MatchOutcome, bool) {
	if len(tokens) != f.Len() {
		return MatchOutcome{}, false
	}
	o := MatchOutcome{}
	for i, token := range tokens {
		if f.slots[i].Contains(token) {
			o.Hits++
		} else {
			o.Misses++
		}
	}
	return o, true
}

func (o MatchOutcome) Exact() bool {
	return o.Misses == 0
}

func DefaultTolerance() Tolerance {
	return Tolerance{
		MaxMisses: DefaultMaxMisses,
		MinHits:   DefaultMinHits,
	}
}

func (t Tolerance) Validate() error {
	if t.MaxMisses < 0 {
		return fmt.Errorf("max misses must be >= 0, got %d", t.MaxMisses)
	}
	if t.MinHits < 0 {
		return fmt.Errorf("min hits must be >= 0, got %d", t.MinHits)
	}
	if math.IsNaN(t.MaxMissRatio) || t.MaxMissRatio < 0 || t.MaxMissRatio > 1 {
		return errors.New("max miss ratio must be within [0,1]")
	}
	return nil
}

// Allows reports whether a candidate with outcome o may be extended.
func (t Tolerance) Allows(o MatchOutcome) bool {
	if o.Hits < t.MinHits {
		return false
	}
	if o.Misses <= t.MaxMisses {
		return true
	}
	if t.MaxMissRatio > 0 {
		limit := int(math.Floor(t.MaxMissRatio * float64(o.Hits+o.Misses)))
		return o.Misses <= limit
	}
	return false
}
