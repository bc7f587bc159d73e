/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package loganalysis

const (
	// ModeLearning extends or appends filters for every line.
	ModeLearning Mode = iota
	// ModePassive only reports lines no filter matches exactly.
	ModePassive
)

const (
	NoMatch SelectionKind = iota
	ExactMatch
	// ExtendableMatch only happens in learning mode.
	ExtendableMatch
)

type (
	Mode          uint8
	SelectionKind uint8

	Selection struct {
		Kind SelectionKind
		// Index is the selected filter, -1 for NoMatch.
		Index   int
		Outcome MatchOutcome
	}
)

func (m Mode) String() string {
	switch m {
	case ModeLearning:
		return "learning"
	case ModePassive:
		return "passive"
	default:
		return "unknown"
	}
}

func (k SelectionKind) String() string {
	switch k {
	case ExactMatch:
		return "exact"
	case ExtendableMatch:
		return "extendable"
	default:
		return "none"
	}
}

// Select picks the filter with the most hits, the lowest index on ties,
// and applies the acceptance rule of mode to it.
func Select(tokens []string, fs *FilterSet, mode Mode, tol Tolerance) Selection {
	best := Selection{Kind: NoMatch, Index: -1}
	if len(tokens) == 0 {
		return best
	}

	found := false
	for _, index := range fs.withLength(len(tokens)) {
		o, ok := Score(tokens, fs.filters[index])
		if !ok {
			continue
		}
		if !found || o.Hits > best.Outcome.Hits {
			found = true
			best.Index = index
			best.Outcome = o
			if o.Exact() {
				break
			}
		}
	}

	switch {
	case !found:
		return Selection{Kind: NoMatch, Index: -1}
	case best.Outcome.Exact():
		best.Kind = ExactMatch
	case mode == ModeLearning && tol.Allows(best.Outcome):
		best.Kind = ExtendableMatch
	default:
		return Selection{Kind: NoMatch, Index: -1, Outcome: best.Outcome}
	}
	return best
}
