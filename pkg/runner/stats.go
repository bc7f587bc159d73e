/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package runner

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/traas-stack/clog/pkg/loganalysis"
)

// outcomeSkipped labels lines too long to analyse.
const outcomeSkipped = "skipped"

var allKinds = []loganalysis.OutcomeKind{
	loganalysis.OutcomeKnown,
	loganalysis.OutcomeUnknown,
	loganalysis.OutcomeExtended,
	loganalysis.OutcomeCreated,
	loganalysis.OutcomeDropped,
	loganalysis.OutcomeEmpty,
}

type (
	// Stats holds the run metrics in a private registry.
	Stats struct {
		registry    *prometheus.Registry
		lines       *prometheus.CounterVec
		wordsAdded  prometheus.Counter
		grokMisses  prometheus.Counter
		filters     prometheus.Gauge
		longestLine prometheus.Gauge
		longest     int
	}
)

func NewStats(mode loganalysis.Mode) *Stats {
	labels := prometheus.Labels{"mode": mode.String()}
	s := &Stats{
		registry: prometheus.NewRegistry(),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "clog_lines_total",
			Help:        "Input lines by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		wordsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "clog_slot_words_added_total",
			Help:        "Words added to existing filter slots.",
			ConstLabels: labels,
		}),
		grokMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "clog_grok_misses_total",
			Help:        "Lines the grok expression did not match, analysed whole.",
			ConstLabels: labels,
		}),
		filters: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "clog_filters",
			Help:        "Filters in the set.",
			ConstLabels: labels,
		}),
		longestLine: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "clog_longest_line_bytes",
			Help:        "Longest input line seen.",
			ConstLabels: labels,
		}),
	}
	s.registry.MustRegister(s.lines, s.wordsAdded, s.grokMisses, s.filters, s.longestLine)
	// zero values are exported for every outcome
	for _, k := range allKinds {
		s.lines.WithLabelValues(k.String())
	}
	s.lines.WithLabelValues(outcomeSkipped)
	return s
}

func (s *Stats) observe(o loganalysis.Outcome, lineBytes int) {
	s.lines.WithLabelValues(o.Kind.String()).Inc()
	if o.Added > 0 {
		s.wordsAdded.Add(float64(o.Added))
	}
	if lineBytes > s.longest {
		s.longest = lineBytes
		s.longestLine.Set(float64(lineBytes))
	}
}

func (s *Stats) skipped() {
	s.lines.WithLabelValues(outcomeSkipped).Inc()
}

// WriteTextfile writes all metrics in the text exposition format, replacing path atomically.
func (s *Stats) WriteTextfile(path string) error {
	return errors.Wrapf(prometheus.WriteToTextfile(path, s.registry), "write metrics to %s", path)
}
