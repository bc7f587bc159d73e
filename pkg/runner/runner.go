/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package runner feeds a line stream through an analyzer one line at a time.
package runner

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/traas-stack/clog/pkg/loganalysis"
	"github.com/traas-stack/clog/pkg/logger"
	"go.uber.org/zap"
)

const (
	DefaultMaxLineBytes = 1024 * 1024
	DefaultGrokField    = "message"

	initialBufferSize = 64 * 1024
	pendingLines      = 64
)

type (
	Config struct {
		// MaxLineBytes bounds a single line, longer lines are skipped.
		MaxLineBytes int
		// ProgressEvery logs a progress line every N input lines, 0 disables it.
		ProgressEvery int
		// Grok optionally extracts GrokField from each line. Lines it does not match are analysed whole.
		Grok      string
		GrokField string
		// Unmatched receives unknown lines verbatim in passive mode. Nil discards them.
		Unmatched io.Writer
	}

	Summary struct {
		Lines      int64
		Known      int64
		Unknown    int64
		Extended   int64
		Created    int64
		Dropped    int64
		Empty      int64
		// Skipped lines were longer than MaxLineBytes.
		Skipped    int64
		WordsAdded int64
		GrokMisses int64
		// Filters is the set size when the run ended.
		Filters int
	}

	Runner struct {
		analyzer *loganalysis.Analyzer
		cfg      Config
		grok     *grokExtractor
		stats    *Stats
		summary  Summary
	}
)

func New(analyzer *loganalysis.Analyzer, cfg Config) (*Runner, error) {
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = DefaultMaxLineBytes
	}
	if cfg.ProgressEvery < 0 {
		cfg.ProgressEvery = 0
	}
	r := &Runner{
		analyzer: analyzer,
		cfg:      cfg,
		stats:    NewStats(analyzer.Mode()),
	}
	if cfg.Grok != "" {
		if cfg.GrokField == "" {
			cfg.GrokField = DefaultGrokField
		}
		g, err := newGrokExtractor(cfg.Grok, cfg.GrokField)
		if err != nil {
			return nil, err
		}
		r.grok = g
		r.cfg = cfg
	}
	return r, nil
}

func (r *Runner) Stats() *Stats {
	return r.stats
}

func (r *Runner) Summary() Summary {
	return r.summary
}

// Run consumes in until EOF, a read error or ctx is done.
// Lines are processed strictly in input order. Lines longer than MaxLineBytes are skipped.
// A canceled run processes the lines already read, then returns ctx.Err() with
// everything processed so far kept in the analyzer's set.
func (r *Runner) Run(ctx context.Context, in io.Reader) (Summary, error) {
	lines := make(chan inputLine, pendingLines)
	done := make(chan struct{})
	defer close(done)

	var readErr error
	go func() {
		defer close(lines)
		lr := newLineReader(in, r.cfg.MaxLineBytes)
		for {
			line, err := lr.next()
			if err != nil {
				if err != io.EOF {
					readErr = err
				}
				return
			}
			select {
			case lines <- line:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			err := r.drain(lines)
			r.finish()
			logger.Warnz("[runner] interrupted", zap.Int64("lines", r.summary.Lines))
			if err != nil {
				return r.summary, err
			}
			return r.summary, ctx.Err()
		case line, ok := <-lines:
			if !ok {
				r.finish()
				if readErr != nil {
					return r.summary, errors.Wrap(readErr, "read input")
				}
				return r.summary, nil
			}
			if err := r.step(line); err != nil {
				r.finish()
				return r.summary, err
			}
		}
	}
}

// drain processes the lines read before the run was canceled.
func (r *Runner) drain(lines <-chan inputLine) error {
	for n := len(lines); n > 0; n-- {
		line, ok := <-lines
		if !ok {
			return nil
		}
		if err := r.step(line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) step(in inputLine) error {
	if in.tooLong {
		r.summary.Lines++
		r.summary.Skipped++
		r.stats.skipped()
		logger.Warnz("[runner] line too long, skipped",
			zap.Int64("line", r.summary.Lines),
			zap.Int("maxLineBytes", r.cfg.MaxLineBytes))
		r.progress()
		return nil
	}

	line := in.text
	text := line
	if r.grok != nil {
		if v, ok := r.grok.Extract(line); ok {
			text = v
		} else {
			r.summary.GrokMisses++
			r.stats.grokMisses.Inc()
		}
	}

	o := r.analyzer.Process(text)
	r.summary.Lines++
	r.summary.add(o)
	r.stats.observe(o, len(line))

	switch o.Kind {
	case loganalysis.OutcomeUnknown:
		if r.cfg.Unmatched != nil {
			if _, err := io.WriteString(r.cfg.Unmatched, line+"\n"); err != nil {
				return errors.Wrap(err, "write unmatched line")
			}
		}
	case loganalysis.OutcomeCreated:
		if logger.IsDebugEnabled() {
			logger.Debugz("[runner] new filter", zap.Int("index", o.Index), zap.String("line", text))
		}
	case loganalysis.OutcomeDropped:
		if r.summary.Dropped == 1 {
			logger.Warnz("[runner] filter limit reached, new shapes are dropped", zap.Int("filters", r.analyzer.Filters().Len()))
		}
	}

	r.progress()
	return nil
}

func (r *Runner) progress() {
	if r.cfg.ProgressEvery > 0 && r.summary.Lines%int64(r.cfg.ProgressEvery) == 0 {
		logger.Infoz("[runner] progress",
			zap.Int64("lines", r.summary.Lines),
			zap.Int("filters", r.analyzer.Filters().Len()))
	}
}

func (r *Runner) finish() {
	r.summary.Filters = r.analyzer.Filters().Len()
	r.stats.filters.Set(float64(r.summary.Filters))
	logger.Stat("[runner] summary",
		zap.String("mode", r.analyzer.Mode().String()),
		zap.Int64("lines", r.summary.Lines),
		zap.Int64("known", r.summary.Known),
		zap.Int64("unknown", r.summary.Unknown),
		zap.Int64("extended", r.summary.Extended),
		zap.Int64("created", r.summary.Created),
		zap.Int64("dropped", r.summary.Dropped),
		zap.Int64("empty", r.summary.Empty),
		zap.Int64("skipped", r.summary.Skipped),
		zap.Int("filters", r.summary.Filters))
}

func (s *Summary) add(o loganalysis.Outcome) {
	switch o.Kind {
	case loganalysis.OutcomeKnown:
		s.Known++
	case loganalysis.OutcomeUnknown:
		s.Unknown++
	case loganalysis.OutcomeExtended:
		s.Extended++
		s.WordsAdded += int64(o.Added)
	case loganalysis.OutcomeCreated:
		s.Created++
	case loganalysis.OutcomeDropped:
		s.Dropped++
	case loganalysis.OutcomeEmpty:
		s.Empty++
	}
}
