/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package commands

import (
	"context"
	"io"
	"os"
	"syscall"

	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/traas-stack/clog/pkg/filterstore"
	"github.com/traas-stack/clog/pkg/loganalysis"
	"github.com/traas-stack/clog/pkg/logger"
	"github.com/traas-stack/clog/pkg/runner"
	"github.com/traas-stack/clog/pkg/text"
	"go.uber.org/zap"
)

// loadFilters reads the saved set. A learning run without a saved set starts an empty one
// using the configured tokenizer. A loaded set keeps the tokenizer it was learned with.
func loadFilters(ctx context.Context, store filterstore.Store, mode loganalysis.Mode, configured loganalysis.Tokenizer) (*loganalysis.FilterSet, error) {
	fs, err := store.Load(ctx)
	if errors.Is(err, filterstore.ErrNotFound) {
		if mode == loganalysis.ModePassive {
			return nil, errors.New("no saved filters to classify with, run learn first")
		}
		logger.Infoz("[clog] no saved filters, starting an empty set")
		fs = loganalysis.NewFilterSet()
		fs.Tokenizer = configured
		return fs, nil
	}
	if err != nil {
		return nil, err
	}
	if configured != (loganalysis.Tokenizer{}) && configured != fs.Tokenizer {
		logger.Warnz("[clog] tokenizer options differ from the loaded filter set, using the loaded ones",
			zap.Int("ignoreColumns", fs.Tokenizer.IgnoreFirstColumns),
			zap.Bool("ignoreNumeric", fs.Tokenizer.IgnoreNumericWords),
			zap.String("delimiters", fs.Tokenizer.Delimiters))
	}
	logger.Infoz("[clog] filters loaded", zap.Int("filters", fs.Len()))
	return fs, nil
}

// runEngine processes in until EOF or SIGINT/SIGTERM. interrupted reports a signal or a
// canceled ctx; what was processed until then is kept in the analyzer.
func (o *options) runEngine(ctx context.Context, a *loganalysis.Analyzer, in io.Reader, unmatched io.Writer) (summary runner.Summary, interrupted bool, err error) {
	reader, charset, err := text.NewReader(in, o.cfg.Input.Charset)
	if err != nil {
		return summary, false, err
	}
	if charset != text.UTF8 {
		logger.Infoz("[clog] decoding input", zap.String("charset", charset))
	}

	r, err := runner.New(a, runner.Config{
		MaxLineBytes:  o.cfg.Input.MaxLineBytes,
		ProgressEvery: o.cfg.Input.ProgressEvery,
		Grok:          o.cfg.Input.Grok,
		GrokField:     o.cfg.Input.GrokField,
		Unmatched:     unmatched,
	})
	if err != nil {
		return summary, false, err
	}

	var g run.Group
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				s, err := r.Run(ctx, reader)
				summary = s
				return err
			},
			func(err error) {
				cancel()
			},
		)
	}
	{
		g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
	}

	err = g.Run()
	if ar, ok := reader.(*text.AutoReader); ok && ar.Charset() != "" {
		logger.Infoz("[clog] detected input charset", zap.String("charset", ar.Charset()))
	}
	var sig run.SignalError
	switch {
	case errors.As(err, &sig):
		logger.Warnz("[clog] stopped by signal", zap.String("signal", sig.Signal.String()))
		interrupted, err = true, nil
	case errors.Is(err, context.Canceled):
		interrupted, err = true, nil
	}

	if o.cfg.Metrics.Textfile != "" {
		if werr := r.Stats().WriteTextfile(o.cfg.Metrics.Textfile); werr != nil {
			logger.Errorz("[clog] write metrics", zap.Error(werr))
		}
	}
	return summary, interrupted, err
}

// openUnmatched resolves the unmatched-line destination. close must be called once processing ends.
func openUnmatched(target string, stdout, stderr io.Writer) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	switch target {
	case "", "stderr":
		return stderr, noop, nil
	case "stdout":
		return stdout, noop, nil
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open unmatched output %s", target)
	}
	return f, f.Close, nil
}
