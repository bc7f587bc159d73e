/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"github.com/traas-stack/clog/pkg/filterstore"
	"github.com/traas-stack/clog/pkg/loganalysis"
	"github.com/traas-stack/clog/pkg/logger"
	"go.uber.org/zap"
)

func newLearnCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "learn",
		Aliases: []string{"map"},
		Short:   "Learn filters from stdin and save them",
		Long: `Learn reads log lines from stdin. Each line extends the best matching filter of the same
word count when its mismatching words are within tolerance, otherwise it becomes a new filter.
The filters are saved when the input ends or when the run is interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.learn(cmd)
		},
	}
	o.addLearnFlags(cmd)
	return cmd
}

func (o *options) learn(cmd *cobra.Command) error {
	ctx := cmd.Context()
	tol, err := o.toleranceConfig()
	if err != nil {
		return err
	}

	store, err := filterstore.Open(o.storeConfig(o.cfg.Store.Path))
	if err != nil {
		return err
	}
	defer store.Close()

	fs, err := loadFilters(ctx, store, loganalysis.ModeLearning, o.tokenizer())
	if err != nil {
		return err
	}
	before := fs.Len()

	a := loganalysis.NewAnalyzer(fs, loganalysis.ModeLearning, tol, o.cfg.Tolerance.MaxFilters)
	summary, interrupted, err := o.runEngine(ctx, a, cmd.InOrStdin(), io.Discard)
	if err != nil {
		return err
	}

	saveStore := store
	if savePath := o.cfg.Store.EffectiveSavePath(); savePath != o.cfg.Store.Path {
		if saveStore, err = filterstore.Open(o.storeConfig(savePath)); err != nil {
			return err
		}
		defer saveStore.Close()
	}
	// ctx may already be canceled by the interruption, saving must still happen
	if err := saveStore.Save(context.WithoutCancel(ctx), fs); err != nil {
		return err
	}
	logger.Infoz("[learn] filters saved",
		zap.String("path", o.cfg.Store.EffectiveSavePath()),
		zap.Int("filters", fs.Len()),
		zap.Int("new", fs.Len()-before),
		zap.Int64("lines", summary.Lines),
		zap.Bool("interrupted", interrupted))
	return nil
}
