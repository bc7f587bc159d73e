/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package commands

import (
	"github.com/spf13/cobra"
	"github.com/traas-stack/clog/pkg/filterstore"
	"github.com/traas-stack/clog/pkg/loganalysis"
	"github.com/traas-stack/clog/pkg/logger"
	"go.uber.org/zap"
)

func newPassiveCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passive",
		Short: "Report lines no saved filter matches exactly",
		Long: `Passive reads log lines from stdin and writes every line that no saved filter matches
exactly to the unmatched output, verbatim. Known lines produce no output. The saved filters
are never modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.passive(cmd)
		},
	}
	cmd.Flags().StringVar(&o.unmatched, "unmatched", "", "Unmatched line output: stderr, stdout or a file path")
	return cmd
}

func (o *options) passive(cmd *cobra.Command) error {
	ctx := cmd.Context()

	store, err := filterstore.Open(o.storeConfig(o.cfg.Store.Path))
	if err != nil {
		return err
	}
	defer store.Close()

	fs, err := loadFilters(ctx, store, loganalysis.ModePassive, o.tokenizer())
	if err != nil {
		return err
	}

	out, closeOut, err := openUnmatched(o.cfg.Output.Unmatched, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeOut()

	a := loganalysis.NewAnalyzer(fs, loganalysis.ModePassive, loganalysis.DefaultTolerance(), 0)
	summary, interrupted, err := o.runEngine(ctx, a, cmd.InOrStdin(), out)
	if err != nil {
		return err
	}
	logger.Infoz("[passive] done",
		zap.Int64("lines", summary.Lines),
		zap.Int64("unknown", summary.Unknown),
		zap.Bool("interrupted", interrupted))
	return closeOut()
}
