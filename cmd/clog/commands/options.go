/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package commands

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/traas-stack/clog/pkg/appconfig"
	"github.com/traas-stack/clog/pkg/filterstore"
	"github.com/traas-stack/clog/pkg/loganalysis"
	"github.com/traas-stack/clog/pkg/logger"
	"go.uber.org/zap"
)

type (
	// options collects flag values. Only flags the user set override the loaded config.
	options struct {
		configDir string

		load  string
		save  string
		store string
		name  string

		charset         string
		grok            string
		grokField       string
		maxLineBytes    int
		unmatched       string
		metricsTextfile string

		logFile string
		verbose bool
		debug   bool

		tolerance      int
		toleranceRatio float64
		minHits        int
		maxFilters     int

		ignoreColumns int
		ignoreNumeric bool
		delimiters    string
		punctuation   bool

		cfg *appconfig.Config
	}
)

func (o *options) addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configDir, "config-dir", ".", "Directory holding clog.yaml or clog.toml")
	flags.StringVarP(&o.load, "load", "l", "", "Filter set to load (file path or database path)")
	flags.StringVar(&o.store, "store", "", "Filter store type (file, sqlite, bolt)")
	flags.StringVar(&o.name, "name", "", "Filter set name inside a sqlite or bolt database")
	flags.StringVar(&o.charset, "charset", "", "Input charset (UTF-8, GB18030, GBK, auto)")
	flags.StringVar(&o.grok, "grok", "", "Grok expression extracting the analysed part of each line")
	flags.StringVar(&o.grokField, "grok-field", "", "Named grok capture to analyse")
	flags.IntVar(&o.maxLineBytes, "max-line-bytes", 0, "Longest accepted input line")
	flags.StringVar(&o.metricsTextfile, "metrics-textfile", "", "Write run metrics in the prometheus text format to this file")
	flags.StringVar(&o.logFile, "log-file", "", "Rotated log file")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Log to stderr")
	flags.BoolVar(&o.debug, "debug", false, "Enable debug logs")
}

func (o *options) addLearnFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&o.save, "save", "s", "", "Where to save the learned filters, defaults to --load")
	flags.IntVarP(&o.tolerance, "tolerance", "t", 0, "Mismatching words a line may have and still extend a filter")
	flags.Float64Var(&o.toleranceRatio, "tolerance-ratio", 0, "Mismatching words allowed as a fraction of the filter length")
	flags.IntVar(&o.minHits, "min-hits", 0, "Matching words a line needs to extend a filter")
	flags.IntVar(&o.maxFilters, "max-filters", 0, "Stop creating filters after this many, 0 means unlimited")
	flags.IntVarP(&o.ignoreColumns, "ignore-columns", "c", 0, "Ignore the first N words of every line")
	flags.BoolVarP(&o.ignoreNumeric, "ignore-numeric", "i", false, "Ignore words made only of digits, '*' or '#'")
	flags.StringVar(&o.delimiters, "delimiters", "", "Extra single-character word separators")
	flags.BoolVarP(&o.punctuation, "punctuation", "p", false, "Split words on punctuation too")
}

// complete loads the config, applies changed flags and sets up logging.
func (o *options) complete(cmd *cobra.Command) error {
	cfg, err := appconfig.Load(o.configDir)
	if err != nil {
		return err
	}

	changed := cmd.Flags().Changed
	if changed("load") {
		cfg.Store.Path = o.load
	}
	if changed("save") {
		cfg.Store.SavePath = o.save
	}
	if changed("store") {
		cfg.Store.Type = o.store
	}
	if changed("name") {
		cfg.Store.Name = o.name
	}
	if changed("charset") {
		cfg.Input.Charset = o.charset
	}
	if changed("grok") {
		cfg.Input.Grok = o.grok
	}
	if changed("grok-field") {
		cfg.Input.GrokField = o.grokField
	}
	if changed("max-line-bytes") {
		cfg.Input.MaxLineBytes = o.maxLineBytes
	}
	if changed("unmatched") {
		cfg.Output.Unmatched = o.unmatched
	}
	if changed("metrics-textfile") {
		cfg.Metrics.Textfile = o.metricsTextfile
	}
	if changed("log-file") {
		cfg.Log.File = o.logFile
	}
	if changed("verbose") {
		cfg.Log.Verbose = o.verbose
	}
	if changed("debug") {
		cfg.Log.Debug = o.debug
	}
	if changed("tolerance") {
		cfg.Tolerance.MaxMisses = o.tolerance
	}
	if changed("tolerance-ratio") {
		cfg.Tolerance.MaxMissRatio = o.toleranceRatio
	}
	if changed("min-hits") {
		cfg.Tolerance.MinHits = o.minHits
	}
	if changed("max-filters") {
		cfg.Tolerance.MaxFilters = o.maxFilters
	}
	if changed("ignore-columns") {
		cfg.Tokenizer.IgnoreColumns = o.ignoreColumns
	}
	if changed("ignore-numeric") {
		cfg.Tokenizer.IgnoreNumeric = o.ignoreNumeric
	}
	if changed("delimiters") {
		cfg.Tokenizer.Delimiters = o.delimiters
	}
	if changed("punctuation") && o.punctuation {
		cfg.Tokenizer.Delimiters += loganalysis.Punctuation
	}

	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	logCfg := logger.Config{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Debug:      cfg.Log.Debug,
	}
	if cfg.Log.Verbose || cfg.Log.Debug {
		logCfg.Console = cmd.ErrOrStderr()
	}
	if err := logger.Setup(logCfg); err != nil {
		return err
	}
	logger.Debugz("[clog] config", zap.Any("config", cfg))

	o.cfg = cfg
	return nil
}

func (o *options) tokenizer() loganalysis.Tokenizer {
	return loganalysis.Tokenizer{
		IgnoreFirstColumns: o.cfg.Tokenizer.IgnoreColumns,
		IgnoreNumericWords: o.cfg.Tokenizer.IgnoreNumeric,
		Delimiters:         o.cfg.Tokenizer.Delimiters,
	}
}

func (o *options) toleranceConfig() (loganalysis.Tolerance, error) {
	tol := loganalysis.Tolerance{
		MaxMisses:    o.cfg.Tolerance.MaxMisses,
		MaxMissRatio: o.cfg.Tolerance.MaxMissRatio,
		MinHits:      o.cfg.Tolerance.MinHits,
	}
	return tol, tol.Validate()
}

func (o *options) storeConfig(path string) filterstore.Config {
	return filterstore.Config{
		Type: o.cfg.Store.Type,
		Path: path,
		Name: o.cfg.Store.Name,
	}
}
