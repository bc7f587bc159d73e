/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package appconfig is the application level configuration. It must not depend on other business packages.
package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// set by -ldflags
var (
	version   = "dev"
	buildTime = "unknown"
	gitcommit = "unknown"
)

const (
	StoreFile   = "file"
	StoreSqlite = "sqlite"
	StoreBolt   = "bolt"

	UnmatchedStderr = "stderr"
	UnmatchedStdout = "stdout"

	defaultName          = "default"
	defaultPath          = "clog.filters"
	defaultMaxLineBytes  = 1024 * 1024
	defaultProgressEvery = 10000
	defaultGrokField     = "message"
)

type (
	Config struct {
		Store     StoreConfig     `json:"store" yaml:"store" toml:"store"`
		Tokenizer TokenizerConfig `json:"tokenizer" yaml:"tokenizer" toml:"tokenizer"`
		Tolerance ToleranceConfig `json:"tolerance" yaml:"tolerance" toml:"tolerance"`
		Input     InputConfig     `json:"input" yaml:"input" toml:"input"`
		Output    OutputConfig    `json:"output" yaml:"output" toml:"output"`
		Log       LogConfig       `json:"log" yaml:"log" toml:"log"`
		Metrics   MetricsConfig   `json:"metrics" yaml:"metrics" toml:"metrics"`
	}
	StoreConfig struct {
		// file, sqlite or bolt
		Type string `json:"type" yaml:"type" toml:"type"`
		// Path is the filter file or the database file.
		Path string `json:"path" yaml:"path" toml:"path"`
		// SavePath defaults to Path.
		SavePath string `json:"savePath,omitempty" yaml:"savePath" toml:"savePath"`
		// Name is the key of the filter set inside a database.
		Name string `json:"name" yaml:"name" toml:"name"`
	}
	TokenizerConfig struct {
		IgnoreColumns int    `json:"ignoreColumns" yaml:"ignoreColumns" toml:"ignoreColumns"`
		IgnoreNumeric bool   `json:"ignoreNumeric" yaml:"ignoreNumeric" toml:"ignoreNumeric"`
		Delimiters    string `json:"delimiters" yaml:"delimiters" toml:"delimiters"`
	}
	ToleranceConfig struct {
		MaxMisses    int     `json:"maxMisses" yaml:"maxMisses" toml:"maxMisses"`
		MaxMissRatio float64 `json:"maxMissRatio" yaml:"maxMissRatio" toml:"maxMissRatio"`
		MinHits      int     `json:"minHits" yaml:"minHits" toml:"minHits"`
		// MaxFilters caps the filter count, 0 means unlimited.
		MaxFilters int `json:"maxFilters" yaml:"maxFilters" toml:"maxFilters"`
	}
	InputConfig struct {
		// UTF-8, GB18030 or auto
		Charset       string `json:"charset" yaml:"charset" toml:"charset"`
		MaxLineBytes  int    `json:"maxLineBytes" yaml:"maxLineBytes" toml:"maxLineBytes"`
		ProgressEvery int    `json:"progressEvery" yaml:"progressEvery" toml:"progressEvery"`
		// Grok extracts the analysed part of each line, empty means the whole line.
		Grok      string `json:"grok,omitempty" yaml:"grok" toml:"grok"`
		GrokField string `json:"grokField" yaml:"grokField" toml:"grokField"`
	}
	OutputConfig struct {
		// stderr, stdout or a file path
		Unmatched string `json:"unmatched" yaml:"unmatched" toml:"unmatched"`
	}
	LogConfig struct {
		File       string `json:"file,omitempty" yaml:"file" toml:"file"`
		MaxSizeMB  int    `json:"maxSizeMB" yaml:"maxSizeMB" toml:"maxSizeMB"`
		MaxBackups int    `json:"maxBackups" yaml:"maxBackups" toml:"maxBackups"`
		Verbose    bool   `json:"verbose" yaml:"verbose" toml:"verbose"`
		Debug      bool   `json:"debug" yaml:"debug" toml:"debug"`
	}
	MetricsConfig struct {
		// Textfile receives run metrics in the prometheus text format.
		Textfile string `json:"textfile,omitempty" yaml:"textfile" toml:"textfile"`
	}
)

func Default() Config {
	return Config{
		Store: StoreConfig{
			Type: StoreFile,
			Path: defaultPath,
			Name: defaultName,
		},
		Tolerance: ToleranceConfig{
			MaxMisses: 1,
			MinHits:   1,
		},
		Input: InputConfig{
			MaxLineBytes:  defaultMaxLineBytes,
			ProgressEvery: defaultProgressEvery,
			GrokField:     defaultGrokField,
		},
		Output: OutputConfig{
			Unmatched: UnmatchedStderr,
		},
	}
}

// Load starts from Default, then applies clog.yaml and clog.toml found in dir or dir/conf,
// then CLOG_* environment variables.
func Load(dir string) (*Config, error) {
	cfg := Default()

	if b, path, err := readFirst(dir, "clog.yaml"); err != nil {
		return nil, err
	} else if b != nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	}
	if b, path, err := readFirst(dir, "clog.toml"); err != nil {
		return nil, err
	} else if b != nil {
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return nil, errors.Wrapf(err, "parse %s", path)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readFirst(dir, name string) ([]byte, string, error) {
	for _, path := range []string{filepath.Join(dir, name), filepath.Join(dir, "conf", name)} {
		b, err := os.ReadFile(path)
		if err == nil {
			return b, path, nil
		}
		if !os.IsNotExist(err) {
			return nil, path, errors.Wrapf(err, "read %s", path)
		}
	}
	return nil, "", nil
}

func applyEnv(cfg *Config) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"CLOG_STORE_TYPE", &cfg.Store.Type},
		{"CLOG_STORE_PATH", &cfg.Store.Path},
		{"CLOG_STORE_SAVE_PATH", &cfg.Store.SavePath},
		{"CLOG_STORE_NAME", &cfg.Store.Name},
		{"CLOG_DELIMITERS", &cfg.Tokenizer.Delimiters},
		{"CLOG_CHARSET", &cfg.Input.Charset},
		{"CLOG_GROK", &cfg.Input.Grok},
		{"CLOG_GROK_FIELD", &cfg.Input.GrokField},
		{"CLOG_UNMATCHED", &cfg.Output.Unmatched},
		{"CLOG_LOG_FILE", &cfg.Log.File},
		{"CLOG_METRICS_TEXTFILE", &cfg.Metrics.Textfile},
	}
	for _, s := range strs {
		if v := os.Getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"CLOG_IGNORE_COLUMNS", &cfg.Tokenizer.IgnoreColumns},
		{"CLOG_TOLERANCE", &cfg.Tolerance.MaxMisses},
		{"CLOG_MIN_HITS", &cfg.Tolerance.MinHits},
		{"CLOG_MAX_FILTERS", &cfg.Tolerance.MaxFilters},
		{"CLOG_MAX_LINE_BYTES", &cfg.Input.MaxLineBytes},
		{"CLOG_PROGRESS_EVERY", &cfg.Input.ProgressEvery},
	}
	for _, i := range ints {
		if v := os.Getenv(i.key); v != "" {
			n, err := cast.ToIntE(v)
			if err != nil {
				return errors.Wrapf(err, "env %s", i.key)
			}
			*i.dst = n
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"CLOG_IGNORE_NUMERIC", &cfg.Tokenizer.IgnoreNumeric},
		{"CLOG_VERBOSE", &cfg.Log.Verbose},
		{"CLOG_DEBUG", &cfg.Log.Debug},
	}
	for _, b := range bools {
		if v := os.Getenv(b.key); v != "" {
			x, err := cast.ToBoolE(v)
			if err != nil {
				return errors.Wrapf(err, "env %s", b.key)
			}
			*b.dst = x
		}
	}

	if v := os.Getenv("CLOG_TOLERANCE_RATIO"); v != "" {
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return errors.Wrap(err, "env CLOG_TOLERANCE_RATIO")
		}
		cfg.Tolerance.MaxMissRatio = f
	}
	return nil
}

// Validate checks values that do not depend on the engine.
func (c *Config) Validate() error {
	switch c.Store.Type {
	case StoreFile, StoreSqlite, StoreBolt:
	default:
		return fmt.Errorf("unsupported store type %q", c.Store.Type)
	}
	if c.Store.Path == "" {
		return errors.New("store path is empty")
	}
	if c.Store.Name == "" {
		return errors.New("store name is empty")
	}
	if c.Tokenizer.IgnoreColumns < 0 {
		return fmt.Errorf("ignore columns must be >= 0, got %d", c.Tokenizer.IgnoreColumns)
	}
	if c.Tolerance.MaxFilters < 0 {
		return fmt.Errorf("max filters must be >= 0, got %d", c.Tolerance.MaxFilters)
	}
	if c.Input.MaxLineBytes <= 0 {
		return fmt.Errorf("max line bytes must be > 0, got %d", c.Input.MaxLineBytes)
	}
	if c.Output.Unmatched == "" {
		return errors.New("unmatched output is empty")
	}
	return nil
}

// EffectiveSavePath is where a learning run persists its filters.
func (c *StoreConfig) EffectiveSavePath() string {
	if c.SavePath != "" {
		return c.SavePath
	}
	return c.Path
}

func Version() string {
	return version
}

func VersionInfo() map[string]string {
	return map[string]string{
		"goversion": runtime.Version(),
		"version":   version,
		"buildTime": buildTime,
		"commit":    gitcommit,
	}
}
