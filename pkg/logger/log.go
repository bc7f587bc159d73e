/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 5
)

type (
	// Config selects log sinks. With no File and no Console every log is dropped,
	// which keeps stderr free for unmatched lines.
	Config struct {
		// File is a rotated log file.
		File       string
		MaxSizeMB  int
		MaxBackups int
		// Console receives a copy of every log when not nil.
		Console io.Writer
		Debug   bool
	}
	loggerComposite struct {
		main  *zap.Logger
		mainS *zap.SugaredLogger
		stat  *zap.Logger
		// closer closes the rotated file, may be nil
		closer io.Closer
	}
)

var (
	mu           sync.Mutex
	zapLogger    = newNopComposite()
	DebugEnabled = false
)

func newNopComposite() *loggerComposite {
	l := zap.NewNop()
	return &loggerComposite{main: l, mainS: l.Sugar(), stat: l}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		CallerKey:        "caller",
		MessageKey:       "msg",
		StacktraceKey:    "stacktrace",
		ConsoleSeparator: " ",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.LowercaseLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeDuration:   zapcore.SecondsDurationEncoder,
	}
}

// Setup replaces the package loggers. It may be called more than once.
func Setup(cfg Config) error {
	level := zapcore.InfoLevel
	if cfg.Debug {
		level = zapcore.DebugLevel
	}
	enc := zapcore.NewConsoleEncoder(encoderConfig())

	var cores []zapcore.Core
	var closer io.Closer
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return errors.Wrapf(err, "create log dir for %s", cfg.File)
		}
		if cfg.MaxSizeMB <= 0 {
			cfg.MaxSizeMB = defaultMaxSizeMB
		}
		if cfg.MaxBackups <= 0 {
			cfg.MaxBackups = defaultMaxBackups
		}
		w := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		closer = w
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(w), level))
	}
	if cfg.Console != nil {
		cores = append(cores, zapcore.NewCore(enc.Clone(), zapcore.AddSync(cfg.Console), level))
	}

	composite := newNopComposite()
	if len(cores) > 0 {
		l := zap.New(zapcore.NewTee(cores...))
		composite = &loggerComposite{
			main:   l,
			mainS:  l.Sugar(),
			stat:   l.Named("stat"),
			closer: closer,
		}
	}

	mu.Lock()
	old := zapLogger
	zapLogger = composite
	DebugEnabled = cfg.Debug
	mu.Unlock()

	old.main.Sync()
	if old.closer != nil {
		old.closer.Close()
	}
	return nil
}

// Close flushes and releases the log file. Logging afterwards is dropped.
func Close() {
	mu.Lock()
	old := zapLogger
	zapLogger = newNopComposite()
	mu.Unlock()

	old.main.Sync()
	if old.closer != nil {
		old.closer.Close()
	}
}

func current() *loggerComposite {
	mu.Lock()
	defer mu.Unlock()
	return zapLogger
}

func Debugz(msg string, fields ...zap.Field) {
	if DebugEnabled {
		current().main.Debug(msg, fields...)
	}
}
func Infoz(msg string, fields ...zap.Field) {
	current().main.Info(msg, fields...)
}
func Warnz(msg string, fields ...zap.Field) {
	current().main.Warn(msg, fields...)
}
func Errorz(msg string, fields ...zap.Field) {
	current().main.Error(msg, fields...)
}

func Debugf(msg string, args ...interface{}) {
	if DebugEnabled {
		current().mainS.Debugf(msg, args...)
	}
}
func Infof(msg string, args ...interface{}) {
	current().mainS.Infof(msg, args...)
}
func Warnf(msg string, args ...interface{}) {
	current().mainS.Warnf(msg, args...)
}
func Errorf(msg string, args ...interface{}) {
	current().mainS.Errorf(msg, args...)
}

func Stat(msg string, fields ...zap.Field) {
	current().stat.Info(msg, fields...)
}

func IsDebugEnabled() bool {
	return DebugEnabled
}
