package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level      string     `yaml:"level"`
	Format     string     `yaml:"format"`
	TimeFormat string     `yaml:"time_format"`
	Timezone   string     `yaml:"timezone"`
	File       FileConfig `yaml:"file"`
}

// FileConfig enables a rotating log file next to stdout.
type FileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
	// Quiet drops stdout output; the interactive menu owns the terminal.
	Quiet bool `yaml:"quiet"`
}

func NewLogger(cfg Config) (*zap.Logger, error) {
	return newLogger(cfg, os.Stdout)
}

func newLogger(cfg Config, stdout io.Writer) (*zap.Logger, error) {
	// Set default values
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "console"
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = "2006-01-02 15:04:05"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     customTimeEncoder(cfg.TimeFormat, cfg.Timezone),
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   customCallerEncoder,
	}

	var cores []zapcore.Core

	if !cfg.File.Quiet || cfg.File.Path == "" {
		consoleConfig := encoderConfig
		var encoder zapcore.Encoder
		if cfg.Format == "json" {
			encoder = zapcore.NewJSONEncoder(consoleConfig)
		} else {
			consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
			encoder = zapcore.NewConsoleEncoder(consoleConfig)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(stdout), level))
	}

	if cfg.File.Path != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    valueOr(cfg.File.MaxSizeMB, 10),
			MaxBackups: valueOr(cfg.File.MaxBackups, 3),
			MaxAge:     valueOr(cfg.File.MaxAgeDays, 28),
			Compress:   cfg.File.Compress,
		}
		// Files always get JSON so they stay greppable.
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func valueOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func customTimeEncoder(format, timezone string) zapcore.TimeEncoder {
	loc := time.Local
	if timezone != "Local" {
		if l, err := time.LoadLocation(timezone); err == nil {
			loc = l
		} else {
			loc = time.UTC
		}
	}

	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(loc).Format(format))
	}
}

func customCallerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	fullPath := caller.FullPath()

	// Show the path relative to the project root when we can find it
	if strings.Contains(fullPath, "/murmur/") {
		parts := strings.Split(fullPath, "/murmur/")
		if len(parts) > 1 {
			enc.AppendString(parts[len(parts)-1])
			return
		}
	}

	enc.AppendString(caller.TrimmedPath())
}
