// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger configures the process-wide zap logger. Level and format
// come from the LOGGING_LEVEL and LOGGING_FORMAT environment variables;
// packages obtain named loggers through For(component).
package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel names a zap level in configuration.
type LogLevel string

// LogFormat selects the output encoding.
type LogFormat string

const (
	DebugLevel  LogLevel = "DEBUG"
	InfoLevel   LogLevel = "INFO"
	WarnLevel   LogLevel = "WARN"
	ErrorLevel  LogLevel = "ERROR"
	DPanicLevel LogLevel = "DPANIC"
	PanicLevel  LogLevel = "PANIC"
	FatalLevel  LogLevel = "FATAL"

	// ProductionLevel is an alias for InfoLevel, used for easier configuration.
	ProductionLevel LogLevel = "PRODUCTION"

	// FormatConsole is a single-line human-readable format.
	FormatConsole LogFormat = "CONSOLE"
	// FormatJSON is structured JSON output.
	FormatJSON LogFormat = "JSON"
	// FormatPretty is the most readable multi-column console format.
	FormatPretty LogFormat = "PRETTY"
)

var (
	initOnce    sync.Once
	initialized bool
)

var levelNames = map[LogLevel]zapcore.Level{
	DebugLevel:      zapcore.DebugLevel,
	InfoLevel:       zapcore.InfoLevel,
	WarnLevel:       zapcore.WarnLevel,
	ErrorLevel:      zapcore.ErrorLevel,
	DPanicLevel:     zapcore.DPanicLevel,
	PanicLevel:      zapcore.PanicLevel,
	FatalLevel:      zapcore.FatalLevel,
	ProductionLevel: zapcore.InfoLevel,
}

func parseLevel(level LogLevel) zapcore.Level {
	if l, ok := levelNames[LogLevel(strings.ToUpper(string(level)))]; ok {
		return l
	}

	return zapcore.InfoLevel
}

func formatFromEnv(defaultFormat LogFormat) LogFormat {
	format := LogFormat(envOr("LOGGING_FORMAT", string(defaultFormat)))
	switch format {
	case FormatConsole, FormatJSON, FormatPretty:
		return format
	}

	return defaultFormat
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func consoleTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05 MST"))
}

// New creates a zap logger writing to stdout with the given level and format.
func New(logLevel string, logFormat LogFormat) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if logFormat == FormatConsole || logFormat == FormatPretty {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = consoleTimeEncoder
		encoderConfig.ConsoleSeparator = " | "
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	var encoder zapcore.Encoder

	switch logFormat {
	case FormatPretty:
		encoder = NewPrettyConsoleEncoder(encoderConfig)
	case FormatConsole:
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(
		encoder,
		zapcore.AddSync(os.Stdout),
		zap.NewAtomicLevelAt(parseLevel(LogLevel(logLevel))),
	)

	return zap.New(core, zap.AddCaller())
}

// Initialize builds the logger from the environment and installs it via
// zap.ReplaceGlobals. Safe to call more than once; only the first call wins.
func Initialize() {
	initOnce.Do(func() {
		logLevel := envOr("LOGGING_LEVEL", string(ProductionLevel))
		logFormat := formatFromEnv(FormatPretty)
		logger := New(logLevel, logFormat)

		logger.Info("Logger initialized",
			zap.String("level", logLevel),
			zap.String("format", string(logFormat)))

		zap.ReplaceGlobals(logger)

		initialized = true
	})
}

// GetLogger returns the global logger, initializing it if needed.
func GetLogger() *zap.Logger {
	if !initialized {
		Initialize()
	}

	return zap.L()
}

// GetSugaredLogger returns the global sugared logger, initializing it if needed.
func GetSugaredLogger() *zap.SugaredLogger {
	if !initialized {
		Initialize()
	}

	return zap.S()
}

// Sync flushes any buffered log entries.
func Sync() error {
	return zap.L().Sync()
}

// For creates a named logger for a specific component.
func For(component string) *zap.SugaredLogger {
	if !initialized {
		Initialize()
	}

	return zap.S().Named(component)
}
