// Package dlogger exposes a simple zap logger, with log levels
package dlogger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// LogLevelInfo sets the log level to info
	LogLevelInfo = "info"

	// LogLevelDebug sets the log level to debug
	LogLevelDebug = "debug"

	// LogLevelNone sets logger to no logging
	LogLevelNone = "none"

	// EncodingJSON emits structured json lines (default)
	EncodingJSON = "json"

	// EncodingConsole emits human readable lines, for interactive use
	EncodingConsole = "console"
)

// GetLogger returns a zap logger with the specified level
func GetLogger(logLevel string) (*zap.Logger, error) {
	return GetLoggerWithEncoding(logLevel, EncodingJSON)
}

// GetLoggerWithEncoding returns a zap logger with the specified level and output encoding
func GetLoggerWithEncoding(logLevel, encoding string) (*zap.Logger, error) {
	if logLevel == LogLevelNone || logLevel == "" {
		return zap.NewNop(), nil
	}
	zapConfig := zap.NewProductionConfig()
	if encoding == EncodingConsole {
		zapConfig.Encoding = EncodingConsole
		zapConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	var lvl zapcore.Level
	err := lvl.UnmarshalText([]byte(logLevel))
	if err != nil {
		return nil, err
	}
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	return zapConfig.Build()
}

// MustGetLogger returns a zap logger with the specified level or panics
func MustGetLogger(logLevel string) *zap.Logger {
	l, err := GetLogger(logLevel)
	if err != nil {
		panic(err)
	}
	return l
}
