package logging

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevelEnvVar selects the level when none is passed explicitly.
// Unset or empty means silent.
const LogLevelEnvVar = "NETMGR_LOG_LEVEL"

// maxDump bounds LogRawBytes output
const maxDump = 256

var current atomic.Pointer[zap.Logger]

// Initialize installs the global logger. level is debug, info, warn or
// error (anything else means info); empty falls back to NETMGR_LOG_LEVEL and
// then to a silent logger. encoding is "console" (default) or "json".
func Initialize(level string, encoding ...string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		current.Store(zap.NewNop())
		return nil
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil || lvl > zapcore.ErrorLevel {
		lvl = zapcore.InfoLevel
	}

	json := len(encoding) > 0 && encoding[0] == "json"
	l, err := buildConfig(lvl, json).Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	current.Store(l)
	return nil
}

func buildConfig(lvl zapcore.Level, json bool) zap.Config {
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	if json {
		// journald and log shippers want one object per line
		cfg.Encoding = "json"
		cfg.EncoderConfig = zap.NewProductionEncoderConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return cfg
}

// InitializeFromEnv is Initialize with the level taken from NETMGR_LOG_LEVEL
func InitializeFromEnv() error {
	return Initialize("")
}

// SetLogger replaces the global logger. Tests use this with zaptest/observer.
func SetLogger(l *zap.Logger) {
	current.Store(l)
}

// GetLogger returns the global logger, silent until Initialize is called
func GetLogger() *zap.Logger {
	if l := current.Load(); l != nil {
		return l
	}
	nop := zap.NewNop()
	if current.CompareAndSwap(nil, nop) {
		return nop
	}
	return current.Load()
}

// Named returns a child logger tagged with a component name
func Named(component string) *zap.Logger {
	return GetLogger().Named(component)
}

func Info(msg string, fields ...zap.Field)  { GetLogger().Info(msg, fields...) }
func Debug(msg string, fields ...zap.Field) { GetLogger().Debug(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { GetLogger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { GetLogger().Error(msg, fields...) }

// LogConnection records a portal or stream connection event
func LogConnection(remoteAddr string, event string) {
	Info("Connection event",
		zap.String("remote_addr", remoteAddr),
		zap.String("event", event),
	)
}

// LogHTTPRequest records a request line and its headers. Bodies are never
// logged; they carry passphrases.
func LogHTTPRequest(remoteAddr string, method string, path string, headers map[string]string) {
	Info("HTTP request received",
		zap.String("remote_addr", remoteAddr),
		zap.String("method", method),
		zap.String("path", path),
		zap.Any("headers", headers),
	)
}

// LogHTTPResponse records the status and headers that were sent
func LogHTTPResponse(remoteAddr string, statusCode int, headers map[string]string) {
	Info("HTTP response sent",
		zap.String("remote_addr", remoteAddr),
		zap.Int("status_code", statusCode),
		zap.Any("headers", headers),
	)
}

// LogTransition records a controller state change
func LogTransition(from, to string, fields ...zap.Field) {
	Info("State transition", append([]zap.Field{
		zap.String("from", from),
		zap.String("to", to),
	}, fields...)...)
}

// LogRawBytes dumps up to 256 bytes as hex and printable ASCII at debug level
func LogRawBytes(label string, data []byte) {
	if !GetLogger().Core().Enabled(zapcore.DebugLevel) {
		return
	}
	Debug(label,
		zap.Int("length", len(data)),
		zap.String("hex", hexDump(data)),
		zap.String("ascii", asciiDump(data)),
	)
}

func hexDump(data []byte) string {
	if len(data) > maxDump {
		return hex.EncodeToString(data[:maxDump]) + "..."
	}
	return hex.EncodeToString(data)
}

func asciiDump(data []byte) string {
	if len(data) > maxDump {
		data = data[:maxDump]
	}
	return strings.Map(func(r rune) rune {
		if r >= 32 && r <= 126 {
			return r
		}
		return '.'
	}, string(data))
}

// Sync flushes buffered entries
func Sync() {
	_ = GetLogger().Sync()
}
