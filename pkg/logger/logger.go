// pkg/logger/logger.go
//
// Structured logging for the installer. JSON logs go to a rotated file under
// the xui home; a console encoder mirrors entries to stderr so the terminal
// stays readable. The global otelzap logger is replaced so call sites can use
// otelzap.Ctx(ctx) without threading a logger through.

package logger

import (
	"os"
	"path/filepath"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log *zap.Logger

// Initialize builds the production logger and installs it globally.
func Initialize() error {
	logPath := ResolveLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		return err
	}

	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	})

	level := parseLogLevel(os.Getenv("XUI_LOG_LEVEL"))

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(jsonEncoderConfig()),
		fileSink,
		level,
	)
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderConfig()),
		zapcore.Lock(os.Stderr),
		consoleLevel(level),
	)

	log = zap.New(zapcore.NewTee(fileCore, consoleCore))
	installGlobals(log)
	return nil
}

// InitializeWithFallback initializes the full logger, falling back to a
// console-only logger when the log file cannot be created (read-only home,
// first run as an unprivileged user).
func InitializeWithFallback() {
	if err := Initialize(); err != nil {
		log = nil
		InitFallback()
		log.Warn("File logging unavailable, using console only",
			zap.Error(err), zap.String("log_path", ResolveLogPath()))
	}
}

// InitFallback installs a console-only logger if no logger is active yet.
// Safe to call repeatedly.
func InitFallback() {
	if log != nil {
		return
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleEncoderConfig()),
		zapcore.Lock(os.Stderr),
		parseLogLevel(os.Getenv("XUI_LOG_LEVEL")),
	)
	log = zap.New(core)
	installGlobals(log)
}

// L returns the process-wide logger, initializing the fallback if needed.
func L() *zap.Logger {
	if log == nil {
		InitFallback()
	}
	return log
}

// Sync flushes buffered log entries. Errors are ignored: stderr is not
// always syncable.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

func installGlobals(l *zap.Logger) {
	zap.ReplaceGlobals(l)
	otelzap.ReplaceGlobals(otelzap.New(l))
}
