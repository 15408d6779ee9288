// pkg/logger/config.go

package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
)

// ResolveLogPath returns the installer log path under the xui home.
// XUI_HOME overrides the default of ~/.xui.
func ResolveLogPath() string {
	home := os.Getenv("XUI_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "./xui-installer.log"
		}
		home = filepath.Join(userHome, ".xui")
	}
	return filepath.Join(home, "logs", "installer.log")
}

func parseLogLevel(level string) zapcore.Level {
	switch level {
	case "TRACE", "DEBUG", "trace", "debug":
		return zapcore.DebugLevel
	case "WARN", "warn":
		return zapcore.WarnLevel
	case "ERROR", "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// consoleLevel keeps the console at the configured level but never chattier
// than info: debug detail belongs in the file log.
func consoleLevel(level zapcore.Level) zapcore.Level {
	if level < zapcore.InfoLevel {
		return zapcore.InfoLevel
	}
	return level
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	return cfg
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := jsonEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.CallerKey = ""
	cfg.StacktraceKey = ""
	return cfg
}
