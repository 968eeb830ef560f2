// Package logger builds the zap logger used throughout the launcher.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogType string

const (
	StdErr  LogType = "stderr"
	StdOut  LogType = "stdout"
	LogFile LogType = "logfile"
)

// Config is bound from the "log" configuration section.
type Config struct {
	Type            LogType `mapstructure:"type"`
	File            string  `mapstructure:"file"`
	Level           int8    `mapstructure:"level"`
	MaxSize         int     `mapstructure:"max-size"`
	NumRotatedFiles int     `mapstructure:"num-rotated-files"`
	Developer       bool    `mapstructure:"developer"`
}

// Logger wraps zap so callers can defer Sync on one value.
type Logger struct {
	*zap.Logger
}

// New builds a logger from cfg. Levels: 0=Fatal, 1=Error, 2=Warn, 3=Info, 4+5=Debug.
func New(cfg Config) (*Logger, error) {
	if cfg.Developer {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("unable to build developer logger: %w", err)
		}
		return &Logger{l}, nil
	}

	level, err := zapLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var ws zapcore.WriteSyncer
	switch cfg.Type {
	case StdErr, "":
		ws = zapcore.Lock(os.Stderr)
	case StdOut:
		ws = zapcore.Lock(os.Stdout)
	case LogFile:
		if cfg.File == "" {
			return nil, fmt.Errorf("log.type is %q but no log.file was given", LogFile)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("unable to create log directory: %w", err)
		}
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.NumRotatedFiles,
		})
	default:
		return nil, fmt.Errorf("unsupported log type %q (expected %s, %s or %s)", cfg.Type, StdErr, StdOut, LogFile)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if cfg.Type == LogFile {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, ws, level)
	return &Logger{zap.New(core, zap.AddCaller())}, nil
}

func zapLevel(l int8) (zapcore.Level, error) {
	switch l {
	case 0:
		return zapcore.FatalLevel, nil
	case 1:
		return zapcore.ErrorLevel, nil
	case 2:
		return zapcore.WarnLevel, nil
	case 3:
		return zapcore.InfoLevel, nil
	case 4, 5:
		return zapcore.DebugLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level %d (expected 0-5)", l)
	}
}
