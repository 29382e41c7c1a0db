// Package logger provides the structured, leveled logger every isoforge
// command uses, built on zap.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the package-level logger every caller uses. Until Init runs it is
// a zap development logger writing to stderr, so packages may log during
// early startup without nil checks.
var Log *zap.SugaredLogger

func init() {
	l, _ := zap.NewDevelopment()
	Log = l.Sugar()
}

// Config controls how Init builds the logger.
type Config struct {
	Debug   bool
	Format  string // "json" or "console"
	LogFile string // optional additional output path
}

// Init replaces the package-level logger with one built from cfg.
func Init(cfg Config) error {
	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	outputs := []string{"stderr"}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		outputs = append(outputs, cfg.LogFile)
	}
	zcfg.OutputPaths = outputs

	if cfg.Debug {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	built, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	Log = built.Sugar()
	return nil
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	_ = Log.Sync()
}
