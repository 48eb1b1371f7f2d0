package observability

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogConfig controls diagnostic output. Operator-facing output does not go
// through the logger.
type LogConfig struct {
	Level   zerolog.Level
	NoColor bool
	Out     io.Writer
}

// NewLogConfig derives a LogConfig from raw setting values. verbose forces
// debug level regardless of the configured level.
func NewLogConfig(level, noColor string, verbose bool) LogConfig {
	cfg := LogConfig{Level: zerolog.WarnLevel, Out: os.Stderr}
	if lvl, ok := ParseLevel(level); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(noColor); ok {
		cfg.NoColor = v
	}
	if verbose && cfg.Level > zerolog.DebugLevel {
		cfg.Level = zerolog.DebugLevel
	}
	return cfg
}

// InitLogger builds the process logger and installs it as the global one.
func InitLogger(app string, cfg LogConfig) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}
	logger := zerolog.New(output).Level(cfg.Level).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// ParseLevel maps a level name onto a zerolog level.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.WarnLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.WarnLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
