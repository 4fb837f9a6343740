// Public domain.

// Package logging constructs the zerolog logger of a run.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger options.
type Config struct {
	Level   string `mapstructure:"level"`  // trace .. error, or disabled
	Format  string `mapstructure:"format"` // auto, console or json
	Output  string `mapstructure:"output"` // stderr, stdout, discard or a file path
	NoColor bool   `mapstructure:"no_color"`
}

// DefaultConfig returns info level, auto format, on stderr.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Format:  "auto",
		Output:  "stderr",
		NoColor: os.Getenv("NO_COLOR") != "",
	}
}

// Formats lists the accepted values of Config.Format.
var Formats = []string{"auto", "console", "json"}

// ParseLevel parses a level name.  The empty string is info.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(s) {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	case "none", "off":
		return zerolog.Disabled, nil
	}
	return zerolog.ParseLevel(strings.ToLower(s))
}

// New returns a logger for cfg.  The returned closer releases a log file
// and is a no-op otherwise.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	var out io.Writer
	var closer io.Closer = nopCloser{}
	switch strings.ToLower(cfg.Output) {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	case "discard", "none":
		out = io.Discard
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("log output: %w", err)
		}
		out, closer = f, f
	}
	format := strings.ToLower(cfg.Format)
	if format == "" || format == "auto" {
		format = "json"
		if isTerminal(out) {
			format = "console"
		}
	}
	if format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor,
		}
	}
	l := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return l, closer, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
