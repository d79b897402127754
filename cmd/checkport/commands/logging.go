package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Mohammed-el-Amine/check-port/cmd/checkport/internal/format"
	"github.com/Mohammed-el-Amine/check-port/pkg/config"
)

// logLevel picks the global level. --verbose wins, then the -v count
// (1 => info, 2+ => debug). Without either the CLI stays quiet at error
// unless the configuration asks for debug or trace.
func logLevel(cfgLevel string, verbosityCount int, verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	switch {
	case verbosityCount == 1:
		return zerolog.InfoLevel
	case verbosityCount >= 2:
		return zerolog.DebugLevel
	}
	if lvl, err := zerolog.ParseLevel(strings.ToLower(cfgLevel)); err == nil && lvl <= zerolog.DebugLevel {
		return lvl
	}
	return zerolog.ErrorLevel
}

// setupLogging installs the global logger. Text format uses a console
// writer on stderr; log.file additionally receives JSON lines.
func setupLogging(cfg config.LogConfig, verbosityCount int, verbose bool, stderr io.Writer) (io.Closer, error) {
	zerolog.SetGlobalLevel(logLevel(cfg.Level, verbosityCount, verbose))

	var w io.Writer = stderr
	if !strings.EqualFold(cfg.Format, "json") {
		w = zerolog.ConsoleWriter{
			Out:        stderr,
			TimeFormat: time.TimeOnly,
			NoColor:    !format.ColorEnabled(stderr),
		}
	}

	var closer io.Closer
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = zerolog.MultiLevelWriter(w, f)
		closer = f
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return closer, nil
}
