// Package logger provides the package-level logger shared across the
// perception core.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	logger "github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the shared logger. Components log-and-continue on recoverable
// errors (malformed messages, link hiccups) through this logger rather
// than propagating them.
var Log = logger.With().Caller().Logger().Output(zerolog.ConsoleWriter{Out: os.Stderr})

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// UseFile redirects Log to also write to a size-rotated file, for
// deployments that persist perception logs alongside the dump
// journal. maxSizeMB follows lumberjack's convention: rotate once the
// active file exceeds this size.
func UseFile(path string, maxSizeMB, maxBackups, maxAgeDays int) {
	fileSink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	multi := io.MultiWriter(zerolog.ConsoleWriter{Out: os.Stderr}, fileSink)
	Log = logger.With().Caller().Logger().Output(multi)
}
