// Package logging builds the process logger. Pretty output is meant for a
// terminal, JSON for everything else.
package logging

import (
	"io"
	stdlog "log"
	"os"
	"strings"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

const service = "go-jabber"

type Options struct {
	Level    string
	Pretty   bool
	Instance string
	Out      io.Writer
}

// New returns a logger tagged with service and instance. Unknown levels fall
// back to info.
func New(opts Options) zerolog.Logger {
	level := zerolog.InfoLevel
	if l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level))); err == nil && l != zerolog.NoLevel {
		level = l
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	var w io.Writer = out
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp().Str("service", service)
	if opts.Instance != "" {
		ctx = ctx.Str("instance", opts.Instance)
	}
	return ctx.Logger()
}

// Install makes logger the global zerolog logger and routes the standard
// library log package through it.
func Install(logger zerolog.Logger) {
	zlog.Logger = logger
	stdlog.SetFlags(0)
	stdlog.SetOutput(logger)
}

// ForAccount scopes a logger to one account.
func ForAccount(logger zerolog.Logger, account string) zerolog.Logger {
	return logger.With().Str("account", account).Logger()
}
