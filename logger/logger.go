package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log is the process-wide logger. It is usable before Init and writes JSON to
// stdout until then.
var Log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures Log for the given environment: a console writer for
// "development", JSON everywhere else.
func Init(env string) {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
		Log = zerolog.New(out).With().Timestamp().Caller().Logger()
		return
	}

	Log = zerolog.New(out).With().Timestamp().Str("service", "portal-chat").Logger()
}

// Nop silences Log; tests use it to keep output readable.
func Nop() {
	Log = zerolog.Nop()
}

func Info() *zerolog.Event {
	return Log.Info()
}

func Warn() *zerolog.Event {
	return Log.Warn()
}

func Error() *zerolog.Event {
	return Log.Error()
}

func Debug() *zerolog.Event {
	return Log.Debug()
}
