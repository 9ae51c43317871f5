package utils

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// ParseLevel maps a config level name to a slog level. Unknown names mean
// info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the process logger: tinted output on stderr, colors only
// when stderr is a terminal. The returned LevelVar can be changed later.
func NewLogger(level string) (*slog.Logger, *slog.LevelVar) {
	ll := &slog.LevelVar{}
	ll.Set(ParseLevel(level))
	noColor := !isatty.IsTerminal(os.Stderr.Fd())
	return slog.New(newHandler(colorable.NewColorable(os.Stderr), noColor, ll)), ll
}

func newHandler(w io.Writer, noColor bool, level slog.Leveler) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:       level,
		TimeFormat:  "15:04:05.000",
		NoColor:     noColor,
		ReplaceAttr: dropZeroAttrs,
	})
}

// dropZeroAttrs removes attributes carrying a zero value.
func dropZeroAttrs(_ []string, a slog.Attr) slog.Attr {
	skip := false
	switch t := a.Value.Any().(type) {
	case string:
		skip = t == ""
	case int64:
		skip = t == 0 && a.Key != "status"
	case time.Duration:
		skip = t == 0
	case nil:
		skip = true
	}
	if skip {
		return slog.Attr{}
	}
	return a
}
