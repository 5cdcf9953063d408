package observability

import (
	"io"
	"log/slog"
	"os"
)

// NewLogger builds the process logger: JSON lines, debug in dev, and trace
// correlation ids on every record that carries a span.
func NewLogger(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case "password", "token", "refreshToken", "authorization":
				return slog.String(a.Key, "***")
			}
			return a
		},
	})

	return slog.New(NewTraceHandler(handler))
}
