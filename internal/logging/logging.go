package logging

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/xerrors"
)

// New returns a JSON logger using the OpenTelemetry log data model key names,
// or a text logger when debug is set. GO_LOG sets the minimum level.
func New(w io.Writer, debug bool) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if v, ok := os.LookupEnv("GO_LOG"); ok {
		if err := logLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, xerrors.Errorf("failed to parse log level: %w", err)
		}
	}
	handlerOpts := &slog.HandlerOptions{
		Level: logLevel,
		// https://opentelemetry.io/docs/specs/otel/logs/data-model/
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.LevelKey:
				a.Key = "severitytext"
			case slog.MessageKey:
				a.Key = "body"
			}
			return a
		},
	}
	if debug {
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
}
