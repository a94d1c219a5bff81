package audiosweep

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

var sensitiveKeys = map[string]bool{
	"api_key": true, "api_secret": true, "secret": true, "password": true,
	"access_key": true, "secret_key": true, "token": true, "credential": true,
}

// redactSensitiveData scrubs sensitive keys from logs.
func redactSensitiveData(_ []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.Attr{Key: a.Key, Value: slog.StringValue("[REDACTED]")}
	}
	return a
}

// NewLogger builds the process logger. format is "text" or "json".
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, newError(ConfigurationError, "init logger", "", fmt.Errorf("invalid log level %q: %w", level, err))
	}

	opts := &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: redactSensitiveData,
	}

	var handler slog.Handler
	switch format {
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, newError(ConfigurationError, "init logger", "", fmt.Errorf("invalid log format %q", format))
	}

	return slog.New(handler), nil
}
