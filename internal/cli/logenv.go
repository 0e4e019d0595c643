package cli

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"llamalink/internal/httpapi"
	"llamalink/internal/probe"
	"llamalink/internal/resolver"
)

// Process hooks, swapped in tests.
var (
	stdout     io.Writer = os.Stdout
	stderr     io.Writer = os.Stderr
	processEnv probe.Env = probe.OS()
)

// parseLevel maps a level name onto zerolog, defaulting to info.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// newLogger builds the console logger and installs it in the resolver and
// HTTP packages.
func newLogger(level string) zerolog.Logger {
	l := zerolog.New(zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}).
		Level(parseLevel(level)).
		With().Timestamp().Logger()
	resolver.SetLogger(l)
	httpapi.SetLogger(l)
	return l
}

// Env helpers
func envStr(key, def string) string {
	if v, ok := probe.Lookup(processEnv, key); ok {
		return v
	}
	return def
}
