package resolver

import (
	"errors"
	"strings"

	"llamalink/internal/common/fsutil"
	"llamalink/pkg/types"
)

// ConfigurationError reports a missing library file or directory for the
// selected platform. A build step should stop on it and show the message.
type ConfigurationError struct {
	Platform types.TargetPlatform
	Dir      string
	// Source names where Dir came from, e.g. LLAMA_PATH or "bundled".
	Source  string
	Missing []string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Platform))
	b.WriteString(": ")
	if e.Dir != "" {
		b.WriteString(e.Dir)
		if e.Source != "" {
			b.WriteString(" (")
			b.WriteString(e.Source)
			b.WriteString(")")
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Reason)
	return b.String()
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func checkError(p types.TargetPlatform, source string, c fsutil.DirCheck) *ConfigurationError {
	return &ConfigurationError{
		Platform: p,
		Dir:      c.Dir,
		Source:   source,
		Missing:  append([]string(nil), c.Missing...),
		Reason:   c.Reason(),
	}
}

func unsupportedPlatform(p types.TargetPlatform) *ConfigurationError {
	return &ConfigurationError{Platform: p, Reason: "unsupported platform"}
}
