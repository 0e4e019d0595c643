// Package planfmt renders a LinkPlan for the host that consumes it.
package planfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"llamalink/pkg/types"
)

// Format names an output encoding.
type Format string

const (
	JSON    Format = "json"
	YAML    Format = "yaml"
	TOML    Format = "toml"
	LDFlags Format = "ldflags"
	CFlags  Format = "cflags"
)

// Formats lists the supported encodings.
func Formats() []Format { return []Format{JSON, YAML, TOML, LDFlags, CFlags} }

// FormatNames joins the format names with sep, for flag help and errors.
func FormatNames(sep string) string {
	names := make([]string, 0, len(Formats()))
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, sep)
}

// ParseFormat maps a flag value onto a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "yml":
		return YAML, nil
	case "":
		return JSON, nil
	}
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s (want %s)", s, FormatNames("|"))
}

// Encode writes plan to w in the given format.
func Encode(w io.Writer, plan types.LinkPlan, f Format) error {
	switch f {
	case JSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(plan); err != nil {
			return err
		}
		return enc.Close()
	case TOML:
		return toml.NewEncoder(w).Encode(plan)
	case LDFlags:
		_, err := io.WriteString(w, CgoLDFlags(plan)+"\n")
		return err
	case CFlags:
		_, err := io.WriteString(w, CgoCFlags(plan)+"\n")
		return err
	}
	return fmt.Errorf("unsupported format: %s", f)
}

// CgoLDFlags renders the plan as a cgo LDFLAGS value: one -L per library
// directory in first-seen order, one -l per library, then an rpath. Linux
// shared objects are loaded from where they were linked; Mac dylibs are
// staged next to the binary.
func CgoLDFlags(plan types.LinkPlan) string {
	var dirs, libs, rpaths []string
	seen, seenRpath := map[string]bool{}, map[string]bool{}
	for _, l := range plan.Links {
		dir := filepath.Dir(l.Path)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, "-L"+dir)
		}
		if plan.Platform == types.PlatformLinux && l.Kind == types.LinkShared && !seenRpath[dir] {
			seenRpath[dir] = true
			rpaths = append(rpaths, "-Wl,-rpath,"+dir)
		}
		libs = append(libs, "-l"+libName(filepath.Base(l.Path)))
	}
	parts := append(dirs, libs...)
	parts = append(parts, rpaths...)
	if plan.Platform == types.PlatformMac {
		parts = append(parts, "-Wl,-rpath,@loader_path")
	}
	return strings.Join(parts, " ")
}

// CgoCFlags renders the plan's header directories as a cgo CFLAGS value.
func CgoCFlags(plan types.LinkPlan) string {
	parts := make([]string, 0, len(plan.IncludeDirs))
	for _, d := range plan.IncludeDirs {
		parts = append(parts, "-I"+d)
	}
	return strings.Join(parts, " ")
}

// libName strips the platform prefix and suffix: libllama.so -> llama, ggml.lib -> ggml.
func libName(base string) string {
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if filepath.Ext(base) != ".lib" {
		name = strings.TrimPrefix(name, "lib")
	}
	return name
}
