package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// handle cases like ~/Plugins/Llama
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// IsFile reports whether path exists and is not a directory.
func IsFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// DirCheck is the typed result of validating a directory against a fixed
// set of expected file names.
type DirCheck struct {
	Dir     string
	Present bool
	IsDir   bool
	// Missing holds expected names that are absent (or are directories),
	// in the order they were requested.
	Missing []string
}

// Valid reports whether the directory exists and holds every expected file.
func (c DirCheck) Valid() bool {
	return c.Present && c.IsDir && len(c.Missing) == 0
}

// Path joins name onto the checked directory.
func (c DirCheck) Path(name string) string { return filepath.Join(c.Dir, name) }

// Reason renders a short human description of why the check failed.
// It returns "" for a valid directory.
func (c DirCheck) Reason() string {
	switch {
	case !c.Present:
		return "directory does not exist"
	case !c.IsDir:
		return "path is not a directory"
	case len(c.Missing) > 0:
		return "missing " + strings.Join(c.Missing, ", ")
	}
	return ""
}

// CheckDir validates that dir exists and contains every file in files.
// Nothing is created or modified.
func CheckDir(dir string, files ...string) DirCheck {
	c := DirCheck{Dir: dir}
	if dir == "" {
		c.Missing = append(c.Missing, files...)
		return c
	}
	fi, err := os.Stat(dir)
	if err != nil {
		c.Missing = append(c.Missing, files...)
		return c
	}
	c.Present = true
	if !fi.IsDir() {
		c.Missing = append(c.Missing, files...)
		return c
	}
	c.IsDir = true
	for _, f := range files {
		if !IsFile(filepath.Join(dir, f)) {
			c.Missing = append(c.Missing, f)
		}
	}
	return c
}
