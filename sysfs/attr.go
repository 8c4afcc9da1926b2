// Package sysfs reads and writes Linux sysfs attribute files for GPIO lines,
// PWM channels, hwmon and IIO sensors. Every path is relative to a root so
// tests can point it at a temporary directory.
package sysfs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultRoot is the sysfs mount point.
const DefaultRoot = "/sys"

var (
	ErrNotExported = errors.New("sysfs line not exported")
	ErrBadValue    = errors.New("unexpected sysfs value")
)

// ReadString returns the trimmed contents of an attribute file.
func ReadString(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// ReadInt parses an integer attribute, such as tempN_input in millidegrees.
func ReadInt(path string) (int64, error) {
	s, err := ReadString(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q", ErrBadValue, filepath.Base(path), s)
	}
	return v, nil
}

// Write stores value into an existing attribute file.
func Write(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(value); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
