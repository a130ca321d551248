package target

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ScanTarget is the plugin directory a run operates on.
type ScanTarget struct {
	Root string `json:"root"`
	Name string `json:"name"`
}

// NotFoundError reports a plugin path that does not exist or is not a directory.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("plugin directory not found: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("plugin directory not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Resolve turns user input into an absolute, existing directory and derives the plugin name.
func Resolve(input string) (ScanTarget, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ScanTarget{}, &NotFoundError{Path: input, Err: errors.New("empty path")}
	}

	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return ScanTarget{}, &NotFoundError{Path: trimmed, Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return ScanTarget{}, &NotFoundError{Path: abs, Err: err}
	}
	if !info.IsDir() {
		return ScanTarget{}, &NotFoundError{Path: abs, Err: errors.New("not a directory")}
	}

	return ScanTarget{Root: abs, Name: filepath.Base(abs)}, nil
}
