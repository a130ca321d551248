package bridge

import (
	"time"

	"go.uber.org/zap"
)

// Options selects binaries and limits for the external tools.
type Options struct {
	PHPCSBinary string
	PHPBinary   string
	WPBinary    string
	WPPath      string
	Timeout     time.Duration
	Logger      *zap.SugaredLogger
}

// Toolchain bundles the external collaborators of a run.
type Toolchain struct {
	PHPCS *PHPCS
	PHP   *PHPLinter
	WP    *WPCLI
}

// NewToolchain wires every tool to one command runner.
func NewToolchain(opts Options) *Toolchain {
	runner := NewRunner(opts.Timeout, opts.Logger)
	return &Toolchain{
		PHPCS: &PHPCS{Runner: runner, Binary: orDefault(opts.PHPCSBinary, "phpcs")},
		PHP:   &PHPLinter{Runner: runner, Binary: orDefault(opts.PHPBinary, "php")},
		WP:    &WPCLI{Runner: runner, Binary: orDefault(opts.WPBinary, "wp"), Path: opts.WPPath},
	}
}

// Binaries lists the binaries the toolchain invokes.
func (t *Toolchain) Binaries() []string {
	return []string{t.PHP.Binary, t.PHPCS.Binary, t.WP.Binary}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
