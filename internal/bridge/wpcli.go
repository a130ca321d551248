package bridge

import (
	"context"
	"fmt"
	"strings"
)

// SiteManager is the slice of WP-CLI the activation probe and the precondition check need.
type SiteManager interface {
	// Site identifies the WordPress install; probes against the same site are serialized.
	Site() string
	IsInstalled(ctx context.Context) error
	IsPluginActive(ctx context.Context, slug string) (bool, Output, error)
	SetPluginActive(ctx context.Context, slug string, active bool) (Output, error)
	ConfigFlag(ctx context.Context, name string) (value string, defined bool, err error)
	SetConfigFlag(ctx context.Context, name, value string) (Output, error)
	DeleteConfigFlag(ctx context.Context, name string) (Output, error)
}

// WPCLI implements SiteManager on top of the wp binary.
type WPCLI struct {
	Runner Runner
	Binary string
	// Path is passed as --path when set; otherwise wp resolves the install from the working directory.
	Path string
}

// Site returns the install path or "." for the working directory.
func (w *WPCLI) Site() string {
	if w.Path == "" {
		return "."
	}
	return w.Path
}

func (w *WPCLI) run(ctx context.Context, args ...string) (Output, error) {
	if w.Path != "" {
		args = append(args, "--path="+w.Path)
	}
	return w.Runner.Run(ctx, w.Binary, args...)
}

// IsInstalled fails unless `wp core is-installed` succeeds.
func (w *WPCLI) IsInstalled(ctx context.Context) error {
	out, err := w.run(ctx, "core", "is-installed")
	if err != nil {
		return err
	}
	if out.ExitCode != 0 {
		detail := strings.TrimSpace(out.Combined())
		if detail == "" {
			detail = fmt.Sprintf("exit status %d", out.ExitCode)
		}
		return fmt.Errorf("no WordPress installation at %s: %s", w.Site(), detail)
	}
	return nil
}

// IsPluginActive reports whether slug is active.
func (w *WPCLI) IsPluginActive(ctx context.Context, slug string) (bool, Output, error) {
	out, err := w.run(ctx, "plugin", "is-active", slug)
	if err != nil {
		return false, out, err
	}
	return out.ExitCode == 0, out, nil
}

// SetPluginActive activates or deactivates slug.
func (w *WPCLI) SetPluginActive(ctx context.Context, slug string, active bool) (Output, error) {
	action := "deactivate"
	if active {
		action = "activate"
	}
	return w.run(ctx, "plugin", action, slug)
}

// ConfigFlag reads a wp-config.php constant. defined is false when the constant is absent.
func (w *WPCLI) ConfigFlag(ctx context.Context, name string) (string, bool, error) {
	out, err := w.run(ctx, "config", "get", name)
	if err != nil {
		return "", false, err
	}
	if out.ExitCode != 0 {
		return "", false, nil
	}
	return strings.TrimSpace(out.Stdout), true, nil
}

// SetConfigFlag writes a raw constant value into wp-config.php.
func (w *WPCLI) SetConfigFlag(ctx context.Context, name, value string) (Output, error) {
	return w.run(ctx, "config", "set", name, value, "--raw")
}

// DeleteConfigFlag removes a constant from wp-config.php.
func (w *WPCLI) DeleteConfigFlag(ctx context.Context, name string) (Output, error) {
	return w.run(ctx, "config", "delete", name)
}
