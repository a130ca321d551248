package walker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
}

func relPaths(candidates []FileCandidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Rel)
	}
	return out
}

func TestExclusionSetExcludes(t *testing.T) {
	set := NewExclusionSet("vendor", " node_modules/ ", "", ".git")

	tests := []struct {
		rel  string
		want bool
	}{
		{rel: "vendor", want: true},
		{rel: "lib/vendor", want: true},
		{rel: "lib/deep/node_modules/pkg", want: true},
		{rel: "lib/.git/objects", want: true},
		{rel: "vendors", want: false},
		{rel: "includes/my-vendor", want: false},
		{rel: "", want: false},
	}

	for _, tt := range tests {
		if got := set.Excludes(tt.rel); got != tt.want {
			t.Errorf("Excludes(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}

	if got := strings.Join(set.Names(), ","); got != ".git,node_modules,vendor" {
		t.Fatalf("unexpected names %q", got)
	}
}

func TestExclusionSetPathsMatchOnlyAtTheirLocation(t *testing.T) {
	set := NewExclusionSet("vendor")
	set.AddPath("includes")
	set.AddPath("docs/reports/")
	set.AddPath("../outside")
	set.AddPath(".")

	tests := []struct {
		rel  string
		want bool
	}{
		{rel: "includes", want: true},
		{rel: "includes/admin", want: true},
		{rel: "lib/includes", want: false},
		{rel: "includes-old", want: false},
		{rel: "docs/reports", want: true},
		{rel: "reports", want: false},
		{rel: "outside", want: false},
		{rel: "lib/vendor", want: true},
	}
	for _, tt := range tests {
		if got := set.Excludes(tt.rel); got != tt.want {
			t.Errorf("Excludes(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}

	if got := strings.Join(set.Names(), ","); got != "/docs/reports,/includes,vendor" {
		t.Fatalf("unexpected names %q", got)
	}
}

func TestWalkPrunesExcludedDirectoriesAtAnyDepth(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"plugin.php":                        "<?php",
		"includes/class-a.php":              "<?php",
		"vendor/legacy.php":                 "<?php exec('ls');",
		"includes/vendor/inner.php":         "<?php",
		"assets/js/node_modules/x/index.js": "",
		".git/config":                       "",
		"readme.txt":                        "",
	})

	w := &Walker{Root: root, Exclude: NewExclusionSet(DefaultExclusions...), Logger: zaptest.NewLogger(t).Sugar()}
	got, err := w.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	want := []string{"includes/class-a.php", "plugin.php", "readme.txt"}
	if strings.Join(relPaths(got), ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, relPaths(got))
	}

	for _, c := range got {
		for name := range w.Exclude {
			for _, segment := range strings.Split(c.Rel, "/") {
				if segment == name {
					t.Fatalf("candidate %s contains excluded segment %s", c.Rel, name)
				}
			}
		}
		if !filepath.IsAbs(c.Path) {
			t.Fatalf("candidate path should be absolute: %s", c.Path)
		}
	}
}

func TestWalkFiltersExtensions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.php":      "",
		"b.PHP":      "",
		"c.js":       "",
		"docs/d.md":  "",
		"docs/e.inc": "",
	})

	w := &Walker{Root: root, Extensions: []string{"php", ".inc"}}
	got, err := w.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	if strings.Join(relPaths(got), ",") != "a.php,b.PHP,docs/e.inc" {
		t.Fatalf("unexpected candidates %v", relPaths(got))
	}
	if got[1].Ext != ".php" {
		t.Fatalf("extension should be lower-cased, got %q", got[1].Ext)
	}
}

func TestWalkIsRestartable(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.php": "", "b/c.php": ""})

	w := &Walker{Root: root}
	first, err := w.Collect(context.Background())
	if err != nil {
		t.Fatalf("first walk: %v", err)
	}
	second, err := w.Collect(context.Background())
	if err != nil {
		t.Fatalf("second walk: %v", err)
	}
	if strings.Join(relPaths(first), ",") != strings.Join(relPaths(second), ",") {
		t.Fatalf("walks differ: %v vs %v", relPaths(first), relPaths(second))
	}
}

func TestWalkSkipsSymlinkLoops(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"inc/a.php": ""})
	if err := os.Symlink(root, filepath.Join(root, "inc", "loop")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	w := &Walker{Root: root, Logger: zaptest.NewLogger(t).Sugar()}
	got, err := w.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if strings.Join(relPaths(got), ",") != "inc/a.php" {
		t.Fatalf("unexpected candidates %v", relPaths(got))
	}
}

func TestWalkSkipsUnreadableDirectories(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("skipping permission test when running as root")
	}
	root := t.TempDir()
	writeTree(t, root, map[string]string{"ok.php": "", "locked/hidden.php": ""})
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	w := &Walker{Root: root, Logger: zaptest.NewLogger(t).Sugar()}
	got, err := w.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if strings.Join(relPaths(got), ",") != "ok.php" {
		t.Fatalf("unexpected candidates %v", relPaths(got))
	}
}

func TestWalkStopsOnCallbackErrorAndCancellation(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.php": "", "b.php": ""})
	w := &Walker{Root: root}

	stop := errors.New("stop")
	calls := 0
	err := w.Walk(context.Background(), func(FileCandidate) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("expected stop after one call, got err=%v calls=%d", err, calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.Collect(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
