package walker

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// DefaultExclusions lists the directory names pruned when the configuration does not override them.
var DefaultExclusions = []string{
	".git", ".svn", ".hg",
	"node_modules", "vendor", "bower_components",
	"build", "dist",
	"qa-reports",
}

// ExclusionSet holds directory names that are never descended into, at any depth.
type ExclusionSet map[string]struct{}

// NewExclusionSet builds an ExclusionSet from names, ignoring blanks and trailing slashes.
func NewExclusionSet(names ...string) ExclusionSet {
	set := ExclusionSet{}
	for _, name := range names {
		name = strings.Trim(strings.TrimSpace(name), "/\\")
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}

// AddPath excludes one directory given relative to the walk root. Unlike a name, it only
// matches at that location. Path entries are stored with a leading slash.
func (e ExclusionSet) AddPath(rel string) {
	rel = strings.Trim(filepath.ToSlash(filepath.Clean(rel)), "/")
	if rel == "" || rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return
	}
	e["/"+rel] = struct{}{}
}

// Excludes reports whether any segment of the slash-separated relative path is an excluded
// name, or the path lies under an excluded root-relative path.
func (e ExclusionSet) Excludes(rel string) bool {
	if len(e) == 0 || rel == "" || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, segment := range strings.Split(rel, "/") {
		if _, ok := e[segment]; ok {
			return true
		}
	}
	for entry := range e {
		path, anchored := strings.CutPrefix(entry, "/")
		if anchored && (rel == path || strings.HasPrefix(rel, path+"/")) {
			return true
		}
	}
	return false
}

// Names returns the sorted entries of the set.
func (e ExclusionSet) Names() []string {
	out := make([]string, 0, len(e))
	for name := range e {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FileCandidate is a file yielded by the walker.
type FileCandidate struct {
	Path string // absolute
	Rel  string // relative to the walk root, slash separated
	Ext  string // lower-cased, including the dot
}

// Walker enumerates files beneath Root.
type Walker struct {
	Root       string
	Exclude    ExclusionSet
	Extensions []string // empty means every file
	Logger     *zap.SugaredLogger
}

// Walk calls fn for every regular file in lexical order. Returning an error from fn stops the walk.
func (w *Walker) Walk(ctx context.Context, fn func(FileCandidate) error) error {
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	root, err := filepath.Abs(w.Root)
	if err != nil {
		return err
	}
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return err
	}

	state := &walkState{
		visited: map[string]struct{}{resolved: {}},
		exts:    extensionSet(w.Extensions),
		exclude: w.Exclude,
		logger:  logger,
		fn:      fn,
	}
	return state.dir(ctx, root, "")
}

// Collect returns every candidate the walk yields.
func (w *Walker) Collect(ctx context.Context) ([]FileCandidate, error) {
	var out []FileCandidate
	err := w.Walk(ctx, func(c FileCandidate) error {
		out = append(out, c)
		return nil
	})
	return out, err
}

type walkState struct {
	visited map[string]struct{}
	exts    map[string]struct{}
	exclude ExclusionSet
	logger  *zap.SugaredLogger
	fn      func(FileCandidate) error
}

func (s *walkState) dir(ctx context.Context, abs, rel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		s.logger.Warnw("skipping unreadable directory", "path", abs, "error", err)
		return nil
	}

	for _, entry := range entries {
		childAbs := filepath.Join(abs, entry.Name())
		childRel := entry.Name()
		if rel != "" {
			childRel = rel + "/" + entry.Name()
		}

		mode := entry.Type()
		if mode&os.ModeSymlink != 0 {
			info, err := os.Stat(childAbs)
			if err != nil {
				s.logger.Warnw("skipping dangling symlink", "path", childAbs, "error", err)
				continue
			}
			mode = info.Mode().Type()
		}

		switch {
		case mode.IsDir():
			if s.exclude.Excludes(childRel) {
				s.logger.Debugw("pruned excluded directory", "path", childRel)
				continue
			}
			resolved, err := filepath.EvalSymlinks(childAbs)
			if err != nil {
				s.logger.Warnw("skipping unresolvable directory", "path", childAbs, "error", err)
				continue
			}
			if _, seen := s.visited[resolved]; seen {
				s.logger.Warnw("skipping directory already visited (symlink loop)", "path", childRel)
				continue
			}
			s.visited[resolved] = struct{}{}
			if err := s.dir(ctx, childAbs, childRel); err != nil {
				return err
			}
		case mode.IsRegular():
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if len(s.exts) > 0 {
				if _, ok := s.exts[ext]; !ok {
					continue
				}
			}
			if err := s.fn(FileCandidate{Path: childAbs, Rel: childRel, Ext: ext}); err != nil {
				return err
			}
		}
	}
	return nil
}

func extensionSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}
