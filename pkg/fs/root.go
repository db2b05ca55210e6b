package fs

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Root maps slash separated request paths onto files below a directory. The
// directory is made absolute and symlink free once; every resolved path,
// links included, must stay below it.
type Root struct {
	path string
}

func NewRoot(root string) (*Root, error) {
	if root == "" {
		root = "."
	}

	abs, err := filepath.Abs(root)

	if err != nil {
		return nil, err
	}

	real, err := filepath.EvalSymlinks(abs)

	if err != nil {
		return nil, err
	}

	info, err := os.Stat(real)

	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	return &Root{
		path: real,
	}, nil
}

func (r *Root) Path() string {
	return r.path
}

// Resolve returns the real path for name. Names that climb above the root,
// either lexically or through a symlink, fail with ErrForbiddenPath; names
// that do not exist fail with ErrNotFound.
func (r *Root) Resolve(name string) (string, error) {
	if strings.ContainsRune(name, 0) {
		return "", ErrForbiddenPath
	}

	name = strings.TrimLeft(name, "/")

	if filepath.Separator != '/' && strings.ContainsRune(name, filepath.Separator) {
		return "", ErrForbiddenPath
	}

	clean := path.Clean(name)

	if clean != "." && !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", ErrForbiddenPath
	}

	full := filepath.Join(r.path, filepath.FromSlash(clean))

	real, err := filepath.EvalSymlinks(full)

	if err != nil {
		return "", Classify(err)
	}

	if !r.contains(real) {
		return "", ErrForbiddenPath
	}

	return real, nil
}

func (r *Root) contains(p string) bool {
	rel, err := filepath.Rel(r.path, p)

	if err != nil {
		return false
	}

	if rel == "." {
		return true
	}

	return filepath.IsLocal(rel)
}

// IsForbidden reports whether err stems from a path outside the root.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbiddenPath)
}
