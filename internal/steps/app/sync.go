// SPDX-FileCopyrightText: 2025 ArvoBill
//
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExclusions are the destination paths an update must never touch:
// the persisted configuration file, user data, and generated caches.
var DefaultExclusions = []string{
	".env",
	"storage",
	"public/uploads",
	"bootstrap/cache",
}

// ExclusionFilter matches slash-separated relative paths against a set of
// protected prefixes. A protected directory covers everything beneath it.
type ExclusionFilter struct {
	prefixes []string
}

func NewExclusionFilter(paths []string) *ExclusionFilter {
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		cleaned = append(cleaned, strings.Trim(filepath.ToSlash(p), "/"))
	}
	return &ExclusionFilter{prefixes: cleaned}
}

func (f *ExclusionFilter) Match(rel string) bool {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	for _, p := range f.prefixes {
		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}

// ContainsProtected reports whether rel is a proper ancestor of a protected
// path, i.e. deleting the directory rel would take protected content with it.
func (f *ExclusionFilter) ContainsProtected(rel string) bool {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	for _, p := range f.prefixes {
		if strings.HasPrefix(p, rel+"/") {
			return true
		}
	}
	return false
}

// Mirror synchronizes dst to match src, deleting destination-only entries,
// except that paths matched by filter are never copied over, modified or
// deleted. The filter lives inside the primitive so no caller can violate
// the protected set.
func Mirror(src, dst string, filter *ExclusionFilter) error {
	if filter == nil {
		filter = NewExclusionFilter(nil)
	}
	if err := copyTree(src, dst, filter); err != nil {
		return err
	}
	return pruneTree(src, dst, filter)
}

// CopyTree copies everything under src into dst, overwriting existing
// files and keeping anything in dst that src does not have.
func CopyTree(src, dst string) error {
	return copyTree(src, dst, NewExclusionFilter(nil))
}

func copyTree(src, dst string, filter *ExclusionFilter) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return os.MkdirAll(dst, 0o755)
		}
		if filter.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
				return err
			}
			return os.Symlink(link, target)
		case info.Mode().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		default:
			return fmt.Errorf("sync: unsupported file type at %s", path)
		}
	})
}

func pruneTree(src, dst string, filter *ExclusionFilter) error {
	var doomed []string
	err := filepath.WalkDir(dst, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dst, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if filter.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if _, err := os.Lstat(filepath.Join(src, rel)); os.IsNotExist(err) {
			// A directory sheltering a protected path must survive even
			// when the source dropped it; descend and prune only its
			// unprotected children.
			if d.IsDir() && filter.ContainsProtected(rel) {
				return nil
			}
			doomed = append(doomed, path)
			if d.IsDir() {
				return filepath.SkipDir
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, path := range doomed {
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
