package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"retronotes/internal/config"
	"retronotes/internal/errors"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // for import (read file)
	PathCheckWrite                      // for export (write file)
)

// PathChecker validates import/export file paths.
type PathChecker interface {
	Validate(path string, mode PathCheckMode) error
}

// PathPolicy is the standard PathChecker: backup files must carry a
// .json extension and live directly in the exports directory or one of
// the configured allowed directories, with no traversal and no
// symlinks. AllowUnsafePaths lifts the directory restriction but not
// the symlink checks.
type PathPolicy struct {
	ExportsDir string
	Cfg        *config.Config
}

// Validate checks a path against the policy.
func (p PathPolicy) Validate(path string, mode PathCheckMode) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}

	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != ".json" {
		return errors.NewInvalidRequest("path must have .json extension")
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	unsafe := p.Cfg != nil && p.Cfg.AllowUnsafePaths
	if !unsafe {
		parentDir := filepath.Dir(absPath)
		if !p.allowedDir(parentDir) {
			return errors.NewInvalidRequest(
				fmt.Sprintf("file must be directly in an allowed directory; allowed: %v", p.allowedDirs()))
		}
		// The parent itself must not be a symlink.
		if info, err := os.Lstat(parentDir); err == nil {
			if info.Mode()&os.ModeSymlink != 0 {
				return errors.NewInvalidRequest("parent directory must not be a symlink")
			}
		}
	}

	if mode == PathCheckRead {
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return errors.NewNotFound(path)
		}
	}

	// Symlink files are rejected in both modes, unsafe or not.
	if info, err := os.Lstat(absPath); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			return errors.NewInvalidRequest("path must not be a symlink")
		}
	}

	return nil
}

func (p PathPolicy) allowedDirs() []string {
	dirs := []string{filepath.Clean(p.ExportsDir)}
	if p.Cfg != nil {
		for _, d := range p.Cfg.AllowedPaths {
			if filepath.IsAbs(d) {
				dirs = append(dirs, filepath.Clean(d))
			}
		}
	}
	return dirs
}

func (p PathPolicy) allowedDir(parent string) bool {
	parent = filepath.Clean(parent)
	// Resolve symlinked allowlist entries so comparisons hold.
	for _, d := range p.allowedDirs() {
		if resolved, err := filepath.EvalSymlinks(d); err == nil {
			d = resolved
		}
		if candidate, err := filepath.EvalSymlinks(parent); err == nil && candidate == d {
			return true
		}
		if parent == d {
			return true
		}
	}
	return false
}

func containsTraversal(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
