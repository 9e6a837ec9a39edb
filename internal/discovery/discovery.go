// Package discovery lists summary files under a root directory.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/farcloser/primordium/fault"
)

// DefaultPattern matches the summaries written next to each crash dump.
const DefaultPattern = "*_SkyrimDiagSummary.json"

var (
	errNotDirectory = errors.New("not a directory")
	errBadPattern   = errors.New("invalid pattern")
)

// Discover returns the sorted paths of regular files under root whose base name matches pattern.
// When recursive is false only root itself is searched. Unreadable subdirectories are skipped.
// A symlinked root is followed, and the returned paths stay under root as given.
func Discover(root, pattern string, recursive bool) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("%w %q: %w", errBadPattern, pattern, err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%q: %w", root, errNotDirectory)
	}

	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	slog.Debug("discovery.Discover", "root", root, "resolved", walkRoot, "pattern", pattern, "recursive", recursive)

	var files []string

	err = filepath.WalkDir(walkRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if path == walkRoot {
				return err
			}

			slog.Debug("discovery.Discover", "skipping", path, "error", err)

			return nil
		}

		if entry.IsDir() {
			if path != walkRoot && !recursive {
				return fs.SkipDir
			}

			return nil
		}

		if matched, _ := filepath.Match(pattern, entry.Name()); !matched {
			return nil
		}

		if !isRegular(path, entry) {
			return nil
		}

		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return err
		}

		files = append(files, filepath.Join(root, rel))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	slices.Sort(files)

	return files, nil
}

// isRegular follows symlinks, so a link to a summary counts as a summary.
func isRegular(path string, entry fs.DirEntry) bool {
	if entry.Type().IsRegular() {
		return true
	}

	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}

	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}
