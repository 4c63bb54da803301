package logsource

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandGlobs returns deduplicated absolute paths of regular files matching
// any of the given glob patterns; this is the CLI's file-argument expansion,
// discovering a run's inputs. Grounded on the teacher's tail ingester's own
// file discovery, which solves the identical problem of turning a set of
// user-supplied glob patterns into a concrete, deduplicated file list.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	for _, pattern := range patterns {
		if !filepath.IsAbs(pattern) {
			wd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			pattern = filepath.Join(wd, pattern)
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, err
		}

		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				continue
			}
			info, err := os.Stat(abs)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if !seen[abs] {
				seen[abs] = true
				result = append(result, abs)
			}
		}
	}

	return result, nil
}

// WatchDirsForPatterns extracts the static directory prefixes from glob
// patterns for use with fsnotify directory watching in follow mode: the
// longest prefix before the first glob metacharacter in each pattern.
func WatchDirsForPatterns(patterns []string) []string {
	seen := make(map[string]bool)
	var dirs []string

	for _, pattern := range patterns {
		if !filepath.IsAbs(pattern) {
			if wd, err := os.Getwd(); err == nil {
				pattern = filepath.Join(wd, pattern)
			}
		}

		dir := staticPrefix(pattern)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	return dirs
}

// staticPrefix returns the longest directory path before the first glob
// metacharacter in pattern.
func staticPrefix(pattern string) string {
	for i, c := range pattern {
		if c == '*' || c == '?' || c == '[' || c == '{' {
			return filepath.Dir(pattern[:i])
		}
	}
	return filepath.Dir(pattern)
}

// MatchesAnyPattern reports whether path matches any of the given glob
// patterns, used by follow mode to decide whether an fsnotify create event
// in a watched directory names a file the run should start tailing.
func MatchesAnyPattern(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if !filepath.IsAbs(pattern) {
			if wd, err := os.Getwd(); err == nil {
				pattern = filepath.Join(wd, pattern)
			}
		}
		if ok, _ := doublestar.PathMatch(pattern, path); ok {
			return true
		}
		if strings.Contains(pattern, "**") {
			if ok, _ := doublestar.Match(pattern, path); ok {
				return true
			}
		}
	}
	return false
}
