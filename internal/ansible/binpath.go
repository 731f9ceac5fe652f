// SPDX-License-Identifier: MPL-2.0

package ansible

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrBinNotFound is the sentinel wrapped by BinNotFoundError.
var ErrBinNotFound = errors.New("executable not found")

// sbinDirs are searched after $PATH; they are often missing from a
// non-login shell's PATH.
var sbinDirs = []string{"/sbin", "/usr/sbin", "/usr/local/sbin"}

// BinNotFoundError reports the name and every directory that was searched.
type BinNotFoundError struct {
	Name  string
	Paths []string
}

func (e *BinNotFoundError) Error() string {
	return fmt.Sprintf("Failed to find required executable %q in paths: %s", e.Name, strings.Join(e.Paths, ":"))
}

func (e *BinNotFoundError) Unwrap() error { return ErrBinNotFound }

// GetBinPath locates an executable on $PATH plus the sbin directories.
// Names containing a path separator are checked as given.
func GetBinPath(name string) (string, error) {
	return findBinPath(name, os.Getenv("PATH"), sbinDirs)
}

func findBinPath(name, pathEnv string, extraDirs []string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) {
		if isExecutable(name) {
			return name, nil
		}
		return "", &BinNotFoundError{Name: name, Paths: []string{filepath.Dir(name)}}
	}

	var dirs []string
	seen := map[string]bool{}
	for _, dir := range append(filepath.SplitList(pathEnv), extraDirs...) {
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	for _, dir := range dirs {
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", &BinNotFoundError{Name: name, Paths: dirs}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}
