// Package fileutil resolves asset names against an fs.FS ignoring case, so
// scene files written on case-insensitive systems load everywhere.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// ErrNotFound is returned when no entry matches a name.
var ErrNotFound = errors.New("file not found")

// Dir returns a file system rooted at dir on the host.
func Dir(dir string) fs.FS {
	return os.DirFS(dir)
}

// Clean converts name to an fs.FS path: backslashes become slashes and
// leading separators are dropped.
func Clean(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return path.Clean(strings.TrimLeft(name, "/"))
}

// Resolve returns the path in fsys that matches name, comparing every path
// element case-insensitively. An exact match is preferred.
//
// Example:
//
//	p, err := Resolve(fsys, "Sprites\\HERO.bmp")
//	// p == "sprites/hero.BMP"
func Resolve(fsys fs.FS, name string) (string, error) {
	clean := Clean(name)
	if !fs.ValidPath(clean) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if _, err := fs.Stat(fsys, clean); err == nil {
		return clean, nil
	}

	dir := "."
	for _, elem := range strings.Split(clean, "/") {
		actual, err := findEntry(fsys, dir, elem)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		dir = path.Join(dir, actual)
	}
	return dir, nil
}

// findEntry returns the name of the entry in dir equal to elem ignoring case.
func findEntry(fsys fs.FS, dir, elem string) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if strings.EqualFold(entry.Name(), elem) {
			return entry.Name(), nil
		}
	}
	return "", ErrNotFound
}

// ReadFile reads the file that Resolve finds for name.
func ReadFile(fsys fs.FS, name string) ([]byte, error) {
	actual, err := Resolve(fsys, name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(fsys, actual)
}

// Open opens the file that Resolve finds for name.
func Open(fsys fs.FS, name string) (fs.File, error) {
	actual, err := Resolve(fsys, name)
	if err != nil {
		return nil, err
	}
	return fsys.Open(actual)
}

// Exists reports whether Resolve finds a match for name.
func Exists(fsys fs.FS, name string) bool {
	_, err := Resolve(fsys, name)
	return err == nil
}
