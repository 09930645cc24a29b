// Package fileutil provides case-insensitive file lookup over an fs.FS, so
// scripts can be loaded the same way from a directory or an embedded tree.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

// Dir returns the file system rooted at dir.
func Dir(dir string) fs.FS {
	return os.DirFS(dir)
}

// FindFile searches dir for a file named filename, ignoring case, and
// returns its slash-separated path within fsys.
//
// Example:
//
//	p, err := FindFile(fsys, "scripts", "Staircase.BGC")
//	// finds "scripts/staircase.bgc", "scripts/STAIRCASE.BGC", ...
func FindFile(fsys fs.FS, dir, filename string) (string, error) {
	// まず直接アクセスを試みる
	direct := path.Join(dir, filename)
	if info, err := fs.Stat(fsys, direct); err == nil && !info.IsDir() {
		return direct, nil
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), filename) {
			return path.Join(dir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("file not found: %s (searched in %s): %w", filename, dir, fs.ErrNotExist)
}

// ReadFile reads name from fsys, resolving the final path element without
// regard to case.
func ReadFile(fsys fs.FS, name string) ([]byte, error) {
	name = strings.TrimPrefix(path.Clean(strings.ReplaceAll(name, "\\", "/")), "/")
	actual, err := FindFile(fsys, path.Dir(name), path.Base(name))
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(fsys, actual)
}

// FindByExt walks root and returns every file whose extension equals ext,
// ignoring case, in lexical order.
func FindByExt(fsys fs.FS, root, ext string) ([]string, error) {
	var found []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		// 拡張子は大文字小文字を区別しない
		if strings.EqualFold(path.Ext(p), ext) {
			found = append(found, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(found)
	return found, nil
}
