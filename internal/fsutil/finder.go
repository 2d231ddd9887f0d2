// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFilesByExtension recursively searches the given root path for all files
// ending with one of the given extensions. It returns their full paths in
// lexical order. A root that is itself a matching file is returned as is.
func FindFilesByExtension(rootPath string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		panic("at least one extension must be given")
	}

	matches := func(name string) bool {
		for _, ext := range extensions {
			if strings.HasSuffix(name, ext) {
				return true
			}
		}
		return false
	}

	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if matches(info.Name()) {
			return []string{rootPath}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && matches(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Newest returns the most recently modified file among paths, or "" when
// paths is empty.
func Newest(paths []string) (string, error) {
	var newest string
	var newestInfo fs.FileInfo
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return "", err
		}
		if newestInfo == nil || info.ModTime().After(newestInfo.ModTime()) ||
			(info.ModTime().Equal(newestInfo.ModTime()) && p > newest) {
			newest, newestInfo = p, info
		}
	}
	return newest, nil
}
