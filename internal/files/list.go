/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package files walks caller-supplied input paths into a flat list of
// (absolute path, archive-relative name) pairs, applying dotfile/symlink
// filters and include/exclude glob patterns. The archive core itself is
// not responsible for any of this; it only ever sees the resolved list.
package files

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// ErrUnsafeName is returned by SanitizeArchiveName for a name that would
// escape the extraction directory.
var ErrUnsafeName = errors.New("files: unsafe archive name")

// Entry is one file resolved from the caller's input list, ready to be
// handed to the archive encoder.
type Entry struct {
	AbsPath     string
	ArchiveName string
	Size        int64
}

// GatherOptions controls how input paths are expanded into entries.
type GatherOptions struct {
	// IgnoreDotfiles skips files and directories whose base name starts
	// with '.'.
	IgnoreDotfiles bool
	// IgnoreSymlinks skips symlinks instead of following them.
	IgnoreSymlinks bool
	// Include, if non-empty, keeps only paths (relative to the walked
	// root) matching at least one doublestar glob.
	Include []string
	// Exclude drops any path (relative to the walked root) matching one
	// of these doublestar globs, evaluated after Include.
	Exclude []string
	// SortBySize orders the resolved entries by parent directory then by
	// decreasing file size, instead of the walk's natural (lexical path)
	// order. Entry order does not change how any entry is encoded: each
	// entry carries its own code table, and the archive format places no
	// constraint on entry order.
	SortBySize bool
}

// Gather resolves each of inputs into one or more Entry values: a bare
// file becomes a single entry named by its base name, a directory is
// walked recursively and every regular file under it becomes an entry
// named relative to that directory (mirroring the original encoder's
// "best base path" stripping).
func Gather(inputs []string, opts GatherOptions) ([]Entry, error) {
	var entries []Entry

	for _, input := range inputs {
		fi, err := os.Stat(input)
		if err != nil {
			return nil, errors.Wrapf(err, "files: stat %q", input)
		}

		if fi.IsDir() {
			dirEntries, err := gatherDir(input, opts)
			if err != nil {
				return nil, err
			}
			entries = append(entries, dirEntries...)
			continue
		}

		if isDotfile(filepath.Base(input)) && opts.IgnoreDotfiles {
			continue
		}

		entries = append(entries, Entry{
			AbsPath:     input,
			ArchiveName: filepath.Base(input),
			Size:        fi.Size(),
		})
	}

	if opts.SortBySize {
		sortBySize(entries)
	}

	return entries, nil
}

// sortBySize orders entries by parent directory path, then by decreasing
// file size within a directory. Ported from FileCompare's Less in the
// teacher's internal/File.go, adapted from a sort.Interface over
// FileData to a single sort.SliceStable comparator over files.Entry.
func sortBySize(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := filepath.Dir(entries[i].ArchiveName), filepath.Dir(entries[j].ArchiveName)
		if di != dj {
			return di < dj
		}

		return entries[i].Size > entries[j].Size
	})
}

func gatherDir(root string, opts GatherOptions) ([]Entry, error) {
	var entries []Entry

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		relSlash := filepath.ToSlash(rel)

		if opts.IgnoreDotfiles && isDotfile(info.Name()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&fs.ModeSymlink != 0 && opts.IgnoreSymlinks {
			return nil
		}

		if !info.Mode().IsRegular() && info.Mode()&fs.ModeSymlink == 0 {
			return nil
		}

		if !matchesFilters(relSlash, opts) {
			return nil
		}

		entries = append(entries, Entry{
			AbsPath:     path,
			ArchiveName: relSlash,
			Size:        info.Size(),
		})

		return nil
	})

	if err != nil {
		return nil, errors.Wrapf(err, "files: walk %q", root)
	}

	return entries, nil
}

func matchesFilters(relSlash string, opts GatherOptions) bool {
	if len(opts.Include) > 0 {
		matched := false
		for _, pattern := range opts.Include {
			if ok, _ := doublestar.Match(pattern, relSlash); ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, pattern := range opts.Exclude {
		if ok, _ := doublestar.Match(pattern, relSlash); ok {
			return false
		}
	}

	return true
}

func isDotfile(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

// SanitizeArchiveName rejects an archive-relative name that is absolute or
// escapes the directory it will be extracted into via a ".." segment.
// archiver.Compress applies it on the encode path (defense in depth
// against a caller passing an unsafe name straight through); the archive
// decoder applies the same rule through its own destinationPath, since the
// archive file is untrusted input.
func SanitizeArchiveName(name string) (string, error) {
	if name == "" {
		return "", errors.Wrap(ErrUnsafeName, "empty name")
	}

	clean := filepath.ToSlash(name)

	if strings.HasPrefix(clean, "/") {
		return "", errors.Wrapf(ErrUnsafeName, "absolute path %q", name)
	}

	for _, segment := range strings.Split(clean, "/") {
		if segment == ".." {
			return "", errors.Wrapf(ErrUnsafeName, "parent-directory segment in %q", name)
		}
	}

	return clean, nil
}
