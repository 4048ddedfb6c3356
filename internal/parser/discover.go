package parser

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	ignore "github.com/sabhiram/go-gitignore"
)

var headerExtensions = []string{".h", ".hh", ".hpp", ".hxx", ".h++"}

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"build":        {},
	"cmake-build":  {},
	"node_modules": {},
	"third_party":  {},
	"vendor":       {},
}

// Discover expands inputs into header files. Files are kept as given;
// directories are walked for headers, sorted per directory, optionally
// skipping paths matched by the directory's .gitignore. A header named by
// more than one input is returned once, at its first position.
func Discover(inputs []string, respectGitignore bool) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		p = filepath.ToSlash(filepath.Clean(p))
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, errors.Wrapf(err, "input %q", in)
		}
		if !info.IsDir() {
			add(in)
			continue
		}
		found, err := walkHeaders(in, respectGitignore)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return out, nil
}

func walkHeaders(root string, respectGitignore bool) ([]string, error) {
	var gi *ignore.GitIgnore
	if respectGitignore {
		gi = loadGitignore(root)
	}

	var found []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if SkipsDir(name) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if !IsHeader(name) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if gi != nil && gi.MatchesPath(filepath.ToSlash(rel)) {
			return nil
		}
		found = append(found, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %q", root)
	}
	sort.Strings(found)
	return found, nil
}

// IsHeader reports whether name has a C++ header extension.
func IsHeader(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, h := range headerExtensions {
		if ext == h {
			return true
		}
	}
	return false
}

// SkipsDir reports whether directory walks skip a directory named name.
func SkipsDir(name string) bool {
	_, skip := skipDirs[name]
	return skip || strings.HasPrefix(name, ".")
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
