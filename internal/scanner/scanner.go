// Package scanner loads project source trees from disk for indexing:
// walking the tree, honoring .gitignore, and filtering to recognised
// source files.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/weaverhq/weaver/internal/retrieve"
)

// DefaultMaxFileBytes skips files too large to index usefully.
const DefaultMaxFileBytes = 512 * 1024

// LoadOptions controls a directory load.
type LoadOptions struct {
	Root         string
	MaxFileBytes int64
	// IncludeTests keeps *_test / *.spec files in the result.
	IncludeTests bool
	// Exclude holds extra gitignore-style patterns applied on top of
	// the project's .gitignore.
	Exclude []string
	// AlwaysInclude lists root-relative paths loaded even when a
	// filter would otherwise drop them.
	AlwaysInclude []string
}

// LoadResult is the filtered source tree plus what was learned about it.
type LoadResult struct {
	Files     []retrieve.File
	Languages map[string]int
	Stack     Stack
	Errors    []error
}

// Load walks the project tree and returns indexable source files with
// paths relative to the root. Unreadable entries are recorded, never
// fatal.
func Load(opts LoadOptions) LoadResult {
	maxBytes := opts.MaxFileBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}

	ignore := NewIgnoreMatcher(opts.Root)
	exclude := NewPatternMatcher(opts.Exclude)
	always := make(map[string]bool, len(opts.AlwaysInclude))
	for _, p := range opts.AlwaysInclude {
		always[filepath.ToSlash(p)] = true
	}
	result := LoadResult{
		Languages: make(map[string]int),
		Stack:     DetectStack(opts.Root),
	}

	err := filepath.WalkDir(opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}
		rel, err := filepath.Rel(opts.Root, path)
		if err != nil || rel == "." {
			return nil
		}
		if d.IsDir() {
			if HardIgnore(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !always[filepath.ToSlash(rel)] {
			if SkipFile(d.Name()) || ignore.Match(rel) || exclude.Match(rel) {
				return nil
			}
			if LanguageForFile(rel) == "" {
				return nil
			}
			kind := FileKind(rel)
			if kind != KindCode && !(kind == KindTest && opts.IncludeTests) {
				return nil
			}
			if info, err := d.Info(); err == nil && info.Size() > maxBytes {
				return nil
			}
		}

		content, err := os.ReadFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("scanner: read %s: %w", rel, err))
			return nil
		}

		result.Files = append(result.Files, retrieve.File{
			Path:    filepath.ToSlash(rel),
			Content: string(content),
		})
		if lang := LanguageForFile(rel); lang != "" {
			result.Languages[lang]++
		}
		return nil
	})
	if err != nil {
		result.Errors = append(result.Errors, err)
	}
	return result
}

// FindProjectRoot walks up from startDir looking for a project root marker.
func FindProjectRoot(startDir string) (string, error) {
	markers := []string{".git", "go.mod", "package.json", "Gemfile", "Cargo.toml",
		"pyproject.toml", "requirements.txt", "pom.xml", "build.gradle"}

	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("scanner: resolve %s: %w", startDir, err)
	}
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir, nil
		}
		dir = parent
	}
}
