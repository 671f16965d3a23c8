package scanner

import (
	"os"
	"path/filepath"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreMatcher wraps a gitignore pattern matcher. With no .gitignore
// present it accepts everything.
type IgnoreMatcher struct {
	gi *gitignore.GitIgnore
}

func NewIgnoreMatcher(root string) *IgnoreMatcher {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return &IgnoreMatcher{}
	}
	gi, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return &IgnoreMatcher{}
	}
	return &IgnoreMatcher{gi: gi}
}

// NewPatternMatcher builds a matcher from explicit gitignore-style
// patterns, such as a project config's exclude list.
func NewPatternMatcher(patterns []string) *IgnoreMatcher {
	if len(patterns) == 0 {
		return &IgnoreMatcher{}
	}
	return &IgnoreMatcher{gi: gitignore.CompileIgnoreLines(patterns...)}
}

// Match reports whether a root-relative path should be ignored.
func (m *IgnoreMatcher) Match(relPath string) bool {
	if m.gi == nil {
		return false
	}
	return m.gi.MatchesPath(relPath)
}

// hardIgnored directories are skipped regardless of .gitignore.
var hardIgnored = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	".git":         true,
	"dist":         true,
	"build":        true,
	".weaver":      true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"coverage":     true,
	".nyc_output":  true,
	"target":       true,
	"tmp":          true,
}

// HardIgnore reports whether the directory name is always excluded.
func HardIgnore(name string) bool {
	return hardIgnored[name]
}

var skipExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".ico": true, ".webp": true,
	".pdf": true, ".zip": true, ".tar": true, ".gz": true,
	".exe": true, ".bin": true, ".dll": true, ".so": true, ".dylib": true,
	".lock": true,
	".sum":  true,
	".map":  true,
}

// SkipFile reports whether a file should never be indexed.
func SkipFile(name string) bool {
	if skipExtensions[filepath.Ext(name)] {
		return true
	}
	switch name {
	case "package-lock.json", "yarn.lock", "pnpm-lock.yaml", "go.sum",
		"Gemfile.lock", "Cargo.lock", "composer.lock", "poetry.lock":
		return true
	}
	return false
}
