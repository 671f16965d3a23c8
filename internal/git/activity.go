// Package git surfaces what the developer is working on right now, so
// retrieval can favor files with uncommitted changes.
package git

import (
	"os/exec"
	"strings"
)

// Activity is a snapshot of the repository's working state.
type Activity struct {
	Branch    string
	Changed   []string // staged or modified, deduplicated
	Untracked []string
}

// IsEmpty reports whether there is no git state at all (not a repo, or
// git unavailable).
func (a Activity) IsEmpty() bool {
	return a.Branch == "" && len(a.Changed) == 0 && len(a.Untracked) == 0
}

// HotFiles returns every path with any kind of pending change, changed
// files first.
func (a Activity) HotFiles() []string {
	files := make([]string, 0, len(a.Changed)+len(a.Untracked))
	files = append(files, a.Changed...)
	files = append(files, a.Untracked...)
	return files
}

// Capture inspects the repository at dir. All errors are swallowed: if
// git is not installed or dir is not a repo, an empty Activity is
// returned and callers proceed without the boost.
func Capture(dir string) Activity {
	var a Activity

	a.Branch = output(dir, "rev-parse", "--abbrev-ref", "HEAD")

	porcelain := output(dir, "status", "--porcelain")
	if porcelain == "" {
		return a
	}

	seen := make(map[string]bool)
	for _, line := range strings.Split(porcelain, "\n") {
		if len(line) < 3 {
			continue
		}
		x, y := line[0], line[1]
		path := strings.TrimSpace(line[2:])
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true

		if x == '?' && y == '?' {
			a.Untracked = append(a.Untracked, path)
			continue
		}
		a.Changed = append(a.Changed, path)
	}
	return a
}

// output runs a git command and returns trimmed stdout, "" on any error.
func output(dir string, args ...string) string {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
