package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestIsEmpty_ZeroValue(t *testing.T) {
	var a Activity
	if !a.IsEmpty() {
		t.Error("zero-value Activity should be empty")
	}
}

func TestIsEmpty_BranchOnly(t *testing.T) {
	a := Activity{Branch: "main"}
	if a.IsEmpty() {
		t.Error("Activity with branch should not be empty")
	}
}

func TestHotFiles_Order(t *testing.T) {
	a := Activity{
		Changed:   []string{"a.go", "b.go"},
		Untracked: []string{"c.go"},
	}
	files := a.HotFiles()
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d: %v", len(files), files)
	}
	if files[0] != "a.go" || files[2] != "c.go" {
		t.Errorf("changed files should precede untracked: %v", files)
	}
}

func TestCapture_NonRepo(t *testing.T) {
	dir := t.TempDir()
	a := Capture(dir)
	if !a.IsEmpty() {
		t.Errorf("non-repo directory should yield empty Activity, got %+v", a)
	}
}

func TestCapture_Repo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=t@t",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=t@t",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	run("init", "-q")
	if err := os.WriteFile(filepath.Join(dir, "tracked.txt"), []byte("v1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	run("add", "tracked.txt")
	run("commit", "-q", "-m", "initial")

	// One modification, one untracked file.
	if err := os.WriteFile(filepath.Join(dir, "tracked.txt"), []byte("v2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "new.txt"), []byte("new\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := Capture(dir)
	if a.Branch == "" {
		t.Error("expected a branch name")
	}
	if len(a.Changed) != 1 || a.Changed[0] != "tracked.txt" {
		t.Errorf("changed: got %v, want [tracked.txt]", a.Changed)
	}
	if len(a.Untracked) != 1 || a.Untracked[0] != "new.txt" {
		t.Errorf("untracked: got %v, want [new.txt]", a.Untracked)
	}
}
