package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/weaverhq/weaver/internal/retrieve"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_FiltersToSourceFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.ts", "export const app = 1")
	writeFile(t, root, "src/app.test.ts", "test('app', () => {})")
	writeFile(t, root, "README.md", "# readme")
	writeFile(t, root, "logo.png", "binary")
	writeFile(t, root, "node_modules/dep/index.js", "module.exports = {}")

	res := Load(LoadOptions{Root: root})
	if len(res.Files) != 1 {
		t.Fatalf("got %d files, want 1: %v", len(res.Files), paths(res.Files))
	}
	if res.Files[0].Path != "src/app.ts" {
		t.Errorf("loaded %s", res.Files[0].Path)
	}
	if res.Languages["typescript"] != 1 {
		t.Errorf("languages = %v", res.Languages)
	}
}

func TestLoad_IncludeTests(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.ts", "export const app = 1")
	writeFile(t, root, "src/app.test.ts", "test('app', () => {})")

	res := Load(LoadOptions{Root: root, IncludeTests: true})
	if len(res.Files) != 2 {
		t.Fatalf("got %d files, want 2", len(res.Files))
	}
}

func TestLoad_HonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "generated/\n")
	writeFile(t, root, "src/app.ts", "export const app = 1")
	writeFile(t, root, "generated/types.ts", "export type T = string")

	res := Load(LoadOptions{Root: root})
	for _, f := range res.Files {
		if f.Path == "generated/types.ts" {
			t.Error("gitignored file loaded")
		}
	}
}

func TestLoad_ExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/app.ts", "export const app = 1")
	writeFile(t, root, "src/legacy/old.ts", "export const old = 1")
	writeFile(t, root, "migrations/001.sql", "CREATE TABLE t (id int)")

	res := Load(LoadOptions{Root: root, Exclude: []string{"src/legacy/", "migrations/"}})
	if len(res.Files) != 1 || res.Files[0].Path != "src/app.ts" {
		t.Errorf("files = %v", paths(res.Files))
	}
}

func TestLoad_AlwaysInclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "generated/\n")
	writeFile(t, root, "src/app.ts", "export const app = 1")
	writeFile(t, root, "generated/types.ts", "export type T = string")
	writeFile(t, root, "NOTES.md", "# pinned context")

	res := Load(LoadOptions{
		Root:          root,
		AlwaysInclude: []string{"generated/types.ts", "NOTES.md"},
	})
	got := paths(res.Files)
	loaded := map[string]bool{}
	for _, p := range got {
		loaded[p] = true
	}
	if !loaded["generated/types.ts"] {
		t.Errorf("pinned gitignored file not loaded: %v", got)
	}
	if !loaded["NOTES.md"] {
		t.Errorf("pinned non-source file not loaded: %v", got)
	}
}

func TestLoad_SkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, 2048)
	for i := range big {
		big[i] = 'a'
	}
	writeFile(t, root, "src/big.ts", string(big))
	writeFile(t, root, "src/small.ts", "export const x = 1")

	res := Load(LoadOptions{Root: root, MaxFileBytes: 1024})
	if len(res.Files) != 1 || res.Files[0].Path != "src/small.ts" {
		t.Errorf("files = %v", paths(res.Files))
	}
}

func TestFileKind(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"src/app.ts", KindCode},
		{"src/app.test.ts", KindTest},
		{"pkg/db_test.go", KindTest},
		{"__tests__/helpers.js", KindTest},
		{"config.yaml", KindConfig},
		{"Makefile", KindConfig},
		{"docs/guide.md", KindDocs},
	}
	for _, tc := range cases {
		if got := FileKind(tc.path); got != tc.want {
			t.Errorf("FileKind(%s) = %s, want %s", tc.path, got, tc.want)
		}
	}
}

func TestDetectStack_TypeScriptReact(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies":{"react":"^18.0.0"},"devDependencies":{"vitest":"^1.0.0"}}`)
	writeFile(t, root, "tsconfig.json", "{}")

	s := DetectStack(root)
	if s.Language != "typescript" || s.Framework != "react" || s.TestFramework != "vitest" {
		t.Errorf("stack = %+v", s)
	}
	labels := s.Labels()
	if len(labels) != 3 {
		t.Errorf("labels = %v", labels)
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/x")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot: %v", err)
	}
	resolved, _ := filepath.EvalSymlinks(root)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != resolved {
		t.Errorf("root = %s, want %s", got, root)
	}
}

func paths(files []retrieve.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
