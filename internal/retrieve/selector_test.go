package retrieve

import (
	"strings"
	"testing"

	"github.com/weaverhq/weaver/internal/token"
)

func newTestSelector() *Selector {
	return NewSelector(token.NewEstimator())
}

func TestSelectFiles_ZeroBudgetSelectsNothing(t *testing.T) {
	s := newTestSelector()
	sel := s.SelectFiles(sampleFiles(), SelectOptions{Query: "login", Budget: 0})
	if len(sel.Files) != 0 || sel.TotalTokens != 0 {
		t.Errorf("zero budget returned content: %+v", sel)
	}
}

func TestSelectFiles_RespectsBudget(t *testing.T) {
	s := newTestSelector()
	budget := 60
	sel := s.SelectFiles(sampleFiles(), SelectOptions{Query: "login handleLogin api", Budget: budget})
	if sel.TotalTokens > budget {
		t.Errorf("selection used %d tokens, budget %d", sel.TotalTokens, budget)
	}
}

func TestSelectFiles_RelevantFileFirst(t *testing.T) {
	s := newTestSelector()
	sel := s.SelectFiles(sampleFiles(), SelectOptions{Query: "login handleLogin password", Budget: 5000})
	if len(sel.Files) == 0 {
		t.Fatal("nothing selected")
	}
	if sel.Files[0].Path != "src/auth/login.ts" {
		t.Errorf("first file = %q, want src/auth/login.ts", sel.Files[0].Path)
	}
}

func TestSelectFiles_AdjacencyBoost(t *testing.T) {
	s := newTestSelector()
	files := []File{
		{Path: "src/pages/Settings.tsx", Content: "export function Settings() { return null }\n"},
		{Path: "lib/util/deep/misc.ts", Content: "export function misc() { return null }\n"},
	}
	sel := s.SelectFiles(files, SelectOptions{
		Query:      "adjust the page",
		ActiveFile: "src/pages/Profile.tsx",
		Budget:     5000,
	})
	if len(sel.Files) < 2 {
		t.Fatal("expected both files under a large budget")
	}
	if sel.Files[0].Path != "src/pages/Settings.tsx" {
		t.Errorf("sibling of active file should rank first, got %q", sel.Files[0].Path)
	}
}

func TestSelectFiles_ChangedFileBoost(t *testing.T) {
	s := newTestSelector()
	files := []File{
		{Path: "src/a.ts", Content: "export function alpha() { return null }\n"},
		{Path: "src/b.ts", Content: "export function beta() { return null }\n"},
	}
	sel := s.SelectFiles(files, SelectOptions{
		Query:        "adjust something",
		ChangedFiles: []string{"src/b.ts"},
		Budget:       5000,
	})
	if len(sel.Files) < 2 {
		t.Fatal("expected both files under a large budget")
	}
	if sel.Files[0].Path != "src/b.ts" {
		t.Errorf("changed file should rank first, got %q", sel.Files[0].Path)
	}
}

func TestSelectFiles_CompressesHighRelevanceOverflow(t *testing.T) {
	s := newTestSelector()

	var body strings.Builder
	body.WriteString("import { api } from './api'\n")
	for i := 0; i < 200; i++ {
		body.WriteString("export function loginHelper() { return api.post('/login') }\n")
	}
	files := []File{{Path: "src/login.ts", Content: body.String()}}

	sel := s.SelectFiles(files, SelectOptions{Query: "login loginHelper api", Budget: 200})
	if len(sel.Files) != 1 {
		t.Fatalf("selected %d files, want 1 compressed", len(sel.Files))
	}
	f := sel.Files[0]
	if !f.Compressed {
		t.Error("overflow file should be marked compressed")
	}
	if f.Tokens > 200 {
		t.Errorf("compressed file uses %d tokens over the 200 budget", f.Tokens)
	}
}

func TestCompressByLinePriority_KeepsStructure(t *testing.T) {
	src := `import { api } from './api'
// a comment that should drop first

export function important() {
  const x = 1
  return x
}

const filler1 = 'noise'
const filler2 = 'noise'
`
	out := compressByLinePriority(src, 120)
	if !strings.Contains(out, "import { api }") {
		t.Error("import line lost")
	}
	if !strings.Contains(out, "export function important()") {
		t.Error("declaration line lost")
	}
	if strings.Contains(out, "// a comment") {
		t.Error("comment kept over structural lines")
	}
}

func TestCompressByLinePriority_ElisionMarkerCap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 30; i++ {
		sb.WriteString("export function keep() { return 1 }\n")
		sb.WriteString("\n\n") // gaps between keepable lines
	}
	out := compressByLinePriority(sb.String(), 400)
	if n := strings.Count(out, elisionMarker); n > maxElisionMarks {
		t.Errorf("elision markers = %d, want <= %d", n, maxElisionMarks)
	}
}

func TestSelectFiles_EmptyInput(t *testing.T) {
	s := newTestSelector()
	sel := s.SelectFiles(nil, SelectOptions{Query: "anything", Budget: 1000})
	if len(sel.Files) != 0 {
		t.Error("empty input produced files")
	}
}
