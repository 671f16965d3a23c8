package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/weaverhq/weaver/internal/retrieve"
	"github.com/weaverhq/weaver/internal/retry"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "weaver.db"), 8)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesMigrationsIdempotently(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weaver.db")

	s, err := Open(path, 8)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := s.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	s.Close()

	s2, err := Open(path, 8)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	s2.Close()
}

func TestSaveSession_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	session := &retry.Session{
		ID:        "sess-1",
		Key:       "proj",
		Prompt:    "build the page",
		StartedAt: time.Now().UTC().Truncate(time.Second),
		Succeeded: true,
		Attempts: []retry.Attempt{
			{Number: 0, Mode: retry.FailureEmpty, Strategy: retry.StrategyRephrase, Prompt: "build the page", Duration: 120 * time.Millisecond},
			{Number: 1, Prompt: "restated", Duration: 80 * time.Millisecond, Succeeded: true},
		},
	}
	if err := s.SaveSession("proj", session); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, err := s.RecentSessions("proj", 10)
	if err != nil {
		t.Fatalf("RecentSessions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d sessions, want 1", len(got))
	}
	if got[0].ID != "sess-1" || !got[0].Succeeded {
		t.Errorf("session = %+v", got[0])
	}
	if len(got[0].Attempts) != 2 {
		t.Fatalf("got %d attempts, want 2", len(got[0].Attempts))
	}
	if got[0].Attempts[0].Strategy != retry.StrategyRephrase {
		t.Errorf("attempt strategy = %s", got[0].Attempts[0].Strategy)
	}
	if got[0].Attempts[0].Duration != 120*time.Millisecond {
		t.Errorf("attempt duration = %v", got[0].Attempts[0].Duration)
	}
}

func TestStrategyStats_Accumulate(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 2; i++ {
		session := &retry.Session{
			ID:        "sess-" + string(rune('a'+i)),
			Prompt:    "p",
			StartedAt: time.Now(),
			Attempts: []retry.Attempt{
				{Number: 0, Strategy: retry.StrategySimplify},
			},
		}
		if err := s.SaveSession("proj", session); err != nil {
			t.Fatalf("SaveSession: %v", err)
		}
	}
	stats, err := s.StrategyStats()
	if err != nil {
		t.Fatalf("StrategyStats: %v", err)
	}
	if stats[retry.StrategySimplify].Uses != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSaveIndex_LoadIndexRoundTrip(t *testing.T) {
	s := openTestStore(t)
	idx := &retrieve.ProjectIndex{
		ProjectID: "proj",
		Chunks: map[string]retrieve.Chunk{
			"src/a.ts:1": {
				ID: "src/a.ts:1", File: "src/a.ts", Type: retrieve.ChunkFunction,
				Name: "alpha", StartLine: 1, EndLine: 3, Content: "function alpha() {}",
				Imports: []string{"react"}, Exports: []string{"alpha"},
			},
			"src/b.ts:1": {
				ID: "src/b.ts:1", File: "src/b.ts", Type: retrieve.ChunkComponent,
				Name: "Beta", StartLine: 1, EndLine: 5, Content: "const Beta = () => null",
			},
		},
		Vectors: map[string][]float32{
			"src/a.ts:1": {1, 0, 0, 0, 0, 0, 0, 0},
			"src/b.ts:1": {0, 1, 0, 0, 0, 0, 0, 0},
		},
		IndexedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := s.SaveIndex("proj", idx); err != nil {
		t.Fatalf("SaveIndex: %v", err)
	}

	got, ok, err := s.LoadIndex("proj")
	if err != nil || !ok {
		t.Fatalf("LoadIndex: ok=%v err=%v", ok, err)
	}
	if len(got.Chunks) != 2 || len(got.Vectors) != 2 {
		t.Fatalf("loaded %d chunks %d vectors", len(got.Chunks), len(got.Vectors))
	}
	alpha, ok := got.Chunks["src/a.ts:1"]
	if !ok {
		t.Fatal("chunk src/a.ts:1 missing after load")
	}
	if alpha.Name != "alpha" || len(alpha.Imports) == 0 || alpha.Imports[0] != "react" {
		t.Errorf("chunk src/a.ts:1 = %+v", alpha)
	}
	if vec := got.Vectors["src/a.ts:1"]; len(vec) != 8 || vec[0] != 1 {
		t.Errorf("vector src/a.ts:1 = %v", vec)
	}

	// Saving again replaces rather than appends.
	if err := s.SaveIndex("proj", idx); err != nil {
		t.Fatalf("second SaveIndex: %v", err)
	}
	got, _, _ = s.LoadIndex("proj")
	if len(got.Chunks) != 2 {
		t.Errorf("after resave: %d chunks", len(got.Chunks))
	}

	if _, ok, _ := s.LoadIndex("other"); ok {
		t.Error("unknown project reported a stored index")
	}
}
