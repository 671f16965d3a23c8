package memory

import (
	"fmt"
	"strings"
	"testing"

	"github.com/weaverhq/weaver/internal/conversation"
	"github.com/weaverhq/weaver/internal/token"
)

func newTestCompressor() *Compressor {
	return NewCompressor(token.NewEstimator(), 10)
}

func userTurn(content string) conversation.Turn {
	return conversation.Turn{Role: conversation.RoleUser, Content: content}
}

func assistantTurn(content string) conversation.Turn {
	return conversation.Turn{Role: conversation.RoleAssistant, Content: content}
}

func TestCompress_ExtractsFilesAndDecisions(t *testing.T) {
	c := newTestCompressor()
	turns := []conversation.Turn{
		userTurn("Build a login page. We decided to use Tailwind for styling."),
		assistantTurn("Created src/pages/Login.tsx and src/api/auth.ts with a POST /api/login endpoint."),
	}

	snap := c.Compress("proj", turns)

	if len(snap.State.Files) != 2 {
		t.Errorf("files = %v, want 2 entries", snap.State.Files)
	}
	if len(snap.State.Decisions) == 0 {
		t.Error("decision sentence not extracted")
	}
	if len(snap.State.Endpoints) != 1 || snap.State.Endpoints[0] != "POST /api/login" {
		t.Errorf("endpoints = %v", snap.State.Endpoints)
	}
	found := false
	for _, tech := range snap.State.TechStack {
		if tech == "tailwind" {
			found = true
		}
	}
	if !found {
		t.Errorf("tech stack missing tailwind: %v", snap.State.TechStack)
	}
}

func TestCompress_IdempotentAcrossCalls(t *testing.T) {
	c := newTestCompressor()
	turns := []conversation.Turn{
		userTurn("We chose React for the frontend. Create src/App.tsx."),
		assistantTurn("Done: src/App.tsx renders the shell."),
	}

	first := c.Compress("proj", turns)
	second := c.Compress("proj", turns)

	if len(second.State.Files) != len(first.State.Files) {
		t.Errorf("files grew on recompression: %v -> %v", first.State.Files, second.State.Files)
	}
	if len(second.State.Decisions) != len(first.State.Decisions) {
		t.Errorf("decisions grew on recompression: %v -> %v", first.State.Decisions, second.State.Decisions)
	}
	if len(second.Entries) != len(first.Entries) {
		t.Errorf("entries grew on recompression: %d -> %d", len(first.Entries), len(second.Entries))
	}
}

func TestCompress_ListsNeverExceedCaps(t *testing.T) {
	c := newTestCompressor()
	var turns []conversation.Turn
	for i := 0; i < 60; i++ {
		turns = append(turns, assistantTurn(fmt.Sprintf(
			"Created src/components/Widget%d.tsx. We decided to use approach %d for widget %d.", i, i, i)))
	}

	snap := c.Compress("proj", turns)

	if len(snap.State.Files) > 30 {
		t.Errorf("files list over cap: %d", len(snap.State.Files))
	}
	if len(snap.State.Decisions) > 20 {
		t.Errorf("decisions list over cap: %d", len(snap.State.Decisions))
	}
	if len(snap.Entries) > 15 {
		t.Errorf("entry list over cap: %d", len(snap.Entries))
	}
}

func TestCompress_PhaseClassification(t *testing.T) {
	cases := []struct {
		content string
		want    Phase
	}{
		{"There is an error, the build is broken, fix the crash", PhaseDebugging},
		{"Please improve and refactor the styling, polish the layout", PhaseRefining},
		{"Add a new page, create the navbar, build the footer", PhaseBuilding},
		{"Let's plan the architecture and design the approach", PhasePlanning},
	}
	for _, tc := range cases {
		c := newTestCompressor()
		snap := c.Compress("p", []conversation.Turn{userTurn(tc.content)})
		if snap.State.Phase != tc.want {
			t.Errorf("phase for %q = %s, want %s", tc.content, snap.State.Phase, tc.want)
		}
	}
}

func TestCompress_OlderTurnsGetSmallerBudget(t *testing.T) {
	c := newTestCompressor()
	long := strings.Repeat("This sentence pads the turn with additional words. ", 30)
	var turns []conversation.Turn
	for i := 0; i < 10; i++ {
		turns = append(turns, assistantTurn(long))
	}

	snap := c.Compress("proj", turns)

	oldest := snap.Entries[0]
	newest := snap.Entries[len(snap.Entries)-1]
	if oldest.CompressedTokens > newest.CompressedTokens {
		t.Errorf("older entry (%d tokens) should not exceed recent entry (%d tokens)",
			oldest.CompressedTokens, newest.CompressedTokens)
	}
}

func TestCompress_CompressionReducesTokens(t *testing.T) {
	c := newTestCompressor()
	long := strings.Repeat("A sentence about the implementation details of the dashboard. ", 40)
	snap := c.Compress("proj", []conversation.Turn{assistantTurn(long)})

	if snap.CompressedTokens >= snap.OriginalTokens {
		t.Errorf("compression did not reduce tokens: %d >= %d", snap.CompressedTokens, snap.OriginalTokens)
	}
}

func TestRender_ContainsSections(t *testing.T) {
	c := newTestCompressor()
	snap := c.Compress("proj", []conversation.Turn{
		userTurn("We chose React. Build src/App.tsx with a GET /api/items endpoint."),
	})

	out := Render(snap)
	if !strings.Contains(out, "## Project Context") {
		t.Error("missing Project Context section")
	}
	if !strings.Contains(out, "## Conversation Summary") {
		t.Error("missing Conversation Summary section")
	}
	if !strings.Contains(out, "src/App.tsx") {
		t.Error("rendered context missing extracted file")
	}
}

func TestCompress_HistoryResetStartsOver(t *testing.T) {
	c := newTestCompressor()
	c.Compress("proj", []conversation.Turn{
		userTurn("Create src/One.tsx"), userTurn("Create src/Two.tsx"),
	})

	snap := c.Compress("proj", []conversation.Turn{userTurn("Create src/Three.tsx")})

	for _, f := range snap.State.Files {
		if f == "src/One.tsx" {
			t.Error("stale file survived a history reset")
		}
	}
}
