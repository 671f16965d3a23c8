// Package memory maintains a structured, bounded summary of what a
// code-generation conversation has built so far, independent of raw history.
package memory

import "time"

// Phase classifies where a build conversation currently is.
type Phase string

const (
	PhaseDebugging Phase = "debugging"
	PhaseRefining  Phase = "refining"
	PhaseBuilding  Phase = "building"
	PhasePlanning  Phase = "planning"
)

// List caps. Oldest entries drop silently when a cap is reached.
const (
	maxFiles      = 30
	maxComponents = 25
	maxEndpoints  = 20
	maxDecisions  = 20
	maxTechStack  = 15
	maxEntries    = 15

	// Per-entry summary cap in estimated tokens. Turns outside the recent
	// window get half of this.
	entryTokenCap    = 120
	recentEntryCount = 5
)

// ProjectState is the accumulated build summary for one project. Lists are
// capped and deduplicated; updates are additive.
type ProjectState struct {
	ProjectID  string    `json:"project_id"`
	Files      []string  `json:"files"`
	Components []string  `json:"components"`
	Endpoints  []string  `json:"endpoints"`
	Decisions  []string  `json:"decisions"`
	TechStack  []string  `json:"tech_stack"`
	Phase      Phase     `json:"phase"`
	TurnCount  int       `json:"turn_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Empty reports whether nothing has been accumulated yet.
func (s ProjectState) Empty() bool {
	return s.TurnCount == 0 &&
		len(s.Files) == 0 && len(s.Components) == 0 && len(s.Endpoints) == 0 &&
		len(s.Decisions) == 0 && len(s.TechStack) == 0
}

// Entry is the compressed representation of one conversation turn.
type Entry struct {
	Role             string   `json:"role"`
	Summary          string   `json:"summary"`
	Files            []string `json:"files,omitempty"`
	Identifiers      []string `json:"identifiers,omitempty"`
	Decisions        []string `json:"decisions,omitempty"`
	OriginalTokens   int      `json:"original_tokens"`
	CompressedTokens int      `json:"compressed_tokens"`
}

// Snapshot is the result of a compression pass.
type Snapshot struct {
	State            ProjectState
	Entries          []Entry
	OriginalTokens   int
	CompressedTokens int
}

// Empty reports whether the pass produced nothing worth rendering.
func (s Snapshot) Empty() bool {
	return s.State.Empty() && len(s.Entries) == 0
}

// appendCapped appends items not already present, then trims the oldest
// entries so the list never exceeds limit.
func appendCapped(list []string, limit int, items ...string) []string {
	seen := make(map[string]bool, len(list))
	for _, v := range list {
		seen[v] = true
	}
	for _, it := range items {
		if it == "" || seen[it] {
			continue
		}
		list = append(list, it)
		seen[it] = true
	}
	if len(list) > limit {
		list = list[len(list)-limit:]
	}
	return list
}
