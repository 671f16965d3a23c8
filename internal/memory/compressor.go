package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/weaverhq/weaver/internal/cache"
	"github.com/weaverhq/weaver/internal/conversation"
	"github.com/weaverhq/weaver/internal/token"
)

// DefaultMaxProjects bounds how many per-project states are retained.
const DefaultMaxProjects = 100

// projectRecord is the cached per-project compression state.
type projectRecord struct {
	state     ProjectState
	entries   []Entry
	processed int // turns already compressed into entries
}

// Compressor maintains per-project build summaries. Same-project calls are
// serialized; different projects proceed independently.
type Compressor struct {
	estimator *token.Estimator
	states    *cache.LRU[string, *projectRecord]

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewCompressor creates a Compressor retaining at most maxProjects states.
func NewCompressor(est *token.Estimator, maxProjects int) *Compressor {
	if maxProjects <= 0 {
		maxProjects = DefaultMaxProjects
	}
	return &Compressor{
		estimator: est,
		states:    cache.NewLRU[string, *projectRecord](maxProjects, nil),
		locks:     make(map[string]*sync.Mutex),
	}
}

// Compress folds the full turn history into the project's bounded state and
// entry list. Turns already seen in a previous call are not reprocessed, so
// repeated calls with the same history are idempotent.
func (c *Compressor) Compress(projectID string, turns []conversation.Turn) Snapshot {
	lock := c.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	rec, ok := c.states.Get(projectID)
	if !ok {
		rec = &projectRecord{state: ProjectState{ProjectID: projectID, Phase: PhasePlanning}}
	}

	if rec.processed > len(turns) {
		// History was reset; start over.
		rec = &projectRecord{state: ProjectState{ProjectID: projectID, Phase: PhasePlanning}}
	}

	fresh := turns[rec.processed:]
	for i, turn := range fresh {
		c.absorb(&rec.state, turn)
		recent := len(fresh)-i <= recentEntryCount
		rec.entries = append(rec.entries, c.compressTurn(turn, recent))
	}
	rec.processed = len(turns)
	rec.state.TurnCount = len(turns)
	rec.state.UpdatedAt = time.Now()

	if len(rec.entries) > maxEntries {
		rec.entries = rec.entries[len(rec.entries)-maxEntries:]
	}

	c.states.Put(projectID, rec)

	var orig, comp int
	for _, e := range rec.entries {
		orig += e.OriginalTokens
		comp += e.CompressedTokens
	}

	entries := make([]Entry, len(rec.entries))
	copy(entries, rec.entries)

	return Snapshot{
		State:            rec.state,
		Entries:          entries,
		OriginalTokens:   orig,
		CompressedTokens: comp,
	}
}

// State returns the current state for a project without compressing.
func (c *Compressor) State(projectID string) (ProjectState, bool) {
	lock := c.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()
	rec, ok := c.states.Get(projectID)
	if !ok {
		return ProjectState{}, false
	}
	return rec.state, true
}

// Evict drops a project's state.
func (c *Compressor) Evict(projectID string) {
	lock := c.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()
	c.states.Delete(projectID)
}

// absorb additively folds one turn into the project state.
func (c *Compressor) absorb(state *ProjectState, turn conversation.Turn) {
	text := turn.Content
	state.Files = appendCapped(state.Files, maxFiles, extractFiles(text)...)
	state.Components = appendCapped(state.Components, maxComponents, extractIdentifiers(text)...)
	state.Endpoints = appendCapped(state.Endpoints, maxEndpoints, extractEndpoints(text)...)
	state.Decisions = appendCapped(state.Decisions, maxDecisions, extractDecisions(text)...)
	state.TechStack = appendCapped(state.TechStack, maxTechStack, extractTech(text)...)
	if turn.Role == conversation.RoleUser {
		state.Phase = classifyPhase(text)
	}
}

// compressTurn builds the per-turn entry: an extractive summary (first
// sentence, decision-bearing sentences, last sentence) trimmed to the token
// cap, with half the cap for turns outside the recent window.
func (c *Compressor) compressTurn(turn conversation.Turn, recent bool) Entry {
	budget := entryTokenCap
	if !recent {
		budget = entryTokenCap / 2
	}

	summary := c.extractiveSummary(turn.Content, budget)

	return Entry{
		Role:             string(turn.Role),
		Summary:          summary,
		Files:            extractFiles(turn.Content),
		Identifiers:      extractIdentifiers(turn.Content),
		Decisions:        extractDecisions(turn.Content),
		OriginalTokens:   c.estimator.Estimate(turn.Content),
		CompressedTokens: c.estimator.Estimate(summary),
	}
}

func (c *Compressor) extractiveSummary(text string, budget int) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return ""
	}

	picked := []string{strings.TrimSpace(sentences[0])}
	for _, d := range extractDecisions(text) {
		if d != picked[0] {
			picked = append(picked, d)
		}
	}
	last := strings.TrimSpace(sentences[len(sentences)-1])
	if len(sentences) > 1 && last != picked[len(picked)-1] && last != picked[0] {
		picked = append(picked, last)
	}

	summary := strings.Join(picked, ". ")
	for c.estimator.Estimate(summary) > budget && len(picked) > 1 {
		picked = picked[:len(picked)-1]
		summary = strings.Join(picked, ". ")
	}
	if c.estimator.Estimate(summary) > budget {
		summary = trimToChars(summary, budget*4)
	}
	return summary
}

func (c *Compressor) projectLock(projectID string) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	lock, ok := c.locks[projectID]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[projectID] = lock
	}
	return lock
}

func trimToChars(s string, max int) string {
	if len(s) <= max || max <= 0 {
		return s
	}
	trimmed := s[:max]
	if idx := strings.LastIndexAny(trimmed, " \n"); idx > max/2 {
		trimmed = trimmed[:idx]
	}
	return trimmed + " [...]"
}
