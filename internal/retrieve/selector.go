package retrieve

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/weaverhq/weaver/internal/token"
)

// Selection weights and thresholds.
const (
	keywordWeight    = 0.40
	structureWeight  = 0.20
	adjacencyWeight  = 0.20
	exportWeight     = 0.20
	highRelevance    = 0.55
	changedBoost     = 0.10
	maxElisionMarks  = 5
	elisionMarker    = "// ..."
	selectorCharsPer = 4 // chars per token when converting budgets
)

// SelectOptions controls budgeted file selection.
type SelectOptions struct {
	Query      string
	ActiveFile string
	// ChangedFiles get a relevance boost: files the developer is touching
	// are likelier to matter than cold ones.
	ChangedFiles []string
	Budget       int // token budget; 0 selects nothing
}

// SelectedFile is one file admitted into the context.
type SelectedFile struct {
	Path       string
	Content    string
	Tokens     int
	Score      float64
	Compressed bool
}

// Selection is the result of a selection pass.
type Selection struct {
	Files       []SelectedFile
	TotalTokens int
}

// Selector scores whole files and greedily packs them under a token budget.
type Selector struct {
	estimator *token.Estimator
}

// NewSelector creates a Selector backed by the given estimator.
func NewSelector(est *token.Estimator) *Selector {
	return &Selector{estimator: est}
}

// SelectFiles ranks files by blended relevance and greedily adds them while
// they fit the budget. The first file that does not fit but scores above
// the high-relevance cutoff is included compressed by line priority.
func (s *Selector) SelectFiles(files []File, opts SelectOptions) Selection {
	if opts.Budget <= 0 || len(files) == 0 {
		return Selection{}
	}

	queryWords := significantWords(opts.Query)

	changed := make(map[string]bool, len(opts.ChangedFiles))
	for _, p := range opts.ChangedFiles {
		changed[p] = true
	}

	type scored struct {
		file  File
		score float64
	}
	ranked := make([]scored, 0, len(files))
	for _, f := range files {
		score := s.scoreFile(f, queryWords, opts.ActiveFile)
		if changed[f.Path] {
			score += changedBoost
		}
		ranked = append(ranked, scored{file: f, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].file.Path < ranked[j].file.Path
	})

	var sel Selection
	remaining := opts.Budget
	compressedOne := false

	for _, r := range ranked {
		cost := s.estimator.Estimate(r.file.Content)
		if cost <= remaining {
			sel.Files = append(sel.Files, SelectedFile{
				Path:    r.file.Path,
				Content: r.file.Content,
				Tokens:  cost,
				Score:   r.score,
			})
			remaining -= cost
			continue
		}

		if !compressedOne && r.score >= highRelevance && remaining > 0 {
			// Character budgets only approximate token budgets, so shrink
			// until the estimate actually fits.
			charBudget := remaining * selectorCharsPer
			for attempt := 0; attempt < 4 && charBudget > 0; attempt++ {
				compressed := compressByLinePriority(r.file.Content, charBudget)
				if compressed == "" {
					break
				}
				cCost := s.estimator.Estimate(compressed)
				if cCost <= remaining {
					sel.Files = append(sel.Files, SelectedFile{
						Path:       r.file.Path,
						Content:    compressed,
						Tokens:     cCost,
						Score:      r.score,
						Compressed: true,
					})
					remaining -= cCost
					break
				}
				charBudget /= 2
			}
			compressedOne = true
		}
	}

	sel.TotalTokens = opts.Budget - remaining
	return sel
}

var (
	declLinePattern    = regexp.MustCompile(`^\s*(?:export\s+)?(?:function|const|let|var|class|interface|type|func|def)\b`)
	importExportLine   = regexp.MustCompile(`^\s*(?:import|export)\b`)
	controlFlowPattern = regexp.MustCompile(`\b(?:if|else|for|while|switch|return|try|catch)\b`)
	commentLinePattern = regexp.MustCompile(`^\s*(?://|/\*|\*|#)`)
)

// scoreFile blends keyword relevance, structural quality, adjacency to the
// active file, and export density into [0, 1].
func (s *Selector) scoreFile(f File, queryWords map[string]bool, activeFile string) float64 {
	lines := strings.Split(f.Content, "\n")
	total := len(lines)
	if total == 0 {
		return 0
	}

	keyword := lexicalOverlap(queryWords, f.Content)

	// Filename hits weigh into keyword relevance: a query naming the file
	// is the strongest possible signal.
	base := strings.ToLower(strings.TrimSuffix(path.Base(f.Path), path.Ext(f.Path)))
	for w := range queryWords {
		if strings.Contains(base, w) {
			keyword = clamp01(keyword + 0.5)
			break
		}
	}

	var structural, exports int
	for _, line := range lines {
		switch {
		case importExportLine.MatchString(line):
			structural++
			if strings.Contains(line, "export") {
				exports++
			}
		case declLinePattern.MatchString(line), controlFlowPattern.MatchString(line):
			structural++
		}
	}
	structure := clamp01(float64(structural) / float64(total) * 2)
	exportDensity := clamp01(float64(exports) / float64(total) * 10)

	adjacency := 0.0
	if activeFile != "" {
		switch {
		case f.Path == activeFile:
			adjacency = 1.0
		case path.Dir(f.Path) == path.Dir(activeFile):
			adjacency = 0.6
		case referencesFile(f.Content, activeFile):
			adjacency = 0.4
		}
	}

	return keywordWeight*keyword + structureWeight*structure +
		adjacencyWeight*adjacency + exportWeight*exportDensity
}

func referencesFile(content, filePath string) bool {
	base := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
	return base != "" && strings.Contains(content, base)
}

// compressByLinePriority keeps the highest-priority lines that fit the
// character budget, in original order, with at most maxElisionMarks
// markers standing in for elided regions.
func compressByLinePriority(content string, charBudget int) string {
	lines := strings.Split(content, "\n")

	type prioritized struct {
		index    int
		priority int
	}
	ranked := make([]prioritized, len(lines))
	for i, line := range lines {
		ranked[i] = prioritized{index: i, priority: linePriority(line)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].priority > ranked[j].priority
	})

	keep := make(map[int]bool)
	used := 0
	for _, p := range ranked {
		if p.priority == 0 {
			break
		}
		cost := len(lines[p.index]) + 1
		if used+cost > charBudget {
			continue
		}
		keep[p.index] = true
		used += cost
	}
	if len(keep) == 0 {
		return ""
	}

	var out []string
	marks := 0
	gap := false
	for i, line := range lines {
		if keep[i] {
			if gap && marks < maxElisionMarks {
				out = append(out, elisionMarker)
				marks++
			}
			gap = false
			out = append(out, line)
			continue
		}
		gap = true
	}
	return strings.Join(out, "\n")
}

// linePriority ranks a line for compression: imports/exports and
// declarations highest, blank and comment lines lowest.
func linePriority(line string) int {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "", commentLinePattern.MatchString(line):
		return 0
	case importExportLine.MatchString(line):
		return 4
	case declLinePattern.MatchString(line):
		return 3
	case controlFlowPattern.MatchString(line):
		return 2
	default:
		return 1
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
