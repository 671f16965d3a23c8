package decompose

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Context-window tuning for heavyweight plans: steps expected to consume
// most of a generation window get split into structure and logic halves,
// and consecutive lightweight same-category steps get merged.
const (
	splitShare    = 0.70
	mergeShare    = 0.50
	heavyPlanMult = 1.4
)

// baseShare estimates what fraction of a generation window a step of each
// category tends to consume, measured against typical single-shot output.
var baseShare = map[Category]float64{
	CategoryLayout:  0.35,
	CategoryAuth:    0.45,
	CategoryAPI:     0.55,
	CategoryData:    0.40,
	CategoryStyling: 0.15,
}

func estimateShare(category Category, analysis Analysis) float64 {
	share := baseShare[category]
	if analysis.Score >= OptimizeThreshold {
		share *= heavyPlanMult
	}
	return share
}

// optimizeSteps applies the split and merge passes, then renumbers.
// Dependency IDs survive both passes; merged steps forward their ID to
// the merge result via the remap table.
func optimizeSteps(steps []Step, analysis Analysis) []Step {
	remap := make(map[string]string)

	var split []Step
	for _, step := range steps {
		if estimateShare(step.Category, analysis) <= splitShare {
			split = append(split, step)
			continue
		}
		structure := step
		structure.ID = step.ID // keeps inbound dependencies pointing at the first half
		structure.Label = step.Label + " (structure)"
		structure.Prompt = fmt.Sprintf("Set up the structure for %s: components, types, and wiring, with logic stubbed out.", step.Label)

		logic := Step{
			ID:        uuid.NewString(),
			Label:     step.Label + " (logic)",
			Category:  step.Category,
			Prompt:    fmt.Sprintf("Implement the logic for %s inside the structure from the previous step.", step.Label),
			DependsOn: []string{structure.ID},
		}
		split = append(split, structure, logic)
	}

	var merged []Step
	for _, step := range split {
		if n := len(merged); n > 0 {
			prev := &merged[n-1]
			combined := estimateShare(prev.Category, analysis) + estimateShare(step.Category, analysis)
			if prev.Category == step.Category && combined < mergeShare && !splitHalf(step) && !splitHalf(*prev) {
				remap[step.ID] = prev.ID
				prev.Label = prev.Label + " and " + step.Label
				prev.Prompt = prev.Prompt + "\n\nAlso: " + step.Prompt
				continue
			}
		}
		merged = append(merged, step)
	}

	for i := range merged {
		merged[i].Index = i
		for j, dep := range merged[i].DependsOn {
			if target, ok := remap[dep]; ok {
				merged[i].DependsOn[j] = target
			}
		}
		merged[i].DependsOn = dedupeIDs(merged[i].DependsOn, merged[i].ID)
	}
	return merged
}

func splitHalf(s Step) bool {
	return strings.HasSuffix(s.Label, "(structure)") || strings.HasSuffix(s.Label, "(logic)")
}

func dedupeIDs(ids []string, self string) []string {
	seen := make(map[string]bool)
	out := ids[:0]
	for _, id := range ids {
		if id == self || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
