package decompose

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Step is one generation unit in a plan. DependsOn holds step IDs rather
// than indices so renumbering never breaks the graph.
type Step struct {
	ID        string
	Index     int
	Label     string
	Category  Category
	Prompt    string
	DependsOn []string
}

// Plan is the ordered decomposition of a prompt.
type Plan struct {
	Prompt   string
	Steps    []Step
	Reason   string
	Analysis Analysis
}

// BuildPlan analyzes the prompt and, when it is complex enough, splits it
// into dependency-ordered steps. Simple prompts come back as a single step.
func BuildPlan(prompt string) Plan {
	analysis := Analyze(prompt)
	plan := Plan{Prompt: prompt, Analysis: analysis}

	if !analysis.Decompose() || len(analysis.Features) < 2 {
		plan.Reason = "no decomposition needed"
		plan.Steps = []Step{{
			ID:     uuid.NewString(),
			Index:  0,
			Label:  "complete request",
			Prompt: prompt,
		}}
		return plan
	}

	features := make([]Feature, len(analysis.Features))
	copy(features, analysis.Features)
	sort.SliceStable(features, func(i, j int) bool {
		return features[i].Category < features[j].Category
	})

	plan.Reason = fmt.Sprintf("complexity %.1f across %d features", analysis.Score, len(features))

	var layoutID string
	for i, f := range features {
		step := Step{
			ID:       uuid.NewString(),
			Index:    i,
			Label:    f.Label,
			Category: f.Category,
		}
		if i == 0 {
			step.Prompt = foundationPrompt(f, prompt)
		} else {
			step.Prompt = featurePrompt(f)
			step.DependsOn = append(step.DependsOn, plan.Steps[i-1].ID)
		}
		if f.Category == CategoryLayout && layoutID == "" {
			layoutID = step.ID
		}
		if (f.Category == CategoryAuth || f.Category == CategoryAPI) &&
			layoutID != "" && layoutID != step.ID && !contains(step.DependsOn, layoutID) {
			step.DependsOn = append(step.DependsOn, layoutID)
		}
		plan.Steps = append(plan.Steps, step)
	}

	if analysis.Score >= OptimizeThreshold {
		plan.Steps = optimizeSteps(plan.Steps, analysis)
	}
	return plan
}

func foundationPrompt(f Feature, original string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Build the foundation: %s.\n\n", f.Label)
	b.WriteString("Full request, for reference only (later steps cover the rest):\n")
	b.WriteString(original)
	return b.String()
}

func featurePrompt(f Feature) string {
	return fmt.Sprintf("Add %s to the existing code. Preserve existing functionality and avoid restructuring what prior steps produced.", f.Label)
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
