package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/weaverhq/weaver/internal/decompose"
)

func newPlanCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "plan <request>",
		Short: "Analyze a build request and show the step plan",
		Long: `Score the complexity of a build request and, when it is complex
enough, break it into ordered steps with dependencies.

Examples:
  weaver plan "Create a landing page"
  weaver plan "Build a todo app with login and a dashboard" --verbose`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")

			plan := decompose.BuildPlan(prompt)

			fmt.Printf("Complexity: %.1f (%d features, %d sentences, %d words)\n",
				plan.Analysis.Score, len(plan.Analysis.Features),
				plan.Analysis.Sentences, plan.Analysis.Words)
			fmt.Printf("Plan:       %s\n\n", plan.Reason)

			width := 80
			if term.IsTerminal(int(os.Stdout.Fd())) {
				if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
					width = w
				}
			}

			byID := make(map[string]decompose.Step, len(plan.Steps))
			for _, s := range plan.Steps {
				byID[s.ID] = s
			}

			for _, step := range plan.Steps {
				fmt.Printf("%2d. [%s] %s\n", step.Index+1, step.Category, step.Label)
				if len(step.DependsOn) > 0 {
					deps := make([]string, 0, len(step.DependsOn))
					for _, id := range step.DependsOn {
						if dep, ok := byID[id]; ok {
							deps = append(deps, fmt.Sprintf("step %d", dep.Index+1))
						}
					}
					fmt.Printf("    after %s\n", strings.Join(deps, ", "))
				}
				if verbose {
					for _, line := range wrapText(step.Prompt, width-4) {
						fmt.Printf("    %s\n", line)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show full step prompts")
	return cmd
}

// wrapText breaks text into lines no longer than width, preserving
// existing newlines.
func wrapText(text string, width int) []string {
	if width < 20 {
		width = 20
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) > width {
				lines = append(lines, line)
				line = w
				continue
			}
			line += " " + w
		}
		lines = append(lines, line)
	}
	return lines
}
