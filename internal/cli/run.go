package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weaverhq/weaver/internal/config"
	"github.com/weaverhq/weaver/internal/engine"
	"github.com/weaverhq/weaver/internal/export"
	"github.com/weaverhq/weaver/internal/git"
	"github.com/weaverhq/weaver/internal/store"
)

func newRunCmd() *cobra.Command {
	var (
		model    string
		planOnly bool
	)

	cmd := &cobra.Command{
		Use:   "run <request>",
		Short: "Plan a build request and generate each step",
		Long: `Decompose a build request into steps, assemble project context, and
run each step through the configured model with automatic retry on
degenerate output. Retry sessions are recorded in the project database.

Examples:
  weaver run "Create a todo app with login and a dashboard"
  weaver run "Add dark mode" --model openai`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")

			root, err := findRoot()
			if err != nil {
				return err
			}
			if _, err := ensureInitialized(root); err != nil {
				return err
			}

			gcfg, _ := config.Load(root)
			pcfg, _ := config.LoadProject(root)

			executor := buildExecutor(gcfg, model)
			if executor == nil {
				return fmt.Errorf("no usable model provider; check `weaver version` setup and your config")
			}

			eng, dim := buildEngine(gcfg, executor)

			plan := eng.Plan(prompt)
			fmt.Printf("Plan: %s (%d steps)\n", plan.Reason, len(plan.Steps))
			for _, step := range plan.Steps {
				fmt.Printf("  %d. %s\n", step.Index+1, step.Label)
			}
			if planOnly {
				return nil
			}

			result := loadProjectFiles(root, gcfg, pcfg)
			activity := git.Capture(root)
			built := eng.BuildContext(cmd.Context(), root, engine.BuildOptions{
				Query:        prompt,
				ChangedFiles: activity.HotFiles(),
				Files:        result.Files,
			})

			db, err := store.Open(config.ProjectDBPath(root), dim)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			outcomes, execErr := eng.Execute(cmd.Context(), root, plan, built.Assembled)
			for _, oc := range outcomes {
				fmt.Printf("\n=== Step %d: %s ===\n", oc.Step.Index+1, oc.Step.Label)
				if oc.Err != nil {
					fmt.Fprintf(os.Stderr, "failed: %v\n", oc.Err)
				} else {
					fmt.Println(oc.Output)
				}
				if oc.Session != nil {
					if err := db.SaveSession(root, oc.Session); err != nil {
						fmt.Fprintf(os.Stderr, "Warning: could not record retry session: %v\n", err)
					}
				}
			}

			projectName := pcfg.Project.Name
			if projectName == "" {
				projectName = result.Stack.ProjectName
			}
			report := export.ReportData{
				Project:  projectName,
				Branch:   activity.Branch,
				Prompt:   prompt,
				Reason:   plan.Reason,
				Score:    plan.Analysis.Score,
				Outcomes: outcomes,
			}
			if err := export.WriteReport(config.ProjectConfigDirPath(root), report); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not write run report: %v\n", err)
			}
			return execErr
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model provider: claude, openai, ollama")
	cmd.Flags().BoolVar(&planOnly, "plan-only", false, "Show the plan without generating")
	return cmd
}
