package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weaverhq/weaver/internal/config"
	"github.com/weaverhq/weaver/internal/engine"
	"github.com/weaverhq/weaver/internal/git"
)

func newContextCmd() *cobra.Command {
	var (
		activeFile string
		budget     int
		export     bool
	)

	cmd := &cobra.Command{
		Use:   "context <query>",
		Short: "Assemble the generation context for a query",
		Long: `Select the most relevant code under the token budget and print the
context exactly as it would be injected into a generation call.

Examples:
  weaver context "add pagination to the document list"
  weaver context "fix the auth flow" --file src/auth.ts
  weaver context "refactor uploads" --budget 3000 --export`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			root, err := findRoot()
			if err != nil {
				return err
			}

			gcfg, _ := config.Load(root)
			pcfg, _ := config.LoadProject(root)

			eng, _ := buildEngine(gcfg, nil)
			result := loadProjectFiles(root, gcfg, pcfg)
			activity := git.Capture(root)

			res := eng.BuildContext(cmd.Context(), root, engine.BuildOptions{
				Query:        query,
				ActiveFile:   activeFile,
				ChangedFiles: activity.HotFiles(),
				Files:        result.Files,
				CodeBudget:   budget,
			})

			if res.Exhausted {
				fmt.Fprintln(os.Stderr, "Nothing fit under the budget; minimal context follows.")
			}
			fmt.Print(res.Assembled)
			if res.Assembled != "" && !strings.HasSuffix(res.Assembled, "\n") {
				fmt.Println()
			}
			fmt.Fprintf(os.Stderr, "\n%d files, ~%d tokens\n", len(res.Code.Files), res.Tokens)

			if export {
				path := filepath.Join(config.ProjectConfigDirPath(root), "context.md")
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("mkdir: %w", err)
				}
				if err := os.WriteFile(path, []byte(res.Assembled), 0o644); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: could not write context.md: %v\n", err)
				} else {
					fmt.Fprintf(os.Stderr, "Context exported to %s\n", path)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&activeFile, "file", "f", "", "File currently being edited (boosts its relevance)")
	cmd.Flags().IntVarP(&budget, "budget", "b", 0, "Code token budget (default from config)")
	cmd.Flags().BoolVar(&export, "export", false, "Also write context to .weaver/context.md")
	return cmd
}
