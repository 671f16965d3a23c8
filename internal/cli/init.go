package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/weaverhq/weaver/internal/config"
	"github.com/weaverhq/weaver/internal/store"
)

func newInitCmd() *cobra.Command {
	var projectRoot string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize weaver in the current project",
		Long: `Scan the project directory, detect the tech stack, build the retrieval
index, and set up the .weaver/ directory with a SQLite database and config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := projectRoot
			if root == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("get working directory: %w", err)
				}
				root = cwd
			}
			root, _ = filepath.Abs(root)

			gcfg, _ := config.LoadGlobal()
			pcfg, _ := config.LoadProject(root)

			fmt.Println("Scanning project...")

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("  Indexing files"),
				progressbar.OptionSpinnerType(14),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionClearOnFinish(),
			)

			result := loadProjectFiles(root, gcfg, pcfg)
			_ = bar.Finish()

			if labels := result.Stack.Labels(); len(labels) > 0 {
				fmt.Printf("Detected: %s\n", strings.Join(labels, " / "))
			}
			if len(result.Errors) > 0 {
				fmt.Fprintf(os.Stderr, "  Warning: %d file(s) could not be read\n", len(result.Errors))
			}

			eng, dim := buildEngine(gcfg, nil)
			index, err := eng.Indexer().Reindex(cmd.Context(), root, result.Files)
			if err != nil {
				return fmt.Errorf("build index: %w", err)
			}

			if pcfg.Project.Name == "" {
				pcfg.Project.Name = result.Stack.ProjectName
				if pcfg.Project.Name == "" {
					pcfg.Project.Name = filepath.Base(root)
				}
			}
			if err := config.SaveProject(root, pcfg); err != nil {
				return err
			}

			db, err := store.Open(config.ProjectDBPath(root), dim)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if err := db.SaveIndex(root, index); err != nil {
				return fmt.Errorf("persist index: %w", err)
			}

			fmt.Printf("Indexed %d files into %d chunks.\n", len(result.Files), index.ChunkCount())
			fmt.Println("Weaver initialized. Try `weaver plan \"<what you want to build>\"`.")
			return nil
		},
	}

	cmd.Flags().StringVar(&projectRoot, "root", "", "Project root (default: current directory)")
	return cmd
}
