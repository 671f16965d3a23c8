package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/weaverhq/weaver/internal/config"
	"github.com/weaverhq/weaver/internal/git"
	"github.com/weaverhq/weaver/internal/retry"
	"github.com/weaverhq/weaver/internal/scanner"
	"github.com/weaverhq/weaver/internal/store"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current weaver state for the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := findRoot()
			if err != nil {
				return err
			}
			dbPath, err := ensureInitialized(root)
			if err != nil {
				return err
			}

			gcfg, _ := config.LoadGlobal()
			pcfg, _ := config.LoadProject(root)

			modelName := gcfg.DefaultModel
			if pcfg.DefaultModel != "" {
				modelName = pcfg.DefaultModel
			}

			db, err := store.Open(dbPath, defaultEmbedDimension)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			name := pcfg.Project.Name
			if name == "" {
				name = root
			}

			stack := scanner.DetectStack(root)

			var chunkCount int
			var fileCount int
			if index, ok, err := db.LoadIndex(root); err == nil && ok {
				chunkCount = index.ChunkCount()
				seen := make(map[string]bool)
				for _, c := range index.Chunks {
					seen[c.File] = true
				}
				fileCount = len(seen)
			}

			sessions, _ := db.RecentSessions(root, 50)

			var dbSize int64
			if fi, err := os.Stat(dbPath); err == nil {
				dbSize = fi.Size()
			}

			fmt.Printf("\nProject:  %s\n", name)
			if labels := stack.Labels(); len(labels) > 0 {
				fmt.Printf("Stack:    %s\n", strings.Join(labels, " / "))
			}
			if activity := git.Capture(root); !activity.IsEmpty() {
				fmt.Printf("Branch:   %s (%d changed, %d untracked)\n",
					activity.Branch, len(activity.Changed), len(activity.Untracked))
			}
			fmt.Printf("Indexed:  %d files, %d chunks\n", fileCount, chunkCount)
			fmt.Printf("Sessions: %d recorded\n", len(sessions))
			fmt.Printf("Model:    %s (default)\n", modelName)
			fmt.Printf("DB size:  %s\n", formatBytes(dbSize))

			if stats, err := db.StrategyStats(); err == nil && len(stats) > 0 {
				fmt.Println("\nRetry strategies:")
				names := make([]string, 0, len(stats))
				for s := range stats {
					names = append(names, string(s))
				}
				sort.Strings(names)
				for _, n := range names {
					st := stats[retry.Strategy(n)]
					rate := 0.0
					if st.Uses > 0 {
						rate = float64(st.Successes) / float64(st.Uses)
					}
					fmt.Printf("  %-18s %d uses, %.0f%% success\n", n, st.Uses, rate*100)
				}
			}
			fmt.Println()
			return nil
		},
	}
}
