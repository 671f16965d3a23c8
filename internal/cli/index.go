package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/weaverhq/weaver/internal/config"
	"github.com/weaverhq/weaver/internal/retrieve"
	"github.com/weaverhq/weaver/internal/store"
	"github.com/weaverhq/weaver/internal/watch"
)

func newIndexCmd() *cobra.Command {
	var watchMode bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the retrieval index for the project",
		Long: `Rescan the project tree and rebuild the chunk index used for
relevance retrieval. With --watch, keep running and reindex whenever
source files change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := findRoot()
			if err != nil {
				return err
			}
			if _, err := ensureInitialized(root); err != nil {
				return err
			}

			gcfg, _ := config.Load(root)
			pcfg, _ := config.LoadProject(root)

			eng, dim := buildEngine(gcfg, nil)

			db, err := store.Open(config.ProjectDBPath(root), dim)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			var lastIndex *retrieve.ProjectIndex
			reindex := func(ctx context.Context, files []retrieve.File) error {
				index, err := eng.Indexer().Reindex(ctx, root, files)
				if err != nil {
					return err
				}
				lastIndex = index
				return db.SaveIndex(root, index)
			}

			bar := progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("  Indexing files"),
				progressbar.OptionSpinnerType(14),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionClearOnFinish(),
			)
			result := loadProjectFiles(root, gcfg, pcfg)
			if err := reindex(cmd.Context(), result.Files); err != nil {
				_ = bar.Finish()
				return fmt.Errorf("reindex: %w", err)
			}
			_ = bar.Finish()

			fmt.Printf("Indexed %d files into %d chunks.\n", len(result.Files), lastIndex.ChunkCount())

			if !watchMode {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Println("Watching for changes. Ctrl-C to stop.")
			w := watch.New(root, reindex)
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("watch: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Keep running and reindex on file changes")
	return cmd
}
