package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/weaverhq/weaver/internal/config"
	"github.com/weaverhq/weaver/internal/mcp"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Expose indexing, retrieval, context assembly, and planning as MCP
tools so AI coding assistants can call them directly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := findRoot()
			if err != nil {
				return err
			}

			gcfg, _ := config.Load(root)
			eng, _ := buildEngine(gcfg, buildExecutor(gcfg, ""))

			srv := mcp.New(root, version, eng)
			if err := srv.Serve(); err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}
