package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/weaverhq/weaver/internal/engine"
	"github.com/weaverhq/weaver/internal/retrieve"
	"github.com/weaverhq/weaver/internal/scanner"
)

// loaded is the cached project tree shared by the tools. Tools that need
// files trigger a lazy load so the client is never forced to call
// weaver_index first.
type loaded struct {
	mu    sync.Mutex
	files []retrieve.File
	stack scanner.Stack
	ok    bool
}

func (s *Server) loadFiles(force bool) ([]retrieve.File, scanner.Stack, error) {
	s.tree.mu.Lock()
	defer s.tree.mu.Unlock()

	if s.tree.ok && !force {
		return s.tree.files, s.tree.stack, nil
	}
	res := scanner.Load(scanner.LoadOptions{Root: s.root})
	if len(res.Files) == 0 && len(res.Errors) > 0 {
		return nil, scanner.Stack{}, fmt.Errorf("mcp: load project: %w", res.Errors[0])
	}
	s.tree.files = res.Files
	s.tree.stack = res.Stack
	s.tree.ok = true
	return res.Files, res.Stack, nil
}

func (s *Server) handleIndex(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, stack, err := s.loadFiles(true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	index, err := s.engine.Indexer().Reindex(ctx, s.root, files)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Indexed %d files into %d chunks.\n", len(files), index.ChunkCount())
	if labels := stack.Labels(); len(labels) > 0 {
		fmt.Fprintf(&b, "Detected stack: %s\n", strings.Join(labels, ", "))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleRetrieve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	topK := req.GetInt("top_k", 10)

	if _, ok := s.engine.Indexer().Index(s.root); !ok {
		files, _, err := s.loadFiles(false)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if _, err := s.engine.Indexer().Reindex(ctx, s.root, files); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("indexing failed: %v", err)), nil
		}
	}

	matches := s.engine.Indexer().Search(ctx, s.root, query, topK)
	if len(matches) == 0 {
		return mcp.NewToolResultText("No relevant code found."), nil
	}

	var b strings.Builder
	for _, m := range matches {
		c := m.Chunk
		fmt.Fprintf(&b, "### %s (lines %d-%d)\n", c.File, c.StartLine, c.EndLine)
		b.WriteString("```\n")
		b.WriteString(c.Content)
		if !strings.HasSuffix(c.Content, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	activeFile := req.GetString("active_file", "")
	budget := req.GetInt("budget", 0)

	files, _, err := s.loadFiles(false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := s.engine.BuildContext(ctx, s.root, engine.BuildOptions{
		Query:      query,
		ActiveFile: activeFile,
		Files:      files,
		CodeBudget: budget,
	})
	if res.Exhausted {
		return mcp.NewToolResultText(fmt.Sprintf(
			"Nothing fit under the budget. Proceeding with minimal context (%d tokens).", res.Tokens)), nil
	}
	return mcp.NewToolResultText(res.Assembled), nil
}

func (s *Server) handlePlan(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := req.RequireString("prompt")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: prompt"), nil
	}

	plan := s.engine.Plan(prompt)

	var b strings.Builder
	fmt.Fprintf(&b, "Complexity score: %.1f (%d features, %d sentences)\n",
		plan.Analysis.Score, len(plan.Analysis.Features), plan.Analysis.Sentences)
	fmt.Fprintf(&b, "Plan: %s\n\n", plan.Reason)
	for _, step := range plan.Steps {
		fmt.Fprintf(&b, "%d. [%s] %s\n", step.Index+1, step.Category, step.Label)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleEstimate(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}
	n := s.engine.Estimator().Estimate(text)
	return mcp.NewToolResultText(fmt.Sprintf("%d tokens", n)), nil
}
