package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/weaverhq/weaver/internal/conversation"
	"github.com/weaverhq/weaver/internal/embed"
	"github.com/weaverhq/weaver/internal/generate"
	"github.com/weaverhq/weaver/internal/retrieve"
)

func newTestEngine(exec generate.Executor) *Engine {
	return New(DefaultConfig(), embed.NewResilient(nil, 64), exec)
}

func TestBuildContext_MinimalResultWhenNothingFits(t *testing.T) {
	e := newTestEngine(nil)
	res := e.BuildContext(context.Background(), "proj", BuildOptions{
		Query:      "anything",
		CodeBudget: 1,
	})
	if !res.Exhausted {
		t.Error("empty inputs under tiny budget should be the exhausted result")
	}
	if res.Assembled != "" && strings.TrimSpace(res.Assembled) != "" {
		t.Errorf("minimal result carries content: %q", res.Assembled)
	}
}

func TestBuildContext_AssemblesSections(t *testing.T) {
	e := newTestEngine(nil)
	res := e.BuildContext(context.Background(), "proj", BuildOptions{
		Query: "render the user list",
		Files: []retrieve.File{
			{Path: "src/userList.ts", Content: "export function renderUserList(user) { return user }"},
		},
		History: []conversation.Turn{
			{Role: conversation.RoleUser, Content: "please render the user list on the page"},
		},
	})
	if res.Exhausted {
		t.Fatal("result marked exhausted with content available")
	}
	if !strings.Contains(res.Assembled, "## Relevant Code") {
		t.Error("assembled context missing code section")
	}
	if !strings.Contains(res.Assembled, "src/userList.ts") {
		t.Error("assembled context missing selected file")
	}
	if !strings.Contains(res.Assembled, "## Conversation") {
		t.Error("assembled context missing history section")
	}
	if res.Tokens <= 0 {
		t.Errorf("tokens = %d", res.Tokens)
	}
}

func TestExecute_RunsAllStepsInOrder(t *testing.T) {
	var prompts []string
	exec := generate.ExecutorFunc(func(ctx context.Context, req generate.Request) (string, error) {
		prompts = append(prompts, req.Prompt)
		out := "Updated the existing code for the todo app: added the page layout, " +
			"navigation, login authentication, dashboard display, and completed tasks " +
			"management, preserving all functionality.\n```\nfunction render() { return app; }\n```"
		return out, nil
	})
	e := newTestEngine(exec)

	plan := e.Plan("Build a todo app with login and a dashboard showing completed tasks.")
	outcomes, err := e.Execute(context.Background(), "proj", plan, "base context")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(outcomes) != len(plan.Steps) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(plan.Steps))
	}
	for i, o := range outcomes {
		if o.Step.ID != plan.Steps[i].ID {
			t.Errorf("outcome %d ran step %s, want %s", i, o.Step.Label, plan.Steps[i].Label)
		}
	}
	if len(prompts) < 2 {
		t.Fatal("executor not called per step")
	}
}

func TestExecute_StopsOnStepFailure(t *testing.T) {
	exec := generate.ExecutorFunc(func(ctx context.Context, req generate.Request) (string, error) {
		return "", errors.New("connection refused")
	})
	e := newTestEngine(exec)

	plan := e.Plan("Build a todo app with login and a dashboard showing completed tasks.")
	outcomes, err := e.Execute(context.Background(), "proj", plan, "")
	if err == nil {
		t.Fatal("expected failure to propagate")
	}
	if len(outcomes) != 1 {
		t.Errorf("got %d outcomes after first-step failure, want 1", len(outcomes))
	}
}

func TestExecute_NoExecutorConfigured(t *testing.T) {
	e := newTestEngine(nil)
	if _, err := e.Execute(context.Background(), "proj", e.Plan("hi"), ""); err == nil {
		t.Error("expected error without executor")
	}
}
