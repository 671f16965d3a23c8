// Package engine wires the retriever, pruner, memory compressor,
// decomposer, and retry engine into one context-and-generation
// orchestrator.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/weaverhq/weaver/internal/conversation"
	"github.com/weaverhq/weaver/internal/decompose"
	"github.com/weaverhq/weaver/internal/embed"
	"github.com/weaverhq/weaver/internal/generate"
	"github.com/weaverhq/weaver/internal/memory"
	"github.com/weaverhq/weaver/internal/pipeline"
	"github.com/weaverhq/weaver/internal/prune"
	"github.com/weaverhq/weaver/internal/retrieve"
	"github.com/weaverhq/weaver/internal/retry"
	"github.com/weaverhq/weaver/internal/token"
)

// Config sizes the engine's budgets and caches.
type Config struct {
	CodeBudget    int
	HistoryBudget int
	MaxIndexes    int
	MaxProjects   int
}

func DefaultConfig() Config {
	return Config{
		CodeBudget:    6000,
		HistoryBudget: 8000,
		MaxIndexes:    retrieve.DefaultMaxIndexes,
		MaxProjects:   memory.DefaultMaxProjects,
	}
}

// Engine owns the shared per-project state. Same-project calls serialize;
// different projects proceed independently.
type Engine struct {
	cfg        Config
	estimator  *token.Estimator
	pruner     *prune.Pruner
	compressor *memory.Compressor
	indexer    *retrieve.Indexer
	selector   *retrieve.Selector
	retrier    *retry.Engine
	logger     *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures optional engine collaborators.
type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithRetrier(r *retry.Engine) Option {
	return func(e *Engine) { e.retrier = r }
}

func New(cfg Config, embedder *embed.Resilient, executor generate.Executor, opts ...Option) *Engine {
	est := token.NewEstimator()
	e := &Engine{
		cfg:        cfg,
		estimator:  est,
		pruner:     prune.NewPruner(est),
		compressor: memory.NewCompressor(est, cfg.MaxProjects),
		indexer:    retrieve.NewIndexer(embedder, cfg.MaxIndexes),
		selector:   retrieve.NewSelector(est),
		logger:     slog.Default(),
		locks:      make(map[string]*sync.Mutex),
	}
	if executor != nil {
		e.retrier = retry.NewEngine(executor, nil)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimator exposes the shared token estimator for calibration feeds.
func (e *Engine) Estimator() *token.Estimator { return e.estimator }

// Indexer exposes the chunk index for reindex-on-change callers.
func (e *Engine) Indexer() *retrieve.Indexer { return e.indexer }

// BuildOptions is one context-assembly request.
type BuildOptions struct {
	Query        string
	ActiveFile   string
	ChangedFiles []string
	Files        []retrieve.File
	History      []conversation.Turn
	Summarizer   prune.Summarizer

	// Zero values fall back to the engine config.
	CodeBudget    int
	HistoryBudget int
}

// BuildResult is the assembled generation context. Exhausted marks the
// explicit minimal-context outcome where nothing fit under the budgets.
type BuildResult struct {
	Code      retrieve.Selection
	History   prune.Result
	Memory    memory.Snapshot
	Assembled string
	Tokens    int
	Exhausted bool
}

// BuildContext selects code under the code budget, compresses project
// memory, and prunes history under the history budget. Budget exhaustion
// yields a minimal result, never an error.
func (e *Engine) BuildContext(ctx context.Context, projectID string, opts BuildOptions) BuildResult {
	unlock := e.lockProject(projectID)
	defer unlock()

	codeBudget := opts.CodeBudget
	if codeBudget <= 0 {
		codeBudget = e.cfg.CodeBudget
	}
	historyBudget := opts.HistoryBudget
	if historyBudget <= 0 {
		historyBudget = e.cfg.HistoryBudget
	}

	var res BuildResult
	res.Code = e.selector.SelectFiles(opts.Files, retrieve.SelectOptions{
		Query:        opts.Query,
		ActiveFile:   opts.ActiveFile,
		ChangedFiles: opts.ChangedFiles,
		Budget:       codeBudget,
	})
	res.Memory = e.compressor.Compress(projectID, opts.History)

	pruneCfg := prune.DefaultConfig()
	pruneCfg.MaxTokens = historyBudget
	res.History = e.pruner.Prune(ctx, opts.History, pruneCfg, opts.Summarizer)

	res.Assembled = e.assemble(res)
	res.Tokens = e.estimator.Estimate(res.Assembled)
	res.Exhausted = len(res.Code.Files) == 0 && len(res.History.Turns) == 0
	if res.Exhausted {
		e.logger.Debug("context budgets exhausted, proceeding with minimal context",
			"project", projectID, "code_budget", codeBudget, "history_budget", historyBudget)
	}
	return res
}

func (e *Engine) assemble(res BuildResult) string {
	var b strings.Builder
	if mem := memory.Render(res.Memory); mem != "" {
		b.WriteString(mem)
		b.WriteString("\n")
	}
	if len(res.History.Turns) > 0 {
		b.WriteString("## Conversation\n")
		for _, turn := range res.History.Turns {
			fmt.Fprintf(&b, "[%s] %s\n", turn.Role, turn.Content)
		}
		b.WriteString("\n")
	}
	if len(res.Code.Files) > 0 {
		b.WriteString("## Relevant Code\n")
		for _, f := range res.Code.Files {
			fmt.Fprintf(&b, "### %s\n```\n%s\n```\n", f.Path, f.Content)
		}
	}
	return b.String()
}

// Plan decomposes a build request, or returns it as a single step.
func (e *Engine) Plan(prompt string) decompose.Plan {
	return decompose.BuildPlan(prompt)
}

// StepOutcome is the per-step record of an Execute run.
type StepOutcome struct {
	Step    decompose.Step
	Output  string
	Session *retry.Session
	Err     error
}

// Execute runs a plan step by step through the retry-wrapped executor.
// Each step's prompt carries the assembled context plus prior step output.
// An open circuit or exhausted retry budget stops the run; completed work
// is returned either way.
func (e *Engine) Execute(ctx context.Context, projectID string, plan decompose.Plan, baseContext string) ([]StepOutcome, error) {
	if e.retrier == nil {
		return nil, fmt.Errorf("engine: no executor configured")
	}
	unlock := e.lockProject(projectID)
	defer unlock()

	pl := pipeline.New(plan)
	var outcomes []StepOutcome
	var prior strings.Builder

	for {
		step, ok := pl.NextPending()
		if !ok {
			if pl.Done() {
				break
			}
			return outcomes, fmt.Errorf("engine: plan has unrunnable steps")
		}

		req := generate.Request{
			Prompt:  step.Prompt,
			Context: strings.TrimSpace(baseContext + "\n" + prior.String()),
		}
		output, session, err := e.retrier.Execute(ctx, projectID, req)
		outcomes = append(outcomes, StepOutcome{Step: step, Output: output, Session: session, Err: err})
		if err != nil {
			failErr := pl.Fail(step.ID, err)
			if failErr != nil {
				e.logger.Warn("pipeline bookkeeping failed", "step", step.ID, "error", failErr)
			}
			return outcomes, fmt.Errorf("engine: step %q: %w", step.Label, err)
		}
		if err := pl.Complete(step.ID, output, 1); err != nil {
			return outcomes, fmt.Errorf("engine: step %q: %w", step.Label, err)
		}
		fmt.Fprintf(&prior, "### Output of step: %s\n%s\n", step.Label, output)
	}
	return outcomes, nil
}

func (e *Engine) lockProject(projectID string) func() {
	e.mu.Lock()
	l, ok := e.locks[projectID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[projectID] = l
	}
	e.mu.Unlock()
	l.Lock()
	return l.Unlock
}
