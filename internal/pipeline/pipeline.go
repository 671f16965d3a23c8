// Package pipeline tracks multi-step build plans as they execute: which
// steps wait on dependencies, which are done, and what each produced.
package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/weaverhq/weaver/internal/decompose"
)

// StepState is the lifecycle of one plan step.
type StepState string

const (
	StatePending   StepState = "pending"
	StateRunning   StepState = "running"
	StateCompleted StepState = "completed"
	StateFailed    StepState = "failed"
)

// StepResult is what a completed step produced.
type StepResult struct {
	Code        string
	Quality     float64
	CompletedAt time.Time
}

type trackedStep struct {
	step   decompose.Step
	state  StepState
	result StepResult
	err    error
}

// Pipeline consumes a decomposition plan step by step. Steps become
// eligible once every dependency has completed; a failed step blocks its
// dependents and finishes the pipeline once nothing else can run.
type Pipeline struct {
	mu    sync.Mutex
	steps []*trackedStep
	byID  map[string]*trackedStep
}

func New(plan decompose.Plan) *Pipeline {
	p := &Pipeline{byID: make(map[string]*trackedStep, len(plan.Steps))}
	for _, s := range plan.Steps {
		t := &trackedStep{step: s, state: StatePending}
		p.steps = append(p.steps, t)
		p.byID[s.ID] = t
	}
	return p
}

// NextPending returns the first pending step whose dependencies have all
// completed, marking it running. ok is false when nothing is eligible.
func (p *Pipeline) NextPending() (decompose.Step, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.steps {
		if t.state != StatePending || !p.depsSatisfied(t) {
			continue
		}
		t.state = StateRunning
		return t.step, true
	}
	return decompose.Step{}, false
}

func (p *Pipeline) depsSatisfied(t *trackedStep) bool {
	for _, dep := range t.step.DependsOn {
		d, ok := p.byID[dep]
		if !ok {
			continue
		}
		if d.state != StateCompleted {
			return false
		}
	}
	return true
}

// Complete records a step's output and unblocks its dependents.
func (p *Pipeline) Complete(id, code string, quality float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.byID[id]
	if !ok {
		return fmt.Errorf("pipeline: unknown step %s", id)
	}
	t.state = StateCompleted
	t.result = StepResult{Code: code, Quality: quality, CompletedAt: time.Now()}
	t.err = nil
	return nil
}

// Fail marks a step failed. Dependents of a failed step never become
// eligible.
func (p *Pipeline) Fail(id string, err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.byID[id]
	if !ok {
		return fmt.Errorf("pipeline: unknown step %s", id)
	}
	t.state = StateFailed
	t.err = err
	return nil
}

// Done reports whether execution has reached a terminal state: every step
// completed, or no pending step can ever become eligible.
func (p *Pipeline) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.steps {
		if t.state == StateRunning {
			return false
		}
		if t.state == StatePending && p.reachable(t) {
			return false
		}
	}
	return true
}

// reachable reports whether a pending step could still run, i.e. none of
// its transitive dependencies failed.
func (p *Pipeline) reachable(t *trackedStep) bool {
	for _, dep := range t.step.DependsOn {
		d, ok := p.byID[dep]
		if !ok {
			continue
		}
		if d.state == StateFailed {
			return false
		}
		if d.state == StatePending && !p.reachable(d) {
			return false
		}
	}
	return true
}

// Succeeded reports whether every step completed.
func (p *Pipeline) Succeeded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, t := range p.steps {
		if t.state != StateCompleted {
			return false
		}
	}
	return true
}

// Result returns the recorded output for a step.
func (p *Pipeline) Result(id string) (StepResult, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.byID[id]
	if !ok || t.state != StateCompleted {
		return StepResult{}, false
	}
	return t.result, true
}

// States snapshots every step's state keyed by step ID.
func (p *Pipeline) States() map[string]StepState {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]StepState, len(p.steps))
	for _, t := range p.steps {
		out[t.step.ID] = t.state
	}
	return out
}
