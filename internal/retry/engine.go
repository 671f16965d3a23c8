package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weaverhq/weaver/internal/cache"
	"github.com/weaverhq/weaver/internal/generate"
)

// ErrCircuitOpen is returned when the breaker refuses further attempts.
var ErrCircuitOpen = errors.New("retry: circuit open")

const (
	DefaultMaxAttempts = 3
	DefaultMaxSessions = 100
)

// strategyTable maps a failure mode to its ordered remedies. The attempt
// index picks within the list, wrapping, so repeated same-mode failures
// cycle through distinct strategies.
var strategyTable = map[FailureMode][]Strategy{
	FailureEmpty:      {StrategyRephrase, StrategyAddExamples, StrategySimplify},
	FailureRepetition: {StrategyConstrainOutput, StrategySimplify, StrategyRephrase},
	FailureSyntax:     {StrategyConstrainOutput, StrategyAddExamples, StrategySimplify},
	FailureIncomplete: {StrategyIncreaseContext, StrategySimplify, StrategyDecompose},
	FailureFormat:     {StrategyConstrainOutput, StrategyAddExamples, StrategyRephrase},
	FailureOffTopic:   {StrategyRephrase, StrategyAddExamples, StrategyConstrainOutput},
	FailureUnknown:    {StrategyRephrase, StrategySimplify, StrategyDecompose},
}

// errorProgression is the fallback order when a raised error's message
// matches no known keyword.
var errorProgression = []Strategy{StrategyRephrase, StrategySimplify, StrategyDecompose}

// SelectStrategy is the (failureMode, attemptIndex) lookup.
func SelectStrategy(mode FailureMode, attempt int) Strategy {
	list, ok := strategyTable[mode]
	if !ok {
		list = strategyTable[FailureUnknown]
	}
	if attempt < 0 {
		attempt = 0
	}
	return list[attempt%len(list)]
}

// classifyError picks a strategy from keywords in a raised error's message.
func classifyError(err error) (Strategy, bool) {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "token") || strings.Contains(msg, "length") || strings.Contains(msg, "too long"):
		return StrategyIncreaseContext, true
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return StrategySimplify, true
	case strings.Contains(msg, "parse") || strings.Contains(msg, "syntax"):
		return StrategyConstrainOutput, true
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return StrategySimplify, true
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network"):
		return StrategyRephrase, true
	}
	return "", false
}

// Attempt records one execution inside a session.
type Attempt struct {
	Number    int
	Mode      FailureMode
	Strategy  Strategy
	Prompt    string
	Error     string
	Duration  time.Duration
	Succeeded bool
}

// Session records the recovery of one original failure.
type Session struct {
	ID        string
	Key       string
	Prompt    string
	Attempts  []Attempt
	StartedAt time.Time
	Succeeded bool
}

// StrategyStat is the aggregate use/success count for one strategy.
type StrategyStat struct {
	Uses      int
	Successes int
}

// Engine wraps a generation executor with failure detection, strategy
// selection, and circuit-breaker gating.
type Engine struct {
	executor    generate.Executor
	breaker     Breaker
	maxAttempts int

	mu       sync.Mutex
	sessions *cache.LRU[string, *Session]
	stats    map[Strategy]*StrategyStat
}

// EngineOption adjusts an Engine at construction.
type EngineOption func(*Engine)

// WithMaxAttempts caps attempts per Execute call. Non-positive values
// keep the default.
func WithMaxAttempts(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

func NewEngine(executor generate.Executor, breaker Breaker, opts ...EngineOption) *Engine {
	if breaker == nil {
		breaker = NewCircuitBreaker()
	}
	e := &Engine{
		executor:    executor,
		breaker:     breaker,
		maxAttempts: DefaultMaxAttempts,
		sessions:    cache.NewLRU[string, *Session](DefaultMaxSessions, nil),
		stats:       make(map[Strategy]*StrategyStat),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the request, retrying with reworked prompts until the
// output passes structural checks, attempts exhaust, or the circuit opens.
// The returned session is non-nil whenever at least one attempt ran.
func (e *Engine) Execute(ctx context.Context, key string, req generate.Request) (string, *Session, error) {
	session := &Session{
		ID:        uuid.NewString(),
		Key:       key,
		Prompt:    req.Prompt,
		StartedAt: time.Now(),
	}
	defer e.storeSession(session)

	current := req
	var lastStrategy Strategy
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if !e.breaker.CanExecute(key) {
			recordSession(false)
			return "", session, ErrCircuitOpen
		}
		if attempt > 0 {
			if err := sleep(ctx, e.breaker.CalculateBackoff(attempt-1)); err != nil {
				recordSession(false)
				return "", session, err
			}
		}

		start := time.Now()
		output, err := e.executor.Generate(ctx, current)
		record := Attempt{
			Number:   attempt,
			Prompt:   current.Prompt,
			Duration: time.Since(start),
		}

		if err == nil && Acceptable(current.Prompt, output) {
			record.Succeeded = true
			session.Attempts = append(session.Attempts, record)
			session.Succeeded = true
			e.breaker.RecordSuccess(key)
			e.recordStrategyOutcome(lastStrategy)
			recordSession(true)
			return output, session, nil
		}

		var strategy Strategy
		if err != nil {
			record.Error = err.Error()
			record.Mode = FailureUnknown
			e.breaker.RecordFailure(key, err)
			if s, ok := classifyError(err); ok {
				strategy = s
			} else {
				strategy = errorProgression[attempt%len(errorProgression)]
			}
		} else {
			record.Mode = DetectFailureMode(current.Prompt, output)
			e.breaker.RecordFailure(key, fmt.Errorf("retry: unusable output: %s", record.Mode))
			strategy = SelectStrategy(record.Mode, attempt)
		}
		record.Strategy = strategy
		session.Attempts = append(session.Attempts, record)
		recordAttempt(record.Mode, strategy)
		e.recordStrategyUse(strategy)

		current = ApplyStrategy(strategy, req)
		lastStrategy = strategy
	}

	recordSession(false)
	return "", session, fmt.Errorf("retry: attempts exhausted after %d", e.maxAttempts)
}

// Session returns a finished or in-flight session by ID.
func (e *Engine) Session(id string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions.Get(id)
}

// StrategyStats copies the aggregate counters.
func (e *Engine) StrategyStats() map[Strategy]StrategyStat {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[Strategy]StrategyStat, len(e.stats))
	for k, v := range e.stats {
		out[k] = *v
	}
	return out
}

func (e *Engine) storeSession(s *Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sessions.Put(s.ID, s)
}

func (e *Engine) recordStrategyUse(s Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	stat, ok := e.stats[s]
	if !ok {
		stat = &StrategyStat{}
		e.stats[s] = stat
	}
	stat.Uses++
}

func (e *Engine) recordStrategyOutcome(s Strategy) {
	if s == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if stat, ok := e.stats[s]; ok {
		stat.Successes++
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
