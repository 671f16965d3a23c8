package embed

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout bounds each remote embedding call.
const DefaultTimeout = 5 * time.Second

// Resilient tries a remote Embedder under a bounded timeout and rate limit,
// falling back to the deterministic hash embedder on any failure. Its Embed
// never returns an error and always yields vectors of the fallback's
// dimensionality, in input order.
type Resilient struct {
	remote   Embedder
	fallback *HashEmbedder
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// ResilientOption configures a Resilient embedder.
type ResilientOption func(*Resilient)

// WithTimeout overrides the per-call remote timeout.
func WithTimeout(d time.Duration) ResilientOption {
	return func(r *Resilient) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRateLimit caps remote calls at rps per second with the given burst.
func WithRateLimit(rps float64, burst int) ResilientOption {
	return func(r *Resilient) {
		if rps > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithLogger sets the logger used to report fallback degradations.
func WithLogger(l *slog.Logger) ResilientOption {
	return func(r *Resilient) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResilient wraps remote with fallback behaviour. remote may be nil, in
// which case every call uses the hash embedder directly.
func NewResilient(remote Embedder, dimension int, opts ...ResilientOption) *Resilient {
	r := &Resilient{
		remote:   remote,
		fallback: NewHashEmbedder(dimension),
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dimension returns the fixed vector length of every result.
func (r *Resilient) Dimension() int { return r.fallback.Dimension() }

// Embed returns one vector per input text, in order. Remote failures,
// timeouts, and dimension mismatches all degrade to the hash fallback.
func (r *Resilient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if r.remote == nil {
		return r.fallback.Embed(ctx, texts)
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return r.fallback.Embed(context.Background(), texts)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	vecs, err := r.remote.Embed(callCtx, texts)
	if err != nil || len(vecs) != len(texts) {
		r.logger.Debug("embed: remote unavailable, using hash fallback", "error", err)
		return r.fallback.Embed(context.Background(), texts)
	}
	for _, v := range vecs {
		if len(v) != r.fallback.Dimension() {
			r.logger.Debug("embed: dimension mismatch, using hash fallback",
				"got", len(v), "want", r.fallback.Dimension())
			return r.fallback.Embed(context.Background(), texts)
		}
	}
	return vecs, nil
}
