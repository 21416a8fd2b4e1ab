package usecase

import (
	"context"
	"encoding/json"
	"time"

	"StockPulse/internal/domain/repository"
	"StockPulse/internal/service/cache"
	"StockPulse/internal/service/retry"
	applogger "StockPulse/pkg/logger"
)

// Provenance tells where a resolved value came from.
type Provenance string

const (
	ProvenanceCached Provenance = "cached"
	ProvenanceLive   Provenance = "live"
	ProvenanceStale  Provenance = "stale"
	ProvenanceMock   Provenance = "mock"
)

// Result is a resolved value with its provenance.
type Result[T any] struct {
	Value      T
	Provenance Provenance
}

const defaultMirrorTimeout = 500 * time.Millisecond

// Resolver implements the fresh-cache, live, stale-cache, mock chain shared by every operation.
type Resolver struct {
	store         *cache.Store
	mirror        cache.Mirror
	mirrorTTL     time.Duration
	mirrorTimeout time.Duration
	budget        time.Duration
	policy        retry.Policy
	metrics       repository.Metrics
	log           *applogger.Logger
}

// ResolverOption configures Resolver.
type ResolverOption func(*Resolver)

// WithMirror adds a shared stale tier. Live payloads are copied to it with ttl.
func WithMirror(m cache.Mirror, ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.mirror = m
		r.mirrorTTL = ttl
	}
}

// WithMirrorTimeout bounds each mirror read or write.
func WithMirrorTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.mirrorTimeout = d
		}
	}
}

// WithBudget bounds the live path of each resolution. When it runs out the resolver falls
// through to stale and mock data. Zero leaves live bounded only by the caller's context.
func WithBudget(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.budget = d
		}
	}
}

func NewResolver(store *cache.Store, policy retry.Policy, metrics repository.Metrics, l *applogger.Logger, opts ...ResolverOption) *Resolver {
	if l == nil {
		l = applogger.NewNop()
	}
	r := &Resolver{
		store:         store,
		mirrorTimeout: defaultMirrorTimeout,
		policy:        policy,
		metrics:       metrics,
		log:           l.With(applogger.String("component", "resolver")),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.policy.Logger == nil {
		r.policy.Logger = r.log
	}
	return r
}

// Resolve returns a fresh cached value if there is one, otherwise runs live under the retry
// policy and caches its result. When live fails it serves the last stored value regardless of
// age, then the mirror, then mock(). Mock values are never cached. Resolve never fails.
func Resolve[T any](ctx context.Context, r *Resolver, op string, ns cache.Namespace, key string,
	live func(ctx context.Context) (T, error), mock func() T) Result[T] {
	start := time.Now()
	res := resolve(ctx, r, op, ns, key, live, mock)
	if r.metrics != nil {
		r.metrics.RecordResolution(op, string(res.Provenance))
		r.metrics.RecordLatency(op, time.Since(start).Seconds())
	}
	return res
}

func resolve[T any](ctx context.Context, r *Resolver, op string, ns cache.Namespace, key string,
	live func(ctx context.Context) (T, error), mock func() T) Result[T] {
	if b, found, expired := r.store.Get(ns, key); found && !expired {
		v, err := decode[T](b)
		if err == nil {
			return Result[T]{Value: v, Provenance: ProvenanceCached}
		}
		r.log.Warn("discarding undecodable cache entry", applogger.String("key", key), applogger.Error(err))
	}

	v, err := runLive(ctx, r, live)
	if err == nil {
		r.remember(ctx, ns, key, v)
		return Result[T]{Value: v, Provenance: ProvenanceLive}
	}

	if r.metrics != nil {
		r.metrics.RecordUpstreamError(repository.ErrorKind(err))
	}
	r.log.Error("live fetch failed", applogger.String("op", op), applogger.String("key", key), applogger.Error(err))

	if b, found, _ := r.store.Get(ns, key); found {
		if v, derr := decode[T](b); derr == nil {
			r.log.Warn("serving stale cache entry", applogger.String("op", op), applogger.String("key", key))
			return Result[T]{Value: v, Provenance: ProvenanceStale}
		}
	}

	if b, ok := r.mirrorBytes(ctx, ns, key); ok {
		v, derr := decode[T](b)
		if derr == nil {
			r.log.Warn("serving stale mirror entry", applogger.String("op", op), applogger.String("key", key))
			return Result[T]{Value: v, Provenance: ProvenanceStale}
		}
		r.forgetMirror(ctx, ns, key, derr)
	}

	r.log.Warn("serving mock data", applogger.String("op", op), applogger.String("key", key))
	return Result[T]{Value: mock(), Provenance: ProvenanceMock}
}

// runLive runs live under the retry policy, bounded by the resolver budget.
func runLive[T any](ctx context.Context, r *Resolver, live func(ctx context.Context) (T, error)) (T, error) {
	if r.budget <= 0 {
		return retry.Do(ctx, r.policy, live)
	}
	lctx, cancel := context.WithTimeout(ctx, r.budget)
	defer cancel()
	return retry.Do(lctx, r.policy, live)
}

func (r *Resolver) remember(ctx context.Context, ns cache.Namespace, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		r.log.Error("encode payload", applogger.String("key", key), applogger.Error(err))
		return
	}
	r.store.Put(ns, key, b)

	if r.mirror == nil {
		return
	}
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.mirrorTimeout)
	defer cancel()
	if err := r.mirror.SetBytes(mctx, cache.MirrorKey(ns, key), b, r.mirrorTTL); err != nil {
		r.log.Warn("mirror write failed", applogger.String("key", key), applogger.Error(err))
	}
}

func (r *Resolver) mirrorBytes(ctx context.Context, ns cache.Namespace, key string) ([]byte, bool) {
	if r.mirror == nil {
		return nil, false
	}
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.mirrorTimeout)
	defer cancel()

	b, ok, err := r.mirror.GetBytes(mctx, cache.MirrorKey(ns, key))
	if err != nil {
		r.log.Warn("mirror read failed", applogger.String("key", key), applogger.Error(err))
		return nil, false
	}
	return b, ok
}

func (r *Resolver) forgetMirror(ctx context.Context, ns cache.Namespace, key string, cause error) {
	r.log.Warn("dropping undecodable mirror entry", applogger.String("key", key), applogger.Error(cause))
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.mirrorTimeout)
	defer cancel()
	if err := r.mirror.Delete(mctx, cache.MirrorKey(ns, key)); err != nil {
		r.log.Warn("mirror delete failed", applogger.String("key", key), applogger.Error(err))
	}
}

func decode[T any](b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, err
}
