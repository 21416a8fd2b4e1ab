package usecase

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"StockPulse/internal/service/cache"
	"StockPulse/internal/service/retry"
	applogger "StockPulse/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock(t time.Time) *testClock { return &testClock{t: t} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type resolutionRecorder struct {
	mu          sync.Mutex
	provenances []string
	errorKinds  []string
}

func (r *resolutionRecorder) RecordResolution(_, provenance string) {
	r.mu.Lock()
	r.provenances = append(r.provenances, provenance)
	r.mu.Unlock()
}

func (r *resolutionRecorder) RecordUpstreamError(kind string) {
	r.mu.Lock()
	r.errorKinds = append(r.errorKinds, kind)
	r.mu.Unlock()
}

func (r *resolutionRecorder) RecordLatency(string, float64) {}
func (r *resolutionRecorder) RecordCacheSweep(int) {}

type memMirror struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemMirror() *memMirror { return &memMirror{data: map[string][]byte{}} }

func (m *memMirror) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, false, m.err
	}
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *memMirror) SetBytes(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *memMirror) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// hangingLive blocks until its context ends, like a provider that never answers.
func hangingLive(calls *int) func(context.Context) (payload, error) {
	return func(ctx context.Context) (payload, error) {
		*calls++
		<-ctx.Done()
		return payload{}, ctx.Err()
	}
}

func quickPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

type payload struct {
	Value  int    `json:"value"`
	Source string `json:"source"`
}

func newTestResolver(clk *testClock, rec *resolutionRecorder, opts ...ResolverOption) (*Resolver, *cache.Store) {
	store := cache.NewStore(cache.WithClock(clk.Now))
	return NewResolver(store, quickPolicy(), rec, applogger.NewNop(), opts...), store
}

func liveValue(v int) func(context.Context) (payload, error) {
	return func(context.Context) (payload, error) { return payload{Value: v, Source: "live"}, nil }
}

func liveFailure(calls *int) func(context.Context) (payload, error) {
	return func(context.Context) (payload, error) {
		*calls++
		return payload{}, errors.New("upstream down")
	}
}

func mockValue() payload { return payload{Value: -1, Source: "mock"} }

func TestResolveLiveThenCached(t *testing.T) {
	clk := newTestClock(time.Date(2024, 5, 14, 14, 0, 0, 0, time.UTC))
	rec := &resolutionRecorder{}
	r, store := newTestResolver(clk, rec)
	ctx := context.Background()

	res := Resolve(ctx, r, "details", cache.Realtime, "details:AAPL", liveValue(1), mockValue)
	assert.Equal(t, ProvenanceLive, res.Provenance)
	assert.Equal(t, 1, res.Value.Value)
	assert.Equal(t, 1, store.Len(cache.Realtime))

	clk.Advance(10 * time.Second)
	res = Resolve(ctx, r, "details", cache.Realtime, "details:AAPL", liveValue(2), mockValue)
	assert.Equal(t, ProvenanceCached, res.Provenance)
	assert.Equal(t, 1, res.Value.Value)

	assert.Equal(t, []string{"live", "cached"}, rec.provenances)
}

func TestResolveRefreshesExpiredEntry(t *testing.T) {
	clk := newTestClock(time.Date(2024, 5, 14, 14, 0, 0, 0, time.UTC))
	r, _ := newTestResolver(clk, &resolutionRecorder{})
	ctx := context.Background()

	Resolve(ctx, r, "details", cache.Realtime, "details:AAPL", liveValue(1), mockValue)
	clk.Advance(30 * time.Second)

	res := Resolve(ctx, r, "details", cache.Realtime, "details:AAPL", liveValue(2), mockValue)
	assert.Equal(t, ProvenanceLive, res.Provenance)
	assert.Equal(t, 2, res.Value.Value)
}

func TestResolvePrefersStaleOverMock(t *testing.T) {
	clk := newTestClock(time.Date(2024, 5, 14, 14, 0, 0, 0, time.UTC))
	rec := &resolutionRecorder{}
	r, _ := newTestResolver(clk, rec)
	ctx := context.Background()

	Resolve(ctx, r, "details", cache.Realtime, "details:AAPL", liveValue(7), mockValue)
	clk.Advance(24 * time.Hour)

	calls := 0
	res := Resolve(ctx, r, "details", cache.Realtime, "details:AAPL", liveFailure(&calls), mockValue)
	assert.Equal(t, ProvenanceStale, res.Provenance)
	assert.Equal(t, payload{Value: 7, Source: "live"}, res.Value)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"other"}, rec.errorKinds)
}

func TestResolveFallsBackToMock(t *testing.T) {
	clk := newTestClock(time.Date(2024, 5, 14, 14, 0, 0, 0, time.UTC))
	r, store := newTestResolver(clk, &resolutionRecorder{})

	calls := 0
	res := Resolve(context.Background(), r, "details", cache.Realtime, "details:ZZZZ", liveFailure(&calls), mockValue)
	assert.Equal(t, ProvenanceMock, res.Provenance)
	assert.Equal(t, mockValue(), res.Value)
	assert.Zero(t, store.Len(cache.Realtime), "mock payloads are not cached")
}

func TestResolveIsByteIdenticalWhileUpstreamDown(t *testing.T) {
	clk := newTestClock(time.Date(2024, 5, 14, 14, 0, 0, 0, time.UTC))
	r, store := newTestResolver(clk, &resolutionRecorder{})
	ctx := context.Background()

	Resolve(ctx, r, "movers", cache.Market, "movers:5", liveValue(3), mockValue)
	first, _, _ := store.Get(cache.Market, "movers:5")

	calls := 0
	a := Resolve(ctx, r, "movers", cache.Market, "movers:5", liveFailure(&calls), mockValue)
	b := Resolve(ctx, r, "movers", cache.Market, "movers:5", liveFailure(&calls), mockValue)
	assert.Equal(t, a, b)
	assert.Zero(t, calls, "fresh entry served without touching upstream")

	clk.Advance(2 * time.Minute)
	c := Resolve(ctx, r, "movers", cache.Market, "movers:5", liveFailure(&calls), mockValue)
	assert.Equal(t, ProvenanceStale, c.Provenance)
	assert.Equal(t, a.Value, c.Value)

	after, _, _ := store.Get(cache.Market, "movers:5")
	assert.True(t, bytes.Equal(first, after))
}

func TestResolveUsesMirrorAfterLocalMiss(t *testing.T) {
	clk := newTestClock(time.Date(2024, 5, 14, 14, 0, 0, 0, time.UTC))
	mirror := newMemMirror()

	warm, _ := newTestResolver(clk, &resolutionRecorder{}, WithMirror(mirror, time.Hour))
	Resolve(context.Background(), warm, "details", cache.Realtime, "details:MSFT", liveValue(9), mockValue)
	require.Contains(t, mirror.data, "realtime:details:MSFT")

	cold, store := newTestResolver(clk, &resolutionRecorder{}, WithMirror(mirror, time.Hour))
	calls := 0
	res := Resolve(context.Background(), cold, "details", cache.Realtime, "details:MSFT", liveFailure(&calls), mockValue)
	assert.Equal(t, ProvenanceStale, res.Provenance)
	assert.Equal(t, 9, res.Value.Value)
	assert.Zero(t, store.Len(cache.Realtime))
}

func TestResolveIgnoresMirrorErrors(t *testing.T) {
	clk := newTestClock(time.Date(2024, 5, 14, 14, 0, 0, 0, time.UTC))
	mirror := newMemMirror()
	mirror.err = errors.New("connection refused")
	r, _ := newTestResolver(clk, &resolutionRecorder{}, WithMirror(mirror, time.Hour))

	res := Resolve(context.Background(), r, "details", cache.Realtime, "details:MSFT", liveValue(4), mockValue)
	assert.Equal(t, ProvenanceLive, res.Provenance)

	calls := 0
	res = Resolve(context.Background(), r, "details", cache.Realtime, "details:IBM", liveFailure(&calls), mockValue)
	assert.Equal(t, ProvenanceMock, res.Provenance)
}

func TestResolveLogsDegradation(t *testing.T) {
	var buf bytes.Buffer
	clk := newTestClock(time.Date(2024, 5, 14, 14, 0, 0, 0, time.UTC))
	store := cache.NewStore(cache.WithClock(clk.Now))
	r := NewResolver(store, quickPolicy(), nil, applogger.NewWithWriter(&buf, zerolog.DebugLevel))

	calls := 0
	Resolve(context.Background(), r, "details", cache.Realtime, "details:X", liveFailure(&calls), mockValue)
	assert.Contains(t, buf.String(), "serving mock data")
	assert.Contains(t, buf.String(), "live fetch failed")
}

func TestResolveDropsUndecodableMirrorEntry(t *testing.T) {
	clk := newTestClock(time.Date(2024, 5, 14, 14, 0, 0, 0, time.UTC))
	mirror := newMemMirror()
	mirror.data["realtime:details:BAD"] = []byte("{not json")
	r, _ := newTestResolver(clk, &resolutionRecorder{}, WithMirror(mirror, time.Hour))

	calls := 0
	res := Resolve(context.Background(), r, "details", cache.Realtime, "details:BAD", liveFailure(&calls), mockValue)
	assert.Equal(t, ProvenanceMock, res.Provenance)
	assert.NotContains(t, mirror.data, "realtime:details:BAD")
}

func TestResolveBudgetBoundsHungUpstream(t *testing.T) {
	clk := newTestClock(time.Date(2024, 5, 14, 14, 0, 0, 0, time.UTC))
	policy := retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	store := cache.NewStore(cache.WithClock(clk.Now))
	r := NewResolver(store, policy, nil, applogger.NewNop(), WithBudget(50*time.Millisecond))

	calls := 0
	start := time.Now()
	res := Resolve(context.Background(), r, "movers", cache.Market, "movers:5", hangingLive(&calls), mockValue)
	elapsed := time.Since(start)

	assert.Equal(t, ProvenanceMock, res.Provenance)
	assert.Equal(t, mockValue(), res.Value)
	assert.Equal(t, 1, calls, "no attempt starts once the budget is spent")
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestResolveBudgetServesStaleWhenUpstreamHangs(t *testing.T) {
	clk := newTestClock(time.Date(2024, 5, 14, 14, 0, 0, 0, time.UTC))
	r, _ := newTestResolver(clk, &resolutionRecorder{}, WithBudget(30*time.Millisecond))
	ctx := context.Background()

	Resolve(ctx, r, "details", cache.Realtime, "details:AAPL", liveValue(5), mockValue)
	clk.Advance(time.Hour)

	calls := 0
	res := Resolve(ctx, r, "details", cache.Realtime, "details:AAPL", hangingLive(&calls), mockValue)
	assert.Equal(t, ProvenanceStale, res.Provenance)
	assert.Equal(t, 5, res.Value.Value)
}
