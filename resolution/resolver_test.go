package resolution

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zolldyk/TippinBit-sub000/storage"
	tbtypes "github.com/Zolldyk/TippinBit-sub000/types"
)

const testAddress = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

type fakeLookup struct {
	mu    sync.Mutex
	resp  *tbtypes.LookupResponse
	err   error
	block chan struct{}
	calls []string
}

func (f *fakeLookup) Lookup(ctx context.Context, username string) (*tbtypes.LookupResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, username)
	resp, err, block := f.resp, f.err, f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *fakeLookup) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestResolver(lookup *fakeLookup) (*Resolver, *storage.SessionStore, *testClock) {
	cfg := &tbtypes.Config{LookupEndpoint: "http://127.0.0.1/api/resolve"}
	cfg.ApplyDefaults()

	store := storage.NewSessionStore()
	r := NewResolver(lookup, store, cfg, nil, nil)

	clock := &testClock{now: time.Now()}
	r.now = clock.Now
	return r, store, clock
}

func claimedResponse(username string) *tbtypes.LookupResponse {
	return &tbtypes.LookupResponse{
		Username:      username,
		WalletAddress: testAddress,
		ClaimedAt:     "2025-01-15T10:00:00Z",
	}
}

func TestShortIdentifierReturnsIdleWithoutNetworkCall(t *testing.T) {
	lookup := &fakeLookup{resp: claimedResponse("al")}
	r, _, _ := newTestResolver(lookup)
	ctx := context.Background()

	for _, id := range []string{"", "a", "al", "@al"} {
		result := r.Resolve(ctx, id)
		assert.Equal(t, tbtypes.ResolutionIdle, result.Status, "identifier %q", id)
	}
	assert.Zero(t, lookup.callCount())
}

func TestSuccessWritesSessionCacheEntry(t *testing.T) {
	lookup := &fakeLookup{resp: claimedResponse("testuser")}
	r, store, _ := newTestResolver(lookup)

	result := r.Resolve(context.Background(), "testuser")

	require.Equal(t, tbtypes.ResolutionSuccess, result.Status)
	assert.Equal(t, testAddress, result.Address)
	assert.Equal(t, "@testuser", result.Username)
	require.NotNil(t, result.ClaimedAt)
	assert.Equal(t, time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC), result.ClaimedAt.UTC())

	raw, ok := store.Get("username-resolution:testuser")
	require.True(t, ok, "cache entry must be written")

	var entry struct {
		Username  string `json:"username"`
		Address   string `json:"address"`
		Timestamp int64  `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))
	assert.Equal(t, "testuser", entry.Username)
	assert.Equal(t, testAddress, entry.Address)
	assert.NotZero(t, entry.Timestamp)
}

func TestCacheRoundTripWithTTLExpiry(t *testing.T) {
	lookup := &fakeLookup{resp: claimedResponse("alice")}
	r, _, clock := newTestResolver(lookup)
	ctx := context.Background()

	require.Equal(t, tbtypes.ResolutionSuccess, r.Resolve(ctx, "alice").Status)
	require.Equal(t, 1, lookup.callCount())

	// Within TTL: served from cache, zero additional network calls.
	clock.Advance(5*time.Minute - time.Millisecond)
	require.Equal(t, tbtypes.ResolutionSuccess, r.Resolve(ctx, "alice").Status)
	assert.Equal(t, 1, lookup.callCount())

	// Past TTL: exactly one new network call.
	clock.Advance(2 * time.Millisecond)
	require.Equal(t, tbtypes.ResolutionSuccess, r.Resolve(ctx, "alice").Status)
	assert.Equal(t, 2, lookup.callCount())
}

func TestSigilStrippedAndSharedCacheKey(t *testing.T) {
	lookup := &fakeLookup{resp: claimedResponse("alice")}
	r, _, _ := newTestResolver(lookup)
	ctx := context.Background()

	require.Equal(t, tbtypes.ResolutionSuccess, r.Resolve(ctx, "@alice").Status)
	require.Equal(t, tbtypes.ResolutionSuccess, r.Resolve(ctx, "alice").Status)

	lookup.mu.Lock()
	defer lookup.mu.Unlock()
	require.Len(t, lookup.calls, 1, "both forms must share one cache key")
	assert.Equal(t, "alice", lookup.calls[0], "lookup queried with the sigil-stripped identifier")
}

func TestCacheKeyLowercasedButQueryPreservesCase(t *testing.T) {
	lookup := &fakeLookup{resp: claimedResponse("Alice")}
	r, store, _ := newTestResolver(lookup)
	ctx := context.Background()

	require.Equal(t, tbtypes.ResolutionSuccess, r.Resolve(ctx, "@Alice").Status)

	lookup.mu.Lock()
	assert.Equal(t, "Alice", lookup.calls[0])
	lookup.mu.Unlock()

	_, ok := store.Get("username-resolution:alice")
	assert.True(t, ok, "cache key is lowercased")

	// The lowercase form hits the same entry.
	require.Equal(t, tbtypes.ResolutionSuccess, r.Resolve(ctx, "alice").Status)
	assert.Equal(t, 1, lookup.callCount())
}

func TestNotFoundIsNeverCached(t *testing.T) {
	lookup := &fakeLookup{err: tbtypes.NewTippinError(tbtypes.ErrLookupNotFound, "username not claimed")}
	r, store, _ := newTestResolver(lookup)
	ctx := context.Background()

	result := r.Resolve(ctx, "ghost")
	require.Equal(t, tbtypes.ResolutionNotFound, result.Status)
	assert.Equal(t, 0, store.Len(), "negative results must not be cached")

	// A later claim must resolve without waiting out any negative TTL.
	lookup.mu.Lock()
	lookup.err = nil
	lookup.resp = claimedResponse("ghost")
	lookup.mu.Unlock()

	result = r.Resolve(ctx, "ghost")
	assert.Equal(t, tbtypes.ResolutionSuccess, result.Status)
	assert.Equal(t, 2, lookup.callCount())
}

func TestLookupErrorSurfaced(t *testing.T) {
	lookup := &fakeLookup{err: tbtypes.NewTippinError(tbtypes.ErrLookupNetworkError, "lookup failed after 3 attempts")}
	r, _, _ := newTestResolver(lookup)

	result := r.Resolve(context.Background(), "alice")
	require.Equal(t, tbtypes.ResolutionError, result.Status)
	require.NotNil(t, result.Err)
	assert.Equal(t, tbtypes.ErrLookupNetworkError, result.Err.Code)
}

func TestErrorsAreNotCached(t *testing.T) {
	lookup := &fakeLookup{err: tbtypes.NewTippinError(tbtypes.ErrLookupNetworkError, "down")}
	r, _, _ := newTestResolver(lookup)
	ctx := context.Background()

	require.Equal(t, tbtypes.ResolutionError, r.Resolve(ctx, "alice").Status)

	lookup.mu.Lock()
	lookup.err = nil
	lookup.resp = claimedResponse("alice")
	lookup.mu.Unlock()

	assert.Equal(t, tbtypes.ResolutionSuccess, r.Resolve(ctx, "alice").Status)
}

func TestConcurrentResolutionsShareOneRequest(t *testing.T) {
	block := make(chan struct{})
	lookup := &fakeLookup{resp: claimedResponse("alice"), block: block}
	r, _, _ := newTestResolver(lookup)
	ctx := context.Background()

	const n = 8
	results := make(chan tbtypes.ResolutionResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- r.Resolve(ctx, "alice")
		}()
	}

	require.Eventually(t, func() bool { return lookup.callCount() >= 1 },
		time.Second, time.Millisecond)
	close(block)
	wg.Wait()
	close(results)

	for result := range results {
		assert.Equal(t, tbtypes.ResolutionSuccess, result.Status)
	}
	assert.Equal(t, 1, lookup.callCount(), "in-flight requests must be de-duplicated")
}

func TestExpiredEntryOverwritten(t *testing.T) {
	lookup := &fakeLookup{resp: claimedResponse("alice")}
	r, store, clock := newTestResolver(lookup)
	ctx := context.Background()

	require.Equal(t, tbtypes.ResolutionSuccess, r.Resolve(ctx, "alice").Status)
	first, _ := store.Get("username-resolution:alice")

	clock.Advance(6 * time.Minute)
	require.Equal(t, tbtypes.ResolutionSuccess, r.Resolve(ctx, "alice").Status)
	second, _ := store.Get("username-resolution:alice")

	assert.NotEqual(t, first, second, "refresh must overwrite the expired entry")
}
