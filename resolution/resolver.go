// Package resolution resolves human-readable usernames to recipient
// addresses through a read-through, TTL-bound session cache.
package resolution

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Zolldyk/TippinBit-sub000/clients"
	"github.com/Zolldyk/TippinBit-sub000/logger"
	"github.com/Zolldyk/TippinBit-sub000/metrics"
	"github.com/Zolldyk/TippinBit-sub000/storage"
	tbtypes "github.com/Zolldyk/TippinBit-sub000/types"
)

const cacheKeyPrefix = "username-resolution:"

// cacheEntry is the JSON value stored under a resolution cache key.
// Timestamp is unix milliseconds at write time.
type cacheEntry struct {
	Username  string `json:"username"`
	Address   string `json:"address"`
	ClaimedAt string `json:"claimedAt,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Resolver fronts the lookup collaborator with a session-scoped cache.
// Concurrent resolutions of the same identifier share one in-flight request.
type Resolver struct {
	lookup    clients.LookupSource
	store     storage.Store
	ttl       time.Duration
	minLength int

	group singleflight.Group
	log   logger.Logger
	rec   metrics.Recorder
	now   func() time.Time
}

func NewResolver(lookup clients.LookupSource, store storage.Store, cfg *tbtypes.Config, log logger.Logger, rec metrics.Recorder) *Resolver {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}

	return &Resolver{
		lookup:    lookup,
		store:     store,
		ttl:       cfg.CacheTTL,
		minLength: cfg.MinIdentifierLength,
		log:       log,
		rec:       rec,
		now:       time.Now,
	}
}

// Normalize strips a single leading sigil. The lookup API is queried with
// this form; lowercasing is applied for cache-key purposes only.
func Normalize(identifier string) string {
	return strings.TrimPrefix(identifier, "@")
}

// CacheKey returns the session-store key for an identifier.
func CacheKey(identifier string) string {
	return cacheKeyPrefix + strings.ToLower(Normalize(identifier))
}

// Resolve looks the identifier up, serving from cache while the entry is
// fresh. Identifiers shorter than the minimum never reach the network and
// yield idle. A not-found outcome is never cached.
func (r *Resolver) Resolve(ctx context.Context, identifier string) tbtypes.ResolutionResult {
	raw := Normalize(identifier)
	if len(raw) < r.minLength {
		return tbtypes.ResolutionResult{Status: tbtypes.ResolutionIdle}
	}

	key := CacheKey(identifier)
	if entry, ok := r.readFresh(key); ok {
		r.rec.IncCounter("resolution_cache", map[string]string{"outcome": "hit"})
		return r.successResult(entry)
	}
	r.rec.IncCounter("resolution_cache", map[string]string{"outcome": "miss"})

	// singleflight keyed on the cache key: overlapping resolutions of the
	// same identifier share one network request.
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		started := r.now()
		resp, err := r.lookup.Lookup(ctx, raw)
		r.rec.ObserveLatency("lookup", r.now().Sub(started), map[string]string{"outcome": metrics.Outcome(err)})
		if err != nil {
			return nil, err
		}

		entry := cacheEntry{
			Username:  resp.Username,
			Address:   resp.WalletAddress,
			ClaimedAt: resp.ClaimedAt,
			Timestamp: r.now().UnixMilli(),
		}
		if data, err := json.Marshal(entry); err == nil {
			r.store.Set(key, string(data))
		}
		return entry, nil
	})

	if err != nil {
		return r.failureResult(raw, err)
	}

	return r.successResult(v.(cacheEntry))
}

// readFresh returns the cached entry if present and within TTL. Expired
// entries are treated as misses and left for the next write to overwrite.
func (r *Resolver) readFresh(key string) (cacheEntry, bool) {
	var entry cacheEntry

	value, ok := r.store.Get(key)
	if !ok {
		return entry, false
	}
	if err := json.Unmarshal([]byte(value), &entry); err != nil {
		return entry, false
	}

	age := r.now().UnixMilli() - entry.Timestamp
	if age >= r.ttl.Milliseconds() {
		return entry, false
	}

	return entry, true
}

func (r *Resolver) successResult(entry cacheEntry) tbtypes.ResolutionResult {
	result := tbtypes.ResolutionResult{
		Status:   tbtypes.ResolutionSuccess,
		Address:  entry.Address,
		Username: "@" + entry.Username,
	}

	if entry.ClaimedAt != "" {
		if t, err := time.Parse(time.RFC3339, entry.ClaimedAt); err == nil {
			result.ClaimedAt = &t
		}
	}

	return result
}

func (r *Resolver) failureResult(raw string, err error) tbtypes.ResolutionResult {
	var te *tbtypes.TippinError
	if errors.As(err, &te) && te.Code == tbtypes.ErrLookupNotFound {
		r.log.Debug("username not claimed", map[string]any{"username": raw})
		return tbtypes.ResolutionResult{Status: tbtypes.ResolutionNotFound, Err: te}
	}

	r.log.Warn("username lookup failed", map[string]any{"username": raw, "error": err.Error()})
	if te == nil {
		te = tbtypes.NewTippinError(tbtypes.ErrLookupNetworkError, err.Error())
	}
	return tbtypes.ResolutionResult{Status: tbtypes.ResolutionError, Err: te}
}
