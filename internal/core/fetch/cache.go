// Package fetch wraps outbound JSON GETs with an in-memory freshness cache,
// a shared rate gate and a hard per-request deadline.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultFreshness = 5 * time.Minute
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "AnimeVerse/3.0"
)

// Gate delays the caller until one more request may be issued.
type Gate interface {
	Acquire()
}

// Recorder receives cache and upstream outcomes for metrics.
type Recorder interface {
	CacheLookup(cache string, hit bool)
	Upstream(cache string, kind Kind, elapsed time.Duration)
}

// Entry is one stored response, keyed by the full request URL.
type Entry struct {
	Key      string
	Payload  any
	Raw      json.RawMessage
	StoredAt time.Time
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries  int    `json:"entries"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
	Requests uint64 `json:"requests"`
	Failures uint64 `json:"failures"`
}

// Cache deduplicates and throttles JSON GETs against one base URL.
//
// The zero value is usable once BaseURL is set. Concurrent misses for the
// same key each issue their own request and the last store wins, unless
// Dedupe is set.
type Cache struct {
	Name       string
	BaseURL    string
	UserAgent  string
	Client     *http.Client
	Gate       Gate
	Freshness  time.Duration
	Timeout    time.Duration
	MaxEntries int
	Dedupe     bool
	Clock      func() time.Time
	Logger     *logging.Logger
	Recorder   Recorder

	mu      sync.Mutex
	entries map[string]*Entry
	group   singleflight.Group
	stats   Stats
}

// Key returns the cache key for endpoint.
func (c *Cache) Key(endpoint string) string {
	return c.BaseURL + endpoint
}

// Get returns the decoded JSON payload for endpoint.
func (c *Cache) Get(ctx context.Context, endpoint string) (any, error) {
	entry, err := c.GetEntry(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return entry.Payload, nil
}

// GetJSON decodes the response for endpoint into out.
func (c *Cache) GetJSON(ctx context.Context, endpoint string, out any) error {
	entry, err := c.GetEntry(ctx, endpoint)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(entry.Raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", entry.Key, err)
	}
	return nil
}

// GetEntry returns the stored entry for endpoint, fetching it on a miss.
func (c *Cache) GetEntry(ctx context.Context, endpoint string) (*Entry, error) {
	if c == nil {
		return nil, errors.New("fetch cache is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key := c.Key(endpoint)
	if entry, ok := c.lookup(key); ok {
		c.recordLookup(true)
		c.debug("Cache hit", zap.String("key", key))
		return entry, nil
	}
	c.recordLookup(false)

	if !c.Dedupe {
		return c.fetch(ctx, key)
	}

	// The shared request outlives any one caller; only Timeout bounds it.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if entry, ok := c.lookup(key); ok {
			return entry, nil
		}
		return c.fetch(shared, key)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.debug("Joined in-flight request", zap.String("key", key))
		}
		return res.Val.(*Entry), nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{URL: key, Timeout: c.timeout()}
		}
		return nil, &TransportError{URL: key, Err: ctx.Err()}
	}
}

// Peek returns the stored entry for endpoint regardless of freshness.
func (c *Cache) Peek(endpoint string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[c.Key(endpoint)]
	return entry, ok
}

// Len returns the number of stored entries, stale ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge removes stale entries and returns how many were dropped.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if !c.fresh(entry, now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// StartJanitor runs Purge every interval until ctx is done.
func (c *Cache) StartJanitor(ctx context.Context, interval time.Duration) {
	if c == nil || interval <= 0 {
		return
	}

	t := time.NewTicker(interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if removed := c.Purge(); removed > 0 {
					c.debug("Purged stale entries", zap.Int("removed", removed))
				}
			}
		}
	}()
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Entries = len(c.entries)
	return stats
}

func (c *Cache) lookup(key string) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || !c.fresh(entry, c.now()) {
		return nil, false
	}
	return entry, true
}

func (c *Cache) fetch(ctx context.Context, key string) (*Entry, error) {
	if c.Gate != nil {
		c.Gate.Acquire()
	}

	timeout := c.timeout()
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, key, nil)
	if err != nil {
		return nil, c.fail(key, &TransportError{URL: key, Err: err}, 0)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent())

	start := time.Now()
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, c.fail(key, c.classify(ctx, reqCtx, key, timeout, err), time.Since(start))
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, c.fail(key, &HTTPError{URL: key, Status: resp.StatusCode}, time.Since(start))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(key, c.classify(ctx, reqCtx, key, timeout, err), time.Since(start))
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, c.fail(key, &TransportError{URL: key, Err: fmt.Errorf("decode response: %w", err)}, time.Since(start))
	}

	entry := &Entry{
		Key:      key,
		Payload:  payload,
		Raw:      json.RawMessage(body),
		StoredAt: c.now(),
	}
	c.store(entry)

	c.recordUpstream(KindNone, time.Since(start))
	c.debug("Fetched", zap.String("key", key), zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))
	return entry, nil
}

func (c *Cache) store(entry *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries == nil {
		c.entries = make(map[string]*Entry)
	}
	if _, exists := c.entries[entry.Key]; !exists && c.MaxEntries > 0 && len(c.entries) >= c.MaxEntries {
		c.evictOldest()
	}
	c.entries[entry.Key] = entry
	c.stats.Requests++
}

// evictOldest drops the entry with the earliest StoredAt. Caller holds mu.
func (c *Cache) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
	)
	for key, entry := range c.entries {
		if oldestKey == "" || entry.StoredAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.StoredAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *Cache) classify(parent, reqCtx context.Context, key string, timeout time.Duration, err error) error {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) || errors.Is(parent.Err(), context.DeadlineExceeded) {
		return &TimeoutError{URL: key, Timeout: timeout}
	}
	return &TransportError{URL: key, Err: err}
}

func (c *Cache) fail(key string, err error, elapsed time.Duration) error {
	c.mu.Lock()
	c.stats.Requests++
	c.stats.Failures++
	c.mu.Unlock()

	c.recordUpstream(KindOf(err), elapsed)
	c.debug("Fetch failed", zap.String("key", key), zap.String("kind", string(KindOf(err))), zap.Error(err))
	return err
}

func (c *Cache) fresh(entry *Entry, now time.Time) bool {
	return entry != nil && now.Sub(entry.StoredAt) < c.freshness()
}

func (c *Cache) recordLookup(hit bool) {
	c.mu.Lock()
	if hit {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	c.mu.Unlock()

	if c.Recorder != nil {
		c.Recorder.CacheLookup(c.Name, hit)
	}
}

func (c *Cache) recordUpstream(kind Kind, elapsed time.Duration) {
	if c.Recorder != nil {
		c.Recorder.Upstream(c.Name, kind, elapsed)
	}
}

func (c *Cache) debug(msg string, fields ...zap.Field) {
	if c.Logger == nil {
		return
	}
	if c.Name != "" {
		fields = append(fields, zap.String("cache", c.Name))
	}
	c.Logger.Debug(msg, fields...)
}

func (c *Cache) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

func (c *Cache) userAgent() string {
	if c.UserAgent != "" {
		return c.UserAgent
	}
	return DefaultUserAgent
}

func (c *Cache) freshness() time.Duration {
	if c.Freshness > 0 {
		return c.Freshness
	}
	return DefaultFreshness
}

func (c *Cache) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c *Cache) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
