package cache

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultTTL is the freshness window applied when no TTL is configured.
// 5 minutes matches the bulk-scan pattern: repeated reads of the same
// content within one operation, stale data tolerated across operations.
const DefaultTTL = 5 * time.Minute

// entry is one cached response body
type entry struct {
	payload  []byte
	storedAt time.Time
	ttl      time.Duration
}

// Stats is a read-only view of the cache contents for diagnostics
type Stats struct {
	Entries    int     `json:"entries"`
	SizeBytes  int64   `json:"size_bytes"`
	SizeMB     float64 `json:"size_mb"`
	TTLSeconds int     `json:"ttl_seconds"`
}

// Manager is an in-memory TTL cache for HTTP response bodies, keyed by
// request signature. It is safe for concurrent use from multiple
// goroutines driving clients for different sites. Caching is a performance
// optimization only: a miss is a normal outcome, never an error.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	logger  *log.Logger

	// now is swapped out by tests to control expiry
	now func() time.Time
}

// NewManager creates a cache manager with the given default TTL.
// A zero or negative ttl falls back to DefaultTTL.
func NewManager(ttl time.Duration, logger *log.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		entries: make(map[string]entry),
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Key derives a deterministic cache key from the request signature.
// Query parameters are sorted so that logically identical requests hit the
// same entry regardless of parameter order, and keys and values are
// escaped so a value containing "&" or "=" cannot collide with a
// structurally different request. The site identity is kept as a plaintext
// prefix so a whole site's entries can be invalidated together.
func Key(siteID, method, endpoint string, params url.Values) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteByte(' ')
	b.WriteString(endpoint)

	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			vals := append([]string(nil), params[k]...)
			sort.Strings(vals)
			for _, v := range vals {
				b.WriteByte('&')
				b.WriteString(url.QueryEscape(k))
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(v))
			}
		}
	}

	sum := md5.Sum([]byte(b.String()))
	return siteID + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached payload for key, or ok=false on a miss.
// Expired entries are evicted lazily here.
func (m *Manager) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	e, found := m.entries[key]
	m.mu.RUnlock()

	if !found {
		return nil, false
	}

	if m.now().Sub(e.storedAt) >= e.ttl {
		m.mu.Lock()
		// Re-check under the write lock; another goroutine may have refreshed it
		if cur, still := m.entries[key]; still && m.now().Sub(cur.storedAt) >= cur.ttl {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		if m.logger != nil {
			m.logger.Debug("cache entry expired", "key", key)
		}
		return nil, false
	}

	return e.payload, true
}

// Set stores payload under key with the manager's default TTL
func (m *Manager) Set(key string, payload []byte) {
	m.SetWithTTL(key, payload, m.ttl)
}

// SetWithTTL stores payload under key with an explicit TTL
func (m *Manager) SetWithTTL(key string, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.ttl
	}
	m.mu.Lock()
	m.entries[key] = entry{payload: payload, storedAt: m.now(), ttl: ttl}
	m.mu.Unlock()
}

// Invalidate removes a single entry
func (m *Manager) Invalidate(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// InvalidateSite removes every entry belonging to siteID. Called after any
// mutating request, since there is no general way to know which cached reads
// a write made stale.
func (m *Manager) InvalidateSite(siteID string) {
	prefix := siteID + ":"
	m.mu.Lock()
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	m.mu.Unlock()
	if m.logger != nil {
		m.logger.Debug("invalidated site cache", "site", siteID)
	}
}

// Clear drops all entries
func (m *Manager) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]entry)
	m.mu.Unlock()
}

// CleanupExpired sweeps expired entries and returns how many were removed
func (m *Manager) CleanupExpired() int {
	now := m.now()
	removed := 0
	m.mu.Lock()
	for k, e := range m.entries {
		if now.Sub(e.storedAt) >= e.ttl {
			delete(m.entries, k)
			removed++
		}
	}
	m.mu.Unlock()
	if removed > 0 && m.logger != nil {
		m.logger.Debug("swept expired cache entries", "removed", removed)
	}
	return removed
}

// Stats reports entry count and approximate payload size. Read-only.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var size int64
	for _, e := range m.entries {
		size += int64(len(e.payload))
	}
	return Stats{
		Entries:    len(m.entries),
		SizeBytes:  size,
		SizeMB:     float64(size) / 1024 / 1024,
		TTLSeconds: int(m.ttl / time.Second),
	}
}
