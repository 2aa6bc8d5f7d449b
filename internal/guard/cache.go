// Package guard implements the runtime pieces of the call-interception
// guard: the on-disk report cache and its freshness rules. The public
// wrapper API lives in pkg/guard.
package guard

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/leapstack-labs/leapguard/pkg/quality"
)

// CacheSuffix is the fixed suffix of cached guard report files.
const CacheSuffix = ".guard.json"

// CacheError indicates a corrupt or incompatible cached report. It is
// recovered locally as a cache miss and never surfaces to callers.
type CacheError struct {
	Path string
	Err  error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache entry %s unusable: %v", e.Path, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// Entry is the persisted form of a cached guard report.
type Entry struct {
	// SourceIdentity keys the entry to its data source.
	SourceIdentity string `json:"source_identity"`

	// CachedAt is when the entry was written.
	CachedAt time.Time `json:"cached_at"`

	// Report is the persisted assessment.
	Report *quality.AssessmentReport `json:"report"`
}

// Cache stores one assessment report per data-source identity under a
// directory. Writes are atomic (temp file + rename) and guarded by a
// process-local advisory lock; this is an in-process embedding pattern,
// not a multi-process server, so no distributed locking is attempted.
type Cache struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewCache creates a cache rooted at dir.
func NewCache(dir string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{dir: dir, logger: logger, now: time.Now}
}

// WithClock overrides the cache clock. Used in tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Path returns the deterministic cache path for a source identity.
func (c *Cache) Path(identity string) string {
	return filepath.Join(c.dir, identity+CacheSuffix)
}

// Load returns the cached report for a source identity, or false on a
// miss. A corrupt, unreadable, or version-incompatible entry is a miss:
// it is logged and never crashes the guarded call. A positive maxAge
// also expires entries older than it.
func (c *Cache) Load(identity string, maxAge time.Duration) (*quality.AssessmentReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := c.Path(identity)
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn("failed to open cached report, treating as miss", "path", path, "error", err)
		}
		return nil, false
	}
	defer func() { _ = f.Close() }()

	entry, err := readEntry(f)
	if err != nil {
		cerr := &CacheError{Path: path, Err: err}
		c.logger.Warn("discarding unusable cached report", "error", cerr)
		return nil, false
	}
	if entry.Report == nil {
		c.logger.Warn("discarding cached entry with no report", "path", path)
		return nil, false
	}
	if maxAge > 0 {
		if age := c.now().Sub(entry.CachedAt); age > maxAge {
			c.logger.Debug("cached report expired",
				"path", path, "age", age.Round(time.Second), "max_age", maxAge)
			return nil, false
		}
	}
	return entry.Report, true
}

// Store persists a report for a source identity. The write is atomic:
// a concurrent reader sees either the previous entry or the new one,
// never a partial file.
func (c *Cache) Store(identity string, report *quality.AssessmentReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := c.Path(identity)
	tmp, err := os.CreateTemp(c.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	entry := Entry{
		SourceIdentity: identity,
		CachedAt:       c.now().UTC(),
		Report:         report,
	}
	if err := writeEntry(tmp, entry); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to publish cache entry: %w", err)
	}
	return nil
}

// Invalidate removes the cache entry for a source identity.
func (c *Cache) Invalidate(identity string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := os.Remove(c.Path(identity))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache entry: %w", err)
	}
	return nil
}
