package loader

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "marketpulse/internal/errors"
	"marketpulse/internal/files"
	"marketpulse/internal/infrastructure"
	"marketpulse/internal/schema"
	"marketpulse/pkg/contracts/domain"
)

// stamp is the file identity a cache entry is keyed on, together with the
// absolute path. A differing modification time or size makes the entry stale.
type stamp struct {
	modTime time.Time
	size    int64
}

func (s stamp) equals(other stamp) bool {
	return s.size == other.size && s.modTime.Equal(other.modTime)
}

func fileStamp(path string) (stamp, error) {
	info, err := os.Stat(path)
	if err != nil {
		return stamp{}, err
	}
	if info.IsDir() {
		return stamp{}, os.ErrInvalid
	}
	return stamp{modTime: info.ModTime(), size: info.Size()}, nil
}

type cacheEntry struct {
	stamp stamp
	table *domain.Table
}

// Loader reads public use files, normalizes them through the schema package,
// and caches the resulting tables by file identity. It owns the cache
// exclusively: entries are created on first load and invalidated when the
// underlying file's metadata changes, never served stale.
type Loader struct {
	normalizer   *schema.Normalizer
	logger       *slog.Logger
	metrics      *infrastructure.PipelineMetrics
	cacheEnabled bool

	mu     sync.RWMutex
	cache  map[string]cacheEntry
	flight singleflight.Group

	// readHook observes physical file reads; tests use it to assert that
	// cache hits and shared flights skip re-reading.
	readHook func(path string)
}

// Option configures a Loader.
type Option func(*Loader)

// WithMetrics attaches pipeline telemetry. A nil bundle disables recording.
func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// WithCacheDisabled makes every Load re-read and re-normalize.
func WithCacheDisabled() Option {
	return func(l *Loader) { l.cacheEnabled = false }
}

// New creates a loader around a normalizer. The cache starts empty and lives
// in memory only; there is no teardown.
func New(normalizer *schema.Normalizer, logger *slog.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = slog.Default()
	}

	l := &Loader{
		normalizer:   normalizer,
		logger:       logger,
		cacheEnabled: true,
		cache:        make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads and normalizes the file at path, classifying it into a PUF
// category by its name. The returned table is shared with the cache and
// must be treated as read-only; its accessors enforce that.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Table, error) {
	category, ok := files.DetectCategory(filepath.Base(path))
	if !ok {
		return nil, apperrors.NewLoadError(path, "file name matches no known PUF category", nil)
	}
	return l.LoadCategory(ctx, path, category)
}

// LoadCategory is Load with an explicit category, for files whose names do
// not follow the CMS naming conventions.
func (l *Loader) LoadCategory(ctx context.Context, path string, category domain.Category) (*domain.Table, error) {
	if !category.IsValid() {
		return nil, apperrors.NewValidationError("invalid category " + category.String())
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, apperrors.NewLoadError(path, "resolve path", err)
	}

	ctx = infrastructure.WithLoadID(ctx, infrastructure.GenerateLoadID())
	start := time.Now()

	current, err := fileStamp(abs)
	if err != nil {
		l.metrics.RecordLoad(ctx, category.String(), time.Since(start), false, err)
		return nil, apperrors.NewLoadError(abs, "file missing or unreadable", err)
	}

	if table, ok := l.cached(abs, current); ok {
		l.logger.DebugContext(ctx, "cache hit",
			slog.String("path", abs),
			slog.String("category", category.String()))
		l.metrics.RecordLoad(ctx, category.String(), time.Since(start), true, nil)
		return table, nil
	}

	// One normalization in flight per key; concurrent callers for the same
	// file share the one result.
	v, err, _ := l.flight.Do(abs, func() (interface{}, error) {
		// Re-stat and re-check inside the flight so a caller that raced
		// a file change still gets fresh data.
		current, err := fileStamp(abs)
		if err != nil {
			return nil, apperrors.NewLoadError(abs, "file missing or unreadable", err)
		}
		if table, ok := l.cached(abs, current); ok {
			return table, nil
		}

		table, err := l.readAndNormalize(ctx, abs, category)
		if err != nil {
			return nil, err
		}

		if l.cacheEnabled {
			l.mu.Lock()
			l.cache[abs] = cacheEntry{stamp: current, table: table}
			l.mu.Unlock()
		}
		return table, nil
	})

	l.metrics.RecordLoad(ctx, category.String(), time.Since(start), false, err)
	if err != nil {
		return nil, err
	}
	return v.(*domain.Table), nil
}

// cached returns the cached table for key if its stamp still matches.
func (l *Loader) cached(key string, current stamp) (*domain.Table, bool) {
	if !l.cacheEnabled {
		return nil, false
	}
	l.mu.RLock()
	entry, ok := l.cache[key]
	l.mu.RUnlock()
	if !ok || !entry.stamp.equals(current) {
		return nil, false
	}
	return entry.table, true
}

// readAndNormalize performs the physical read and schema normalization.
func (l *Loader) readAndNormalize(ctx context.Context, abs string, category domain.Category) (*domain.Table, error) {
	if l.readHook != nil {
		l.readHook(abs)
	}

	header, rows, err := readTabular(abs)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewLoadError(abs, "no data rows after header", nil)
	}

	table, err := l.normalizer.Normalize(ctx, category, header, rows)
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, apperrors.NewLoadError(abs, "no data rows after header", nil)
	}

	diag := table.Diagnostics()
	l.metrics.RecordNormalization(ctx, category.String(), table.Len(), diag.TotalParseFailures())
	l.logger.InfoContext(ctx, "file normalized",
		slog.String("path", abs),
		slog.String("category", category.String()),
		slog.Int("rows", table.Len()),
		slog.Int("parse_failures", diag.TotalParseFailures()),
		slog.Int("suppressed", diag.TotalSuppressed()))

	return table, nil
}

// Invalidate drops the cache entry for path, if any.
func (l *Loader) Invalidate(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	l.mu.Lock()
	delete(l.cache, abs)
	l.mu.Unlock()
}

// Reset drops every cache entry.
func (l *Loader) Reset() {
	l.mu.Lock()
	l.cache = make(map[string]cacheEntry)
	l.mu.Unlock()
}
