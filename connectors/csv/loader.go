package csv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"task-dashboard/domain/task"
)

// ErrNotFound is returned when the data file does not exist.
var ErrNotFound = fmt.Errorf("data file not found: %w", os.ErrNotExist)

// Fetcher downloads a remote CSV source.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Loaded is a parsed table together with the hash of the bytes it came from.
type Loaded struct {
	Table *task.Table
	Hash  uint64
}

type cacheEntry struct {
	size    int64
	modTime time.Time
	fetched time.Time
	hash    uint64
	table   *task.Table
}

// Loader loads task tables and memoises them by path and content signature.
// Use NewLoader to construct it.
type Loader struct {
	mu        sync.Mutex
	layouts   []string
	fetcher   Fetcher
	remoteTTL time.Duration
	entries   map[string]*cacheEntry
}

// NewLoader returns a Loader parsing dates with layouts. fetcher may be nil when only
// local files are used.
func NewLoader(layouts []string, fetcher Fetcher) *Loader {
	return &Loader{
		layouts: layouts,
		fetcher: fetcher,
		entries: map[string]*cacheEntry{},
	}
}

// SetRemoteTTL makes Load reuse a remote table for d after it was downloaded. Zero, the
// default, downloads on every Load.
func (l *Loader) SetRemoteTTL(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.remoteTTL = d
}

// IsRemote reports whether path designates an HTTP source.
func IsRemote(path string) bool {
	p := strings.ToLower(path)
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://")
}

// Load returns the table at path. An unchanged local file (same size and mtime) is
// served from the cache without reading it; changed bytes with the same content hash
// are served without parsing again.
func (l *Loader) Load(ctx context.Context, path string) (Loaded, error) {
	if IsRemote(path) {
		return l.loadRemote(ctx, path)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fi, err := os.Stat(path)
	if err != nil {
		delete(l.entries, path)
		if errors.Is(err, os.ErrNotExist) {
			return Loaded{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Loaded{}, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if fi.IsDir() {
		delete(l.entries, path)
		return Loaded{}, fmt.Errorf("%w: %s is a directory", ErrLoad, path)
	}
	if e, ok := l.entries[path]; ok && e.size == fi.Size() && e.modTime.Equal(fi.ModTime()) {
		slog.Debug("load.cache.hit", "path", path)
		return Loaded{Table: e.table, Hash: e.hash}, nil
	}

	b, err := readFile(path)
	if err != nil {
		delete(l.entries, path)
		if errors.Is(err, os.ErrNotExist) {
			return Loaded{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Loaded{}, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	e, err := l.store(path, b)
	if err != nil {
		return Loaded{}, err
	}
	e.size = fi.Size()
	e.modTime = fi.ModTime()
	return Loaded{Table: e.table, Hash: e.hash}, nil
}

// loadRemote downloads without holding l.mu so slow sources do not block other loads.
func (l *Loader) loadRemote(ctx context.Context, url string) (Loaded, error) {
	if l.fetcher == nil {
		return Loaded{}, fmt.Errorf("%w: no remote fetcher configured for %s", ErrLoad, url)
	}
	l.mu.Lock()
	if e, ok := l.entries[url]; ok && l.remoteTTL > 0 && time.Since(e.fetched) < l.remoteTTL {
		l.mu.Unlock()
		slog.Debug("load.cache.hit", "path", url)
		return Loaded{Table: e.table, Hash: e.hash}, nil
	}
	l.mu.Unlock()

	b, err := l.fetcher.Fetch(ctx, url)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		delete(l.entries, url)
		if errors.Is(err, os.ErrNotExist) {
			return Loaded{}, fmt.Errorf("%w: %s", ErrNotFound, url)
		}
		return Loaded{}, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	e, err := l.store(url, b)
	if err != nil {
		return Loaded{}, err
	}
	e.fetched = time.Now()
	return Loaded{Table: e.table, Hash: e.hash}, nil
}

// store parses b unless the cached entry for key already has the same content hash.
// Callers hold l.mu.
func (l *Loader) store(key string, b []byte) (*cacheEntry, error) {
	h := xxhash.Sum64(b)
	if e, ok := l.entries[key]; ok && e.hash == h {
		slog.Debug("load.cache.same_content", "path", key)
		return e, nil
	}
	tb, err := Parse(bytes.NewReader(b), l.layouts)
	if err != nil {
		delete(l.entries, key)
		return nil, err
	}
	slog.Info("load.parse.done", "path", key, "rows", tb.Len(), "columns", len(tb.Columns))
	e := &cacheEntry{hash: h, table: tb}
	l.entries[key] = e
	return e, nil
}

// Invalidate drops the cached table for path so the next Load reads it again.
func (l *Loader) Invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, path)
}

// Reset drops every cached table.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = map[string]*cacheEntry{}
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
