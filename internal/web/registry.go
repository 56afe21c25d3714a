package web

import (
	"context"
	"sync"
	"time"

	"github.com/jogardn/shop-console/internal/console"
	"github.com/sirupsen/logrus"
)

const (
	DefaultIdleTimeout = 30 * time.Minute
	DefaultMaxConsoles = 1000
)

type registryEntry struct {
	once     sync.Once
	console  *console.Console
	lastUsed time.Time
}

// Registry holds one Console per browser session. Consoles idle for longer
// than the idle timeout are closed, and the least recently used one is
// closed when the registry is full.
type Registry struct {
	mutex       sync.Mutex
	entries     map[string]*registryEntry
	newConsole  func(sessionID string) *console.Console
	idleTimeout time.Duration
	maxEntries  int
	lastSweep   time.Time
	now         func() time.Time
	logger      *logrus.Logger
}

// NewRegistry builds a registry. Non-positive limits fall back to the
// defaults.
func NewRegistry(newConsole func(sessionID string) *console.Console, idleTimeout time.Duration, maxEntries int, logger *logrus.Logger) *Registry {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxConsoles
	}
	return &Registry{
		entries:     make(map[string]*registryEntry),
		newConsole:  newConsole,
		idleTimeout: idleTimeout,
		maxEntries:  maxEntries,
		now:         time.Now,
		logger:      logger,
	}
}

// Get returns the console for sessionID, creating and loading it on first
// use. Concurrent first requests share a single initial load.
func (r *Registry) Get(ctx context.Context, sessionID string) *console.Console {
	r.mutex.Lock()
	now := r.now()
	evicted := r.sweepLocked(now)

	entry, ok := r.entries[sessionID]
	if !ok {
		if len(r.entries) >= r.maxEntries {
			if oldest := r.oldestLocked(); oldest != "" {
				evicted = append(evicted, r.entries[oldest].console)
				delete(r.entries, oldest)
			}
		}
		entry = &registryEntry{console: r.newConsole(sessionID)}
		r.entries[sessionID] = entry
	}
	entry.lastUsed = now
	r.mutex.Unlock()

	r.closeAll(evicted)

	entry.once.Do(func() {
		entry.console.Init(ctx)
	})
	return entry.console
}

// sweepLocked removes idle entries, at most a few times per idle timeout.
func (r *Registry) sweepLocked(now time.Time) []*console.Console {
	if now.Sub(r.lastSweep) < r.idleTimeout/4 {
		return nil
	}
	r.lastSweep = now

	var evicted []*console.Console
	for id, entry := range r.entries {
		if now.Sub(entry.lastUsed) > r.idleTimeout {
			evicted = append(evicted, entry.console)
			delete(r.entries, id)
		}
	}
	return evicted
}

func (r *Registry) oldestLocked() string {
	var (
		oldest string
		at     time.Time
	)
	for id, entry := range r.entries {
		if oldest == "" || entry.lastUsed.Before(at) {
			oldest, at = id, entry.lastUsed
		}
	}
	return oldest
}

func (r *Registry) closeAll(consoles []*console.Console) {
	for _, c := range consoles {
		c.Close()
	}
	if len(consoles) > 0 && r.logger != nil {
		r.logger.WithField("count", len(consoles)).Debug("Closed idle consoles")
	}
}

// Lookup returns an existing console without creating one.
func (r *Registry) Lookup(sessionID string) (*console.Console, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	entry, ok := r.entries[sessionID]
	if !ok {
		return nil, false
	}
	return entry.console, true
}

func (r *Registry) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.entries)
}

func (r *Registry) Close() {
	r.mutex.Lock()
	entries := r.entries
	r.entries = make(map[string]*registryEntry)
	r.mutex.Unlock()

	for _, entry := range entries {
		entry.console.Close()
	}
}
