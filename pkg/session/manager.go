package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/microcosm/internal/logging"
	"github.com/aretw0/microcosm/pkg/domain"
	"github.com/aretw0/microcosm/pkg/ports"
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates access to persisted experiment runs, ensuring safe
// concurrent operations. Checkpoints and resumes for the same run ID are
// serialized in-process, and optionally across workers via a distributed
// locker. It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SnapshotStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker ports.DistributedLocker // Optional distributed locker
	logger *slog.Logger            // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking, so only one worker resumes or
// checkpoints a given run at a time.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new run Manager with the given snapshot store.
func NewManager(store ports.SnapshotStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		locks:  make(map[string]*lockEntry),
		logger: logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(runID) after unlocking.
func (m *Manager) acquire(runID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[runID]
	if !exists {
		entry = &lockEntry{}
		m.locks[runID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[runID]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, runID)
	}
}

// Load retrieves an existing run checkpoint from the store.
func (m *Manager) Load(ctx context.Context, runID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, runID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, runID)
		return err
	})
	return snap, err
}

// LoadOrInit tries to load a run checkpoint. If none exists, it calls init
// to produce the initial snapshot and persists it immediately to reserve
// the ID. The returned bool reports whether an existing run was resumed.
func (m *Manager) LoadOrInit(ctx context.Context, runID string, init func() *domain.Snapshot) (*domain.Snapshot, bool, error) {
	var snap *domain.Snapshot
	resumed := false
	err := m.WithLock(ctx, runID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, runID)
		if err == nil {
			resumed = true
			return nil
		}

		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			return fmt.Errorf("failed to check run existence: %w", err)
		}

		// Not found, create new
		snap = init()
		snap.ID = runID

		// Persist immediately to reserve the ID
		if err := m.store.Save(ctx, snap); err != nil {
			return fmt.Errorf("failed to initialize run: %w", err)
		}
		return nil
	})
	return snap, resumed, err
}

// Checkpoint persists the run's snapshot under its ID.
func (m *Manager) Checkpoint(ctx context.Context, runID string, snap *domain.Snapshot) error {
	return m.WithLock(ctx, runID, func(ctx context.Context) error {
		snap.ID = runID
		return m.store.Save(ctx, snap)
	})
}

// Delete removes the run checkpoint from the store.
func (m *Manager) Delete(ctx context.Context, runID string) error {
	return m.WithLock(ctx, runID, func(ctx context.Context) error {
		return m.store.Delete(ctx, runID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// WithLock executes a function while holding the lock for the run.
func (m *Manager) WithLock(ctx context.Context, runID string, fn func(context.Context) error) error {
	entry := m.acquire(runID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(runID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, runID, 30*time.Second)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"run_id", runID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
