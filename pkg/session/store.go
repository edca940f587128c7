package session

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/entrhq/browserbase-mcp/pkg/config"
	"github.com/entrhq/browserbase-mcp/pkg/logging"
	"github.com/google/uuid"
)

// Store is the registry of live sessions for one configuration.
type Store struct {
	cfg      *config.Config
	launcher Launcher
	logger   *logging.Logger

	mu      sync.RWMutex
	records map[string]*Record
	pending int

	onChange func(size int)
	newID    func(projectID string) string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithOnChange registers fn to be called with the new size after every
// insertion or deletion.
func WithOnChange(fn func(size int)) StoreOption {
	return func(s *Store) {
		s.onChange = fn
	}
}

// WithIDGenerator replaces the "<uuid>_<projectId>" id scheme.
func WithIDGenerator(fn func(projectID string) string) StoreOption {
	return func(s *Store) {
		s.newID = fn
	}
}

// NewStore returns an empty store.
func NewStore(cfg *config.Config, launcher Launcher, logger *logging.Logger, opts ...StoreOption) *Store {
	s := &Store{
		cfg:      cfg,
		launcher: launcher,
		logger:   logger.With("session-store"),
		records:  make(map[string]*Record),
		newID: func(projectID string) string {
			return uuid.NewString() + "_" + projectID
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create launches a session and registers it. A failed launch leaves the
// store unchanged.
func (s *Store) Create(ctx context.Context, params CreateParams) (*Record, error) {
	_, projectID := params.credentials(s.cfg)
	id := s.newID(projectID)

	if err := s.reserve(); err != nil {
		return nil, err
	}

	s.logger.Infof("Creating new session %s...", id)

	rec, err := s.launcher.Launch(ctx, s.cfg, params, id, s.logger)
	if err != nil {
		s.release()
		s.logger.Errorf("Failed to create session %s: %v", id, err)
		return nil, err
	}

	// The observer is in place before the record becomes visible, so any
	// removal that finds it in the map can also unregister it.
	rec.setUnregister(rec.Browser.OnDisconnected(func() {
		s.evict(rec)
	}))
	if !rec.Browser.IsConnected() {
		s.evict(rec)
	}

	s.mu.Lock()
	s.pending--
	inserted := !rec.isClaimed()
	if inserted {
		s.records[id] = rec
	}
	size := len(s.records)
	s.mu.Unlock()

	if !inserted {
		if unregister := rec.takeUnregister(); unregister != nil {
			unregister()
		}
		closeQuietly(rec.Driver, s.logger, id)
		err := fmt.Errorf("%w: session %s disconnected during creation", ErrLaunch, id)
		s.logger.Errorf("Failed to create session %s: %v", id, err)
		return nil, err
	}
	s.notify(size)

	// Removed or evicted before the caller ever saw it.
	if rec.isClaimed() {
		err := fmt.Errorf("%w: session %s was closed during creation", ErrLaunch, id)
		s.logger.Errorf("Failed to create session %s: %v", id, err)
		return nil, err
	}

	bbID := rec.BrowserbaseSessionID()
	s.logger.Infof("Session created: %s (BB: %s)", id, bbID)
	s.logger.Infof("Live debugger: https://www.browserbase.com/sessions/%s", bbID)

	return rec, nil
}

func (s *Store) reserve() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit := s.cfg.MaxSessions; limit > 0 && len(s.records)+s.pending >= limit {
		return fmt.Errorf("%w: %d sessions already open", ErrSessionLimit, limit)
	}
	s.pending++
	return nil
}

func (s *Store) release() {
	s.mu.Lock()
	s.pending--
	s.mu.Unlock()
}

// evict drops a record whose remote connection was lost.
func (s *Store) evict(rec *Record) {
	if !rec.claim() {
		return
	}
	s.logger.Infof("Session disconnected: %s", rec.ID)
	if unregister := rec.takeUnregister(); unregister != nil {
		unregister()
	}

	if s.deleteIfCurrent(rec) {
		// The remote browser is gone but the session may still be billed.
		go func() {
			if err := rec.Driver.Close(context.Background()); err != nil {
				s.logger.Debugf("Release after disconnect of %s: %v", rec.ID, err)
			}
		}()
	}
}

// deleteIfCurrent removes the slot only if it still holds rec.
func (s *Store) deleteIfCurrent(rec *Record) bool {
	s.mu.Lock()
	cur, ok := s.records[rec.ID]
	deleted := ok && cur == rec
	if deleted {
		delete(s.records, rec.ID)
	}
	size := len(s.records)
	s.mu.Unlock()

	if deleted {
		s.notify(size)
	}
	return deleted
}

func (s *Store) notify(size int) {
	if s.onChange != nil {
		s.onChange(size)
	}
}

// Get looks a session up by id.
func (s *Store) Get(id string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

// List returns every session ordered by creation time.
func (s *Store) List() []*Record {
	s.mu.RLock()
	out := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Record) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Size returns the number of live sessions.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Remove closes and deletes a session. It is safe to call repeatedly and
// concurrently with disconnect eviction; close failures are only logged.
func (s *Store) Remove(ctx context.Context, id string) {
	rec, ok := s.Get(id)
	if !ok {
		s.logger.Infof("Session not found for removal: %s", id)
		return
	}
	if !rec.claim() {
		s.logger.Debugf("Session %s is already being removed", id)
		return
	}

	s.logger.Infof("Removing session: %s", id)
	defer s.deleteIfCurrent(rec)

	if unregister := rec.takeUnregister(); unregister != nil {
		unregister()
	}

	if err := rec.Driver.Close(ctx); err != nil {
		err = fmt.Errorf("%w: %w", ErrTeardown, err)
		s.logger.Errorf("Error closing session %s: %v", id, err)
		return
	}
	s.logger.Infof("Session closed: %s", id)
}

// RemoveAll removes every session concurrently and waits for all of them.
func (s *Store) RemoveAll(ctx context.Context) {
	records := s.List()
	s.logger.Infof("Removing all %d sessions...", len(records))

	var wg sync.WaitGroup
	for _, rec := range records {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			s.Remove(ctx, id)
		}(rec.ID)
	}
	wg.Wait()

	s.logger.Infof("All sessions removed")
}
