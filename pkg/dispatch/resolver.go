package dispatch

import (
	"context"
	"sync"

	"github.com/entrhq/browserbase-mcp/pkg/session"
)

// SessionResolver picks the session a tool call runs against.
type SessionResolver interface {
	Resolve(ctx context.Context) (*session.Record, error)
}

// DefaultSession is the implicit session of single-session tools. It is
// created on first use and recreated once it has left the store.
type DefaultSession struct {
	store *session.Store

	// mu is held across creation so concurrent first calls share one session.
	mu  sync.Mutex
	rec *session.Record
}

// NewDefaultSession returns an empty default-session holder.
func NewDefaultSession(store *session.Store) *DefaultSession {
	return &DefaultSession{store: store}
}

// Resolve returns the default session, creating it if needed.
func (d *DefaultSession) Resolve(ctx context.Context) (*session.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if rec := d.liveLocked(); rec != nil {
		return rec, nil
	}
	rec, err := d.store.Create(ctx, session.CreateParams{})
	if err != nil {
		return nil, err
	}
	d.rec = rec
	return rec, nil
}

// Current returns the default session without creating one.
func (d *DefaultSession) Current() (*session.Record, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rec := d.liveLocked()
	return rec, rec != nil
}

func (d *DefaultSession) liveLocked() *session.Record {
	if d.rec == nil {
		return nil
	}
	if cur, ok := d.store.Get(d.rec.ID); ok && cur == d.rec {
		return d.rec
	}
	d.rec = nil
	return nil
}

// Replace creates a session with params and makes it the default. The
// previous default is removed once the new one is live.
func (d *DefaultSession) Replace(ctx context.Context, params session.CreateParams) (*session.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, err := d.store.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	prev := d.liveLocked()
	d.rec = rec
	if prev != nil {
		d.store.Remove(ctx, prev.ID)
	}
	return rec, nil
}

// Close removes the default session. The next Resolve creates a new one.
func (d *DefaultSession) Close(ctx context.Context) {
	d.mu.Lock()
	rec := d.rec
	d.rec = nil
	d.mu.Unlock()

	if rec != nil {
		d.store.Remove(ctx, rec.ID)
	}
}

// boundSession is a session named explicitly by the caller.
type boundSession struct {
	rec *session.Record
}

func (b boundSession) Resolve(context.Context) (*session.Record, error) {
	return b.rec, nil
}
