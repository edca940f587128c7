// Package session owns the lifetime of remote browser sessions: launching a
// driver bound to a Browserbase browser, tracking it under a local id, and
// tearing it down on request or when the remote connection drops.
package session

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/entrhq/browserbase-mcp/pkg/browserbase"
	"github.com/entrhq/browserbase-mcp/pkg/stagehand"
)

// Metadata keys set by the store.
const (
	MetaName                 = "name"
	MetaBrowserbaseSessionID = "bbSessionId"
)

// Driver is an automation driver bound to one remote browser.
// *stagehand.Stagehand implements it.
type Driver interface {
	Init(ctx context.Context) error
	Page() stagehand.Page
	BrowserbaseSessionID() string
	Debug(ctx context.Context) (*browserbase.DebugURLs, error)
	Close(ctx context.Context) error
}

// Record is one live session. Driver, Page and Browser are fixed at launch
// and always belong to the same driver.
//
// The store does not serialize tool calls against one record; callers must
// not run concurrent actions on the same session.
type Record struct {
	ID        string
	Driver    Driver
	Page      stagehand.Page
	Browser   stagehand.Browser
	CreatedAt time.Time

	mu         sync.Mutex
	metadata   map[string]any
	unregister func()
	claimed    bool
}

func newRecord(id string, d Driver, p stagehand.Page, b stagehand.Browser, meta map[string]any) *Record {
	md := make(map[string]any, len(meta)+1)
	maps.Copy(md, meta)
	return &Record{
		ID:        id,
		Driver:    d,
		Page:      p,
		Browser:   b,
		CreatedAt: time.Now(),
		metadata:  md,
	}
}

// Meta returns a metadata value.
func (r *Record) Meta(key string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.metadata[key]
	return v, ok
}

// SetMeta attaches or replaces a metadata value.
func (r *Record) SetMeta(key string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metadata[key] = value
}

// Metadata returns a copy of all metadata.
func (r *Record) Metadata() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.metadata)
}

func (r *Record) metaString(key string) string {
	v, _ := r.Meta(key)
	s, _ := v.(string)
	return s
}

// Name is the optional human-readable name given at creation.
func (r *Record) Name() string { return r.metaString(MetaName) }

// BrowserbaseSessionID is the remote session id.
func (r *Record) BrowserbaseSessionID() string { return r.metaString(MetaBrowserbaseSessionID) }

// Age is the time since creation.
func (r *Record) Age() time.Duration { return time.Since(r.CreatedAt) }

func (r *Record) setUnregister(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregister = fn
}

func (r *Record) takeUnregister() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn := r.unregister
	r.unregister = nil
	return fn
}

func (r *Record) isClaimed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimed
}

// claim marks the record as being torn down. Only the first caller wins.
func (r *Record) claim() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claimed {
		return false
	}
	r.claimed = true
	return true
}
