package dispatch

import (
	"context"

	"github.com/entrhq/browserbase-mcp/pkg/config"
	"github.com/entrhq/browserbase-mcp/pkg/logging"
	"github.com/entrhq/browserbase-mcp/pkg/session"
	"github.com/entrhq/browserbase-mcp/pkg/stagehand"
)

// Env is the per-call view a tool gets of the server.
type Env struct {
	owner    *Context
	sessions SessionResolver
	bound    bool
}

func (e *Env) Config() *config.Config    { return e.owner.cfg }
func (e *Env) Store() *session.Store     { return e.owner.store }
func (e *Env) Default() *DefaultSession  { return e.owner.def }
func (e *Env) Logger() *logging.Logger   { return e.owner.logger }
func (e *Env) Screenshots() *Screenshots { return e.owner.shots }
func (e *Env) Sessions() SessionResolver { return e.sessions }
func (e *Env) IsBound() bool             { return e.bound }
func (e *Env) Context() *Context         { return e.owner }

func (e *Env) withResolver(r SessionResolver) *Env {
	return &Env{owner: e.owner, sessions: r, bound: true}
}

// WithSession returns an Env whose calls target rec.
func (e *Env) WithSession(rec *session.Record) *Env {
	return e.withResolver(boundSession{rec: rec})
}

// Session resolves the session this call targets.
func (e *Env) Session(ctx context.Context) (*session.Record, error) {
	return e.sessions.Resolve(ctx)
}

// Stagehand returns the driver of the current session.
func (e *Env) Stagehand(ctx context.Context) (session.Driver, error) {
	rec, err := e.Session(ctx)
	if err != nil {
		return nil, err
	}
	return rec.Driver, nil
}

// ActivePage returns the current page, or nil when it has been closed.
func (e *Env) ActivePage(ctx context.Context) (stagehand.Page, error) {
	rec, err := e.Session(ctx)
	if err != nil {
		return nil, err
	}
	if rec.Page == nil || rec.Page.IsClosed() {
		return nil, nil
	}
	return rec.Page, nil
}

// ActiveBrowser returns the current browser, or nil when it is disconnected.
func (e *Env) ActiveBrowser(ctx context.Context) (stagehand.Browser, error) {
	rec, err := e.Session(ctx)
	if err != nil {
		return nil, err
	}
	if rec.Browser == nil || !rec.Browser.IsConnected() {
		return nil, nil
	}
	return rec.Browser, nil
}

// CurrentSessionID identifies the targeted session without creating one.
// A bound session reports its Browserbase session id when known, falling
// back to the local id; the default session reports its local id. It is
// empty when no default session exists yet.
func (e *Env) CurrentSessionID(ctx context.Context) string {
	if e.bound {
		rec, err := e.Session(ctx)
		if err != nil || rec == nil {
			return ""
		}
		if bbID := rec.BrowserbaseSessionID(); bbID != "" {
			return bbID
		}
		return rec.ID
	}
	if rec, ok := e.owner.def.Current(); ok {
		return rec.ID
	}
	return ""
}
