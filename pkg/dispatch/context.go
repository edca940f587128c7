package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/entrhq/browserbase-mcp/pkg/config"
	"github.com/entrhq/browserbase-mcp/pkg/logging"
	"github.com/entrhq/browserbase-mcp/pkg/session"
)

// DefaultScreenshotLimit bounds how many screenshots stay readable.
const DefaultScreenshotLimit = 50

// CallObserver is told about every finished call.
type CallObserver func(tool string, elapsed time.Duration, err error)

// Option configures a Context.
type Option func(*Context)

// WithCallObserver adds an observer for finished calls.
func WithCallObserver(fn CallObserver) Option {
	return func(c *Context) {
		c.observers = append(c.observers, fn)
	}
}

// WithScreenshots replaces the screenshot registry.
func WithScreenshots(s *Screenshots) Option {
	return func(c *Context) {
		c.shots = s
	}
}

// Context runs tools for one server. It owns the default session.
type Context struct {
	cfg    *config.Config
	store  *session.Store
	def    *DefaultSession
	logger *logging.Logger
	shots  *Screenshots

	observers []CallObserver
}

// New returns a Context over store.
func New(cfg *config.Config, store *session.Store, logger *logging.Logger, opts ...Option) *Context {
	c := &Context{
		cfg:    cfg,
		store:  store,
		def:    NewDefaultSession(store),
		logger: logger.With("dispatch"),
		shots:  NewScreenshots(DefaultScreenshotLimit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Context) Config() *config.Config    { return c.cfg }
func (c *Context) Store() *session.Store     { return c.store }
func (c *Context) Default() *DefaultSession  { return c.def }
func (c *Context) Logger() *logging.Logger   { return c.logger }
func (c *Context) Screenshots() *Screenshots { return c.shots }

// Env returns an Env targeting the default session.
func (c *Context) Env() *Env {
	return &Env{owner: c, sessions: c.def}
}

// Run executes tool and converts any failure, including a panic, into an
// error result. It never returns nil.
func (c *Context) Run(ctx context.Context, tool Tool, args json.RawMessage) *CallResult {
	name := tool.Schema().Name
	c.logger.Infof("Executing tool: %s", name)
	c.logger.Debugf("Arguments for %s: %s", name, args)

	start := time.Now()
	content, err := c.invoke(ctx, tool, name, args)
	elapsed := time.Since(start)
	for _, obs := range c.observers {
		obs(name, elapsed, err)
	}

	if err != nil {
		c.logger.Errorf("Tool %s failed: %v", name, err)
		return &CallResult{
			Content: []Content{TextContent("Error: " + err.Error())},
			IsError: true,
		}
	}
	return &CallResult{Content: content}
}

func (c *Context) invoke(ctx context.Context, tool Tool, name string, args json.RawMessage) (content []Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &toolError{err: fmt.Errorf("panic in %s: %v", name, r)}
		}
	}()

	res, err := tool.Handle(ctx, c.Env(), args)
	if err != nil {
		return nil, classify(err)
	}
	if res == nil || res.Action == nil {
		return []Content{TextContent(name + " completed successfully.")}, nil
	}

	out, err := res.Action(ctx)
	if err != nil {
		return nil, classify(err)
	}
	if out == nil || out.Content == nil {
		return []Content{TextContent("Action completed successfully.")}, nil
	}
	return out.Content, nil
}
