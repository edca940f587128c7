package dispatch_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/entrhq/browserbase-mcp/pkg/config"
	"github.com/entrhq/browserbase-mcp/pkg/dispatch"
	"github.com/entrhq/browserbase-mcp/pkg/session"
	"github.com/entrhq/browserbase-mcp/pkg/session/sessiontest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcTool is a Tool backed by a function.
type funcTool struct {
	schema dispatch.Schema
	handle func(ctx context.Context, env *dispatch.Env, args json.RawMessage) (*dispatch.Result, error)
}

func (t *funcTool) Schema() dispatch.Schema { return t.schema }
func (t *funcTool) Capability() string      { return "core" }

func (t *funcTool) Handle(ctx context.Context, env *dispatch.Env, args json.RawMessage) (*dispatch.Result, error) {
	return t.handle(ctx, env, args)
}

func newTool(name string, fn func(ctx context.Context, env *dispatch.Env, args json.RawMessage) (*dispatch.Result, error)) *funcTool {
	return &funcTool{
		schema: dispatch.Schema{
			Name:        name,
			Description: "Test tool",
			InputSchema: dispatch.ObjectSchema(map[string]any{
				"url": map[string]any{"type": "string"},
			}, "url"),
		},
		handle: fn,
	}
}

type fixture struct {
	ctx     *dispatch.Context
	store   *session.Store
	factory *sessiontest.Factory
	logs    *sessiontest.LogBuffer
}

func newFixture(t *testing.T, opts ...dispatch.Option) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.BrowserbaseAPIKey = "bb-key"
	cfg.BrowserbaseProjectID = "proj"

	logger, logs := sessiontest.NewLogger(t)
	f := &sessiontest.Factory{}
	store := session.NewStore(cfg, f.Adapter(), logger)
	return &fixture{
		ctx:     dispatch.New(cfg, store, logger, opts...),
		store:   store,
		factory: f,
		logs:    logs,
	}
}

func TestRun_ActionContent(t *testing.T) {
	fx := newFixture(t)
	tool := newTool("echo", func(ctx context.Context, env *dispatch.Env, args json.RawMessage) (*dispatch.Result, error) {
		return &dispatch.Result{Action: func(ctx context.Context) (*dispatch.ActionResult, error) {
			return &dispatch.ActionResult{Content: []dispatch.Content{dispatch.TextContent("hello")}}, nil
		}}, nil
	})

	res := fx.ctx.Run(context.Background(), tool, nil)
	assert.False(t, res.IsError)
	assert.Equal(t, "hello", res.Text())
	assert.Contains(t, fx.logs.String(), "Executing tool: echo")
}

func TestRun_DefaultMessages(t *testing.T) {
	tests := []struct {
		name   string
		result *dispatch.Result
		want   string
	}{
		{"no result", nil, "quiet completed successfully."},
		{"no action", &dispatch.Result{}, "quiet completed successfully."},
		{"nil content", &dispatch.Result{Action: func(context.Context) (*dispatch.ActionResult, error) {
			return nil, nil
		}}, "Action completed successfully."},
		{"empty action result", &dispatch.Result{Action: func(context.Context) (*dispatch.ActionResult, error) {
			return &dispatch.ActionResult{}, nil
		}}, "Action completed successfully."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			tool := newTool("quiet", func(context.Context, *dispatch.Env, json.RawMessage) (*dispatch.Result, error) {
				return tt.result, nil
			})
			res := fx.ctx.Run(context.Background(), tool, nil)
			assert.False(t, res.IsError)
			assert.Equal(t, tt.want, res.Text())
		})
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		handle   func(context.Context, *dispatch.Env, json.RawMessage) (*dispatch.Result, error)
		wantText string
		wantKind string
	}{
		{
			name: "handler error",
			handle: func(context.Context, *dispatch.Env, json.RawMessage) (*dispatch.Result, error) {
				return nil, errors.New("bad input")
			},
			wantText: "Error: bad input",
			wantKind: "tool",
		},
		{
			name: "action error",
			handle: func(context.Context, *dispatch.Env, json.RawMessage) (*dispatch.Result, error) {
				return &dispatch.Result{Action: func(context.Context) (*dispatch.ActionResult, error) {
					return nil, errors.New("navigation failed")
				}}, nil
			},
			wantText: "Error: navigation failed",
			wantKind: "tool",
		},
		{
			name: "panic",
			handle: func(context.Context, *dispatch.Env, json.RawMessage) (*dispatch.Result, error) {
				panic("boom")
			},
			wantText: "Error: panic in failing: boom",
			wantKind: "tool",
		},
		{
			name: "session not found",
			handle: func(context.Context, *dispatch.Env, json.RawMessage) (*dispatch.Result, error) {
				return nil, &session.NotFoundError{ID: "x"}
			},
			wantText: "Error: Session x not found",
			wantKind: "session_not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotErr error
			fx := newFixture(t, dispatch.WithCallObserver(func(tool string, _ time.Duration, err error) {
				assert.Equal(t, "failing", tool)
				gotErr = err
			}))

			res := fx.ctx.Run(context.Background(), newTool("failing", tt.handle), nil)
			assert.True(t, res.IsError)
			assert.Equal(t, tt.wantText, res.Text())
			assert.Equal(t, tt.wantKind, dispatch.ErrorKind(gotErr))
			assert.Contains(t, fx.logs.String(), "Tool failing failed")
			if tt.wantKind == "tool" {
				assert.ErrorIs(t, gotErr, dispatch.ErrToolExecution)
			}
		})
	}
}

func TestRun_ConfigurationErrorLeavesStoreEmpty(t *testing.T) {
	fx := newFixture(t)
	fx.ctx.Config().BrowserbaseAPIKey = ""

	tool := newTool("navigate", func(ctx context.Context, env *dispatch.Env, _ json.RawMessage) (*dispatch.Result, error) {
		_, err := env.ActivePage(ctx)
		return nil, err
	})

	res := fx.ctx.Run(context.Background(), tool, nil)
	assert.True(t, res.IsError)
	assert.Contains(t, res.Text(), "Browserbase API Key and Project ID are required")
	assert.Equal(t, 0, fx.store.Size())
}

func sessionIDTool(ids *[]string) *funcTool {
	return newTool("whoami", func(ctx context.Context, env *dispatch.Env, _ json.RawMessage) (*dispatch.Result, error) {
		rec, err := env.Session(ctx)
		if err != nil {
			return nil, err
		}
		*ids = append(*ids, rec.ID)
		return nil, nil
	})
}

func TestDefaultSession_Reused(t *testing.T) {
	fx := newFixture(t)
	var ids []string
	tool := sessionIDTool(&ids)

	fx.ctx.Run(context.Background(), tool, nil)
	fx.ctx.Run(context.Background(), tool, nil)
	require.Len(t, ids, 2)
	assert.Equal(t, ids[0], ids[1])
	assert.Equal(t, 1, fx.store.Size())

	fx.ctx.Default().Close(context.Background())
	assert.Equal(t, 0, fx.store.Size())

	fx.ctx.Run(context.Background(), tool, nil)
	require.Len(t, ids, 3)
	assert.NotEqual(t, ids[0], ids[2])
}

func TestDefaultSession_RecreatedAfterDisconnect(t *testing.T) {
	fx := newFixture(t)
	var ids []string
	tool := sessionIDTool(&ids)

	fx.ctx.Run(context.Background(), tool, nil)
	fx.factory.Last().FakeBB.Disconnect()
	fx.ctx.Run(context.Background(), tool, nil)

	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])
	assert.Equal(t, 1, fx.store.Size())
}

func TestDefaultSession_ConcurrentFirstUse(t *testing.T) {
	fx := newFixture(t)
	def := fx.ctx.Default()

	var wg sync.WaitGroup
	ids := make([]string, 6)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := def.Resolve(context.Background())
			if assert.NoError(t, err) {
				ids[i] = rec.ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 1, fx.store.Size())
}

func TestDefaultSession_Replace(t *testing.T) {
	fx := newFixture(t)
	def := fx.ctx.Default()
	ctx := context.Background()

	first, err := def.Resolve(ctx)
	require.NoError(t, err)

	second, err := def.Replace(ctx, session.CreateParams{BrowserbaseSessionID: "bb-resumed"})
	require.NoError(t, err)
	assert.Equal(t, "bb-resumed", second.BrowserbaseSessionID())

	cur, ok := def.Current()
	require.True(t, ok)
	assert.Same(t, second, cur)

	_, ok = fx.store.Get(first.ID)
	assert.False(t, ok, "previous default is removed")
	assert.Equal(t, 1, fx.store.Size())
}

func TestEnv_ActiveHandles(t *testing.T) {
	fx := newFixture(t)
	env := fx.ctx.Env()
	ctx := context.Background()

	assert.Empty(t, env.CurrentSessionID(ctx), "no session is created by asking for the id")
	assert.Equal(t, 0, fx.store.Size())

	page, err := env.ActivePage(ctx)
	require.NoError(t, err)
	require.NotNil(t, page)

	browser, err := env.ActiveBrowser(ctx)
	require.NoError(t, err)
	require.NotNil(t, browser)

	rec, _ := fx.ctx.Default().Current()
	assert.Equal(t, rec.ID, env.CurrentSessionID(ctx))

	driver, err := env.Stagehand(ctx)
	require.NoError(t, err)
	assert.Same(t, fx.factory.Last(), driver)

	fx.factory.Last().FakePage.SetClosed()
	page, err = env.ActivePage(ctx)
	require.NoError(t, err)
	assert.Nil(t, page)
}

func TestEnv_WithSession(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	rec, err := fx.store.Create(ctx, session.CreateParams{})
	require.NoError(t, err)

	env := fx.ctx.Env().WithSession(rec)
	assert.True(t, env.IsBound())
	require.NotEmpty(t, rec.BrowserbaseSessionID())
	assert.Equal(t, rec.BrowserbaseSessionID(), env.CurrentSessionID(ctx))

	rec.SetMeta(session.MetaBrowserbaseSessionID, "")
	assert.Equal(t, rec.ID, env.CurrentSessionID(ctx), "falls back to the local id")
	rec.SetMeta(session.MetaBrowserbaseSessionID, fx.factory.Last().BBID)

	got, err := env.Session(ctx)
	require.NoError(t, err)
	assert.Same(t, rec, got)

	_, ok := fx.ctx.Default().Current()
	assert.False(t, ok, "bound calls never create the default session")
}
