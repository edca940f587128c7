package metrics_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/browserbase-mcp/pkg/config"
	"github.com/entrhq/browserbase-mcp/pkg/dispatch"
	"github.com/entrhq/browserbase-mcp/pkg/metrics"
	"github.com/entrhq/browserbase-mcp/pkg/session"
	"github.com/entrhq/browserbase-mcp/pkg/session/sessiontest"
)

type failingTool struct{ err error }

func (t failingTool) Schema() dispatch.Schema { return dispatch.Schema{Name: "probe"} }
func (t failingTool) Capability() string      { return "core" }

func (t failingTool) Handle(context.Context, *dispatch.Env, json.RawMessage) (*dispatch.Result, error) {
	return nil, t.err
}

func setup(t *testing.T) (*metrics.Metrics, *session.Store, *sessiontest.Factory, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.BrowserbaseAPIKey = "bb-key"
	cfg.BrowserbaseProjectID = "proj"

	m := metrics.New()
	logger, _ := sessiontest.NewLogger(t)
	f := &sessiontest.Factory{}
	store := session.NewStore(cfg, m.InstrumentLauncher(f.Adapter()), logger, m.StoreOption())
	return m, store, f, cfg
}

func TestSessionMetrics(t *testing.T) {
	m, store, f, cfg := setup(t)
	ctx := context.Background()

	rec, err := store.Create(ctx, session.CreateParams{})
	require.NoError(t, err)
	_, err = store.Create(ctx, session.CreateParams{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionCreates.WithLabelValues("ok")))

	store.Remove(ctx, rec.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsActive))

	f.Configure = func(d *sessiontest.Driver) { d.NoPage = true }
	_, err = store.Create(ctx, session.CreateParams{})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionCreates.WithLabelValues("launch")))

	f.Configure = func(d *sessiontest.Driver) { d.InitErr = errors.New("boom") }
	_, err = store.Create(ctx, session.CreateParams{})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionCreates.WithLabelValues("error")))

	cfg.BrowserbaseAPIKey = ""
	_, err = store.Create(ctx, session.CreateParams{})
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionCreates.WithLabelValues("configuration")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsActive))

	store.RemoveAll(ctx)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionsActive))
}

func TestToolMetrics(t *testing.T) {
	m, store, _, cfg := setup(t)
	logger, _ := sessiontest.NewLogger(t)
	dctx := dispatch.New(cfg, store, logger, m.CallObserver())

	dctx.Run(context.Background(), failingTool{}, nil)
	dctx.Run(context.Background(), failingTool{err: errors.New("bad")}, nil)
	dctx.Run(context.Background(), failingTool{err: &session.NotFoundError{ID: "x"}}, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("probe", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("probe", "tool")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("probe", "session_not_found")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ToolDuration))

	n, err := testutil.GatherAndCount(m.Registry, "browserbase_mcp_tool_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
