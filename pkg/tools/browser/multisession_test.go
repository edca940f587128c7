package browser_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createdID pulls the local id out of a multi-session create reply.
func createdID(t *testing.T, text string) string {
	t.Helper()
	first, _, _ := strings.Cut(text, "\n")
	fields := strings.Fields(strings.TrimPrefix(first, "Created session "))
	require.NotEmpty(t, fields, text)
	return fields[0]
}

func TestMultiSession_Lifecycle(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "browserbase_stagehand_session_list", nil)
	require.False(t, res.IsError)
	assert.Equal(t, "No active sessions", res.Text())

	res = h.call(t, "multi_browserbase_stagehand_session_create", map[string]any{"name": "login-flow"})
	require.False(t, res.IsError, res.Text())
	assert.Regexp(t, `^Created session \S+_proj \(login-flow\)\nBrowserbase session: bb-1$`, res.Text())
	first := createdID(t, res.Text())

	res = h.call(t, "multi_browserbase_stagehand_session_create", map[string]any{
		"browserbaseSessionCreateParams": map[string]any{"region": "eu-central-1", "keepAlive": true},
	})
	require.False(t, res.IsError, res.Text())
	second := createdID(t, res.Text())
	assert.NotEqual(t, first, second)

	opts := h.factory.Last().Opts
	require.NotNil(t, opts.SessionCreateParams)
	assert.Equal(t, "eu-central-1", opts.SessionCreateParams.Region)
	assert.True(t, opts.SessionCreateParams.KeepAlive)

	res = h.call(t, "browserbase_stagehand_session_list", nil)
	require.False(t, res.IsError)
	lines := strings.Split(res.Text(), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Active sessions (2):", lines[0])
	assert.Regexp(t, regexp.MustCompile(`^- `+regexp.QuoteMeta(first)+` \(login-flow\) - BB: bb-1 - Age: \d+s$`), lines[1])
	assert.Regexp(t, regexp.MustCompile(`^- `+regexp.QuoteMeta(second)+` - BB: bb-2 - Age: \d+s$`), lines[2])

	res = h.call(t, "multi_browserbase_stagehand_session_close", map[string]any{"sessionId": first})
	require.False(t, res.IsError, res.Text())
	assert.Equal(t, "Closed session "+first, res.Text())
	assert.Equal(t, 1, h.store.Size())

	res = h.call(t, "multi_browserbase_stagehand_session_close", map[string]any{"sessionId": first})
	assert.True(t, res.IsError)
	assert.Equal(t, "Error: Session "+first+" not found", res.Text())
}

func TestMultiSession_CreateFailure(t *testing.T) {
	h := newHarness(t)
	h.ctx.Config().BrowserbaseProjectID = ""

	res := h.call(t, "multi_browserbase_stagehand_session_create", nil)
	assert.True(t, res.IsError)
	assert.Equal(t,
		"Error: Failed to create browser session: configuration error: Browserbase API Key and Project ID are required. "+
			"Please check your Browserbase credentials and try again.",
		res.Text())
}

func TestMultiSession_ScopedTools(t *testing.T) {
	h := newHarness(t)

	res := h.call(t, "multi_browserbase_stagehand_session_create", map[string]any{"name": "a"})
	require.False(t, res.IsError, res.Text())
	id := createdID(t, res.Text())
	scoped := h.factory.Last()

	res = h.call(t, "multi_browserbase_stagehand_navigate_session", map[string]any{
		"sessionId": id,
		"url":       "https://example.com",
	})
	require.False(t, res.IsError, res.Text())
	assert.Equal(t, []string{"https://example.com"}, scoped.FakePage.Gotos)

	_, ok := h.ctx.Default().Current()
	assert.False(t, ok, "scoped calls leave the default session alone")
	assert.Equal(t, 1, h.store.Size())

	res = h.call(t, "multi_browserbase_stagehand_act_session", map[string]any{
		"sessionId": "nope",
		"action":    "click",
	})
	assert.True(t, res.IsError)
	assert.Equal(t, "Error: Session nope not found", res.Text())
	assert.Equal(t, 1, h.store.Size())
}
