package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/browserbase-mcp/pkg/llm"
	"github.com/entrhq/browserbase-mcp/pkg/types"
)

func sseServer(t *testing.T, lines []string, inspect func(body map[string]interface{})) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if inspect != nil {
			inspect(body)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for _, l := range lines {
			fmt.Fprintf(w, "%s\n\n", l)
		}
	}))
}

func delta(role, content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"delta": map[string]string{"role": role, "content": content}},
		},
	})
	return "data: " + string(b)
}

func TestNewProvider(t *testing.T) {
	_, err := NewProvider("")
	assert.Error(t, err)

	p, err := NewProvider("k", WithModel("gemini-2.0-flash"), WithBaseURL("https://example.test/v1/"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", p.GetModel())
	assert.Equal(t, "https://example.test/v1", p.GetBaseURL())
	assert.Equal(t, "gemini-2.0-flash", p.GetModelInfo().Name)
	assert.Equal(t, "https://example.test/v1", p.GetModelInfo().Metadata["base_url"])
}

func TestComplete_SeparatesThinking(t *testing.T) {
	srv := sseServer(t, []string{
		": keep-alive",
		delta("assistant", "<thinking>the button"),
		delta("", " is second</thinking>"),
		delta("", `{"method":"click",`),
		delta("", `"element":3}`),
		"data: [DONE]",
	}, func(body map[string]interface{}) {
		assert.Equal(t, "m1", body["model"])
		assert.Equal(t, true, body["stream"])
		assert.Equal(t, map[string]interface{}{"type": "json_object"}, body["response_format"])
		assert.Len(t, body["messages"], 2)
	})
	defer srv.Close()

	p, err := NewProvider("test-key", WithBaseURL(srv.URL), WithModel("m1"), WithJSONMode(), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	msg, err := p.Complete(context.Background(), []*types.Message{
		types.NewSystemMessage("sys"),
		types.NewUserMessage("dom"),
	})
	require.NoError(t, err)
	assert.Equal(t, types.RoleAssistant, msg.Role)
	assert.Equal(t, `{"method":"click","element":3}`, msg.Content)
	assert.Equal(t, "the button is second", msg.Metadata["thinking"])
}

func TestComplete_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	p, err := NewProvider("test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), []*types.Message{types.NewUserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "bad key")
}

func TestComplete_StreamError(t *testing.T) {
	srv := sseServer(t, []string{
		delta("assistant", "partial"),
		`data: {"error":{"message":"quota exceeded"}}`,
	}, nil)
	defer srv.Close()

	p, err := NewProvider("test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), []*types.Message{types.NewUserMessage("hi")})
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestConvertToOpenAIMessages(t *testing.T) {
	msgs := convertToOpenAIMessages([]*types.Message{
		types.NewSystemMessage("a"),
		types.NewUserMessage("b"),
		types.NewAssistantMessage("c"),
		{Role: "tool", Content: "d"},
	})
	require.Len(t, msgs, 4)
	assert.NotNil(t, msgs[0].OfSystem)
	assert.NotNil(t, msgs[1].OfUser)
	assert.NotNil(t, msgs[2].OfAssistant)
	assert.NotNil(t, msgs[3].OfUser)
}

func TestSend_CanceledWithFullBuffer(t *testing.T) {
	p, err := NewProvider("k")
	require.NoError(t, err)

	chunks := make(chan *llm.StreamChunk, 1)
	chunks <- &llm.StreamChunk{Content: "unread"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan bool, 1)
	go func() { done <- p.send(ctx, &llm.StreamChunk{Content: "late"}, chunks) }()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send blocked after cancellation")
	}
	assert.Len(t, chunks, 1)
}
