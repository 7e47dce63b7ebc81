package integrations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nutriguide/nutriguide/internal/domain/entities"
	"github.com/nutriguide/nutriguide/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc, contextWindow int) *OpenAIGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gateway, err := NewOpenAIGateway(server.URL, "test-key", "gpt-4o", contextWindow, 5*time.Second, zap.NewNop())
	require.NoError(t, err)
	return gateway
}

func completionJSON(content string, toolCalls string) string {
	if toolCalls == "" {
		toolCalls = "null"
	}
	return `{
		"choices": [{"message": {"content": ` + mustJSON(content) + `, "tool_calls": ` + toolCalls + `}}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19}
	}`
}

func mustJSON(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func TestOpenAIGateway_FinalAnswer(t *testing.T) {
	var gotAuth string
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Write([]byte(completionJSON("A banana has about 105 kcal.", "")))
	}, 128000)

	messages := []entities.Message{*entities.NewMessage(entities.RoleUser, "calories in a banana?")}
	answer, err := gateway.GenerateResponse(context.Background(), messages, nil)
	require.NoError(t, err)
	assert.Equal(t, entities.RoleAssistant, answer.Role)
	assert.Equal(t, "A banana has about 105 kcal.", answer.Content)
	assert.False(t, answer.HasToolCalls())
	assert.Equal(t, "Bearer test-key", gotAuth)

	usage, err := gateway.GetUsage()
	require.NoError(t, err)
	assert.Equal(t, 19, usage.TotalTokens)
}

// One gateway serves all sessions, and turns from different sessions may
// overlap. Run under -race.
func TestOpenAIGateway_ConcurrentCallsShareUsageSafely(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionJSON("answer", "")))
	}, 128000)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			messages := []entities.Message{*entities.NewMessage(entities.RoleUser, "hi")}
			_, err := gateway.GenerateResponse(context.Background(), messages, nil)
			assert.NoError(t, err)

			usage, err := gateway.GetUsage()
			assert.NoError(t, err)
			assert.Equal(t, 19, usage.TotalTokens)
		}()
	}
	wg.Wait()

	// GetUsage hands out a copy, not the shared record.
	usage, err := gateway.GetUsage()
	require.NoError(t, err)
	usage.TotalTokens = 0
	again, err := gateway.GetUsage()
	require.NoError(t, err)
	assert.Equal(t, 19, again.TotalTokens)
}

func TestOpenAIGateway_ToolCalls(t *testing.T) {
	toolCalls := `[{"id": "tc-1", "type": "function", "function": {"name": "web_search_nutrition", "arguments": "{\"query\":\"banana calories\"}"}}]`
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		// The request must carry the tool definitions.
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotNil(t, body["tools"])
		w.Write([]byte(completionJSON("", toolCalls)))
	}, 128000)

	messages := []entities.Message{*entities.NewMessage(entities.RoleUser, "look it up")}
	toolList := []entities.Tool{&fakeTool{}}
	answer, err := gateway.GenerateResponse(context.Background(), messages, toolList)
	require.NoError(t, err)
	require.True(t, answer.HasToolCalls())
	assert.Equal(t, "tc-1", answer.ToolCalls[0].ID)
	assert.Equal(t, "web_search_nutrition", answer.ToolCalls[0].Function.Name)
}

func TestOpenAIGateway_RequestTooLarge(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider must not be called when the request is over budget")
	}, 1)

	messages := []entities.Message{*entities.NewMessage(entities.RoleUser, "this conversation is far too long for a one token window")}
	_, err := gateway.GenerateResponse(context.Background(), messages, nil)
	var tooLarge *errors.RequestTooLargeError
	assert.ErrorAs(t, err, &tooLarge)
}

func TestOpenAIGateway_ServerErrorIsUnavailable(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}, 128000)

	messages := []entities.Message{*entities.NewMessage(entities.RoleUser, "hi")}
	_, err := gateway.GenerateResponse(context.Background(), messages, nil)
	var unavailable *errors.UnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestOpenAIGateway_MalformedResponseIsUnavailable(t *testing.T) {
	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}, 128000)

	messages := []entities.Message{*entities.NewMessage(entities.RoleUser, "hi")}
	_, err := gateway.GenerateResponse(context.Background(), messages, nil)
	var unavailable *errors.UnavailableError
	assert.ErrorAs(t, err, &unavailable)
}

func TestConvertToAPIMessages(t *testing.T) {
	assistant := entities.NewMessage(entities.RoleAssistant, "")
	call := entities.ToolCall{ID: "tc-1", Type: "function"}
	call.Function.Name = "web_search_nutrition"
	assistant.ToolCalls = []entities.ToolCall{call}

	apiMessages := convertToAPIMessages([]entities.Message{
		*entities.NewMessage(entities.RoleSystem, "instructions"),
		*entities.NewMessage(entities.RoleUser, "hello"),
		*assistant,
		*entities.NewToolResult("tc-1", "result text"),
	})

	require.Len(t, apiMessages, 4)
	assert.Equal(t, "system", apiMessages[0]["role"])
	// Empty assistant content is backfilled to keep providers happy.
	assert.Equal(t, "Executing tool call.", apiMessages[2]["content"])
	assert.Equal(t, "tc-1", apiMessages[3]["tool_call_id"])
}

type fakeTool struct{}

func (f *fakeTool) Name() string                     { return "web_search_nutrition" }
func (f *fakeTool) Description() string              { return "search" }
func (f *fakeTool) Configuration() map[string]string { return nil }
func (f *fakeTool) Parameters() []entities.Parameter {
	return []entities.Parameter{{Name: "query", Type: "string", Required: true}}
}
func (f *fakeTool) Execute(arguments string) (string, error) { return "", nil }
