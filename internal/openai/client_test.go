package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompletionsServer returns an httptest server that records the request
// body and answers with the given completion response.
func fakeCompletionsServer(t *testing.T, response string) (*httptest.Server, *map[string]any) {
	t.Helper()
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func newFakeClient(t *testing.T, response string) (*Client, *map[string]any) {
	t.Helper()
	srv, captured := fakeCompletionsServer(t, response)
	client := NewClient("sk-test", "gpt-4o", 5*time.Second, option.WithBaseURL(srv.URL+"/v1"))
	return client, captured
}

func TestCompleteDirectContent(t *testing.T) {
	client, captured := newFakeClient(t, `{
		"choices": [{"message": {"role": "assistant", "content": "You have two tasks."}}]
	}`)

	completion, err := client.Complete(context.Background(), Request{
		System: "You are a helpful assistant.",
		Messages: []Message{
			{Role: RoleUser, Content: "What are my tasks?"},
		},
		Tools: []ToolDeclaration{{
			Name:        "save_task_list",
			Description: "Save the task list.",
			Parameters: map[string]any{
				"type":     "object",
				"required": []string{"task_list"},
				"properties": map[string]any{
					"task_list": map[string]any{"type": "string"},
				},
			},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "You have two tasks.", completion.Content)
	assert.Empty(t, completion.ToolCalls)

	// The wire request carries the system message, the user message and the
	// declared tool.
	req := *captured
	assert.Equal(t, "gpt-4o", req["model"])
	messages := req["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
	tools := req["tools"].([]any)
	require.Len(t, tools, 1)
}

func TestCompleteToolCall(t *testing.T) {
	client, _ := newFakeClient(t, `{
		"choices": [{"message": {
			"role": "assistant",
			"content": "",
			"tool_calls": [{
				"id": "call_abc123",
				"type": "function",
				"function": {"name": "save_task_list", "arguments": "{\"task_list\": \"1. Buy milk\"}"}
			}]
		}}]
	}`)

	completion, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "Add buy milk"}},
	})
	require.NoError(t, err)

	assert.Empty(t, completion.Content)
	require.Len(t, completion.ToolCalls, 1)
	assert.Equal(t, "call_abc123", completion.ToolCalls[0].ID)
	assert.Equal(t, "save_task_list", completion.ToolCalls[0].Name)
	assert.JSONEq(t, `{"task_list": "1. Buy milk"}`, completion.ToolCalls[0].Arguments)
}

func TestCompleteEmptyResponse(t *testing.T) {
	client, _ := newFakeClient(t, `{"choices": []}`)

	completion, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Empty(t, completion.Content)
	assert.Empty(t, completion.ToolCalls)
}

func TestCompleteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient("sk-test", "gpt-4o", 5*time.Second,
		option.WithBaseURL(srv.URL+"/v1"), option.WithMaxRetries(0))

	_, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	assert.Error(t, err)
}

func TestToolRoundTripTranscript(t *testing.T) {
	// Second completion of a tool round-trip: the transcript replays the
	// assistant's tool-call message followed by the tool result.
	client, captured := newFakeClient(t, `{
		"choices": [{"message": {"role": "assistant", "content": "Saved!"}}]
	}`)

	toolCall := ToolCall{ID: "call_1", Name: "save_task_list", Arguments: `{"task_list":"1. Buy milk"}`}
	completion, err := client.Complete(context.Background(), Request{
		System: "You are a helpful assistant.",
		Messages: []Message{
			{Role: RoleUser, Content: "Add buy milk"},
			{Role: RoleAssistant, ToolCalls: []ToolCall{toolCall}},
			{Role: RoleTool, Content: `{"message": "Task saved successfully"}`, ToolCallID: "call_1"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Saved!", completion.Content)

	messages := (*captured)["messages"].([]any)
	require.Len(t, messages, 4)

	assistant := messages[2].(map[string]any)
	assert.Equal(t, "assistant", assistant["role"])
	calls := assistant["tool_calls"].([]any)
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].(map[string]any)["id"])

	tool := messages[3].(map[string]any)
	assert.Equal(t, "tool", tool["role"])
	assert.Equal(t, "call_1", tool["tool_call_id"])
}

func TestAssistantMessageFromCompletion(t *testing.T) {
	completion := Completion{
		ToolCalls: []ToolCall{{ID: "call_1", Name: "save_task_list", Arguments: "{}"}},
	}
	msg := completion.AssistantMessage()
	assert.Equal(t, RoleAssistant, msg.Role)
	assert.Len(t, msg.ToolCalls, 1)
}
