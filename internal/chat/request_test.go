package chat

import (
	"context"
	"encoding/json"
	"testing"
)

func TestRequestBody_LiteralPassthrough(t *testing.T) {
	conv := New(Config{Connector: &scriptConnector{}, RequestBody: `{"exactly":"this"}`})

	body, err := conv.requestBody("v1/chat/completions", true)
	if err != nil {
		t.Fatalf("requestBody failed: %v", err)
	}
	if body != `{"exactly":"this"}` {
		t.Errorf("Expected the literal body verbatim, got %q", body)
	}
}

func TestRequestBody_Builder(t *testing.T) {
	tests := []struct {
		name     string
		builder  RequestBuilder
		expected string
	}{
		{
			name: "string result used verbatim",
			builder: func(conv *Conversation, url string, stream bool) (any, error) {
				return `{"raw":true}`, nil
			},
			expected: `{"raw":true}`,
		},
		{
			name: "non-string result marshaled",
			builder: func(conv *Conversation, url string, stream bool) (any, error) {
				return map[string]any{"n": 1}, nil
			},
			expected: `{"n":1}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conv := New(Config{Connector: &scriptConnector{}, RequestBuilder: tc.builder})
			body, err := conv.requestBody("v1/chat/completions", true)
			if err != nil {
				t.Fatalf("requestBody failed: %v", err)
			}
			if body != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, body)
			}
		})
	}
}

func TestRequestBody_BaseRequestMerge(t *testing.T) {
	conv := New(Config{
		Connector:   &scriptConnector{},
		BaseRequest: map[string]any{"model": "test-model", "temperature": 0.5},
	})
	if err := conv.Reset(context.Background(), []*Message{
		NewMessage(RoleUser, "hi"),
		NewMessage(RoleAssistant, "hello"),
		{Role: RoleAssistant}, // nil content, excluded from the wire history
	}, false); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	body, err := conv.requestBody("v1/chat/completions", true)
	if err != nil {
		t.Fatalf("requestBody failed: %v", err)
	}

	var parsed struct {
		Model    string  `json:"model"`
		Temp     float64 `json:"temperature"`
		Stream   bool    `json:"stream"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		t.Fatalf("Failed to parse body: %v", err)
	}

	if parsed.Model != "test-model" || parsed.Temp != 0.5 {
		t.Errorf("Base request fields lost: %+v", parsed)
	}
	if !parsed.Stream {
		t.Error("Expected stream flag in streaming mode")
	}
	if len(parsed.Messages) != 2 {
		t.Fatalf("Expected 2 wire messages, got %d", len(parsed.Messages))
	}
	if parsed.Messages[0].Role != "user" || parsed.Messages[0].Content != "hi" {
		t.Errorf("Unexpected first wire message: %+v", parsed.Messages[0])
	}
}

func TestRequestBody_NonStreamingOmitsStreamFlag(t *testing.T) {
	conv := New(Config{Connector: &scriptConnector{}, NonStreaming: true})

	body, err := conv.requestBody("v1/chat/completions", false)
	if err != nil {
		t.Fatalf("requestBody failed: %v", err)
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		t.Fatalf("Failed to parse body: %v", err)
	}
	if _, ok := parsed["stream"]; ok {
		t.Error("stream flag must be absent in non-streaming mode")
	}
	if _, ok := parsed["messages"]; !ok {
		t.Error("messages array must always be present")
	}
}
