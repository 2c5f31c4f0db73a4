package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		streaming bool
		kind      eventKind
		text      string
	}{
		{"nil payload is the terminal event", "", true, eventDone, ""},
		{"malformed json", `{"choices":`, true, eventEmpty, ""},
		{"no choices", `{"choices":[]}`, true, eventEmpty, ""},
		{"streaming delta", `{"choices":[{"delta":{"content":"Hi"}}]}`, true, eventContentDelta, "Hi"},
		{"streaming delta without content", `{"choices":[{"delta":{}}]}`, true, eventContentDelta, ""},
		{"legacy text completion", `{"choices":[{"text":"Hi"}]}`, true, eventCompletionText, "Hi"},
		{"non-streaming message", `{"choices":[{"message":{"content":"Hi"}}]}`, false, eventCompletionText, "Hi"},
		{"unrecognized shape", `{"choices":[{"other":1}]}`, true, eventEmpty, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var data json.RawMessage
			if tc.data != "" {
				data = json.RawMessage(tc.data)
			}
			ev := decodePayload(data, tc.streaming)
			if ev.kind != tc.kind {
				t.Errorf("Expected kind %d, got %d", tc.kind, ev.kind)
			}
			if ev.text != tc.text {
				t.Errorf("Expected text %q, got %q", tc.text, ev.text)
			}
		})
	}
}

func TestHTTPConnector_StreamingEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to parse request body: %v", err)
		}
		if body["stream"] != true {
			t.Errorf("Expected stream flag in request, got %v", body["stream"])
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n")
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	defer server.Close()

	rec := &recorder{}
	conv := New(Config{URL: server.URL, BaseRequest: map[string]any{"model": "m"}}).Observe(rec)

	if err := conv.Send(context.Background(), "hi", nil); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	msgs := conv.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if got := msgs[1].TextContent(); got != "Hello" {
		t.Errorf("Expected accumulated 'Hello', got %q", got)
	}

	last := rec.batches[len(rec.batches)-1]
	if last[len(last)-1].Action != ActionReceived {
		t.Errorf("Expected terminal received record, got %v", actions(last))
	}
}

func TestHTTPConnector_NonStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"whole reply"}}]}`)
	}))
	defer server.Close()

	conv := New(Config{URL: server.URL, NonStreaming: true})

	if err := conv.Send(context.Background(), "hi", nil); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	msgs := conv.Messages()
	if got := msgs[1].TextContent(); got != "whole reply" {
		t.Errorf("Expected the whole-body reply, got %q", got)
	}
}

func TestHTTPConnector_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	conv := New(Config{URL: server.URL})

	if err := conv.Send(context.Background(), "hi", nil); err == nil {
		t.Fatal("Expected an error for a non-2xx upstream response")
	}

	// the user message stays, no assistant message was created
	msgs := conv.Messages()
	if len(msgs) != 1 || msgs[0].Role != RoleUser {
		t.Errorf("Expected only the user message after a failed send, got %+v", msgs)
	}
}
