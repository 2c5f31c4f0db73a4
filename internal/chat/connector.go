package chat

import (
	"context"
	"encoding/json"

	"parla-backend/internal/transport"
)

// Delta is one inbound network event mapped onto the merge primitive's
// parameters. Content and RefsDelta are nil when the event carried nothing for
// that channel; Done marks the final event of the exchange.
type Delta struct {
	Content   *string
	Done      bool
	Refs      []Reference
	RefsDelta *string
	RefsDone  bool
}

// EmitFunc hands one Delta to the conversation. Connectors must call it
// sequentially; the conversation serializes merges behind it.
type EmitFunc func(d Delta)

// Connector turns a send request into a sequence of deltas. Implementations
// may speak any protocol; Reset clears whatever session or cursor state the
// connector holds between sends.
type Connector interface {
	Send(ctx context.Context, emit EmitFunc, text string, conv *Conversation, opts map[string]any) error
	Reset()
}

// httpConnector is the built-in connector: chat-completion style payloads over
// the line-framed streaming transport.
type httpConnector struct {
	client *transport.Client
}

func (hc *httpConnector) Send(ctx context.Context, emit EmitFunc, text string, conv *Conversation, opts map[string]any) error {
	stream := !conv.cfg.NonStreaming
	url := conv.cfg.URL
	if url == "" {
		url = DefaultURL
	}
	body, err := conv.requestBody(url, stream)
	if err != nil {
		return err
	}
	return hc.client.Send(ctx, url, body, stream, func(data json.RawMessage, done bool) {
		ev := decodePayload(data, stream)
		switch ev.kind {
		case eventContentDelta, eventCompletionText:
			s := ev.text
			emit(Delta{Content: &s, Done: done})
		case eventEmpty:
			if done {
				s := ""
				emit(Delta{Content: &s, Done: true})
			}
		case eventDone:
			emit(Delta{Done: true})
		}
	})
}

// Reset is a no-op: the built-in connector keeps no session state.
func (hc *httpConnector) Reset() {}

type eventKind int

const (
	eventEmpty eventKind = iota
	eventContentDelta
	eventCompletionText
	eventDone
)

// payloadEvent is the decoded form of one inbound payload. Format sniffing
// happens here, at the connector boundary, so the merge primitive only ever
// sees plain deltas.
type payloadEvent struct {
	kind eventKind
	text string
}

func decodePayload(data json.RawMessage, streaming bool) payloadEvent {
	if data == nil {
		return payloadEvent{kind: eventDone}
	}
	var p struct {
		Choices []struct {
			Delta *struct {
				Content *string `json:"content"`
			} `json:"delta"`
			Text    *string `json:"text"`
			Message *struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &p); err != nil || len(p.Choices) == 0 {
		return payloadEvent{kind: eventEmpty}
	}
	choice := p.Choices[0]
	switch {
	case !streaming && choice.Message != nil:
		return payloadEvent{kind: eventCompletionText, text: choice.Message.Content}
	case choice.Delta != nil:
		if choice.Delta.Content == nil {
			return payloadEvent{kind: eventContentDelta}
		}
		return payloadEvent{kind: eventContentDelta, text: *choice.Delta.Content}
	case choice.Text != nil:
		return payloadEvent{kind: eventCompletionText, text: *choice.Text}
	}
	return payloadEvent{kind: eventEmpty}
}
