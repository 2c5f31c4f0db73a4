// Package gemini is an alternate connector that speaks the Gemini SDK instead
// of the generic chat-completions transport.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"parla-backend/internal/chat"
)

// Connector drives one conversation through a live Gemini chat session. The
// session is the connector-held cursor state: it accumulates turn history on
// the Gemini side, and Reset drops it so the next send starts fresh.
//
// Not safe for sharing across conversations; construct one per session.
type Connector struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	session *genai.ChatSession
}

func NewConnector(ctx context.Context, apiKey, modelName string) (*Connector, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)
	return &Connector{client: client, model: model}, nil
}

func (g *Connector) Close() {
	g.client.Close()
}

func (g *Connector) Send(ctx context.Context, emit chat.EmitFunc, text string, conv *chat.Conversation, opts map[string]any) error {
	if text == "" {
		return errors.New("gemini: continuing the previous reply is not supported")
	}
	if g.session == nil {
		g.session = g.model.StartChat()
	}

	iter := g.session.SendMessageStream(ctx, genai.Text(text))
	for {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			emit(chat.Delta{Done: true})
			return nil
		}
		if err != nil {
			return fmt.Errorf("gemini: stream: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			continue
		}
		cand := resp.Candidates[0]

		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			s := sb.String()
			emit(chat.Delta{Content: &s})
		}
		if refs := citationRefs(cand); len(refs) > 0 {
			emit(chat.Delta{Refs: refs})
		}
	}
}

// Reset drops the chat session so history does not leak across conversation
// resets.
func (g *Connector) Reset() {
	g.session = nil
}

func citationRefs(cand *genai.Candidate) []chat.Reference {
	if cand.CitationMetadata == nil {
		return nil
	}
	var out []chat.Reference
	for _, src := range cand.CitationMetadata.CitationSources {
		if src.URI == nil {
			continue
		}
		out = append(out, chat.Reference{H: *src.URI, T: *src.URI})
	}
	return out
}
