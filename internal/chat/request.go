package chat

import (
	"encoding/json"
	"fmt"
)

// RequestBuilder produces the request payload for one send. It may return a
// string, used verbatim, or any JSON-serializable value.
type RequestBuilder func(conv *Conversation, url string, stream bool) (any, error)

type wireMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// requestBody renders the outgoing request body for the built-in connector.
func (c *Conversation) requestBody(url string, stream bool) (string, error) {
	cfg := c.cfg
	if cfg.RequestBody != "" {
		return cfg.RequestBody, nil
	}
	if cfg.RequestBuilder != nil {
		v, err := cfg.RequestBuilder(c, url, stream)
		if err != nil {
			return "", err
		}
		if s, ok := v.(string); ok {
			return s, nil
		}
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("chat: marshal built request: %w", err)
		}
		return string(data), nil
	}

	request := make(map[string]any, len(cfg.BaseRequest)+2)
	for k, v := range cfg.BaseRequest {
		request[k] = v
	}
	history := []wireMessage{}
	for _, msg := range c.Messages() {
		if msg.Content == nil {
			continue
		}
		history = append(history, wireMessage{Role: msg.Role, Content: *msg.Content})
	}
	request["messages"] = history
	if stream {
		request["stream"] = true
	}
	data, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("chat: marshal request: %w", err)
	}
	return string(data), nil
}
