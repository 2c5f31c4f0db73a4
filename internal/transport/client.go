// Package transport reads chat-completion responses: either a single JSON
// body, or a server-sent-events shaped stream of line-framed JSON payloads.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "data: [DONE]"
)

// EventFunc receives one parsed payload. During streaming it is called once
// per data line with done=false, then exactly once with (nil, true) when the
// stream ends. In non-streaming mode it is called exactly once with the whole
// parsed body and done=true.
type EventFunc func(data json.RawMessage, done bool)

// Client issues the widget's HTTP requests. The zero-value http.Client is
// used when none is supplied; no timeout and no retry are imposed here, that
// is the embedding application's call.
type Client struct {
	http *http.Client
}

func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{http: hc}
}

// Send issues a GET (empty body) or POST (body present) with JSON headers and
// feeds the response through fn. Network failures and non-2xx statuses are
// returned to the caller unwrapped into the error; mid-stream parse failures
// are not: a malformed line silently ends processing of the currently
// buffered lines only.
func (c *Client) Send(ctx context.Context, url string, body string, stream bool, fn EventFunc) error {
	method := http.MethodGet
	var reader io.Reader
	if body != "" {
		method = http.MethodPost
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("transport: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("transport: unexpected status %s", resp.Status)
	}

	if !stream {
		return c.readWhole(resp.Body, fn)
	}
	return c.readStream(resp.Body, fn)
}

// readWhole parses the entire body as one JSON document.
func (c *Client) readWhole(body io.Reader, fn EventFunc) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	var payload json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("transport: parse response: %w", err)
	}
	fn(payload, true)
	return nil
}

// readStream buffers partial lines across chunk boundaries and emits one
// event per well-formed data line. A line that fails to parse halts the
// current buffered batch; lines still buffered are retried when the next
// chunk arrives. Stream end emits the terminal (nil, true) sentinel.
func (c *Client) readStream(body io.Reader, fn EventFunc) error {
	var buf string
	chunk := make([]byte, 4096)
	for {
		n, err := body.Read(chunk)
		if n > 0 {
			buf += string(chunk[:n])
			for {
				i := strings.IndexByte(buf, '\n')
				if i < 0 {
					break
				}
				line := strings.TrimSuffix(buf[:i], "\r")
				buf = buf[i+1:]
				if !strings.HasPrefix(line, dataPrefix) || line == doneSentinel {
					continue
				}
				var payload json.RawMessage
				if json.Unmarshal([]byte(line[len(dataPrefix):]), &payload) != nil {
					break
				}
				fn(payload, false)
			}
		}
		if err == io.EOF {
			// an incomplete trailing line is dropped
			fn(nil, true)
			return nil
		}
		if err != nil {
			return err
		}
	}
}
