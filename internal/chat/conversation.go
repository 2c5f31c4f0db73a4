// Package chat holds the conversational state container behind the widget: an
// ordered message list, a delta-merge primitive fed by a pluggable connector,
// and an observer protocol that reports every mutation as a batch of
// replayable change records.
package chat

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"parla-backend/internal/transport"
)

// DefaultURL is the endpoint used when the configuration names none.
const DefaultURL = "v1/chat/completions"

// ErrBusy is returned by Send while a previous reply is still streaming. At
// most one assistant reply may be in flight per conversation.
var ErrBusy = errors.New("chat: a reply is already in flight")

// SendFunc is the raw send operation handed to a SendHook.
type SendFunc func(ctx context.Context, text string, opts map[string]any) error

// SendHook intercepts Send calls. It receives the raw send function and
// decides whether and when to invoke it; this is the extension point for
// request rewriting or client-side moderation.
type SendHook func(ctx context.Context, conv *Conversation, raw SendFunc, text string, opts map[string]any) error

// Config is the in-memory construction record of a Conversation.
//
// The request payload of the built-in connector is produced from exactly one
// of RequestBody (literal), RequestBuilder (function), or BaseRequest (base
// object to which the message history and the stream flag are merged), in
// that order of precedence.
type Config struct {
	URL            string
	RequestBody    string
	RequestBuilder RequestBuilder
	BaseRequest    map[string]any
	Connector      Connector
	SendHook       SendHook
	Options        []map[string]any
	HTTPClient     *http.Client
	NonStreaming   bool
}

// Conversation owns the ordered message list and the observer list. All
// mutation funnels through the merge primitive applyLocked; observers are
// notified synchronously, one call per batch, in emission order.
type Conversation struct {
	mu        sync.Mutex
	cfg       Config
	connector Connector
	messages  []*Message
	observers []Observer

	// pending is the assistant message currently receiving deltas. It is set
	// when the reply message is created (or reused when continuing into a
	// trailing assistant message) and cleared on completion.
	pending  *Message
	inFlight bool

	// generation invalidates in-flight streams: Reset increments it and delta
	// callbacks carrying an older generation become no-ops.
	generation uint64
}

// New builds a Conversation. When cfg.Connector is nil the built-in
// chat-completions connector over internal/transport is used.
func New(cfg Config) *Conversation {
	c := &Conversation{cfg: cfg, generation: 1}
	c.connector = cfg.Connector
	if c.connector == nil {
		c.connector = &httpConnector{client: transport.NewClient(cfg.HTTPClient)}
	}
	return c
}

// Observe registers an observer for every subsequent change batch. There is no
// replay of past history; callers needing it should seed via Reset.
func (c *Conversation) Observe(o Observer) *Conversation {
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
	return c
}

// Messages returns a snapshot of the current message list.
func (c *Conversation) Messages() []*Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Message(nil), c.messages...)
}

// Options exposes the configured option groups for the rendering side.
func (c *Conversation) Options() []map[string]any {
	if c.cfg.Options == nil {
		return []map[string]any{}
	}
	return c.cfg.Options
}

// Send appends a user message (unless text is empty) and streams the reply
// through the connector. Empty text continues or regenerates the last
// assistant reply instead of opening a new turn. The user-message add record
// is emitted synchronously, before any network activity.
func (c *Conversation) Send(ctx context.Context, text string, opts map[string]any) error {
	if c.cfg.SendHook != nil {
		return c.cfg.SendHook(ctx, c, c.send, text, opts)
	}
	return c.send(ctx, text, opts)
}

// Reset replaces the message list, clears connector session state and bumps
// the generation so that stale delta callbacks are dropped. Observers receive
// one reset record, then one add + completed-content batch per restored
// message that has content. With send set, a continue-send follows.
func (c *Conversation) Reset(ctx context.Context, messages []*Message, send bool) error {
	c.mu.Lock()
	c.generation++
	c.inFlight = false
	c.pending = nil
	c.messages = append([]*Message(nil), messages...)
	c.connector.Reset()
	c.notifyLocked([]Change{{Action: ActionReset}})
	for _, msg := range messages {
		if msg.Content == nil || *msg.Content == "" {
			continue
		}
		c.notifyLocked([]Change{
			{Action: ActionAdd, Message: msg, End: true},
			{Action: ActionUpdateProperty, Message: msg, Property: PropertyContent, Value: *msg.Content, End: true},
		})
	}
	c.mu.Unlock()

	if send {
		return c.send(ctx, "", nil)
	}
	return nil
}

func (c *Conversation) send(ctx context.Context, text string, opts map[string]any) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrBusy
	}
	c.inFlight = true
	gen := c.generation
	c.pending = nil
	if text != "" {
		t := text
		_, changes := c.applyLocked(applyArgs{delta: &t, done: true, options: opts})
		c.notifyLocked(changes)
	} else if n := len(c.messages); n > 0 && c.messages[n-1].Role == RoleAssistant {
		// Continue into the trailing assistant reply. This is initialization
		// only: no add record is emitted for the reused message.
		c.pending = c.messages[n-1]
	}
	conn := c.connector
	c.mu.Unlock()

	err := conn.Send(ctx, func(d Delta) { c.receive(gen, d) }, text, c, opts)

	c.mu.Lock()
	if c.generation == gen {
		c.inFlight = false
		c.pending = nil
	}
	c.mu.Unlock()
	return err
}

// receive merges one inbound delta into the pending assistant message,
// creating it lazily on the first event of a fresh reply.
func (c *Conversation) receive(gen uint64, d Delta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// stale stream, the conversation was reset underneath it
		return
	}
	target := c.pending
	msg, changes := c.applyLocked(applyArgs{
		delta:     d.Content,
		target:    target,
		receive:   true,
		done:      d.Done,
		refs:      d.Refs,
		refsDelta: d.RefsDelta,
		refsDone:  d.RefsDone,
	})
	if target == nil {
		c.pending = msg
	}
	if d.Done {
		c.pending = nil
	}
	c.notifyLocked(changes)
}

type applyArgs struct {
	delta     *string
	target    *Message
	receive   bool
	done      bool
	refs      []Reference
	refsDelta *string
	refsDone  bool
	options   map[string]any
}

// applyLocked is the merge primitive: one invocation per inbound delta or
// control event, producing the ordered change batch for that event. Callers
// hold c.mu.
func (c *Conversation) applyLocked(a applyArgs) (*Message, []Change) {
	target := a.target
	var changes []Change

	if target == nil {
		role := RoleUser
		if a.receive {
			role = RoleAssistant
		}
		target = &Message{Role: role, Options: a.options}
		c.messages = append(c.messages, target)
		changes = append(changes, Change{Action: ActionAdd, Message: target, End: a.done})
	}

	// Content always flows through updateProperty records, first delta
	// included, so the Value snapshots alone replay the full text even though
	// the message pointer keeps mutating.
	if a.delta != nil {
		merged := target.TextContent() + *a.delta
		target.Content = &merged
		changes = append(changes, Change{
			Action: ActionUpdateProperty, Message: target,
			Property: PropertyContent, Value: merged, End: a.done,
		})
	}
	if a.refsDelta != nil {
		merged := *a.refsDelta
		if target.ContentWithRefs != nil {
			merged = *target.ContentWithRefs + *a.refsDelta
		}
		target.ContentWithRefs = &merged
		changes = append(changes, Change{
			Action: ActionUpdateProperty, Message: target,
			Property: PropertyContentWithRefs, Value: merged, End: a.refsDone,
		})
	}
	if a.refs != nil {
		target.Refs = a.refs
		changes = append(changes, Change{
			Action: ActionUpdateProperty, Message: target,
			Property: PropertyRefs, Value: target.Refs, End: true,
		})
	}

	if a.receive && (a.done || a.target == nil) {
		changes = append(changes, Change{Action: ActionReadyToSend, Message: target, Value: a.done})
	}
	if a.done && a.receive && a.delta == nil {
		changes = append(changes, Change{Action: ActionReceived, Message: target, End: true})
	}

	return target, changes
}

// notifyLocked delivers one batch to every observer. Callers hold c.mu, which
// keeps batches atomic and ordered; observers must not re-enter the
// conversation from Update.
func (c *Conversation) notifyLocked(changes []Change) {
	if len(changes) == 0 {
		return
	}
	for _, o := range c.observers {
		o.Update(changes)
	}
}
