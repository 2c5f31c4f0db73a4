package chat

// Action discriminates change records.
type Action string

const (
	// ActionAdd announces a message appended to the conversation. Content is
	// never carried by the add itself: every delta, the first included, is
	// reported as a separate updateProperty record in the same batch.
	ActionAdd Action = "add"

	// ActionUpdateProperty reports growth of one property of an existing
	// message. Value holds the full accumulated value after the merge.
	ActionUpdateProperty Action = "updateProperty"

	// ActionReadyToSend tells the rendering side whether the send control may
	// be re-enabled. Value is a bool: false while a reply is streaming, true
	// once it completed.
	ActionReadyToSend Action = "readyToSend"

	// ActionReceived marks a pure completion signal: the stream finished and
	// this final event carried no content.
	ActionReceived Action = "received"

	// ActionReset signals that the whole message list was replaced.
	ActionReset Action = "reset"
)

// Property names the message field an updateProperty record refers to.
type Property string

const (
	PropertyContent         Property = "content"
	PropertyContentWithRefs Property = "contentWithRefs"
	PropertyRefs            Property = "refs"
)

// Change is one immutable state-transition record. Every mutating operation on
// a Conversation emits an ordered batch of these to every observer; records
// are never altered after emission, so observers may retain them for replay.
//
// End reports completion of the sub-channel the record belongs to (content
// stream, annotated stream, or refs list); the three flags are independent
// because a transport may finish the plain stream before the references.
type Change struct {
	Action   Action   `json:"action"`
	Message  *Message `json:"message,omitempty"`
	Property Property `json:"property,omitempty"`
	Value    any      `json:"value,omitempty"`
	End      bool     `json:"end,omitempty"`
}

// Observer receives every change batch emitted after registration, in emission
// order, one call per batch. Update runs synchronously on the goroutine that
// performed the mutation and must not call back into the Conversation.
type Observer interface {
	Update(changes []Change)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(changes []Change)

func (f ObserverFunc) Update(changes []Change) { f(changes) }
