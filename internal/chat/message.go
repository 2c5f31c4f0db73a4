package chat

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Reference is one entry of the caller-supplied citation list. H is the href
// fragment or document id the citation points at, T its human-readable title.
type Reference struct {
	H string `json:"h"`
	T string `json:"t"`
}

// Message is a single turn of a conversation. Content is nil only transiently,
// between creation of an assistant message and the arrival of its first delta;
// the rendering side shows a waiting indicator for that window. A nil Content
// is omitted from the JSON form rather than sent as null.
//
// ContentWithRefs carries the citation-annotated variant of Content when the
// connector produces one. The two streams grow independently and may diverge;
// refs.Resolve reconciles them for display.
type Message struct {
	Role            Role           `json:"role"`
	Content         *string        `json:"content,omitempty"`
	ContentWithRefs *string        `json:"content_with_refs,omitempty"`
	Refs            []Reference    `json:"refs,omitempty"`
	Options         map[string]any `json:"options,omitempty"`
}

// TextContent returns the accumulated content, or "" while none has arrived.
func (m *Message) TextContent() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// NewMessage builds a completed message, for seeding restored history into
// Conversation.Reset.
func NewMessage(role Role, content string) *Message {
	return &Message{Role: role, Content: &content}
}
