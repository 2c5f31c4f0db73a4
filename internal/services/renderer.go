package services

import (
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"parla-backend/internal/chat"
	"parla-backend/internal/models"
	"parla-backend/internal/refs"
)

// RenderObserver runs the widget's rendering pipeline server-side: whenever
// the content, annotated content or reference list of an assistant reply
// grows, it resolves citations against the plain stream and publishes the
// sanitized HTML next to the raw change feed. Clients that do not want to
// interpret change records can show this directly.
type RenderObserver struct {
	redis      *redis.Client
	sessionID  uuid.UUID
	baseURL    string
	linkTarget string
}

func NewRenderObserver(redisClient *redis.Client, sessionID uuid.UUID, baseURL, linkTarget string) *RenderObserver {
	return &RenderObserver{
		redis:      redisClient,
		sessionID:  sessionID,
		baseURL:    baseURL,
		linkTarget: linkTarget,
	}
}

func (r *RenderObserver) Update(changes []chat.Change) {
	for _, change := range changes {
		if change.Action != chat.ActionUpdateProperty || change.Message == nil {
			continue
		}
		if change.Message.Role != chat.RoleAssistant {
			continue
		}
		switch change.Property {
		case chat.PropertyContent, chat.PropertyContentWithRefs, chat.PropertyRefs:
		default:
			continue
		}

		msg := change.Message
		text := msg.TextContent()
		if msg.ContentWithRefs != nil && msg.Refs != nil {
			text = refs.Resolve(text, *msg.ContentWithRefs, msg.Refs, map[string]int{}, r.baseURL, r.linkTarget)
		}
		publish(r.redis, r.sessionID, models.WSMessage{
			Type: "rendered",
			Payload: models.RenderedMessage{
				SessionID: r.sessionID,
				HTML:      refs.ToHTML(text),
				Done:      change.End,
			},
		})
	}
}
