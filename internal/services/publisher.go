// Package services bridges conversations to the delivery side: observers
// that forward change batches and rendered replies to Redis pub/sub, where
// the WebSocket hub picks them up.
package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"parla-backend/internal/chat"
	"parla-backend/internal/models"
)

// UpdateChannel is the pub/sub channel carrying a session's widget updates.
func UpdateChannel(sessionID uuid.UUID) string {
	return "session_updates:" + sessionID.String()
}

func publish(redisClient *redis.Client, sessionID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	redisClient.Publish(context.Background(), UpdateChannel(sessionID), string(data))
}

// ChangePublisher forwards every change batch of a conversation, verbatim and
// in emission order, to the session's update channel.
type ChangePublisher struct {
	redis     *redis.Client
	sessionID uuid.UUID
}

func NewChangePublisher(redisClient *redis.Client, sessionID uuid.UUID) *ChangePublisher {
	return &ChangePublisher{redis: redisClient, sessionID: sessionID}
}

func (p *ChangePublisher) Update(changes []chat.Change) {
	publish(p.redis, p.sessionID, models.WSMessage{
		Type: "changes",
		Payload: models.ChangeBatch{
			SessionID: p.sessionID,
			Changes:   changes,
		},
	})
}

// PublishError reports a failed send on the session's update channel.
func PublishError(redisClient *redis.Client, sessionID uuid.UUID, code string, err error) {
	publish(redisClient, sessionID, models.WSMessage{
		Type: "error",
		Payload: models.ErrorEvent{
			SessionID:    sessionID,
			ErrorCode:    code,
			ErrorMessage: err.Error(),
		},
	})
}
