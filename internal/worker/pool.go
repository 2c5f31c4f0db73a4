package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"parla-backend/internal/chat"
	"parla-backend/internal/models"
	"parla-backend/internal/services"
	"parla-backend/internal/session"
)

const sendQueue = "queue:chat-send"

// Pool consumes queued chat-send jobs and drives the session conversations.
// Streaming deltas reach the client through the conversation observers, so a
// worker only reports terminal errors itself.
type Pool struct {
	redis       *redis.Client
	store       *session.Store
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, store *session.Store, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		store:       store,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

// Enqueue pushes a send job onto the shared queue.
func Enqueue(ctx context.Context, redisClient *redis.Client, job models.SendJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return redisClient.RPush(ctx, sendQueue, string(data)).Err()
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, sendQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.SendJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		p.process(ctx, id, job)
	}
}

func (p *Pool) process(ctx context.Context, id int, job models.SendJob) {
	sess, ok := p.store.Get(job.SessionID)
	if !ok {
		log.Printf("Worker %d: session %s expired, dropping job", id, job.SessionID)
		return
	}

	log.Printf("Worker %d: sending message for session %s", id, job.SessionID)

	if err := sess.Conversation.Send(ctx, job.Message, job.Options); err != nil {
		code := "AI_ERROR"
		if errors.Is(err, chat.ErrBusy) {
			code = "BUSY"
		}
		log.Printf("Worker %d: send failed for session %s: %v", id, job.SessionID, err)
		services.PublishError(p.redis, job.SessionID, code, err)
		return
	}

	log.Printf("Worker %d: completed message for session %s", id, job.SessionID)
}
