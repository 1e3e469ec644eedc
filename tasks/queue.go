// Package tasks carries the fire-and-forget work enqueued by request
// handlers: lifecycle emails and asynchronous account deletion. Jobs are
// delivered at least once and every handler is idempotent.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Job type names.
const (
	TypeVerificationEmail  = "email.verification"
	TypePasswordResetEmail = "email.password_reset"
	TypeAccountDeletion    = "account.deletion"
)

// DefaultQueueKey is the Redis list all jobs flow through. A single list
// consumed by a single worker keeps jobs in enqueue order.
const DefaultQueueKey = "ss:jobs"

// Job is the unit of background work.
type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// EmailPayload addresses the lifecycle email jobs.
type EmailPayload struct {
	Email string `json:"email"`
}

// DeletionPayload parameterizes the account deletion job.
type DeletionPayload struct {
	UserID        uint `json:"user_id"`
	RemoveContent bool `json:"remove_content"`
}

// NewJob builds a Job with a fresh id and marshalled payload.
func NewJob(jobType string, payload interface{}) (Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		Payload:    raw,
		EnqueuedAt: time.Now(),
	}, nil
}

// Queue accepts jobs for background execution.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// RedisQueue stores jobs on a Redis list: LPUSH on enqueue, BRPOP in the
// worker, so jobs leave in the order they arrived.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue creates a queue over the given Redis list key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{client: client, key: key}
}

// Enqueue pushes a job onto the list.
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, raw).Err()
}

// Worker consumes the queue with a single goroutine so jobs for the same
// entity never reorder. Handler failures are logged; retry scheduling belongs
// to the queue deployment, not this process.
type Worker struct {
	client   *redis.Client
	key      string
	handlers *Handlers
	logger   *zap.Logger
}

// NewWorker wires a worker to the queue and its job handlers.
func NewWorker(client *redis.Client, key string, handlers *Handlers, logger *zap.Logger) *Worker {
	if key == "" {
		key = DefaultQueueKey
	}
	return &Worker{client: client, key: key, handlers: handlers, logger: logger}
}

// Run blocks consuming jobs until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	for {
		res, err := w.client.BRPop(ctx, 5*time.Second, w.key).Result()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !errors.Is(err, redis.Nil) {
				w.logger.Warn("queue pop failed", zap.Error(err))
				// avoid hot-looping against a broken connection
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
					return
				}
			}
			continue
		}
		if len(res) != 2 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			w.logger.Error("discarding undecodable job", zap.Error(err))
			continue
		}

		if err := w.handlers.Handle(ctx, job); err != nil {
			w.logger.Error("job failed",
				zap.String("job_id", job.ID),
				zap.String("type", job.Type),
				zap.Error(err),
			)
			continue
		}
		w.logger.Info("job done",
			zap.String("job_id", job.ID),
			zap.String("type", job.Type),
		)
	}
}
