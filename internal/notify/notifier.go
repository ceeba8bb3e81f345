package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/DanielDev87/app-empleos/internal/model"
)

// EventNewJob is the Redis channel delivery workers subscribe to.
const EventNewJob = "EVENT_NEW_JOB"

// Notifier emits one outbound notification. The payload carries the job
// identifier so a receiving client can correlate a tapped notification
// back to a job.
type Notifier interface {
	Notify(ctx context.Context, userID string, n model.Notification) error
}

// jobEvent is the JSON shape published to EVENT_NEW_JOB.
type jobEvent struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Data   struct {
		JobID string `json:"jobId"`
	} `json:"data"`
}

// RedisNotifier publishes notifications to the EVENT_NEW_JOB channel for a
// downstream delivery service to forward as push notifications.
type RedisNotifier struct {
	rdb *redis.Client
}

// NewRedisNotifier returns a Notifier publishing on rdb.
func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{rdb: rdb}
}

func (r *RedisNotifier) Notify(ctx context.Context, userID string, n model.Notification) error {
	ev := jobEvent{UserID: userID, Title: n.Title, Body: n.Body}
	ev.Data.JobID = n.JobID

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal job event: %w", err)
	}
	if err := r.rdb.Publish(ctx, EventNewJob, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", EventNewJob, err)
	}
	return nil
}
