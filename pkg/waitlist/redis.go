package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// Redis implements ports.WaitList with one sorted set per queue, scored by join time.
type Redis struct {
	client *backend.Client
	prefix string
}

// NewRedis creates a Redis-backed wait list.
func NewRedis(client *backend.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "carepath:queue:"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(queue string) string {
	return r.prefix + queue
}

// Join adds the patient if absent (ZADD NX keeps the original join time).
func (r *Redis) Join(ctx context.Context, queue, patientID string) (int, error) {
	err := r.client.ZAddNX(ctx, r.key(queue), backend.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: patientID,
	}).Err()
	if err != nil {
		return 0, fmt.Errorf("failed to join queue: %w", err)
	}
	return r.Position(ctx, queue, patientID)
}

// Position returns the 1-based rank of the patient, or 0 when not queued.
func (r *Redis) Position(ctx context.Context, queue, patientID string) (int, error) {
	rank, err := r.client.ZRank(ctx, r.key(queue), patientID).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read queue position: %w", err)
	}
	return int(rank) + 1, nil
}

// Leave removes the patient from the queue.
func (r *Redis) Leave(ctx context.Context, queue, patientID string) error {
	if err := r.client.ZRem(ctx, r.key(queue), patientID).Err(); err != nil {
		return fmt.Errorf("failed to leave queue: %w", err)
	}
	return nil
}
