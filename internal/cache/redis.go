// Package cache publishes settled-round records to a Redis list so an
// external historian process can persist them. The queue is best effort:
// the game never blocks or fails because of it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/cardtable/blackjack/internal/game"
)

// DefaultQueueName is the Redis list the historian drains.
const DefaultQueueName = "blackjack_rounds"

// Recorder wraps a Redis client plus the queue name.
type Recorder struct {
	rdb    *redis.Client
	queue  string
	logger *logrus.Logger
}

// NewRecorder connects to Redis and verifies the connection with a ping.
func NewRecorder(addr, queue string, logger *logrus.Logger) (*Recorder, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &Recorder{rdb: rdb, queue: queue, logger: logger}, nil
}

// RecordRound pushes one settled round onto the queue. Failures are logged
// and swallowed; history is not worth stalling a game over.
func (rec *Recorder) RecordRound(res game.RoundResult) {
	data, err := json.Marshal(res)
	if err != nil {
		rec.logger.WithError(err).Warn("failed to marshal round result")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rec.rdb.RPush(ctx, rec.queue, data).Err(); err != nil {
		rec.logger.WithError(err).WithField("queue", rec.queue).Warn("failed to enqueue round result")
	}
}

// Close releases the Redis connection.
func (rec *Recorder) Close() error {
	return rec.rdb.Close()
}
