// Package historian drains the round-result queue from Redis and persists it
// to Postgres in batches. It runs as its own process (cmd/historian) so the
// game server stays memory-only.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/cardtable/blackjack/internal/database"
	"github.com/cardtable/blackjack/internal/game"
)

// Service reads from the Redis queue, accumulates a batch, and flushes it to
// the database either when the batch fills or on a timer.
type Service struct {
	rdb        *redis.Client
	pool       *pgxpool.Pool
	queue      string
	batchSize  int
	flushDelay time.Duration
	logger     *logrus.Logger

	batchMu sync.Mutex
	batch   []game.RoundResult

	ctx      context.Context
	cancelFn context.CancelFunc
}

// New wires a Service from already-connected Redis and Postgres handles.
func New(rdb *redis.Client, pool *pgxpool.Pool, queue string, logger *logrus.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		rdb:        rdb,
		pool:       pool,
		queue:      queue,
		batchSize:  20,
		flushDelay: 500 * time.Millisecond,
		logger:     logger,
		batch:      make([]game.RoundResult, 0, 20),
		ctx:        ctx,
		cancelFn:   cancel,
	}
}

// Run blocks, reading and flushing until Stop is called.
func (hs *Service) Run() {
	go hs.flushLoop()
	hs.logger.Info("historian started")
	hs.readLoop()
}

// Stop terminates the loops and flushes whatever is pending.
func (hs *Service) Stop() {
	hs.cancelFn()
	hs.flush()
}

func (hs *Service) readLoop() {
	for {
		select {
		case <-hs.ctx.Done():
			return
		default:
		}
		// BLPop with a short timeout so ctx cancellation is honored.
		res, err := hs.rdb.BLPop(hs.ctx, 3*time.Second, hs.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			hs.logger.WithError(err).Error("BLPop failed")
			continue
		}
		if len(res) < 2 {
			continue
		}
		var record game.RoundResult
		if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
			hs.logger.WithError(err).Warn("invalid round record, skipping")
			continue
		}
		hs.append(record)
	}
}

func (hs *Service) flushLoop() {
	ticker := time.NewTicker(hs.flushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-hs.ctx.Done():
			return
		case <-ticker.C:
			hs.flush()
		}
	}
}

func (hs *Service) append(record game.RoundResult) {
	hs.batchMu.Lock()
	hs.batch = append(hs.batch, record)
	full := len(hs.batch) >= hs.batchSize
	hs.batchMu.Unlock()
	if full {
		hs.flush()
	}
}

func (hs *Service) flush() {
	hs.batchMu.Lock()
	if len(hs.batch) == 0 {
		hs.batchMu.Unlock()
		return
	}
	pending := hs.batch
	hs.batch = make([]game.RoundResult, 0, hs.batchSize)
	hs.batchMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.InsertRoundResults(ctx, hs.pool, pending); err != nil {
		hs.logger.WithError(err).WithField("count", len(pending)).Error("failed to persist round results")
		return
	}
	hs.logger.WithField("count", len(pending)).Debug("persisted round results")
}
