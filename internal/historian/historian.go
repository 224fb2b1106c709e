// Package historian drains the game action queue from Redis and writes the
// records to PostgreSQL in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jason-s-yu/palace/internal/cache"
	"github.com/jason-s-yu/palace/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Inserter persists a batch of action records in one transaction.
type Inserter interface {
	InsertActions(ctx context.Context, records []cache.GameActionRecord) error
}

// Service pops action records off a Redis list and flushes them to an
// Inserter whenever the batch is full or the flush delay passes.
type Service struct {
	rdb        redis.Cmdable
	sink       Inserter
	log        logrus.FieldLogger
	queue      string
	batchSize  int
	flushDelay time.Duration

	batchMu sync.Mutex
	batch   []cache.GameActionRecord
}

func New(rdb redis.Cmdable, sink Inserter, log logrus.FieldLogger, cfg config.Historian) *Service {
	queue := cfg.QueueName
	if queue == "" {
		queue = cache.DefaultQueueName
	}
	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}
	flushDelay := cfg.FlushDelay()
	if flushDelay <= 0 {
		flushDelay = 500 * time.Millisecond
	}
	return &Service{
		rdb:        rdb,
		sink:       sink,
		log:        log.WithField("queue", queue),
		queue:      queue,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		batch:      make([]cache.GameActionRecord, 0, batchSize),
	}
}

// Run blocks until ctx is cancelled, then flushes whatever is still batched.
func (s *Service) Run(ctx context.Context) error {
	s.log.Info("historian started")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.flushLoop(ctx)
	}()

	s.readLoop(ctx)
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Flush(flushCtx); err != nil {
		if qerr := s.requeue(flushCtx); qerr != nil {
			return fmt.Errorf("final flush: %w; requeue: %v", err, qerr)
		}
		return fmt.Errorf("final flush, pending actions returned to queue: %w", err)
	}
	s.log.Info("historian stopped")
	return nil
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.flushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.log.WithError(err).Error("flushing action batch")
			}
		}
	}
}

// readLoop uses BLPop with a short timeout so cancellation is noticed promptly.
func (s *Service) readLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		res, err := s.rdb.BLPop(ctx, s.flushDelay, s.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			s.log.WithError(err).Error("BLPop")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		// res[0] is the queue name and res[1] the payload.
		if len(res) < 2 {
			continue
		}
		if err := s.Handle(ctx, res[1]); err != nil {
			s.log.WithError(err).Warn("dropping action record")
		}
	}
}

// Handle decodes one queued payload and adds it to the batch.
func (s *Service) Handle(ctx context.Context, payload string) error {
	var rec cache.GameActionRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return fmt.Errorf("invalid action record: %w", err)
	}
	if rec.GameID == 0 {
		return fmt.Errorf("action record %s has no game id", rec.ID)
	}
	s.appendToBatch(ctx, rec)
	return nil
}

// appendToBatch adds a record and flushes once the batch is full.
func (s *Service) appendToBatch(ctx context.Context, rec cache.GameActionRecord) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	s.batch = append(s.batch, rec)
	if len(s.batch) >= s.batchSize {
		if err := s.flushLocked(ctx); err != nil {
			s.log.WithError(err).Error("flushing full action batch")
		}
	}
}

// Flush writes the pending batch. On failure the records stay batched and
// are retried on the next flush; inserts are idempotent on the record id.
func (s *Service) Flush(ctx context.Context) error {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return s.flushLocked(ctx)
}

func (s *Service) flushLocked(ctx context.Context) error {
	if len(s.batch) == 0 {
		return nil
	}
	pending := make([]cache.GameActionRecord, len(s.batch))
	copy(pending, s.batch)

	if err := s.sink.InsertActions(ctx, pending); err != nil {
		return fmt.Errorf("insert %d actions: %w", len(pending), err)
	}
	s.batch = s.batch[:0]
	s.log.WithField("count", len(pending)).Debug("flushed actions to db")
	return nil
}

// requeue pushes the unflushed batch back onto the head of the queue in its
// original order. If that fails too, every record is logged so none is lost silently.
func (s *Service) requeue(ctx context.Context) error {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	if len(s.batch) == 0 {
		return nil
	}
	payloads := make([]string, len(s.batch))
	for i, rec := range s.batch {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal action %s: %w", rec.ID, err)
		}
		payloads[i] = string(data)
	}
	// LPush puts its last argument at the head, so push newest first.
	values := make([]interface{}, 0, len(payloads))
	for i := len(payloads) - 1; i >= 0; i-- {
		values = append(values, payloads[i])
	}
	if err := s.rdb.LPush(ctx, s.queue, values...).Err(); err != nil {
		for _, p := range payloads {
			s.log.WithField("record", p).Error("unsaved game action")
		}
		return err
	}
	s.log.WithField("count", len(payloads)).Warn("returned unflushed actions to queue")
	s.batch = s.batch[:0]
	return nil
}

// Pending returns the number of records waiting for a flush.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}
