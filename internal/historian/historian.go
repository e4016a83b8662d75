// Package historian drains the action queue into durable storage and
// marks sessions abandoned after a period without actions.
package historian

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/febuchner/settlers-of-catan/internal/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// finalActionType marks the last record of a session.
const finalActionType = "game_over"

// Sink persists drained records.
type Sink interface {
	WriteActions(ctx context.Context, batch []cache.GameActionRecord) error
	MarkAbandoned(ctx context.Context, gameID uuid.UUID) error
}

// Config tunes batching and the inactivity sweep.
type Config struct {
	QueueName  string
	BatchSize  int
	FlushDelay time.Duration
	Inactivity time.Duration
	SweepEvery time.Duration
}

func (c Config) withDefaults() Config {
	if c.QueueName == "" {
		c.QueueName = cache.DefaultQueueName
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.FlushDelay <= 0 {
		c.FlushDelay = 500 * time.Millisecond
	}
	if c.Inactivity <= 0 {
		c.Inactivity = 10 * time.Minute
	}
	if c.SweepEvery <= 0 {
		c.SweepEvery = time.Minute
	}
	return c
}

// Service batches queue entries and writes them to a Sink.
type Service struct {
	rdb    *redis.Client
	sink   Sink
	cfg    Config
	logger *logrus.Logger

	lastActivity sync.Map // uuid.UUID -> time.Time

	batchMu sync.Mutex
	batch   []cache.GameActionRecord
}

// New builds a Service. rdb may be nil when records are fed through Ingest directly.
func New(rdb *redis.Client, sink Sink, cfg Config, logger *logrus.Logger) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		rdb:    rdb,
		sink:   sink,
		cfg:    cfg,
		logger: logger,
		batch:  make([]cache.GameActionRecord, 0, cfg.BatchSize),
	}
}

// Run pops from Redis until ctx is cancelled, then flushes what is left.
func (s *Service) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.flushLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.inactivityLoop(ctx)
	}()

	s.logger.Infof("historian reading from %s", s.cfg.QueueName)
	s.readRedisLoop(ctx)
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.logger.Info("historian stopped")
}

func (s *Service) readRedisLoop(ctx context.Context) {
	for ctx.Err() == nil {
		res, err := s.rdb.BLPop(ctx, 3*time.Second, s.cfg.QueueName).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				s.logger.WithError(err).Error("BLPop failed")
				time.Sleep(time.Second)
			}
			continue
		}
		// res[0] is the queue name, res[1] the payload.
		if len(res) < 2 {
			continue
		}
		s.Ingest(ctx, []byte(res[1]))
	}
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(ctx, now)
		}
	}
}

// Ingest decodes one queue entry and adds it to the batch.
// Malformed entries are logged and dropped.
func (s *Service) Ingest(ctx context.Context, data []byte) {
	rec, err := cache.DecodeAction(data)
	if err != nil {
		s.logger.WithError(err).Warn("dropping queue entry")
		return
	}

	if rec.ActionType == finalActionType {
		s.lastActivity.Delete(rec.GameID)
	} else {
		s.lastActivity.Store(rec.GameID, time.Now())
	}

	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.cfg.BatchSize
	s.batchMu.Unlock()

	if full {
		s.Flush(ctx)
	}
}

// Flush writes the pending batch. On failure the records are put back
// in front of anything that arrived meanwhile.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	pending := s.batch
	s.batch = make([]cache.GameActionRecord, 0, s.cfg.BatchSize)
	s.batchMu.Unlock()

	if err := s.sink.WriteActions(ctx, pending); err != nil {
		s.logger.WithError(err).Errorf("flush of %d actions failed", len(pending))
		s.batchMu.Lock()
		s.batch = append(pending, s.batch...)
		s.batchMu.Unlock()
		return
	}
	s.logger.Debugf("flushed %d actions", len(pending))
}

// Sweep marks every game idle for longer than the inactivity window as abandoned.
func (s *Service) Sweep(ctx context.Context, now time.Time) {
	s.lastActivity.Range(func(key, val interface{}) bool {
		gameID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.cfg.Inactivity {
			return true
		}
		if err := s.sink.MarkAbandoned(ctx, gameID); err != nil {
			s.logger.WithError(err).Errorf("failed to mark game %v abandoned", gameID)
			return true
		}
		s.lastActivity.Delete(gameID)
		s.logger.Infof("marked game %v abandoned after inactivity", gameID)
		return true
	})
}

// Pending reports the number of buffered records.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}
