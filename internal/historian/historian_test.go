package historian

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/febuchner/settlers-of-catan/internal/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu        sync.Mutex
	written   []cache.GameActionRecord
	abandoned []uuid.UUID
	failNext  bool
}

func (f *fakeSink) WriteActions(_ context.Context, batch []cache.GameActionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("db down")
	}
	f.written = append(f.written, batch...)
	return nil
}

func (f *fakeSink) MarkAbandoned(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandoned = append(f.abandoned, id)
	return nil
}

func (f *fakeSink) writtenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func encode(t *testing.T, gameID uuid.UUID, idx int, kind string) []byte {
	t.Helper()
	data, err := cache.EncodeAction(cache.GameActionRecord{
		GameID:        gameID,
		ActionIndex:   idx,
		ActorPlayerID: 1,
		ActionType:    kind,
		Timestamp:     time.Now().UnixMilli(),
	})
	require.NoError(t, err)
	return data
}

func TestIngestFlushesAtBatchSize(t *testing.T) {
	sink := &fakeSink{}
	s := New(nil, sink, Config{BatchSize: 3}, quietLogger())
	ctx := context.Background()
	game := uuid.New()

	s.Ingest(ctx, encode(t, game, 1, "player_join"))
	s.Ingest(ctx, encode(t, game, 2, "player_ready"))
	assert.Equal(t, 0, sink.writtenCount())
	assert.Equal(t, 2, s.Pending())

	s.Ingest(ctx, encode(t, game, 3, "game_start"))
	assert.Equal(t, 3, sink.writtenCount())
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, []int{1, 2, 3}, []int{sink.written[0].ActionIndex, sink.written[1].ActionIndex, sink.written[2].ActionIndex})
}

func TestIngestDropsMalformedEntries(t *testing.T) {
	sink := &fakeSink{}
	s := New(nil, sink, Config{}, quietLogger())
	s.Ingest(context.Background(), []byte("{"))
	assert.Equal(t, 0, s.Pending())
}

func TestFailedFlushKeepsRecords(t *testing.T) {
	sink := &fakeSink{failNext: true}
	s := New(nil, sink, Config{BatchSize: 10}, quietLogger())
	ctx := context.Background()
	game := uuid.New()

	s.Ingest(ctx, encode(t, game, 1, "player_join"))
	s.Flush(ctx)
	assert.Equal(t, 1, s.Pending())

	s.Ingest(ctx, encode(t, game, 2, "player_ready"))
	s.Flush(ctx)
	require.Equal(t, 2, sink.writtenCount())
	assert.Equal(t, 1, sink.written[0].ActionIndex)
}

func TestSweepMarksIdleGamesAbandoned(t *testing.T) {
	sink := &fakeSink{}
	s := New(nil, sink, Config{Inactivity: time.Minute}, quietLogger())
	ctx := context.Background()
	idle, finished := uuid.New(), uuid.New()

	s.Ingest(ctx, encode(t, idle, 1, "game_start"))
	s.Ingest(ctx, encode(t, finished, 1, "game_start"))
	s.Ingest(ctx, encode(t, finished, 2, "game_over"))

	s.Sweep(ctx, time.Now())
	assert.Empty(t, sink.abandoned, "nothing is idle yet")

	s.Sweep(ctx, time.Now().Add(2*time.Minute))
	assert.Equal(t, []uuid.UUID{idle}, sink.abandoned)

	s.Sweep(ctx, time.Now().Add(5*time.Minute))
	assert.Len(t, sink.abandoned, 1, "a game is only marked once")
}

func TestRunDrainsRedisQueue(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer rdb.Close()
	pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	queue := "catan_actions_test_" + uuid.NewString()
	game := uuid.New()
	for i := 1; i <= 3; i++ {
		require.NoError(t, rdb.RPush(context.Background(), queue, encode(t, game, i, "dice_result")).Err())
	}

	sink := &fakeSink{}
	s := New(rdb, sink, Config{QueueName: queue, BatchSize: 100, FlushDelay: 50 * time.Millisecond}, quietLogger())
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return sink.writtenCount() == 3 }, 5*time.Second, 50*time.Millisecond)
	stop()
	<-done
}
