package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/palace/internal/cache"
	"github.com/jason-s-yu/palace/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInserter struct {
	mu      sync.Mutex
	batches [][]cache.GameActionRecord
	err     error
}

func (f *fakeInserter) InsertActions(_ context.Context, records []cache.GameActionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, records)
	return nil
}

func (f *fakeInserter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

// fakeQueue records LPush calls; every other command is unimplemented.
type fakeQueue struct {
	redis.Cmdable
	pushed []interface{}
	err    error
}

func (f *fakeQueue) LPush(_ context.Context, _ string, values ...interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.pushed = append(f.pushed, values...)
	return redis.NewIntResult(int64(len(f.pushed)), nil)
}

func setupService(t *testing.T, batchSize int) (*Service, *fakeInserter) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	sink := &fakeInserter{}
	s := New(nil, sink, logger, config.Historian{BatchSize: batchSize, FlushMs: 50})
	return s, sink
}

func payload(t *testing.T, gameID, index int) string {
	t.Helper()
	data, err := json.Marshal(cache.NewGameActionRecord(gameID, index, 1, "play", map[string]interface{}{"n": index}, "00000000"))
	require.NoError(t, err)
	return string(data)
}

func TestFlushAtBatchSize(t *testing.T) {
	s, sink := setupService(t, 3)
	ctx := context.Background()

	require.NoError(t, s.Handle(ctx, payload(t, 1, 1)))
	require.NoError(t, s.Handle(ctx, payload(t, 1, 2)))
	assert.Equal(t, 0, sink.count())
	assert.Equal(t, 2, s.Pending())

	require.NoError(t, s.Handle(ctx, payload(t, 1, 3)))
	assert.Equal(t, 3, sink.count())
	assert.Equal(t, 0, s.Pending())
	require.Len(t, sink.batches, 1)
	assert.Equal(t, 3, sink.batches[0][2].ActionIndex)
}

func TestFlushWritesPartialBatch(t *testing.T) {
	s, sink := setupService(t, 10)
	ctx := context.Background()

	require.NoError(t, s.Flush(ctx), "empty flush is a no-op")
	assert.Empty(t, sink.batches)

	require.NoError(t, s.Handle(ctx, payload(t, 4, 1)))
	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, 1, sink.count())
	assert.Equal(t, 4, sink.batches[0][0].GameID)
}

func TestFailedFlushKeepsRecords(t *testing.T) {
	s, sink := setupService(t, 10)
	ctx := context.Background()

	require.NoError(t, s.Handle(ctx, payload(t, 2, 1)))
	sink.err = errors.New("db down")
	assert.Error(t, s.Flush(ctx))
	assert.Equal(t, 1, s.Pending())

	sink.err = nil
	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 1, sink.count())
}

func TestHandleRejectsBadPayloads(t *testing.T) {
	s, _ := setupService(t, 10)
	ctx := context.Background()

	assert.Error(t, s.Handle(ctx, "{not json"))
	assert.Error(t, s.Handle(ctx, `{"action_type":"play"}`))
	assert.Equal(t, 0, s.Pending())
}

func TestNewAppliesDefaults(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := New(nil, &fakeInserter{}, logger, config.Historian{})
	assert.Equal(t, cache.DefaultQueueName, s.queue)
	assert.Equal(t, 1, s.batchSize)
	assert.Equal(t, 500*time.Millisecond, s.flushDelay)
}

func TestShutdownRequeuesUnflushedActions(t *testing.T) {
	logger, _ := test.NewNullLogger()
	sink := &fakeInserter{err: errors.New("db down")}
	queue := &fakeQueue{}
	s := New(queue, sink, logger, config.Historian{BatchSize: 10, FlushMs: 50})

	ctx, cancel := context.WithCancel(context.Background())
	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Handle(ctx, payload(t, 8, i)))
	}
	cancel()

	err := s.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, 0, s.Pending())

	// Pushed newest first so the oldest ends up at the head of the list.
	require.Len(t, queue.pushed, 3)
	var indexes []int
	for _, v := range queue.pushed {
		var rec cache.GameActionRecord
		require.NoError(t, json.Unmarshal([]byte(v.(string)), &rec))
		indexes = append(indexes, rec.ActionIndex)
	}
	assert.Equal(t, []int{3, 2, 1}, indexes)
}

func TestShutdownLogsActionsWhenRequeueFails(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sink := &fakeInserter{err: errors.New("db down")}
	queue := &fakeQueue{err: errors.New("redis down")}
	s := New(queue, sink, logger, config.Historian{BatchSize: 10, FlushMs: 50})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Handle(ctx, payload(t, 8, 1)))
	require.NoError(t, s.Handle(ctx, payload(t, 8, 2)))
	cancel()

	require.Error(t, s.Run(ctx))
	assert.Equal(t, 2, s.Pending())

	var logged int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel && e.Message == "unsaved game action" {
			assert.Contains(t, e.Data["record"], `"game_id":8`)
			logged++
		}
	}
	assert.Equal(t, 2, logged)
}
