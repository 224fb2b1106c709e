// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for game action logs.
const DefaultQueueName = "palace_actions"

const checksumKeyPrefix = "palace:checksum:"

// GameActionRecord holds the minimal info needed by the historian service.
type GameActionRecord struct {
	ID            uuid.UUID              `json:"id"`
	GameID        int                    `json:"game_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorPlayerID int                    `json:"actor_player_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Checksum      string                 `json:"checksum"`
	Timestamp     int64                  `json:"timestamp"`
}

// NewGameActionRecord stamps a record with a fresh id and the current time.
func NewGameActionRecord(gameID, actionIndex, actorID int, actionType string, payload map[string]interface{}, checksum string) GameActionRecord {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return GameActionRecord{
		ID:            uuid.New(),
		GameID:        gameID,
		ActionIndex:   actionIndex,
		ActorPlayerID: actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Checksum:      checksum,
		Timestamp:     time.Now().UnixMilli(),
	}
}

// Connect creates a Redis client for addr and db and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// ActionLog pushes game actions onto a Redis list for the historian.
type ActionLog struct {
	rdb   *redis.Client
	queue string
}

func NewActionLog(rdb *redis.Client, queue string) *ActionLog {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &ActionLog{rdb: rdb, queue: queue}
}

// PublishGameAction serializes the given record to JSON, then pushes it to the Redis queue.
func (l *ActionLog) PublishGameAction(ctx context.Context, record GameActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal GameActionRecord: %w", err)
	}
	if err := l.rdb.RPush(ctx, l.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", l.queue, err)
	}
	return nil
}

// ChecksumCache keeps the last saved checksum of each game so pollers can
// skip the database.
type ChecksumCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewChecksumCache returns a cache whose entries expire after ttl (0 keeps them forever).
func NewChecksumCache(rdb *redis.Client, ttl time.Duration) *ChecksumCache {
	return &ChecksumCache{rdb: rdb, ttl: ttl}
}

func checksumKey(gameID int) string {
	return fmt.Sprintf("%s%d", checksumKeyPrefix, gameID)
}

func (c *ChecksumCache) Set(ctx context.Context, gameID int, checksum string) error {
	return c.rdb.Set(ctx, checksumKey(gameID), checksum, c.ttl).Err()
}

// Get returns the cached checksum and whether one was found.
func (c *ChecksumCache) Get(ctx context.Context, gameID int) (string, bool, error) {
	sum, err := c.rdb.Get(ctx, checksumKey(gameID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return sum, true, nil
}
