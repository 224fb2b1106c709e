package historian

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/palace/internal/cache"
)

const insertActionQ = `
	INSERT INTO game_actions (
		id, game_id, action_index, actor_player_id, action_type, action_payload, checksum, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING
`

// PostgresInserter writes action records into the game_actions table.
type PostgresInserter struct {
	pool *pgxpool.Pool
}

func NewPostgresInserter(pool *pgxpool.Pool) *PostgresInserter {
	return &PostgresInserter{pool: pool}
}

func (p *PostgresInserter) InsertActions(ctx context.Context, records []cache.GameActionRecord) error {
	return pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range records {
			payload, err := json.Marshal(rec.ActionPayload)
			if err != nil {
				return fmt.Errorf("marshal payload of action %s: %w", rec.ID, err)
			}
			batch.Queue(insertActionQ,
				rec.ID, rec.GameID, rec.ActionIndex, rec.ActorPlayerID,
				rec.ActionType, payload, rec.Checksum, time.UnixMilli(rec.Timestamp),
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}
