package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/palace/internal/models"
)

const summarySelect = `
	SELECT g.game_id, g.number_of_players_requested,
		(SELECT COUNT(*) FROM player_game c WHERE c.game_id = g.game_id)::INT,
		g.deal_done, g.game_finished
	FROM games g
`

func collectSummaries(rows pgx.Rows) ([]models.GameSummary, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.GameSummary, error) {
		var s models.GameSummary
		err := row.Scan(&s.GameID, &s.PlayersRequested, &s.PlayersJoined, &s.DealDone, &s.GameFinished)
		return s, err
	})
}

// GamesForPlayer lists the games playerID has joined, newest first.
// Finished games are only included when includeFinished is set.
func (s *PostgresStore) GamesForPlayer(ctx context.Context, playerID int, includeFinished bool) ([]models.GameSummary, error) {
	q := summarySelect + `
		JOIN player_game pg ON pg.game_id = g.game_id
		WHERE pg.player_id = $1 AND ($2 OR NOT g.game_finished)
		ORDER BY g.game_id DESC
	`
	rows, err := s.pool.Query(ctx, q, playerID, includeFinished)
	if err != nil {
		return nil, fmt.Errorf("list games for player %d: %w", playerID, err)
	}
	return collectSummaries(rows)
}

// OpenGames lists games still waiting for players that playerID has not joined.
func (s *PostgresStore) OpenGames(ctx context.Context, playerID int) ([]models.GameSummary, error) {
	q := summarySelect + `
		WHERE NOT g.deal_done
		  AND NOT EXISTS (SELECT 1 FROM player_game pg WHERE pg.game_id = g.game_id AND pg.player_id = $1)
		  AND (SELECT COUNT(*) FROM player_game c WHERE c.game_id = g.game_id) < g.number_of_players_requested
		ORDER BY g.game_id ASC
	`
	rows, err := s.pool.Query(ctx, q, playerID)
	if err != nil {
		return nil, fmt.Errorf("list open games: %w", err)
	}
	return collectSummaries(rows)
}
