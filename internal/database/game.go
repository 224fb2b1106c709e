// internal/database/game.go
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/palace/internal/game"
	"github.com/jason-s-yu/palace/internal/models"
)

// PostgresStore persists games in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ game.Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an open pool. The caller owns the pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func toInt32s(v []int) []int32 {
	out := make([]int32, len(v))
	for i, x := range v {
		out[i] = int32(x)
	}
	return out
}

func fromInt32s(v []int32) []int {
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(x)
	}
	return out
}

// toInt64s widens player ids for the BIGINT[] columns.
func toInt64s(v []int) []int64 {
	out := make([]int64, len(v))
	for i, x := range v {
		out[i] = int64(x)
	}
	return out
}

func fromInt64s(v []int64) []int {
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(x)
	}
	return out
}

const selectGameColumns = `
	number_of_players_requested, less_than_card, transparent_card, burn_card, reset_card,
	number_of_decks, number_face_down_cards, number_hand_cards, play_on_anything_cards,
	play_order, players_ready_to_start, players_finished,
	current_turn_number, last_player, game_finished, deal_done, game_checksum
`

// LoadScalars reads the game row.
func (s *PostgresStore) LoadScalars(ctx context.Context, gameID int) (game.State, error) {
	var (
		st                   game.State
		playOnAnything       []int32
		order, ready, finish []int64
	)
	q := `SELECT ` + selectGameColumns + ` FROM games WHERE game_id = $1`
	err := s.pool.QueryRow(ctx, q, gameID).Scan(
		&st.NumberOfPlayersRequested, &st.LessThanCard, &st.TransparentCard, &st.BurnCard, &st.ResetCard,
		&st.NumberOfDecks, &st.NumberFaceDownCards, &st.NumberHandCards, &playOnAnything,
		&order, &ready, &finish,
		&st.CurrentTurnNumber, &st.LastPlayer, &st.GameFinished, &st.DealDone, &st.Checksum,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return game.State{}, fmt.Errorf("%w: %d", ErrGameNotFound, gameID)
	}
	if err != nil {
		return game.State{}, fmt.Errorf("select game %d: %w", gameID, err)
	}
	st.GameID = gameID
	st.PlayOnAnythingCards = fromInt32s(playOnAnything)
	st.PlayOrder = fromInt64s(order)
	st.PlayersReadyToStart = fromInt64s(ready)
	st.PlayersFinished = fromInt64s(finish)
	return st, nil
}

func collectCards(rows pgx.Rows) ([]models.Card, error) {
	cards := []models.Card{}
	for rows.Next() {
		var suit, rank int
		if err := rows.Scan(&suit, &rank); err != nil {
			return nil, err
		}
		cards = append(cards, models.NewCard(models.Suit(suit), rank))
	}
	return cards, rows.Err()
}

// LoadPile reads one shared pile in stored order.
func (s *PostgresStore) LoadPile(ctx context.Context, gameID int, pile models.Pile) ([]models.Card, error) {
	if !pile.Valid() {
		return nil, fmt.Errorf("%w: %d", models.ErrUnknownPile, int(pile))
	}
	q := `
		SELECT card_suit, card_rank FROM game_cards
		WHERE game_id = $1 AND card_location = $2
		ORDER BY card_sequence ASC
	`
	rows, err := s.pool.Query(ctx, q, gameID, int(pile))
	if err != nil {
		return nil, fmt.Errorf("select %s pile: %w", pile, err)
	}
	defer rows.Close()
	return collectCards(rows)
}

// LoadPlayerZone reads one player's zone in stored order.
func (s *PostgresStore) LoadPlayerZone(ctx context.Context, gameID, playerID int, zone models.Zone) ([]models.Card, error) {
	if !zone.Valid() {
		return nil, fmt.Errorf("%w: %d", models.ErrUnknownZone, int(zone))
	}
	q := `
		SELECT card_suit, card_rank FROM player_game_cards
		WHERE game_id = $1 AND player_id = $2 AND card_type = $3
		ORDER BY card_sequence ASC
	`
	rows, err := s.pool.Query(ctx, q, gameID, playerID, int(zone))
	if err != nil {
		return nil, fmt.Errorf("select player %d %s cards: %w", playerID, zone, err)
	}
	defer rows.Close()
	return collectCards(rows)
}

// ListPlayerIDs returns the players of a game in seat order.
func (s *PostgresStore) ListPlayerIDs(ctx context.Context, gameID int) ([]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT player_id FROM player_game WHERE game_id = $1 ORDER BY seat ASC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("select players: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan players: %w", err)
	}
	return fromInt64s(ids), nil
}

// LoadChecksum reads only the stored checksum of a game.
func (s *PostgresStore) LoadChecksum(ctx context.Context, gameID int) (string, error) {
	var sum string
	err := s.pool.QueryRow(ctx, `SELECT game_checksum FROM games WHERE game_id = $1`, gameID).Scan(&sum)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: %d", ErrGameNotFound, gameID)
	}
	if err != nil {
		return "", fmt.Errorf("select checksum: %w", err)
	}
	return sum, nil
}

// InTx runs fn inside one database transaction.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx game.StoreTx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		return fn(&postgresTx{tx: tx})
	})
}

type postgresTx struct {
	tx pgx.Tx
}

// StoreScalars inserts a new game row when state has no id, otherwise updates it.
func (t *postgresTx) StoreScalars(ctx context.Context, st game.State) (int, error) {
	args := []interface{}{
		st.NumberOfPlayersRequested, st.LessThanCard, st.TransparentCard, st.BurnCard, st.ResetCard,
		st.NumberOfDecks, st.NumberFaceDownCards, st.NumberHandCards, toInt32s(st.PlayOnAnythingCards),
		toInt64s(st.PlayOrder), toInt64s(st.PlayersReadyToStart), toInt64s(st.PlayersFinished),
		st.CurrentTurnNumber, st.LastPlayer, st.GameFinished, st.DealDone, st.Checksum,
	}

	if st.GameID == 0 {
		q := `INSERT INTO games (` + selectGameColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			RETURNING game_id`
		var id int
		if err := t.tx.QueryRow(ctx, q, args...).Scan(&id); err != nil {
			return 0, fmt.Errorf("insert game: %w", err)
		}
		return id, nil
	}

	q := `
		UPDATE games SET
			number_of_players_requested = $1, less_than_card = $2, transparent_card = $3,
			burn_card = $4, reset_card = $5, number_of_decks = $6, number_face_down_cards = $7,
			number_hand_cards = $8, play_on_anything_cards = $9, play_order = $10,
			players_ready_to_start = $11, players_finished = $12, current_turn_number = $13,
			last_player = $14, game_finished = $15, deal_done = $16, game_checksum = $17,
			updated_at = NOW()
		WHERE game_id = $18
	`
	tag, err := t.tx.Exec(ctx, q, append(args, st.GameID)...)
	if err != nil {
		return 0, fmt.Errorf("update game %d: %w", st.GameID, err)
	}
	if tag.RowsAffected() == 0 {
		return 0, fmt.Errorf("%w: %d", ErrGameNotFound, st.GameID)
	}
	return st.GameID, nil
}

// StorePlayers replaces the seat list of a game.
func (t *postgresTx) StorePlayers(ctx context.Context, gameID int, playerIDs []int) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM player_game WHERE game_id = $1`, gameID); err != nil {
		return err
	}
	for seat, id := range playerIDs {
		q := `INSERT INTO player_game (game_id, player_id, seat) VALUES ($1, $2, $3)`
		if _, err := t.tx.Exec(ctx, q, gameID, id, seat); err != nil {
			return err
		}
	}
	return nil
}

// StorePile replaces one shared pile.
func (t *postgresTx) StorePile(ctx context.Context, gameID int, pile models.Pile, cards []models.Card) error {
	if !pile.Valid() {
		return fmt.Errorf("%w: %d", models.ErrUnknownPile, int(pile))
	}
	del := `DELETE FROM game_cards WHERE game_id = $1 AND card_location = $2`
	if _, err := t.tx.Exec(ctx, del, gameID, int(pile)); err != nil {
		return err
	}
	rows := make([][]interface{}, len(cards))
	for i, c := range cards {
		rows[i] = []interface{}{gameID, int(pile), i, int(c.Suit), c.Rank}
	}
	_, err := t.tx.CopyFrom(ctx,
		pgx.Identifier{"game_cards"},
		[]string{"game_id", "card_location", "card_sequence", "card_suit", "card_rank"},
		pgx.CopyFromRows(rows),
	)
	return err
}

// StorePlayerZone replaces one zone of one player.
func (t *postgresTx) StorePlayerZone(ctx context.Context, gameID, playerID int, zone models.Zone, cards []models.Card) error {
	if !zone.Valid() {
		return fmt.Errorf("%w: %d", models.ErrUnknownZone, int(zone))
	}
	del := `DELETE FROM player_game_cards WHERE game_id = $1 AND player_id = $2 AND card_type = $3`
	if _, err := t.tx.Exec(ctx, del, gameID, playerID, int(zone)); err != nil {
		return err
	}
	rows := make([][]interface{}, len(cards))
	for i, c := range cards {
		rows[i] = []interface{}{gameID, playerID, int(zone), i, int(c.Suit), c.Rank}
	}
	_, err := t.tx.CopyFrom(ctx,
		pgx.Identifier{"player_game_cards"},
		[]string{"game_id", "player_id", "card_type", "card_sequence", "card_suit", "card_rank"},
		pgx.CopyFromRows(rows),
	)
	return err
}
