// internal/game/store.go
package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/jason-s-yu/palace/internal/models"
)

// ErrNoGameID is returned when loading a game without an identifier.
var ErrNoGameID = errors.New("game id is required")

// Store loads game state. Implementations key everything by game id and
// return ordered card lists in the order they were stored.
type Store interface {
	LoadScalars(ctx context.Context, gameID int) (State, error)
	LoadPile(ctx context.Context, gameID int, pile models.Pile) ([]models.Card, error)
	LoadPlayerZone(ctx context.Context, gameID, playerID int, zone models.Zone) ([]models.Card, error)
	ListPlayerIDs(ctx context.Context, gameID int) ([]int, error)
	LoadChecksum(ctx context.Context, gameID int) (string, error)

	// InTx runs fn in one transaction. If fn returns an error nothing it wrote is kept.
	InTx(ctx context.Context, fn func(tx StoreTx) error) error
}

// StoreTx writes game state inside a transaction. Every Store* call
// replaces what was stored before for the same key.
type StoreTx interface {
	// StoreScalars writes the game row. A zero GameID inserts a new row; the
	// id of the row written is returned.
	StoreScalars(ctx context.Context, state State) (int, error)
	StorePlayers(ctx context.Context, gameID int, playerIDs []int) error
	StorePile(ctx context.Context, gameID int, pile models.Pile, cards []models.Card) error
	StorePlayerZone(ctx context.Context, gameID, playerID int, zone models.Zone, cards []models.Card) error
}

// Load rebuilds a game from the store.
func Load(ctx context.Context, store Store, gameID int, opts ...Option) (*Game, error) {
	if gameID == 0 {
		return nil, ErrNoGameID
	}
	state, err := store.LoadScalars(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load game %d: %w", gameID, err)
	}
	g := newEmptyGame(opts...)
	g.State = state
	g.GameID = gameID

	for _, pile := range models.Piles {
		cards, err := store.LoadPile(ctx, gameID, pile)
		if err != nil {
			return nil, fmt.Errorf("load game %d %s pile: %w", gameID, pile, err)
		}
		ptr, err := g.pile(pile)
		if err != nil {
			return nil, err
		}
		*ptr = append([]models.Card{}, cards...)
	}

	ids, err := store.ListPlayerIDs(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load game %d players: %w", gameID, err)
	}
	for _, id := range ids {
		p := NewPlayer(id)
		for _, zone := range models.Zones {
			cards, err := store.LoadPlayerZone(ctx, gameID, id, zone)
			if err != nil {
				return nil, fmt.Errorf("load game %d player %d %s cards: %w", gameID, id, zone, err)
			}
			p.AddCards(cards, zone)
		}
		g.Players = append(g.Players, p)
	}

	g.PlayOrder = nonNilInts(g.PlayOrder)
	g.PlayersReadyToStart = nonNilInts(g.PlayersReadyToStart)
	g.PlayersFinished = nonNilInts(g.PlayersFinished)
	g.refresh()
	return g, nil
}

// Save writes the whole game in one transaction. On the first save the
// store assigns the game id. If the save fails the game is unchanged and
// may be retried or discarded.
func (g *Game) Save(ctx context.Context, store Store) error {
	g.refresh()
	var newID int
	err := store.InTx(ctx, func(tx StoreTx) error {
		id, err := tx.StoreScalars(ctx, g.State)
		if err != nil {
			return fmt.Errorf("store game row: %w", err)
		}
		if id == 0 {
			return ErrNoGameID
		}
		if err := tx.StorePlayers(ctx, id, g.PlayerIDs()); err != nil {
			return fmt.Errorf("store players: %w", err)
		}
		for _, pile := range models.Piles {
			cards, err := g.PileCards(pile)
			if err != nil {
				return err
			}
			if err := tx.StorePile(ctx, id, pile, cards); err != nil {
				return fmt.Errorf("store %s pile: %w", pile, err)
			}
		}
		for _, p := range g.Players {
			for _, zone := range models.Zones {
				if err := tx.StorePlayerZone(ctx, id, p.ID, zone, p.Cards(zone)); err != nil {
					return fmt.Errorf("store player %d %s cards: %w", p.ID, zone, err)
				}
			}
		}
		newID = id
		return nil
	})
	if err != nil {
		return fmt.Errorf("save game %d: %w", g.GameID, err)
	}
	if g.GameID != newID {
		g.GameID = newID
		g.Logger().Info("game created")
	}
	return nil
}
