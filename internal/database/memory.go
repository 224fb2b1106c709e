package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jason-s-yu/palace/internal/game"
	"github.com/jason-s-yu/palace/internal/models"
)

type zoneKey struct {
	playerID int
	zone     models.Zone
}

type memGame struct {
	state   game.State
	players []int
	piles   map[models.Pile][]models.Card
	zones   map[zoneKey][]models.Card
}

func (m *memGame) clone() *memGame {
	c := &memGame{
		state:   cloneState(m.state),
		players: append([]int{}, m.players...),
		piles:   make(map[models.Pile][]models.Card, len(m.piles)),
		zones:   make(map[zoneKey][]models.Card, len(m.zones)),
	}
	for k, v := range m.piles {
		c.piles[k] = append([]models.Card{}, v...)
	}
	for k, v := range m.zones {
		c.zones[k] = append([]models.Card{}, v...)
	}
	return c
}

func cloneState(s game.State) game.State {
	s.PlayOnAnythingCards = append([]int{}, s.PlayOnAnythingCards...)
	s.PlayOrder = append([]int{}, s.PlayOrder...)
	s.PlayersReadyToStart = append([]int{}, s.PlayersReadyToStart...)
	s.PlayersFinished = append([]int{}, s.PlayersFinished...)
	s.PlayList = append([]models.Card{}, s.PlayList...)
	return s
}

// MemoryStore keeps games in process memory. A transaction works on copies
// and only replaces the stored games when it succeeds.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int
	games  map[int]*memGame
}

var _ game.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID: 1,
		games:  make(map[int]*memGame),
	}
}

func (s *MemoryStore) get(gameID int) (*memGame, error) {
	g, ok := s.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrGameNotFound, gameID)
	}
	return g, nil
}

func (s *MemoryStore) LoadScalars(_ context.Context, gameID int) (game.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.get(gameID)
	if err != nil {
		return game.State{}, err
	}
	return cloneState(g.state), nil
}

func (s *MemoryStore) LoadPile(_ context.Context, gameID int, pile models.Pile) ([]models.Card, error) {
	if !pile.Valid() {
		return nil, fmt.Errorf("%w: %d", models.ErrUnknownPile, int(pile))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.get(gameID)
	if err != nil {
		return nil, err
	}
	return append([]models.Card{}, g.piles[pile]...), nil
}

func (s *MemoryStore) LoadPlayerZone(_ context.Context, gameID, playerID int, zone models.Zone) ([]models.Card, error) {
	if !zone.Valid() {
		return nil, fmt.Errorf("%w: %d", models.ErrUnknownZone, int(zone))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.get(gameID)
	if err != nil {
		return nil, err
	}
	return append([]models.Card{}, g.zones[zoneKey{playerID, zone}]...), nil
}

func (s *MemoryStore) ListPlayerIDs(_ context.Context, gameID int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.get(gameID)
	if err != nil {
		return nil, err
	}
	return append([]int{}, g.players...), nil
}

func (s *MemoryStore) LoadChecksum(_ context.Context, gameID int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, err := s.get(gameID)
	if err != nil {
		return "", err
	}
	return g.state.Checksum, nil
}

// InTx serialises transactions. Writes go to copies that are committed only if fn succeeds.
func (s *MemoryStore) InTx(ctx context.Context, fn func(tx game.StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s, nextID: s.nextID, staged: make(map[int]*memGame)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for id, g := range tx.staged {
		s.games[id] = g
	}
	s.nextID = tx.nextID
	return nil
}

// GamesForPlayer lists the games playerID has joined, newest first.
func (s *MemoryStore) GamesForPlayer(_ context.Context, playerID int, includeFinished bool) ([]models.GameSummary, error) {
	return s.list(func(g *memGame) bool {
		return containsID(g.players, playerID) && (includeFinished || !g.state.GameFinished)
	}, true), nil
}

// OpenGames lists games still waiting for players that playerID has not joined.
func (s *MemoryStore) OpenGames(_ context.Context, playerID int) ([]models.GameSummary, error) {
	return s.list(func(g *memGame) bool {
		return !g.state.DealDone &&
			!containsID(g.players, playerID) &&
			len(g.players) < g.state.NumberOfPlayersRequested
	}, false), nil
}

func (s *MemoryStore) list(keep func(*memGame) bool, newestFirst bool) []models.GameSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.GameSummary{}
	for id, g := range s.games {
		if !keep(g) {
			continue
		}
		out = append(out, models.GameSummary{
			GameID:           id,
			PlayersRequested: g.state.NumberOfPlayersRequested,
			PlayersJoined:    len(g.players),
			DealDone:         g.state.DealDone,
			GameFinished:     g.state.GameFinished,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].GameID > out[j].GameID
		}
		return out[i].GameID < out[j].GameID
	})
	return out
}

func containsID(ids []int, id int) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

type memoryTx struct {
	store  *MemoryStore
	nextID int
	staged map[int]*memGame
}

// stage returns the transaction's working copy of a stored game.
func (t *memoryTx) stage(gameID int) (*memGame, error) {
	if g, ok := t.staged[gameID]; ok {
		return g, nil
	}
	g, err := t.store.get(gameID)
	if err != nil {
		return nil, err
	}
	c := g.clone()
	t.staged[gameID] = c
	return c, nil
}

func (t *memoryTx) StoreScalars(_ context.Context, st game.State) (int, error) {
	if st.GameID == 0 {
		id := t.nextID
		t.nextID++
		st.GameID = id
		t.staged[id] = &memGame{
			state: cloneState(st),
			piles: make(map[models.Pile][]models.Card),
			zones: make(map[zoneKey][]models.Card),
		}
		return id, nil
	}
	g, err := t.stage(st.GameID)
	if err != nil {
		return 0, err
	}
	g.state = cloneState(st)
	return st.GameID, nil
}

func (t *memoryTx) StorePlayers(_ context.Context, gameID int, playerIDs []int) error {
	g, err := t.stage(gameID)
	if err != nil {
		return err
	}
	g.players = append([]int{}, playerIDs...)
	return nil
}

func (t *memoryTx) StorePile(_ context.Context, gameID int, pile models.Pile, cards []models.Card) error {
	if !pile.Valid() {
		return fmt.Errorf("%w: %d", models.ErrUnknownPile, int(pile))
	}
	g, err := t.stage(gameID)
	if err != nil {
		return err
	}
	g.piles[pile] = append([]models.Card{}, cards...)
	return nil
}

func (t *memoryTx) StorePlayerZone(_ context.Context, gameID, playerID int, zone models.Zone, cards []models.Card) error {
	if !zone.Valid() {
		return fmt.Errorf("%w: %d", models.ErrUnknownZone, int(zone))
	}
	g, err := t.stage(gameID)
	if err != nil {
		return err
	}
	g.zones[zoneKey{playerID, zone}] = append([]models.Card{}, cards...)
	return nil
}
