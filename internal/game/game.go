// internal/game/game.go
package game

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/jason-s-yu/palace/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotReady is returned when dealing before every requested player has joined.
	ErrNotReady = errors.New("game is not ready to start")
	// ErrAlreadyDealt is returned when dealing a second time.
	ErrAlreadyDealt = errors.New("cards have already been dealt")
	// ErrInvalidPlayerID is returned for player ids that are not positive.
	ErrInvalidPlayerID = errors.New("player id must be positive")
)

// Game is one Palace game: its state, players and the four shared piles.
// A Game is owned by a single caller for the duration of one request and is
// not safe for concurrent use.
type Game struct {
	State

	Players []*Player

	Deck   []models.Card
	Burn   []models.Card
	Played []models.Card
	Pick   []models.Card

	log logrus.FieldLogger
	rng *rand.Rand
}

// Option customises a Game at construction or load time.
type Option func(*Game)

// WithLogger sets the logger the game reports moves to.
func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Game) {
		if l != nil {
			g.log = l
		}
	}
}

// WithRand sets the random source used to shuffle the deck.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) {
		if r != nil {
			g.rng = r
		}
	}
}

func newEmptyGame(opts ...Option) *Game {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	g := &Game{
		Deck:   []models.Card{},
		Burn:   []models.Card{},
		Played: []models.Card{},
		Pick:   []models.Card{},
		log:    discard,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewGame creates a game in the forming phase with creatorID as its first player.
func NewGame(creatorID int, rules Rules, opts ...Option) (*Game, error) {
	if creatorID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlayerID, creatorID)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	g := newEmptyGame(opts...)
	g.Rules = rules
	g.PlayOrder = []int{}
	g.PlayersReadyToStart = []int{}
	g.PlayersFinished = []int{}
	g.Players = append(g.Players, NewPlayer(creatorID))
	g.PlayOrder = append(g.PlayOrder, creatorID)
	g.refresh()
	return g, nil
}

// Logger returns the game's logger with its id attached.
func (g *Game) Logger() logrus.FieldLogger {
	return g.log.WithField("game_id", g.GameID)
}

// Player looks a player up by ID, or returns nil.
func (g *Game) Player(id int) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerIDs returns the joined player IDs in seating order.
func (g *Game) PlayerIDs() []int {
	ids := make([]int, len(g.Players))
	for i, p := range g.Players {
		ids[i] = p.ID
	}
	return ids
}

// ReadyToStart reports whether every requested seat is filled.
func (g *Game) ReadyToStart() bool {
	return g.NumberOfPlayersRequested == len(g.Players)
}

// PileCards returns the live contents of a pile.
func (g *Game) PileCards(p models.Pile) ([]models.Card, error) {
	ptr, err := g.pile(p)
	if err != nil {
		return nil, err
	}
	return *ptr, nil
}

func (g *Game) pile(p models.Pile) (*[]models.Card, error) {
	switch p {
	case models.Burn:
		return &g.Burn, nil
	case models.Deck:
		return &g.Deck, nil
	case models.Played:
		return &g.Played, nil
	case models.Pick:
		return &g.Pick, nil
	}
	return nil, fmt.Errorf("%w: %d", models.ErrUnknownPile, int(p))
}

// AddPlayer seats a new player while the game is still forming.
func (g *Game) AddPlayer(playerID int) ActionResponse {
	if playerID <= 0 {
		return failure(ActionJoin, "player id must be positive, got %d", playerID)
	}
	if g.ReadyToStart() || g.DealDone {
		return failure(ActionJoin, "game already has %d players", len(g.Players))
	}
	if g.Player(playerID) != nil {
		return failure(ActionJoin, "player %d is already in this game", playerID)
	}
	g.Players = append(g.Players, NewPlayer(playerID))
	g.PlayOrder = subtractIDs(g.PlayerIDs(), g.PlayersFinished)
	g.refresh()

	g.Logger().WithField("player_id", playerID).Infof("player joined (%d/%d)", len(g.Players), g.NumberOfPlayersRequested)
	return success(ActionJoin, fmt.Sprintf("added player %d to game", playerID))
}

// Deal shuffles a fresh deck and deals face down, face up and hand cards
// round robin, one pass per zone. The remainder becomes the shared deck pile.
func (g *Game) Deal() error {
	if !g.ReadyToStart() {
		return ErrNotReady
	}
	if g.DealDone {
		return ErrAlreadyDealt
	}
	deck := NewDeck(g.NumberOfDecks, g.rng)
	perPlayer := 2*g.NumberFaceDownCards + g.NumberHandCards
	if need := perPlayer * len(g.Players); need > deck.Len() {
		return fmt.Errorf("deal %d cards from %d: %w", need, deck.Len(), ErrDeckEmpty)
	}

	passes := []struct {
		zone  models.Zone
		count int
	}{
		{models.FaceDown, g.NumberFaceDownCards},
		{models.FaceUp, g.NumberFaceDownCards},
		{models.Hand, g.NumberHandCards},
	}
	for _, pass := range passes {
		for i := 0; i < pass.count; i++ {
			for _, p := range g.Players {
				c, err := deck.Deal()
				if err != nil {
					return fmt.Errorf("deal %s cards: %w", pass.zone, err)
				}
				p.AddCards([]models.Card{c}, pass.zone)
			}
		}
	}

	g.Deck = deck.Cards()
	g.Burn = []models.Card{}
	g.Played = []models.Card{}
	g.Pick = []models.Card{}
	g.PlayersReadyToStart = []int{}
	g.DealDone = true
	g.refresh()

	g.Logger().WithField("deck_size", len(g.Deck)).Info("cards dealt")
	return nil
}

// RotatePlayer moves the head of the play order to the tail.
func (g *Game) RotatePlayer() {
	if len(g.PlayOrder) < 2 {
		return
	}
	head := g.PlayOrder[0]
	g.PlayOrder = append(g.PlayOrder[1:len(g.PlayOrder):len(g.PlayOrder)], head)
}

// CurrentPlayerID returns the player at the head of the play order, or 0.
// Player ids are always positive, so 0 never names a player.
func (g *Game) CurrentPlayerID() int {
	if len(g.PlayOrder) == 0 {
		return 0
	}
	return g.PlayOrder[0]
}

// WorkOutWhoPlaysFirst rotates the play order until the holder of the lowest
// ranked hand card is at the head. Ties go to whoever comes first from the
// current head.
func (g *Game) WorkOutWhoPlaysFirst() {
	var (
		first, lowest int
		found         bool
	)
	for _, id := range g.PlayOrder {
		p := g.Player(id)
		if p == nil {
			continue
		}
		for _, c := range p.Hand {
			if !found || c.Rank < lowest {
				first, lowest, found = id, c.Rank, true
			}
		}
	}
	if !found {
		return
	}
	for i := 0; i < len(g.PlayOrder) && g.PlayOrder[0] != first; i++ {
		g.RotatePlayer()
	}
	g.Logger().WithField("player_id", first).Infof("plays first with a %s", models.RankName(lowest))
}

// InSwapPhase reports whether cards are dealt but some player has not yet
// chosen to swap or play on.
func (g *Game) InSwapPhase() bool {
	return g.DealDone && len(g.PlayersReadyToStart) < len(g.Players)
}

func (g *Game) playersStillToChoose() []int {
	return subtractIDs(g.PlayerIDs(), g.PlayersReadyToStart)
}

// AllowedActions works out what playerID may do next. It does not change the game.
func (g *Game) AllowedActions(playerID int) AllowedAction {
	if !g.DealDone {
		return AllowedAction{Action: ActionWait}
	}
	if g.InSwapPhase() {
		if containsInt(g.playersStillToChoose(), playerID) {
			return AllowedAction{Action: ActionSwap}
		}
		return AllowedAction{Action: ActionWait}
	}
	if len(g.PlayOrder) < 2 {
		if containsInt(g.PlayOrder, playerID) {
			return AllowedAction{Action: ActionLost}
		}
		return AllowedAction{Action: ActionFinished}
	}
	if containsInt(g.PlayersFinished, playerID) {
		return AllowedAction{Action: ActionWait}
	}
	if g.CurrentPlayerID() != playerID {
		return AllowedAction{Action: ActionWait}
	}

	p := g.Player(playerID)
	if p == nil {
		return AllowedAction{Action: ActionWait}
	}
	zone, cards := p.UsableCards()
	if zone == models.ZoneNone {
		return AllowedAction{Action: ActionWait}
	}
	if zone == models.FaceDown || g.CanPlayCards(cards) {
		return AllowedAction{Action: ActionPlay, AllowedCards: zone}
	}
	return AllowedAction{Action: ActionPick}
}

// refresh recomputes the derived counters, the play list and the checksum.
func (g *Game) refresh() {
	g.NumberOfPlayers = len(g.Players)
	g.DeckSize = len(g.Deck)
	g.BurnSize = len(g.Burn)
	g.PlayedSize = len(g.Played)
	g.PickSize = len(g.Pick)
	g.PlayList = append([]models.Card{}, g.Played...)
	g.Checksum = g.computeChecksum()
}
