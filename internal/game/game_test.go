package game

import (
	"math/rand"
	"testing"

	"github.com/jason-s-yu/palace/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestGame builds a game with players 1..numPlayers seated and dealt.
func setupTestGame(t *testing.T, numPlayers int, rules *Rules) *Game {
	t.Helper()
	r := DefaultRules()
	if rules != nil {
		r = *rules
	}
	r.NumberOfPlayersRequested = numPlayers

	g, err := NewGame(1, r, WithRand(rand.New(rand.NewSource(42))))
	require.NoError(t, err)
	for id := 2; id <= numPlayers; id++ {
		resp := g.AddPlayer(id)
		require.True(t, resp.ActionResult, resp.ActionMessage)
	}
	require.True(t, g.ReadyToStart())
	require.NoError(t, g.Deal())
	return g
}

// setupPlayingGame builds a game past the swap phase with hands chosen by the test.
func setupPlayingGame(t *testing.T, numPlayers int, rules *Rules) *Game {
	t.Helper()
	g := setupTestGame(t, numPlayers, rules)
	for _, p := range g.Players {
		p.FaceDown = []models.Card{}
		p.FaceUp = []models.Card{}
		p.Hand = []models.Card{}
	}
	g.Deck = []models.Card{}
	g.PlayersReadyToStart = g.PlayerIDs()
	g.PlayOrder = g.PlayerIDs()
	g.refresh()
	return g
}

func play(t *testing.T, g *Game, playerID int, cards ...string) ActionResponse {
	t.Helper()
	return g.HandleAction(playerID, ActionRequest{Action: ActionPlay, ActionCards: cards})
}

func TestAddPlayer(t *testing.T) {
	r := DefaultRules()
	r.NumberOfPlayersRequested = 3
	g, err := NewGame(10, r)
	require.NoError(t, err)
	assert.Equal(t, []int{10}, g.PlayOrder)

	resp := g.AddPlayer(10)
	assert.False(t, resp.ActionResult)

	require.True(t, g.AddPlayer(11).ActionResult)
	assert.False(t, g.ReadyToStart())
	require.ErrorIs(t, g.Deal(), ErrNotReady)

	require.True(t, g.AddPlayer(12).ActionResult)
	assert.True(t, g.ReadyToStart())
	assert.Equal(t, []int{10, 11, 12}, g.PlayOrder)

	resp = g.AddPlayer(13)
	assert.False(t, resp.ActionResult)
	assert.Len(t, g.Players, 3)
}

func TestPlayerIDsMustBePositive(t *testing.T) {
	_, err := NewGame(0, DefaultRules())
	assert.ErrorIs(t, err, ErrInvalidPlayerID)
	_, err = NewGame(-3, DefaultRules())
	assert.ErrorIs(t, err, ErrInvalidPlayerID)

	g, err := NewGame(5, DefaultRules())
	require.NoError(t, err)
	resp := g.AddPlayer(0)
	assert.False(t, resp.ActionResult)
	assert.Equal(t, ActionJoin, resp.Action)
	assert.Equal(t, []int{5}, g.PlayerIDs())
	assert.False(t, g.AddPlayer(-1).ActionResult)
}

func TestNewGameRejectsBadRules(t *testing.T) {
	r := DefaultRules()
	r.ResetCard = r.BurnCard
	_, err := NewGame(1, r)
	assert.ErrorIs(t, err, ErrInvalidRules)
}

func TestDealConservesCards(t *testing.T) {
	for _, decks := range []int{1, 2} {
		r := DefaultRules()
		r.NumberOfDecks = decks
		g := setupTestGame(t, 4, &r)

		total := len(g.Deck)
		for _, p := range g.Players {
			assert.Len(t, p.FaceDown, 3)
			assert.Len(t, p.FaceUp, 3)
			assert.Len(t, p.Hand, 3)
			total += p.CardCount()
		}
		assert.Equal(t, decks*52, total)
		assert.True(t, g.DealDone)
		assert.Equal(t, len(g.Deck), g.DeckSize)
		assert.ErrorIs(t, g.Deal(), ErrAlreadyDealt)
	}
}

func TestRotatePlayer(t *testing.T) {
	g := setupPlayingGame(t, 3, nil)
	require.Equal(t, []int{1, 2, 3}, g.PlayOrder)
	g.RotatePlayer()
	assert.Equal(t, []int{2, 3, 1}, g.PlayOrder)
	g.RotatePlayer()
	g.RotatePlayer()
	assert.Equal(t, []int{1, 2, 3}, g.PlayOrder)
}

func TestWorkOutWhoPlaysFirst(t *testing.T) {
	g := setupPlayingGame(t, 3, nil)
	g.Player(1).Hand = []models.Card{card(6, models.Hearts), card(9, models.Clubs)}
	g.Player(2).Hand = []models.Card{card(11, models.Hearts), card(4, models.Clubs)}
	g.Player(3).Hand = []models.Card{card(5, models.Spades)}

	g.WorkOutWhoPlaysFirst()
	assert.Equal(t, []int{2, 3, 1}, g.PlayOrder)
}

func TestWorkOutWhoPlaysFirstTieGoesToEarliest(t *testing.T) {
	g := setupPlayingGame(t, 3, nil)
	g.PlayOrder = []int{2, 3, 1}
	g.Player(1).Hand = []models.Card{card(3, models.Hearts)}
	g.Player(2).Hand = []models.Card{card(8, models.Hearts)}
	g.Player(3).Hand = []models.Card{card(3, models.Clubs)}

	g.WorkOutWhoPlaysFirst()
	assert.Equal(t, []int{3, 1, 2}, g.PlayOrder)
}

func TestWorkOutWhoPlaysFirstLowestHolderLast(t *testing.T) {
	g := setupPlayingGame(t, 2, nil)
	g.Player(1).Hand = []models.Card{card(9, models.Hearts)}
	g.Player(2).Hand = []models.Card{card(3, models.Clubs)}

	g.WorkOutWhoPlaysFirst()
	assert.Equal(t, []int{2, 1}, g.PlayOrder)
}

func TestWorkOutWhoPlaysFirstEmptyHands(t *testing.T) {
	g := setupPlayingGame(t, 3, nil)
	g.PlayOrder = []int{3, 1, 2}
	for _, p := range g.Players {
		p.Hand = []models.Card{}
	}

	g.WorkOutWhoPlaysFirst()
	assert.Equal(t, []int{3, 1, 2}, g.PlayOrder)
}

func TestSwapPhase(t *testing.T) {
	g := setupTestGame(t, 2, nil)
	assert.Equal(t, ActionSwap, g.AllowedActions(1).Action)
	assert.Equal(t, ActionSwap, g.AllowedActions(2).Action)

	p1 := g.Player(1)
	hand0, faceUp2 := p1.Hand[0], p1.FaceUp[2]
	resp := g.HandleAction(1, ActionRequest{Action: ActionSwap, ActionCards: []string{"h-0", "f-2"}})
	require.True(t, resp.ActionResult, resp.ActionMessage)
	assert.Equal(t, faceUp2, p1.Hand[0])
	assert.Equal(t, hand0, p1.FaceUp[2])

	assert.Equal(t, ActionWait, g.AllowedActions(1).Action)
	assert.Equal(t, ActionSwap, g.AllowedActions(2).Action)
	assert.False(t, g.PlayNoSwap(1).ActionResult, "a player chooses only once")

	resp = g.HandleAction(2, ActionRequest{Action: ActionNoSwap})
	require.True(t, resp.ActionResult, resp.ActionMessage)
	assert.False(t, g.InSwapPhase())
	assert.Equal(t, []int{1, 2}, g.PlayersReadyToStart)

	head := g.Player(g.CurrentPlayerID())
	other := g.Player(g.PlayOrder[1])
	lowest := func(p *Player) int {
		low := 99
		for _, c := range p.Hand {
			if c.Rank < low {
				low = c.Rank
			}
		}
		return low
	}
	assert.LessOrEqual(t, lowest(head), lowest(other))
}

func TestSwapShapeValidation(t *testing.T) {
	cases := map[string][]string{
		"unequal counts":       {"h-0", "h-1", "f-0"},
		"zero cards":           {},
		"face down card":       {"h-0", "d-0"},
		"index out of range":   {"h-0", "f-9"},
		"malformed":            {"h0", "f-0"},
		"unknown zone":         {"x-0", "f-0"},
		"same card twice":      {"h-0", "h-0", "f-0", "f-1"},
		"only face up cards":   {"f-0", "f-1"},
		"negative index":       {"h--1", "f-0"},
		"face up without hand": {"f-0"},
	}
	for name, descs := range cases {
		t.Run(name, func(t *testing.T) {
			g := setupTestGame(t, 2, nil)
			p := g.Player(1)
			hand := append([]models.Card{}, p.Hand...)
			faceUp := append([]models.Card{}, p.FaceUp...)

			resp := g.HandleAction(1, ActionRequest{Action: ActionSwap, ActionCards: descs})
			assert.False(t, resp.ActionResult)
			assert.NotEmpty(t, resp.ActionMessage)
			assert.Equal(t, hand, p.Hand)
			assert.Equal(t, faceUp, p.FaceUp)
			assert.Empty(t, g.PlayersReadyToStart)
		})
	}
}

func TestAllowedActionsWaitOutOfTurn(t *testing.T) {
	g := setupPlayingGame(t, 3, nil)
	for _, p := range g.Players {
		p.Hand = []models.Card{card(9, models.Hearts)}
	}
	assert.Equal(t, AllowedAction{Action: ActionPlay, AllowedCards: models.Hand}, g.AllowedActions(1))
	assert.Equal(t, ActionWait, g.AllowedActions(2).Action)
	assert.Equal(t, ActionWait, g.AllowedActions(3).Action)

	resp := play(t, g, 2, "h-0")
	assert.False(t, resp.ActionResult)
}

func TestPickUpGating(t *testing.T) {
	g := setupPlayingGame(t, 2, nil)
	g.Played = []models.Card{card(12, models.Hearts)}
	g.Player(1).Hand = []models.Card{card(5, models.Clubs)}
	g.Player(1).FaceUp = []models.Card{card(14, models.Clubs)}
	g.Player(2).Hand = []models.Card{card(6, models.Clubs)}

	assert.Equal(t, ActionPick, g.AllowedActions(1).Action)
	assert.False(t, play(t, g, 1, "h-0").ActionResult)
	assert.False(t, play(t, g, 1, "f-0").ActionResult, "face up cards are not usable while holding a hand")

	resp := g.HandleAction(1, ActionRequest{Action: ActionPick})
	require.True(t, resp.ActionResult, resp.ActionMessage)
	assert.ElementsMatch(t, []models.Card{card(5, models.Clubs), card(12, models.Hearts)}, g.Player(1).Hand)
	assert.Empty(t, g.Played)
	assert.Equal(t, []int{2, 1}, g.PlayOrder)

	// Player 2 can beat an empty pile, so may not pick up.
	resp = g.PickUp(2)
	assert.False(t, resp.ActionResult)
	assert.Equal(t, ActionPlay, g.AllowedActions(2).Action)
}

func TestPlayMoveHandReplenish(t *testing.T) {
	g := setupPlayingGame(t, 2, nil)
	g.Deck = []models.Card{card(13, models.Hearts), card(4, models.Hearts)}
	g.Player(1).Hand = []models.Card{card(5, models.Clubs), card(5, models.Hearts), card(9, models.Spades)}
	g.Player(2).Hand = []models.Card{card(6, models.Clubs)}

	resp := play(t, g, 1, "h-0", "h-1")
	require.True(t, resp.ActionResult, resp.ActionMessage)
	assert.Equal(t, []models.Card{card(5, models.Clubs), card(5, models.Hearts)}, g.Played)
	assert.Equal(t, g.Played, g.PlayList)
	assert.Equal(t, []models.Card{card(9, models.Spades), card(4, models.Hearts)}, g.Player(1).Hand[:2])
	assert.Len(t, g.Player(1).Hand, 3)
	assert.Empty(t, g.Deck)
	assert.Equal(t, []int{2, 1}, g.PlayOrder)
	assert.Equal(t, 1, g.CurrentTurnNumber)
	assert.Equal(t, 1, g.LastPlayer)
}

func TestPlayMoveValidation(t *testing.T) {
	cases := map[string][]string{
		"mixed ranks":          {"h-0", "h-1"},
		"mixed zones":          {"h-0", "f-0"},
		"wrong zone":           {"f-0"},
		"out of range":         {"h-5"},
		"malformed":            {"hand-0"},
		"same card twice":      {"h-0", "h-0"},
		"too low for the pile": {"h-2"},
	}
	for name, descs := range cases {
		t.Run(name, func(t *testing.T) {
			g := setupPlayingGame(t, 2, nil)
			g.Played = []models.Card{card(8, models.Diamonds)}
			g.Player(1).Hand = []models.Card{card(9, models.Clubs), card(11, models.Hearts), card(4, models.Spades)}
			g.Player(1).FaceUp = []models.Card{card(13, models.Clubs)}
			g.Player(2).Hand = []models.Card{card(6, models.Clubs)}
			before := g.Checksum

			resp := play(t, g, 1, descs...)
			assert.False(t, resp.ActionResult)
			assert.NotEmpty(t, resp.ActionMessage)
			assert.Len(t, g.Player(1).Hand, 3)
			assert.Equal(t, []models.Card{card(8, models.Diamonds)}, g.Played)
			assert.Equal(t, before, g.Checksum)
		})
	}
}

func TestMultipleFaceDownCardsRejected(t *testing.T) {
	g := setupPlayingGame(t, 2, nil)
	g.Player(1).FaceDown = []models.Card{card(9, models.Clubs), card(9, models.Hearts)}
	g.Player(2).Hand = []models.Card{card(6, models.Clubs)}

	assert.Equal(t, AllowedAction{Action: ActionPlay, AllowedCards: models.FaceDown}, g.AllowedActions(1))
	resp := play(t, g, 1, "d-0", "d-1")
	assert.False(t, resp.ActionResult)
	assert.Len(t, g.Player(1).FaceDown, 2)
}

func TestLessThanCard(t *testing.T) {
	g := setupPlayingGame(t, 2, nil)
	g.Played = []models.Card{card(7, models.Diamonds)}

	assert.True(t, g.CanPlayCards([]models.Card{card(5, models.Clubs)}))
	assert.True(t, g.CanPlayCards([]models.Card{card(7, models.Clubs)}))
	assert.False(t, g.CanPlayCards([]models.Card{card(9, models.Clubs)}))
	assert.True(t, g.CanPlayCards([]models.Card{card(10, models.Clubs)}), "play on anything")
	assert.True(t, g.CanPlayCards([]models.Card{card(9, models.Clubs), card(2, models.Clubs)}))
}

func TestTransparentCardIsSeeThrough(t *testing.T) {
	r := DefaultRules()
	r.TransparentCard = 8
	g := setupPlayingGame(t, 2, &r)

	g.Played = []models.Card{card(12, models.Hearts), card(8, models.Clubs), card(8, models.Spades)}
	assert.False(t, g.CanPlayCards([]models.Card{card(9, models.Diamonds)}), "judged against the queen")
	assert.True(t, g.CanPlayCards([]models.Card{card(13, models.Diamonds)}))

	g.Played = []models.Card{card(8, models.Clubs)}
	assert.True(t, g.CanPlayCards([]models.Card{card(3, models.Diamonds)}), "only transparent cards means empty")

	r = DefaultRules()
	g = setupPlayingGame(t, 2, &r)
	g.Played = []models.Card{card(12, models.Hearts), card(8, models.Clubs)}
	assert.True(t, g.CanPlayCards([]models.Card{card(9, models.Diamonds)}), "no transparent rank configured")
}

func TestBurnCardClearsTheDeck(t *testing.T) {
	g := setupPlayingGame(t, 2, nil)
	g.Played = []models.Card{card(12, models.Hearts), card(13, models.Hearts)}
	g.Player(1).Hand = []models.Card{card(10, models.Clubs), card(3, models.Clubs)}
	g.Player(2).Hand = []models.Card{card(6, models.Clubs)}

	resp := play(t, g, 1, "h-0")
	require.True(t, resp.ActionResult, resp.ActionMessage)
	assert.Empty(t, g.Played)
	assert.Len(t, g.Burn, 3)
	assert.Equal(t, []int{1, 2}, g.PlayOrder, "the player goes again")
	assert.Equal(t, AllowedAction{Action: ActionPlay, AllowedCards: models.Hand}, g.AllowedActions(1))
}

func TestFourOfAKindClearsTheDeck(t *testing.T) {
	g := setupPlayingGame(t, 2, nil)
	g.Played = []models.Card{card(6, models.Hearts), card(6, models.Clubs)}
	g.Player(1).Hand = []models.Card{card(6, models.Diamonds), card(6, models.Spades), card(13, models.Spades)}
	g.Player(2).Hand = []models.Card{card(6, models.Clubs)}

	resp := play(t, g, 1, "h-0", "h-1")
	require.True(t, resp.ActionResult, resp.ActionMessage)
	assert.Empty(t, g.Played)
	assert.Len(t, g.Burn, 4)
	assert.Equal(t, 1, g.CurrentPlayerID())
}

func TestFaceDownGambleLost(t *testing.T) {
	g := setupPlayingGame(t, 2, nil)
	g.Played = []models.Card{card(9, models.Hearts), card(12, models.Hearts)}
	g.Player(1).FaceDown = []models.Card{card(4, models.Clubs), card(11, models.Clubs)}
	g.Player(2).Hand = []models.Card{card(6, models.Clubs)}

	resp := play(t, g, 1, "d-0")
	require.True(t, resp.ActionResult, "losing the gamble is not an error")
	assert.Contains(t, resp.ActionMessage, "four of clubs")
	assert.ElementsMatch(t,
		[]models.Card{card(4, models.Clubs), card(9, models.Hearts), card(12, models.Hearts)},
		g.Player(1).Hand)
	assert.Equal(t, []models.Card{card(11, models.Clubs)}, g.Player(1).FaceDown)
	assert.Empty(t, g.Played)
	assert.Equal(t, []int{2, 1}, g.PlayOrder)
}

func TestFaceDownGambleWon(t *testing.T) {
	g := setupPlayingGame(t, 2, nil)
	g.Played = []models.Card{card(9, models.Hearts)}
	g.Player(1).FaceDown = []models.Card{card(4, models.Clubs), card(11, models.Clubs)}
	g.Player(2).Hand = []models.Card{card(6, models.Clubs)}

	resp := play(t, g, 1, "d-1")
	require.True(t, resp.ActionResult, resp.ActionMessage)
	assert.Equal(t, []models.Card{card(9, models.Hearts), card(11, models.Clubs)}, g.Played)
	assert.Equal(t, []models.Card{card(4, models.Clubs)}, g.Player(1).FaceDown)
	assert.Empty(t, g.Player(1).Hand)
}

func TestEndToEndFaceDownFinish(t *testing.T) {
	r := DefaultRules()
	r.LessThanCard = 4
	r.PlayOnAnythingCards = []int{2, 10}
	g := setupPlayingGame(t, 3, &r)
	four, three1, three2 := card(4, models.Hearts), card(3, models.Clubs), card(3, models.Spades)
	g.Player(1).FaceDown = []models.Card{four}
	g.Player(2).FaceDown = []models.Card{three1}
	g.Player(3).FaceDown = []models.Card{three2}

	resp := play(t, g, 1, "d-0")
	require.True(t, resp.ActionResult, resp.ActionMessage)
	assert.Equal(t, []models.Card{four}, g.Played)
	assert.Equal(t, []int{2, 3}, g.PlayOrder)
	assert.Equal(t, []int{1}, g.PlayersFinished)
	assert.False(t, g.GameFinished)
	assert.Equal(t, ActionWait, g.AllowedActions(1).Action)

	resp = play(t, g, 2, "d-0")
	require.True(t, resp.ActionResult, resp.ActionMessage)
	assert.Equal(t, []models.Card{four, three1}, g.Played)
	assert.Equal(t, []int{3}, g.PlayOrder)
	assert.Equal(t, []int{1, 2}, g.PlayersFinished)
	assert.True(t, g.GameFinished)

	assert.Equal(t, ActionLost, g.AllowedActions(3).Action)
	assert.Equal(t, ActionFinished, g.AllowedActions(1).Action)
	assert.False(t, play(t, g, 3, "d-0").ActionResult)
}

func TestHandleActionUnknown(t *testing.T) {
	g := setupTestGame(t, 2, nil)

	resp := g.HandleAction(1, ActionRequest{})
	assert.Equal(t, ActionResponse{Action: ActionUnknown, ActionMessage: "no action specified"}, resp)

	resp = g.HandleAction(1, ActionRequest{Action: "dance"})
	assert.Equal(t, ActionResponse{Action: "dance", ActionMessage: "unknown action :dance"}, resp)

	resp = g.HandleAction(1, ActionRequest{Action: ActionPlay})
	assert.Equal(t, "no cards specified", resp.ActionMessage)

	resp = g.HandleAction(99, ActionRequest{Action: ActionNoSwap})
	assert.False(t, resp.ActionResult)
}

func TestChecksumTracksState(t *testing.T) {
	g := setupPlayingGame(t, 2, nil)
	g.Player(1).Hand = []models.Card{card(9, models.Clubs)}
	g.Player(2).Hand = []models.Card{card(6, models.Clubs)}
	g.refresh()
	before := g.Checksum
	require.Len(t, before, 8)

	g.refresh()
	assert.Equal(t, before, g.Checksum, "checksum is a pure function of the state")

	require.True(t, play(t, g, 1, "h-0").ActionResult)
	assert.NotEqual(t, before, g.Checksum)
}

func TestViewHidesOtherHands(t *testing.T) {
	g := setupTestGame(t, 2, nil)
	v := g.View(1)
	require.Len(t, v.PlayersState, 2)
	assert.Len(t, v.PlayersState[0].HandCards, 3)
	assert.Empty(t, v.PlayersState[1].HandCards)
	assert.Equal(t, 3, v.PlayersState[1].NumberInHand)
	assert.Equal(t, ActionSwap, v.AllowedMoves.Action)
	assert.True(t, v.Game.ActiveGame)
	assert.Equal(t, g.Checksum, v.Checksum)
}

func TestParseCardRef(t *testing.T) {
	r, err := ParseCardRef("f-12")
	require.NoError(t, err)
	assert.Equal(t, CardRef{Zone: models.FaceUp, Index: 12}, r)
	assert.Equal(t, "f-12", r.String())

	for _, bad := range []string{"", "h", "h-", "hh-1", "q-1", "h-x"} {
		_, err := ParseCardRef(bad)
		assert.Error(t, err, bad)
	}
}
