// internal/game/moves.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/palace/internal/models"
)

// resolveRefs returns the cards the refs point at, or a rejection message.
// Every ref must be in range and no position may be named twice.
func resolveRefs(p *Player, refs []CardRef) ([]models.Card, string) {
	seen := make(map[CardRef]bool, len(refs))
	cards := make([]models.Card, 0, len(refs))
	for _, r := range refs {
		zone := p.Cards(r.Zone)
		if r.Index >= len(zone) {
			return nil, fmt.Sprintf("card %s does not exist, you only have %d %s cards", r, len(zone), r.Zone)
		}
		if seen[r] {
			return nil, fmt.Sprintf("card %s was selected more than once", r)
		}
		seen[r] = true
		cards = append(cards, zone[r.Index])
	}
	return cards, ""
}

// PlayMove plays the described cards from playerID's active zone onto the played pile.
func (g *Game) PlayMove(playerID int, descriptions []string) ActionResponse {
	p := g.Player(playerID)
	if p == nil {
		return failure(ActionPlay, "player %d is not part of this game", playerID)
	}
	allowed := g.AllowedActions(playerID)
	if allowed.Action != ActionPlay {
		if allowed.Action == ActionPick {
			return failure(ActionPlay, "you cannot play any of your cards, you must pick up")
		}
		return failure(ActionPlay, "you cannot play now, your action is %s", allowed.Action)
	}
	if len(descriptions) == 0 {
		return failure(ActionPlay, "no cards specified")
	}
	refs, err := ParseCardRefs(descriptions)
	if err != nil {
		return failure(ActionPlay, "%v", err)
	}

	zone := refs[0].Zone
	for _, r := range refs[1:] {
		if r.Zone != zone {
			return failure(ActionPlay, "all played cards must come from the same place")
		}
	}
	if zone != allowed.AllowedCards {
		return failure(ActionPlay, "you must play from your %s cards", allowed.AllowedCards)
	}
	if zone == models.FaceDown && len(refs) > 1 {
		return failure(ActionPlay, "you can only play one face down card at a time")
	}

	cards, msg := resolveRefs(p, refs)
	if msg != "" {
		return failure(ActionPlay, "%s", msg)
	}
	for _, c := range cards[1:] {
		if !c.SameRank(cards[0]) {
			return failure(ActionPlay, "all played cards must be the same rank")
		}
	}

	if !g.canPlayOn(cards[0], g.Played) {
		top, _ := g.effectiveTop()
		if zone != models.FaceDown {
			return failure(ActionPlay, "you cannot play a %s on a %s", models.RankName(cards[0].Rank), models.RankName(top.Rank))
		}
		return g.loseFaceDownGamble(p, cards[0], top)
	}

	p.RemoveCards(cards, zone)
	g.Played = append(g.Played, cards...)
	if zone == models.Hand {
		g.replenishHand(p)
	}
	g.CurrentTurnNumber++
	g.LastPlayer = playerID

	message := "played " + describe(cards)
	switch {
	case p.CardCount() == 0:
		message = g.finishPlayer(playerID, message)
	case g.clearsTheDeck():
		g.Burn = append(g.Burn, g.Played...)
		g.Played = []models.Card{}
		message += ", cleared the deck, play again"
	default:
		g.RotatePlayer()
	}
	g.refresh()
	return success(ActionPlay, message)
}

// loseFaceDownGamble handles a revealed face down card that cannot be played:
// the card and the whole played pile go into the player's hand.
func (g *Game) loseFaceDownGamble(p *Player, card, top models.Card) ActionResponse {
	p.RemoveCards([]models.Card{card}, models.FaceDown)
	p.AddCards([]models.Card{card}, models.Hand)
	p.AddCards(g.Played, models.Hand)
	picked := len(g.Played)
	g.Played = []models.Card{}
	g.CurrentTurnNumber++
	g.LastPlayer = p.ID
	g.RotatePlayer()
	g.refresh()
	return success(ActionPlay, fmt.Sprintf(
		"your face down card was the %s which cannot be played on a %s, you picked up %d cards",
		card, models.RankName(top.Rank), picked+1))
}

// replenishHand draws from the deck pile until the hand is full or the deck is empty.
func (g *Game) replenishHand(p *Player) {
	for len(p.Hand) < g.NumberHandCards && len(g.Deck) > 0 {
		c := g.Deck[len(g.Deck)-1]
		g.Deck = g.Deck[:len(g.Deck)-1]
		p.AddCards([]models.Card{c}, models.Hand)
	}
}

// finishPlayer records that playerID has shed every card and ends the game
// when fewer than two players remain.
func (g *Game) finishPlayer(playerID int, message string) string {
	g.PlayersFinished = append(g.PlayersFinished, playerID)
	g.PlayOrder = removeID(g.PlayOrder, playerID)
	message += ", you have no cards left"
	if len(g.PlayOrder) < 2 {
		g.GameFinished = true
		message += ", game over"
		g.Logger().WithField("finished", g.PlayersFinished).Info("game finished")
	}
	return message
}

// PickUp moves the whole played pile into playerID's hand.
func (g *Game) PickUp(playerID int) ActionResponse {
	if g.Player(playerID) == nil {
		return failure(ActionPick, "player %d is not part of this game", playerID)
	}
	allowed := g.AllowedActions(playerID)
	if allowed.Action != ActionPick {
		if allowed.Action == ActionPlay {
			return failure(ActionPick, "you can play a card, you cannot pick up")
		}
		return failure(ActionPick, "you cannot pick up now, your action is %s", allowed.Action)
	}
	p := g.Player(playerID)
	picked := len(g.Played)
	p.AddCards(g.Played, models.Hand)
	g.Played = []models.Card{}
	g.CurrentTurnNumber++
	g.LastPlayer = playerID
	g.RotatePlayer()
	g.refresh()
	return success(ActionPick, fmt.Sprintf("picked up %d cards", picked))
}

// SwapCards exchanges hand and face up cards pairwise, in the order they
// are described, and commits the player to start.
func (g *Game) SwapCards(playerID int, descriptions []string) ActionResponse {
	p := g.Player(playerID)
	if p == nil {
		return failure(ActionSwap, "player %d is not part of this game", playerID)
	}
	if allowed := g.AllowedActions(playerID); allowed.Action != ActionSwap {
		return failure(ActionSwap, "you cannot swap cards now, your action is %s", allowed.Action)
	}
	if len(descriptions) == 0 {
		return failure(ActionSwap, "no cards specified")
	}
	refs, err := ParseCardRefs(descriptions)
	if err != nil {
		return failure(ActionSwap, "%v", err)
	}

	var hand, faceUp []CardRef
	for _, r := range refs {
		switch r.Zone {
		case models.Hand:
			hand = append(hand, r)
		case models.FaceUp:
			faceUp = append(faceUp, r)
		default:
			return failure(ActionSwap, "only hand and face up cards can be swapped, not %s", r)
		}
	}
	if len(hand) != len(faceUp) {
		return failure(ActionSwap, "select the same number of hand and face up cards (%d hand, %d face up)", len(hand), len(faceUp))
	}
	if _, msg := resolveRefs(p, refs); msg != "" {
		return failure(ActionSwap, "%s", msg)
	}

	for i := range hand {
		h, f := hand[i].Index, faceUp[i].Index
		p.Hand[h], p.FaceUp[f] = p.FaceUp[f], p.Hand[h]
	}
	message := fmt.Sprintf("swapped %d cards", len(hand))
	message = g.markReady(playerID, message)
	g.refresh()
	return success(ActionSwap, message)
}

// PlayNoSwap commits playerID to start with the cards they were dealt.
func (g *Game) PlayNoSwap(playerID int) ActionResponse {
	if g.Player(playerID) == nil {
		return failure(ActionNoSwap, "player %d is not part of this game", playerID)
	}
	if allowed := g.AllowedActions(playerID); allowed.Action != ActionSwap {
		return failure(ActionNoSwap, "you have already chosen, your action is %s", allowed.Action)
	}
	message := g.markReady(playerID, "ready to play")
	g.refresh()
	return success(ActionNoSwap, message)
}

func (g *Game) markReady(playerID int, message string) string {
	g.PlayersReadyToStart = append(g.PlayersReadyToStart, playerID)
	if !g.InSwapPhase() {
		g.WorkOutWhoPlaysFirst()
		message += fmt.Sprintf(", everyone is ready, player %d plays first", g.CurrentPlayerID())
	}
	return message
}

func describe(cards []models.Card) string {
	if len(cards) == 1 {
		return cards[0].String()
	}
	return fmt.Sprintf("%d cards of rank %s", len(cards), models.RankName(cards[0].Rank))
}
