// internal/game/legality.go
package game

import "github.com/jason-s-yu/palace/internal/models"

// fourOfAKind is how many matching ranks on top of the played pile clear it.
const fourOfAKind = 4

// CanPlayCards reports whether at least one of cards may be played on the current pile.
func (g *Game) CanPlayCards(cards []models.Card) bool {
	for _, c := range cards {
		if g.canPlayOn(c, g.Played) {
			return true
		}
	}
	return false
}

// canPlayOn judges card against the top of pile. Transparent cards are
// see-through, so the card beneath them is judged instead.
func (g *Game) canPlayOn(card models.Card, pile []models.Card) bool {
	if len(pile) == 0 {
		return true
	}
	top := pile[len(pile)-1]
	if g.TransparentCard != 0 && top.Rank == g.TransparentCard {
		return g.canPlayOn(card, pile[:len(pile)-1])
	}
	if containsInt(g.PlayOnAnythingCards, card.Rank) {
		return true
	}
	if g.LessThanCard != 0 && top.Rank == g.LessThanCard {
		return card.Rank <= top.Rank
	}
	return card.Rank >= top.Rank
}

// effectiveTop returns the card a new play is judged against, skipping transparent cards.
func (g *Game) effectiveTop() (models.Card, bool) {
	for i := len(g.Played) - 1; i >= 0; i-- {
		if g.TransparentCard != 0 && g.Played[i].Rank == g.TransparentCard {
			continue
		}
		return g.Played[i], true
	}
	return models.Card{}, false
}

// clearsTheDeck reports whether the played pile should be burnt: the top
// card is the burn rank, or the top four cards share a rank.
func (g *Game) clearsTheDeck() bool {
	n := len(g.Played)
	if n == 0 {
		return false
	}
	top := g.Played[n-1]
	if g.BurnCard != 0 && top.Rank == g.BurnCard {
		return true
	}
	if n < fourOfAKind {
		return false
	}
	for _, c := range g.Played[n-fourOfAKind:] {
		if !c.SameRank(top) {
			return false
		}
	}
	return true
}
