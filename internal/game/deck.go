// internal/game/deck.go
package game

import (
	"errors"
	"math/rand"

	"github.com/jason-s-yu/palace/internal/models"
)

// CardsPerDeck is the size of one standard deck.
const CardsPerDeck = 52

// ErrDeckEmpty is returned when dealing from an exhausted deck.
var ErrDeckEmpty = errors.New("deck is empty")

// Deck is a shuffled stack of cards. The top of the deck is the end of the slice.
type Deck struct {
	cards []models.Card
}

// NewDeck builds numberOfDecks standard 52 card sets and shuffles them with rng.
func NewDeck(numberOfDecks int, rng *rand.Rand) *Deck {
	d := &Deck{cards: make([]models.Card, 0, numberOfDecks*CardsPerDeck)}
	for i := 0; i < numberOfDecks; i++ {
		for _, s := range models.Suits {
			for r := models.MinRank; r <= models.MaxRank; r++ {
				d.cards = append(d.cards, models.NewCard(s, r))
			}
		}
	}
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
	return d
}

// Deal removes and returns the top card.
func (d *Deck) Deal() (models.Card, error) {
	if len(d.cards) == 0 {
		return models.Card{}, ErrDeckEmpty
	}
	c := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return c, nil
}

func (d *Deck) Len() int {
	return len(d.cards)
}

// Cards returns a copy of the remaining cards, bottom first.
func (d *Deck) Cards() []models.Card {
	out := make([]models.Card, len(d.cards))
	copy(out, d.cards)
	return out
}
