// internal/models/card.go
package models

import "fmt"

// Suit is a card suit. SuitNone marks the back of a card.
type Suit int

const (
	SuitNone Suit = iota
	Hearts
	Diamonds
	Clubs
	Spades
)

// Suits lists the four real suits in deck-building order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

const (
	// MinRank is the lowest rank in a standard deck (two).
	MinRank = 2
	// MaxRank is the highest rank in a standard deck (ace).
	MaxRank = 14
	// placeholderRank marks a hidden card shown to other players.
	placeholderRank = 1
)

var suitNames = map[Suit]string{
	Hearts:   "hearts",
	Diamonds: "diamonds",
	Clubs:    "clubs",
	Spades:   "spades",
}

var suitChars = map[Suit]byte{
	SuitNone: 'B',
	Hearts:   'H',
	Diamonds: 'D',
	Clubs:    'C',
	Spades:   'S',
}

var rankNames = map[int]string{
	2: "two", 3: "three", 4: "four", 5: "five", 6: "six", 7: "seven",
	8: "eight", 9: "nine", 10: "ten", 11: "jack", 12: "queen", 13: "king", 14: "ace",
}

var rankChars = map[int]byte{10: 'T', 11: 'J', 12: 'Q', 13: 'K', 14: 'A'}

func (s Suit) String() string {
	if name, ok := suitNames[s]; ok {
		return name
	}
	return "none"
}

// Card is a playing card. Cards are values: copy them freely and compare with ==.
type Card struct {
	Rank int  `json:"rank"`
	Suit Suit `json:"suit"`
}

// FaceDownCard is the placeholder that stands in for a card whose identity is hidden.
var FaceDownCard = Card{Suit: SuitNone, Rank: placeholderRank}

// NewCard builds a card from a suit and rank.
func NewCard(suit Suit, rank int) Card {
	return Card{Suit: suit, Rank: rank}
}

// IsFaceDown reports whether c is the hidden-card placeholder.
func (c Card) IsFaceDown() bool {
	return c == FaceDownCard
}

// Less orders cards by rank only; suit never breaks ties.
func (c Card) Less(other Card) bool {
	return c.Rank < other.Rank
}

// SameRank reports whether both cards share a rank.
func (c Card) SameRank(other Card) bool {
	return c.Rank == other.Rank
}

// Key returns the two character short form, e.g. "TH" for the ten of hearts or "1B" for a hidden card.
func (c Card) Key() string {
	var r byte
	switch {
	case c.Rank >= 0 && c.Rank <= 9:
		r = byte('0' + c.Rank)
	default:
		ch, ok := rankChars[c.Rank]
		if !ok {
			ch = '?'
		}
		r = ch
	}
	s, ok := suitChars[c.Suit]
	if !ok {
		s = '?'
	}
	return string([]byte{r, s})
}

func (c Card) String() string {
	if c.IsFaceDown() {
		return "face down card"
	}
	rank, ok := rankNames[c.Rank]
	if !ok {
		rank = fmt.Sprintf("rank %d", c.Rank)
	}
	return rank + " of " + c.Suit.String()
}

// RankName returns the plural-free name of a rank, e.g. "seven".
func RankName(rank int) string {
	if name, ok := rankNames[rank]; ok {
		return name
	}
	return fmt.Sprintf("%d", rank)
}

// Keys renders a list of cards as their short keys.
func Keys(cards []Card) []string {
	keys := make([]string, len(cards))
	for i, c := range cards {
		keys[i] = c.Key()
	}
	return keys
}
