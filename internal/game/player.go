// internal/game/player.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/palace/internal/models"
)

// Player holds one participant's three card zones.
type Player struct {
	ID       int
	FaceDown []models.Card
	FaceUp   []models.Card
	Hand     []models.Card
}

// PlayerSummary is the view of a player that is safe to show to viewerID.
type PlayerSummary struct {
	PlayerID       int           `json:"player_id"`
	FaceDownCards  []models.Card `json:"face_down_cards"`
	FaceUpCards    []models.Card `json:"face_up_cards"`
	HandCards      []models.Card `json:"hand_cards"`
	NumberFaceDown int           `json:"number_face_down"`
	NumberFaceUp   int           `json:"number_face_up"`
	NumberInHand   int           `json:"number_in_hand"`
}

func NewPlayer(id int) *Player {
	return &Player{
		ID:       id,
		FaceDown: []models.Card{},
		FaceUp:   []models.Card{},
		Hand:     []models.Card{},
	}
}

// zone returns a pointer to the named zone. An unknown zone is a programming error.
func (p *Player) zone(z models.Zone) *[]models.Card {
	switch z {
	case models.FaceDown:
		return &p.FaceDown
	case models.FaceUp:
		return &p.FaceUp
	case models.Hand:
		return &p.Hand
	}
	panic(fmt.Sprintf("player %d: %v: %d", p.ID, models.ErrUnknownZone, int(z)))
}

// AddCards appends cards to the zone.
func (p *Player) AddCards(cards []models.Card, z models.Zone) {
	zp := p.zone(z)
	*zp = append(*zp, cards...)
}

// RemoveCards removes one matching instance per requested card, by value.
// With several decks in play two identical cards are interchangeable, so
// the first match is taken.
func (p *Player) RemoveCards(cards []models.Card, z models.Zone) {
	zp := p.zone(z)
	kept := append([]models.Card(nil), (*zp)...)
	for _, c := range cards {
		for i, have := range kept {
			if have == c {
				kept = append(kept[:i], kept[i+1:]...)
				break
			}
		}
	}
	*zp = kept
}

// Cards returns the live zone slice.
func (p *Player) Cards(z models.Zone) []models.Card {
	return *p.zone(z)
}

// UsableCards returns the zone the player must act from: hand first, then
// face up, then face down. It returns ZoneNone when every zone is empty.
func (p *Player) UsableCards() (models.Zone, []models.Card) {
	switch {
	case len(p.Hand) > 0:
		return models.Hand, p.Hand
	case len(p.FaceUp) > 0:
		return models.FaceUp, p.FaceUp
	case len(p.FaceDown) > 0:
		return models.FaceDown, p.FaceDown
	}
	return models.ZoneNone, nil
}

// CardCount is the number of cards across all three zones.
func (p *Player) CardCount() int {
	return len(p.FaceDown) + len(p.FaceUp) + len(p.Hand)
}

// Summarize builds the projection of this player seen by viewerID. Hand
// cards are only revealed to the owner and face down cards are never revealed.
func (p *Player) Summarize(viewerID int) PlayerSummary {
	hidden := make([]models.Card, len(p.FaceDown))
	for i := range hidden {
		hidden[i] = models.FaceDownCard
	}
	hand := []models.Card{}
	if viewerID == p.ID {
		hand = append(hand, p.Hand...)
	}
	return PlayerSummary{
		PlayerID:       p.ID,
		FaceDownCards:  hidden,
		FaceUpCards:    append([]models.Card{}, p.FaceUp...),
		HandCards:      hand,
		NumberFaceDown: len(p.FaceDown),
		NumberFaceUp:   len(p.FaceUp),
		NumberInHand:   len(p.Hand),
	}
}
