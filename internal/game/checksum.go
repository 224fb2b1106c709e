// internal/game/checksum.go
package game

import (
	"encoding/json"
	"fmt"
	"hash/crc32"

	"github.com/jason-s-yu/palace/internal/models"
)

// checksumInput is the canonical form hashed into the checksum. Field order is fixed by the struct.
type checksumInput struct {
	PlayOrder           []int         `json:"play_order"`
	Deck                []models.Card `json:"deck"`
	Burn                []models.Card `json:"burn"`
	Played              []models.Card `json:"played"`
	Pick                []models.Card `json:"pick"`
	PlayersReadyToStart []int         `json:"players_ready_to_start"`
	PlayersFinished     []int         `json:"players_finished"`
	PlayList            []models.Card `json:"play_list"`
}

func nonNilCards(c []models.Card) []models.Card {
	if c == nil {
		return []models.Card{}
	}
	return c
}

func nonNilInts(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

// computeChecksum hashes the shared game state so a client can cheaply tell
// whether anything changed since it last looked. It is not a concurrency guard.
func (g *Game) computeChecksum() string {
	in := checksumInput{
		PlayOrder:           nonNilInts(g.PlayOrder),
		Deck:                nonNilCards(g.Deck),
		Burn:                nonNilCards(g.Burn),
		Played:              nonNilCards(g.Played),
		Pick:                nonNilCards(g.Pick),
		PlayersReadyToStart: nonNilInts(g.PlayersReadyToStart),
		PlayersFinished:     nonNilInts(g.PlayersFinished),
		PlayList:            nonNilCards(g.Played),
	}
	data, err := json.Marshal(in)
	if err != nil {
		// Only ints and cards are encoded, so this cannot happen.
		panic(fmt.Sprintf("checksum encode: %v", err))
	}
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(data))
}
