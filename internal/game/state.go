// internal/game/state.go
package game

import "github.com/jason-s-yu/palace/internal/models"

// Rules is the per-game configuration chosen when the game is created.
// A special rank of 0 disables that rule.
type Rules struct {
	NumberOfPlayersRequested int   `json:"number_of_players_requested"`
	LessThanCard             int   `json:"less_than_card"`
	TransparentCard          int   `json:"transparent_card"`
	BurnCard                 int   `json:"burn_card"`
	ResetCard                int   `json:"reset_card"`
	NumberOfDecks            int   `json:"number_of_decks"`
	NumberFaceDownCards      int   `json:"number_face_down_cards"`
	NumberHandCards          int   `json:"number_hand_cards"`
	PlayOnAnythingCards      []int `json:"play_on_anything_cards"`
}

// DefaultRules returns the house defaults: sevens force a lower card, tens
// burn the pile, and twos and tens can be played on anything.
func DefaultRules() Rules {
	return Rules{
		NumberOfPlayersRequested: 2,
		LessThanCard:             7,
		TransparentCard:          0,
		BurnCard:                 10,
		ResetCard:                2,
		NumberOfDecks:            1,
		NumberFaceDownCards:      3,
		NumberHandCards:          3,
		PlayOnAnythingCards:      []int{2, 10},
	}
}

// State holds the scalar configuration and progress of a game. It is what
// the persistence gateway loads and stores as the game row.
type State struct {
	// GameID is zero until the first successful save assigns one.
	GameID int `json:"game_id"`

	Rules

	PlayOrder           []int `json:"play_order"`
	PlayersReadyToStart []int `json:"players_ready_to_start"`
	PlayersFinished     []int `json:"players_finished"`
	GameFinished        bool  `json:"game_finished"`
	DealDone            bool  `json:"deal_done"`
	CurrentTurnNumber   int   `json:"current_turn_number"`
	LastPlayer          int   `json:"last_player"`

	// Derived on every refresh; never read back as input.
	NumberOfPlayers int           `json:"number_of_players"`
	DeckSize        int           `json:"deck_size"`
	BurnSize        int           `json:"burn_size"`
	PlayedSize      int           `json:"played_size"`
	PickSize        int           `json:"pick_size"`
	PlayList        []models.Card `json:"play_list"`
	Checksum        string        `json:"checksum"`
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// subtractIDs returns the members of all not present in remove, keeping the order of all.
func subtractIDs(all, remove []int) []int {
	out := make([]int, 0, len(all))
	for _, id := range all {
		if !containsInt(remove, id) {
			out = append(out, id)
		}
	}
	return out
}

func removeID(list []int, id int) []int {
	out := make([]int, 0, len(list))
	for _, x := range list {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
