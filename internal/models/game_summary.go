package models

// GameSummary is one row of a game listing.
type GameSummary struct {
	GameID           int  `json:"game_id"`
	PlayersRequested int  `json:"number_of_players_requested"`
	PlayersJoined    int  `json:"number_of_players_joined"`
	DealDone         bool `json:"deal_done"`
	GameFinished     bool `json:"game_finished"`
}
