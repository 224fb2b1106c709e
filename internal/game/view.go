// internal/game/view.go
package game

// GameView is the snapshot of a game as seen by one player.
type GameView struct {
	Game          GameInfo        `json:"game"`
	AllowedMoves  AllowedAction   `json:"allowed_moves"`
	PlayersState  []PlayerSummary `json:"players_state"`
	Checksum      string          `json:"checksum"`
	CurrentPlayer int             `json:"current_player"`
}

// GameInfo wraps the game state with a flag saying whether the game is still running.
type GameInfo struct {
	ActiveGame bool  `json:"active-game"`
	State      State `json:"state"`
}

// View builds the snapshot for viewerID. Derived fields are refreshed first;
// nothing else changes.
func (g *Game) View(viewerID int) GameView {
	g.refresh()

	players := make([]PlayerSummary, 0, len(g.Players))
	for _, p := range g.Players {
		players = append(players, p.Summarize(viewerID))
	}
	return GameView{
		Game: GameInfo{
			ActiveGame: !g.GameFinished,
			State:      g.State,
		},
		AllowedMoves:  g.AllowedActions(viewerID),
		PlayersState:  players,
		Checksum:      g.Checksum,
		CurrentPlayer: g.CurrentPlayerID(),
	}
}
