package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/jason-s-yu/palace/internal/controller"
	"github.com/jason-s-yu/palace/internal/database"
	"github.com/jason-s-yu/palace/internal/game"
	"github.com/jason-s-yu/palace/internal/models"
	"github.com/sirupsen/logrus"
)

const demoMaxMoves = 2000

func runDemo(ctx context.Context, args []string, out io.Writer, logger logrus.FieldLogger) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	players := fs.Int("players", 3, "number of bot players")
	seed := fs.Int64("seed", time.Now().UnixNano(), "shuffle seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c := controller.New(database.NewMemoryStore(), logger,
		controller.WithGameOptions(game.WithRand(rand.New(rand.NewSource(*seed)))))
	summary, err := playBotGame(ctx, c, *players)
	if err != nil {
		return err
	}
	return writeJSON(out, summary)
}

type demoSummary struct {
	GameID          int    `json:"game_id"`
	Moves           int    `json:"moves"`
	Finished        bool   `json:"finished"`
	PlayersFinished []int  `json:"players_finished"`
	Loser           int    `json:"loser,omitempty"`
	Checksum        string `json:"checksum"`
}

// playBotGame seats players 1..n and lets each play the first card that the
// rules accept, picking up when nothing can be played.
func playBotGame(ctx context.Context, c *controller.Controller, n int) (demoSummary, error) {
	start, err := c.StartNewGame(ctx, 1, map[string]interface{}{"number_of_players": n})
	if err != nil {
		return demoSummary{}, err
	}
	if !start.StartNewGame {
		return demoSummary{}, fmt.Errorf("could not start game: %s", start.Message)
	}
	id := start.NewGameID
	for pid := 2; pid <= n; pid++ {
		resp, err := c.AddToGame(ctx, id, pid)
		if err != nil {
			return demoSummary{}, err
		}
		if !resp.ActionResult {
			return demoSummary{}, fmt.Errorf("player %d could not join: %s", pid, resp.ActionMessage)
		}
	}
	for pid := 1; pid <= n; pid++ {
		if _, err := c.PlayCards(ctx, id, pid, game.ActionRequest{Action: game.ActionNoSwap}); err != nil {
			return demoSummary{}, err
		}
	}

	moves := 0
	for ; moves < demoMaxMoves; moves++ {
		if err := ctx.Err(); err != nil {
			return demoSummary{}, err
		}
		view, err := c.GameState(ctx, id, 1)
		if err != nil {
			return demoSummary{}, err
		}
		if !view.Game.ActiveGame {
			break
		}
		if err := botMove(ctx, c, id, view.CurrentPlayer); err != nil {
			return demoSummary{}, err
		}
	}

	view, err := c.GameState(ctx, id, 1)
	if err != nil {
		return demoSummary{}, err
	}
	summary := demoSummary{
		GameID:          id,
		Moves:           moves,
		Finished:        view.Game.State.GameFinished,
		PlayersFinished: view.Game.State.PlayersFinished,
		Checksum:        view.Checksum,
	}
	if summary.Finished && len(view.Game.State.PlayOrder) == 1 {
		summary.Loser = view.Game.State.PlayOrder[0]
	}
	return summary, nil
}

func botMove(ctx context.Context, c *controller.Controller, gameID, playerID int) error {
	view, err := c.GameState(ctx, gameID, playerID)
	if err != nil {
		return err
	}
	switch view.AllowedMoves.Action {
	case game.ActionPick:
		return botAct(ctx, c, gameID, playerID, game.ActionRequest{Action: game.ActionPick})
	case game.ActionPlay:
	default:
		return fmt.Errorf("player %d has nothing to do (%s)", playerID, view.AllowedMoves.Action)
	}

	zone := view.AllowedMoves.AllowedCards
	count := 0
	for _, ps := range view.PlayersState {
		if ps.PlayerID != playerID {
			continue
		}
		switch zone {
		case models.Hand:
			count = ps.NumberInHand
		case models.FaceUp:
			count = ps.NumberFaceUp
		case models.FaceDown:
			count = ps.NumberFaceDown
		}
	}
	for i := 0; i < count; i++ {
		ref := game.CardRef{Zone: zone, Index: i}
		resp, err := c.PlayCards(ctx, gameID, playerID, game.ActionRequest{
			Action:      game.ActionPlay,
			ActionCards: []string{ref.String()},
		})
		if err != nil {
			return err
		}
		if resp.ActionResult {
			return nil
		}
	}
	return botAct(ctx, c, gameID, playerID, game.ActionRequest{Action: game.ActionPick})
}

func botAct(ctx context.Context, c *controller.Controller, gameID, playerID int, req game.ActionRequest) error {
	resp, err := c.PlayCards(ctx, gameID, playerID, req)
	if err != nil {
		return err
	}
	if !resp.ActionResult {
		return fmt.Errorf("player %d %s rejected: %s", playerID, req.Action, resp.ActionMessage)
	}
	return nil
}
