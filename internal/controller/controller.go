// Package controller glues the rules engine to storage: every operation loads
// a game, applies one change, saves it in one transaction and then reports
// the action to the action log.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/palace/internal/cache"
	"github.com/jason-s-yu/palace/internal/game"
	"github.com/jason-s-yu/palace/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	msgUnableToSave = "Unable to save game"
	msgUnableToLoad = "Unable to load game"

	publishTimeout = 2 * time.Second
)

// Repository is the storage the controller needs: the game gateway plus listings.
type Repository interface {
	game.Store
	GamesForPlayer(ctx context.Context, playerID int, includeFinished bool) ([]models.GameSummary, error)
	OpenGames(ctx context.Context, playerID int) ([]models.GameSummary, error)
}

// ActionPublisher receives a record of every committed action.
type ActionPublisher interface {
	PublishGameAction(ctx context.Context, record cache.GameActionRecord) error
}

// ChecksumCache remembers the last committed checksum per game.
type ChecksumCache interface {
	Set(ctx context.Context, gameID int, checksum string) error
	Get(ctx context.Context, gameID int) (string, bool, error)
}

type Controller struct {
	store     Repository
	actions   ActionPublisher
	checksums ChecksumCache
	log       logrus.FieldLogger
	gameOpts  []game.Option
}

type Option func(*Controller)

// WithActionLog publishes committed actions to p.
func WithActionLog(p ActionPublisher) Option {
	return func(c *Controller) { c.actions = p }
}

// WithChecksumCache serves CheckState from cc when possible.
func WithChecksumCache(cc ChecksumCache) Option {
	return func(c *Controller) { c.checksums = cc }
}

// WithGameOptions passes options to every game the controller creates or loads.
func WithGameOptions(opts ...game.Option) Option {
	return func(c *Controller) { c.gameOpts = append(c.gameOpts, opts...) }
}

func New(store Repository, log logrus.FieldLogger, opts ...Option) *Controller {
	c := &Controller{store: store, log: log}
	for _, opt := range opts {
		opt(c)
	}
	c.gameOpts = append([]game.Option{game.WithLogger(log)}, c.gameOpts...)
	return c
}

// StartResponse answers a new game request.
type StartResponse struct {
	StartNewGame bool   `json:"startnewgame"`
	NewGameID    int    `json:"new_game_id"`
	Message      string `json:"message"`
}

// StartNewGame creates and saves a game for playerID using the requested
// settings on top of the defaults.
func (c *Controller) StartNewGame(ctx context.Context, playerID int, requested map[string]interface{}) (StartResponse, error) {
	rules, err := game.ParseRules(requested, game.DefaultRules())
	if err != nil {
		return StartResponse{Message: err.Error()}, nil
	}
	g, err := game.NewGame(playerID, rules, c.gameOpts...)
	if err != nil {
		return StartResponse{Message: err.Error()}, nil
	}
	if err := g.Save(ctx, c.store); err != nil {
		c.log.WithError(err).WithField("player_id", playerID).Error("saving new game")
		return StartResponse{Message: msgUnableToSave}, err
	}
	c.committed(ctx, g, playerID, "start_new_game", map[string]interface{}{"rules": rules})
	return StartResponse{
		StartNewGame: true,
		NewGameID:    g.GameID,
		Message:      fmt.Sprintf("game %d created, waiting for %d more players", g.GameID, rules.NumberOfPlayersRequested-1),
	}, nil
}

// AddToGame seats playerID and deals once the last seat is filled.
func (c *Controller) AddToGame(ctx context.Context, gameID, playerID int) (game.ActionResponse, error) {
	g, err := c.load(ctx, gameID)
	if err != nil {
		return game.ActionResponse{Action: game.ActionJoin, ActionMessage: msgUnableToLoad}, err
	}
	resp := g.AddPlayer(playerID)
	if !resp.ActionResult {
		return resp, nil
	}
	dealt := false
	if g.ReadyToStart() {
		if err := g.Deal(); err != nil {
			return game.ActionResponse{Action: game.ActionJoin, ActionMessage: "Unable to deal"}, fmt.Errorf("deal game %d: %w", gameID, err)
		}
		dealt = true
		resp.ActionMessage += ", cards dealt"
	}
	if err := g.Save(ctx, c.store); err != nil {
		c.log.WithError(err).WithField("game_id", gameID).Error("saving joined game")
		return game.ActionResponse{Action: game.ActionJoin, ActionMessage: msgUnableToSave}, err
	}
	c.committed(ctx, g, playerID, game.ActionJoin, map[string]interface{}{"dealt": dealt})
	return resp, nil
}

// PlayCards applies one move request from playerID.
func (c *Controller) PlayCards(ctx context.Context, gameID, playerID int, req game.ActionRequest) (game.ActionResponse, error) {
	g, err := c.load(ctx, gameID)
	if err != nil {
		return game.ActionResponse{Action: req.Action, ActionMessage: msgUnableToLoad}, err
	}
	resp := g.HandleAction(playerID, req)
	if !resp.ActionResult {
		return resp, nil
	}
	if err := g.Save(ctx, c.store); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"game_id": gameID, "player_id": playerID}).Error("saving move")
		return game.ActionResponse{Action: resp.Action, ActionResult: false, ActionMessage: msgUnableToSave}, err
	}
	c.committed(ctx, g, playerID, resp.Action, map[string]interface{}{
		"action_cards": req.ActionCards,
		"message":      resp.ActionMessage,
	})
	if g.GameFinished {
		c.committed(ctx, g, playerID, "game_finished", map[string]interface{}{"players_finished": g.PlayersFinished})
	}
	return resp, nil
}

// GameState returns the game as seen by playerID.
func (c *Controller) GameState(ctx context.Context, gameID, playerID int) (game.GameView, error) {
	g, err := c.load(ctx, gameID)
	if err != nil {
		return game.GameView{}, err
	}
	return g.View(playerID), nil
}

// CheckState returns the last saved checksum, from the cache when it has one.
func (c *Controller) CheckState(ctx context.Context, gameID int) (string, error) {
	if gameID == 0 {
		return "", game.ErrNoGameID
	}
	if c.checksums != nil {
		sum, found, err := c.checksums.Get(ctx, gameID)
		if err != nil {
			c.log.WithError(err).WithField("game_id", gameID).Warn("checksum cache read failed")
		} else if found {
			return sum, nil
		}
	}
	sum, err := c.store.LoadChecksum(ctx, gameID)
	if err != nil {
		return "", err
	}
	c.cacheChecksum(ctx, gameID, sum)
	return sum, nil
}

// ListGames returns the games playerID is part of.
func (c *Controller) ListGames(ctx context.Context, playerID int, includeFinished bool) ([]models.GameSummary, error) {
	return c.store.GamesForPlayer(ctx, playerID, includeFinished)
}

// GamesLookingForPlayers returns games playerID could still join.
func (c *Controller) GamesLookingForPlayers(ctx context.Context, playerID int) ([]models.GameSummary, error) {
	return c.store.OpenGames(ctx, playerID)
}

func (c *Controller) load(ctx context.Context, gameID int) (*game.Game, error) {
	g, err := game.Load(ctx, c.store, gameID, c.gameOpts...)
	if err != nil {
		if !errors.Is(err, game.ErrNoGameID) {
			c.log.WithError(err).WithField("game_id", gameID).Warn("loading game")
		}
		return nil, err
	}
	return g, nil
}

// committed reports a saved action. Failures are logged and never undo the move.
func (c *Controller) committed(ctx context.Context, g *game.Game, playerID int, action string, payload map[string]interface{}) {
	c.cacheChecksum(ctx, g.GameID, g.Checksum)
	if c.actions == nil {
		return
	}
	rec := cache.NewGameActionRecord(g.GameID, g.CurrentTurnNumber, playerID, action, payload, g.Checksum)
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := c.actions.PublishGameAction(pubCtx, rec); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"game_id": g.GameID, "action": action}).Warn("publishing game action")
	}
}

func (c *Controller) cacheChecksum(ctx context.Context, gameID int, sum string) {
	if c.checksums == nil {
		return
	}
	if err := c.checksums.Set(ctx, gameID, sum); err != nil {
		c.log.WithError(err).WithField("game_id", gameID).Warn("checksum cache write failed")
	}
}
