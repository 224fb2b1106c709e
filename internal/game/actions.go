// internal/game/actions.go
package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jason-s-yu/palace/internal/models"
)

// Action names used on the wire and in AllowedActions.
const (
	ActionSwap     = "swap"
	ActionNoSwap   = "no_swap"
	ActionPlay     = "play"
	ActionPick     = "pick"
	ActionWait     = "wait"
	ActionLost     = "lost"
	ActionFinished = "finished"
	ActionJoin     = "join"
	ActionUnknown  = "unknown"
)

// ActionRequest is a move submitted by a player, e.g.
// {"action": "play", "action_cards": ["h-0", "h-2"]}.
type ActionRequest struct {
	Action      string   `json:"action"`
	ActionCards []string `json:"action_cards"`
}

// ActionResponse reports the outcome of a request. A false result means no state changed.
type ActionResponse struct {
	Action        string `json:"action"`
	ActionResult  bool   `json:"action_result"`
	ActionMessage string `json:"action_message,omitempty"`
}

// AllowedAction is what a player may do next and, for play, which zone they must play from.
type AllowedAction struct {
	Action       string      `json:"action"`
	AllowedCards models.Zone `json:"allowed_cards,omitempty"`
}

// CardRef addresses one card by zone and position.
type CardRef struct {
	Zone  models.Zone
	Index int
}

func (r CardRef) String() string {
	return fmt.Sprintf("%c-%d", r.Zone.Code(), r.Index)
}

// ParseCardRef parses a "<zone>-<index>" descriptor such as "h-0" or "d-2".
func ParseCardRef(desc string) (CardRef, error) {
	code, idx, ok := strings.Cut(strings.TrimSpace(desc), "-")
	if !ok || len(code) != 1 {
		return CardRef{}, fmt.Errorf("malformed card description %q", desc)
	}
	zone, err := models.ZoneFromCode(code[0])
	if err != nil {
		return CardRef{}, fmt.Errorf("malformed card description %q: %w", desc, err)
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 {
		return CardRef{}, fmt.Errorf("malformed card description %q: bad index", desc)
	}
	return CardRef{Zone: zone, Index: n}, nil
}

// ParseCardRefs parses every descriptor, stopping at the first bad one.
func ParseCardRefs(descs []string) ([]CardRef, error) {
	refs := make([]CardRef, 0, len(descs))
	for _, d := range descs {
		r, err := ParseCardRef(d)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, nil
}

func failure(action, format string, args ...interface{}) ActionResponse {
	return ActionResponse{Action: action, ActionResult: false, ActionMessage: fmt.Sprintf(format, args...)}
}

func success(action, message string) ActionResponse {
	return ActionResponse{Action: action, ActionResult: true, ActionMessage: message}
}

// HandleAction routes a request to the matching move. It never returns an
// error: rejected requests come back with ActionResult false and a message.
func (g *Game) HandleAction(playerID int, req ActionRequest) ActionResponse {
	logger := g.log.WithField("player_id", playerID).WithField("action", req.Action)

	var resp ActionResponse
	switch req.Action {
	case "":
		resp = failure(ActionUnknown, "no action specified")
	case ActionSwap:
		if len(req.ActionCards) == 0 {
			resp = failure(req.Action, "no cards specified")
			break
		}
		resp = g.SwapCards(playerID, req.ActionCards)
	case ActionNoSwap:
		resp = g.PlayNoSwap(playerID)
	case ActionPlay:
		if len(req.ActionCards) == 0 {
			resp = failure(req.Action, "no cards specified")
			break
		}
		resp = g.PlayMove(playerID, req.ActionCards)
	case ActionPick:
		resp = g.PickUp(playerID)
	default:
		resp = failure(req.Action, "unknown action :%s", req.Action)
	}

	if resp.ActionResult {
		logger.WithField("cards", req.ActionCards).Info(resp.ActionMessage)
	} else {
		logger.WithField("cards", req.ActionCards).Debugf("rejected: %s", resp.ActionMessage)
	}
	return resp
}
