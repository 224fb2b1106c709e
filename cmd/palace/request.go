package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jason-s-yu/palace/internal/game"
)

// newRequest builds a move request from the -action and -cards flags.
func newRequest(action, cards string) game.ActionRequest {
	req := game.ActionRequest{Action: strings.TrimSpace(action), ActionCards: []string{}}
	for _, c := range strings.Split(cards, ",") {
		if c = strings.TrimSpace(c); c != "" {
			req.ActionCards = append(req.ActionCards, c)
		}
	}
	return req
}

// parseRequestedRules accepts either {"number_of_players": 3} or a serialized
// form such as [{"name": "number_of_players", "value": "3"}].
func parseRequestedRules(raw string) (map[string]interface{}, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]interface{}{}, nil
	}
	if strings.HasPrefix(raw, "[") {
		var form []map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &form); err != nil {
			return nil, fmt.Errorf("invalid -rules form: %w", err)
		}
		return game.FormToMap(form), nil
	}
	requested := map[string]interface{}{}
	if err := json.Unmarshal([]byte(raw), &requested); err != nil {
		return nil, fmt.Errorf("invalid -rules: %w", err)
	}
	return requested, nil
}
