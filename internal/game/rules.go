// internal/game/rules.go
package game

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidRules wraps every configuration validation failure.
var ErrInvalidRules = errors.New("invalid game rules")

const (
	minPlayers   = 2
	maxPlayers   = 8
	maxDecks     = 3
	maxFaceDown  = 5
	maxHandCards = 10
)

// Update applies the requested settings on top of the current rules.
// Keys that are absent or nil keep their current value. Numbers may arrive
// as JSON numbers, ints or numeric strings from a form post.
func (rules *Rules) Update(newRules map[string]interface{}) error {
	assignInt := func(field *int, key string) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		n, err := toInt(val)
		if err != nil {
			return fmt.Errorf("%w: invalid value for %s: %v", ErrInvalidRules, key, err)
		}
		*field = n
		return nil
	}

	fields := []struct {
		field *int
		key   string
	}{
		{&rules.NumberOfPlayersRequested, "number_of_players"},
		{&rules.LessThanCard, "less_than_card"},
		{&rules.TransparentCard, "transparent_card"},
		{&rules.BurnCard, "burn_card"},
		{&rules.ResetCard, "reset_card"},
		{&rules.NumberOfDecks, "number_of_decks"},
		{&rules.NumberFaceDownCards, "number_face_down_cards"},
		{&rules.NumberHandCards, "number_hand_cards"},
	}
	for _, f := range fields {
		if err := assignInt(f.field, f.key); err != nil {
			return err
		}
	}

	if val, exists := newRules["play_on_anything_cards"]; exists && val != nil {
		list, ok := val.([]interface{})
		if !ok {
			if ints, isInts := val.([]int); isInts {
				rules.PlayOnAnythingCards = append([]int{}, ints...)
				return nil
			}
			return fmt.Errorf("%w: invalid type for play_on_anything_cards", ErrInvalidRules)
		}
		ranks := make([]int, 0, len(list))
		for _, item := range list {
			n, err := toInt(item)
			if err != nil {
				return fmt.Errorf("%w: invalid value in play_on_anything_cards: %v", ErrInvalidRules, err)
			}
			ranks = append(ranks, n)
		}
		rules.PlayOnAnythingCards = ranks
	}
	return nil
}

// Validate checks that the special ranks are distinct and the deal fits in the deck.
func (rules Rules) Validate() error {
	if rules.NumberOfPlayersRequested < minPlayers || rules.NumberOfPlayersRequested > maxPlayers {
		return fmt.Errorf("%w: number of players must be between %d and %d", ErrInvalidRules, minPlayers, maxPlayers)
	}
	if rules.NumberOfDecks < 1 || rules.NumberOfDecks > maxDecks {
		return fmt.Errorf("%w: number of decks must be between 1 and %d", ErrInvalidRules, maxDecks)
	}
	if rules.NumberFaceDownCards < 1 || rules.NumberFaceDownCards > maxFaceDown {
		return fmt.Errorf("%w: number of face down cards must be between 1 and %d", ErrInvalidRules, maxFaceDown)
	}
	if rules.NumberHandCards < 1 || rules.NumberHandCards > maxHandCards {
		return fmt.Errorf("%w: number of hand cards must be between 1 and %d", ErrInvalidRules, maxHandCards)
	}

	special := map[string]int{
		"less than card":   rules.LessThanCard,
		"transparent card": rules.TransparentCard,
		"burn card":        rules.BurnCard,
		"reset card":       rules.ResetCard,
	}
	seen := make(map[int]string)
	for _, name := range []string{"less than card", "transparent card", "burn card", "reset card"} {
		rank := special[name]
		if rank == 0 {
			continue
		}
		if rank < 2 || rank > 14 {
			return fmt.Errorf("%w: %s must be a rank between 2 and 14", ErrInvalidRules, name)
		}
		if other, dup := seen[rank]; dup {
			return fmt.Errorf("%w: %s and %s cannot both be %d", ErrInvalidRules, other, name, rank)
		}
		seen[rank] = name
	}
	for _, rank := range rules.PlayOnAnythingCards {
		if _, ok := seen[rank]; !ok {
			return fmt.Errorf("%w: play on anything card %d is not one of the special cards", ErrInvalidRules, rank)
		}
	}

	perPlayer := 2*rules.NumberFaceDownCards + rules.NumberHandCards
	if need := perPlayer * rules.NumberOfPlayersRequested; need > rules.NumberOfDecks*CardsPerDeck {
		return fmt.Errorf("%w: dealing %d cards needs more than %d deck(s)", ErrInvalidRules, need, rules.NumberOfDecks)
	}
	return nil
}

// ParseRules applies a request map to a copy of current and validates the result.
// The map may also be the name/value array a browser form serializes to.
func ParseRules(requested map[string]interface{}, current Rules) (Rules, error) {
	rules := current
	rules.PlayOnAnythingCards = append([]int{}, current.PlayOnAnythingCards...)
	if err := rules.Update(requested); err != nil {
		return current, err
	}
	if err := rules.Validate(); err != nil {
		return current, err
	}
	return rules, nil
}

// FormToMap converts a serialized form, a list of {"name": .., "value": ..}
// entries, into a settings map. Repeated names collect into a list.
func FormToMap(form []map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, entry := range form {
		name, ok := entry["name"].(string)
		if !ok || name == "" {
			continue
		}
		value := entry["value"]
		if name == "play_on_anything_cards" {
			list, _ := out[name].([]interface{})
			out[name] = append(list, value)
			continue
		}
		out[name] = value
	}
	return out
}

func toInt(val interface{}) (int, error) {
	switch v := val.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%v is not a whole number", v)
		}
		return int(v), nil
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("unsupported type %T", val)
}
