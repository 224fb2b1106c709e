// internal/models/zone.go
package models

import (
	"errors"
	"fmt"
)

// ErrUnknownZone is returned for a zone code or value outside the closed set.
var ErrUnknownZone = errors.New("unknown zone")

// ErrUnknownPile is returned for a pile value outside the closed set.
var ErrUnknownPile = errors.New("unknown pile")

// Zone is one of a player's three card areas. The numeric values are the
// persisted card_type codes.
type Zone int

const (
	ZoneNone Zone = 0
	FaceDown Zone = 1
	FaceUp   Zone = 2
	Hand     Zone = 3
)

// Zones lists the player zones in persistence order.
var Zones = []Zone{FaceDown, FaceUp, Hand}

var zoneToCode = map[Zone]byte{
	FaceDown: 'd',
	FaceUp:   'f',
	Hand:     'h',
}

var codeToZone = map[byte]Zone{
	'd': FaceDown,
	'f': FaceUp,
	'h': Hand,
}

var zoneNames = map[Zone]string{
	FaceDown: "face down",
	FaceUp:   "face up",
	Hand:     "hand",
}

// ZoneFromCode maps a wire code ('h', 'f', 'd') to its zone.
func ZoneFromCode(code byte) (Zone, error) {
	z, ok := codeToZone[code]
	if !ok {
		return ZoneNone, fmt.Errorf("%w: %q", ErrUnknownZone, code)
	}
	return z, nil
}

// Code returns the one character wire code for the zone.
func (z Zone) Code() byte {
	return zoneToCode[z]
}

// Valid reports whether z is one of the three player zones.
func (z Zone) Valid() bool {
	_, ok := zoneToCode[z]
	return ok
}

func (z Zone) String() string {
	if name, ok := zoneNames[z]; ok {
		return name
	}
	return "none"
}

// MarshalText encodes the zone as its wire code so allowed actions read as "h", "f" or "d".
func (z Zone) MarshalText() ([]byte, error) {
	if z == ZoneNone {
		return []byte(""), nil
	}
	code, ok := zoneToCode[z]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownZone, int(z))
	}
	return []byte{code}, nil
}

func (z *Zone) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*z = ZoneNone
		return nil
	}
	if len(b) != 1 {
		return fmt.Errorf("%w: %q", ErrUnknownZone, b)
	}
	v, err := ZoneFromCode(b[0])
	if err != nil {
		return err
	}
	*z = v
	return nil
}

// Pile is a shared game-level stack. The numeric values are the persisted
// card_location codes and must stay stable.
type Pile int

const (
	Burn   Pile = 5
	Deck   Pile = 6
	Played Pile = 7
	Pick   Pile = 8
)

// Piles lists the game piles in persistence order.
var Piles = []Pile{Burn, Deck, Played, Pick}

var pileNames = map[Pile]string{
	Burn:   "burn",
	Deck:   "deck",
	Played: "played",
	Pick:   "pick",
}

// Valid reports whether p is a known pile.
func (p Pile) Valid() bool {
	_, ok := pileNames[p]
	return ok
}

func (p Pile) String() string {
	if name, ok := pileNames[p]; ok {
		return name
	}
	return fmt.Sprintf("pile(%d)", int(p))
}
