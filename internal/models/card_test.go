package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardOrderingIgnoresSuit(t *testing.T) {
	for _, a := range Suits {
		for _, b := range Suits {
			for r1 := MinRank; r1 <= MaxRank; r1++ {
				for r2 := MinRank; r2 <= MaxRank; r2++ {
					c1, c2 := NewCard(a, r1), NewCard(b, r2)
					assert.Equal(t, r1 < r2, c1.Less(c2), "%s < %s", c1, c2)
				}
			}
		}
	}
}

func TestCardEquality(t *testing.T) {
	assert.Equal(t, NewCard(Hearts, 10), NewCard(Hearts, 10))
	assert.NotEqual(t, NewCard(Hearts, 10), NewCard(Spades, 10))
	assert.True(t, NewCard(Hearts, 10).SameRank(NewCard(Spades, 10)))
}

func TestCardKeyAndString(t *testing.T) {
	cases := []struct {
		card Card
		key  string
		name string
	}{
		{NewCard(Hearts, 10), "TH", "ten of hearts"},
		{NewCard(Spades, 14), "AS", "ace of spades"},
		{NewCard(Diamonds, 2), "2D", "two of diamonds"},
		{NewCard(Clubs, 12), "QC", "queen of clubs"},
		{FaceDownCard, "1B", "face down card"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.key, tc.card.Key())
		assert.Equal(t, tc.name, tc.card.String())
	}
	assert.True(t, FaceDownCard.IsFaceDown())
	assert.False(t, NewCard(Hearts, 2).IsFaceDown())
}

func TestCardJSON(t *testing.T) {
	b, err := json.Marshal(NewCard(Clubs, 7))
	require.NoError(t, err)
	assert.JSONEq(t, `{"rank":7,"suit":3}`, string(b))
}

func TestZoneCodes(t *testing.T) {
	for _, z := range Zones {
		back, err := ZoneFromCode(z.Code())
		require.NoError(t, err)
		assert.Equal(t, z, back)
	}

	_, err := ZoneFromCode('x')
	assert.ErrorIs(t, err, ErrUnknownZone)

	b, err := json.Marshal(map[string]Zone{"allowed_cards": FaceUp})
	require.NoError(t, err)
	assert.JSONEq(t, `{"allowed_cards":"f"}`, string(b))

	var z Zone
	require.NoError(t, json.Unmarshal([]byte(`"d"`), &z))
	assert.Equal(t, FaceDown, z)
}

func TestPileCodesAreStable(t *testing.T) {
	assert.Equal(t, 5, int(Burn))
	assert.Equal(t, 6, int(Deck))
	assert.Equal(t, 7, int(Played))
	assert.Equal(t, 8, int(Pick))
	assert.False(t, Pile(4).Valid())
}
