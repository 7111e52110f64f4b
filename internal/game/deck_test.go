package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckHas52UniqueCards(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(1)))
	require.Len(t, deck, 52)

	seen := make(map[string]bool, 52)
	for _, c := range deck {
		key := c.Rank + c.Suit
		assert.False(t, seen[key], "duplicate card %s", key)
		seen[key] = true
		assert.False(t, c.Hidden, "freshly built cards are face up")
	}
}

func TestDrawConsumesFromTheEnd(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(2)))
	top := deck[len(deck)-1]

	card := draw(&deck)
	assert.Equal(t, top, card)
	assert.Len(t, deck, 51)
}

func TestDrawPanicsOnEmptyDeck(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(3)))
	for i := 0; i < 52; i++ {
		draw(&deck)
	}
	assert.Panics(t, func() { draw(&deck) })
}
