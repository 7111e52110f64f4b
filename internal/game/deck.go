package game

import (
	"math/rand"

	"github.com/cardtable/blackjack/internal/models"
)

// NewDeck builds all 52 (rank, suit) pairs and returns them uniformly shuffled.
// Cards are consumed from the end of the slice.
func NewDeck(r *rand.Rand) []models.Card {
	deck := make([]models.Card, 0, len(models.Ranks)*len(models.Suits))
	for _, s := range models.Suits {
		for _, rk := range models.Ranks {
			deck = append(deck, models.Card{Rank: rk, Suit: s})
		}
	}
	r.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// draw removes and returns the top card. Callers guarantee the deck is never
// exhausted mid-round: with the player cap enforced at session creation, the
// sum of non-busted hand minimums can never consume all 52 cards.
func draw(deck *[]models.Card) models.Card {
	d := *deck
	if len(d) == 0 {
		panic("game: draw from empty deck")
	}
	card := d[len(d)-1]
	*deck = d[:len(d)-1]
	return card
}
