package game

import (
	"strconv"

	"github.com/cardtable/blackjack/internal/models"
)

// HandValue scores a blackjack hand: face cards count 10, aces count 11 and
// are demoted to 1 one at a time while the total exceeds 21. The result is the
// best total not exceeding 21 when one exists, otherwise the minimal total.
// Pure; order of the hand does not matter.
func HandValue(hand []models.Card) int {
	total, aces := 0, 0
	for _, c := range hand {
		switch c.Rank {
		case "A":
			total += 11
			aces++
		case "K", "Q", "J":
			total += 10
		default:
			n, _ := strconv.Atoi(c.Rank)
			total += n
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}
