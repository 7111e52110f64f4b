package models

// Card is a single playing card. Hidden is a display flag only: the dealer's
// hole card is dealt face down and flipped when the dealer starts playing.
type Card struct {
	Rank   string `json:"r"`
	Suit   string `json:"s"`
	Hidden bool   `json:"hidden,omitempty"`
}

// Ranks and Suits enumerate the 52-card deck. Face cards count 10, aces 11 or 1.
var (
	Ranks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
	Suits = []string{"S", "H", "D", "C"}
)
