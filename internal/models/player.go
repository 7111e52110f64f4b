package models

import "github.com/google/uuid"

// Player is a seated participant in one session. Seat order is join order and
// doubles as turn order.
type Player struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Hand   []Card    `json:"hand"`
	Value  int       `json:"value"`
	Points int       `json:"points"`
}

// Dealer is the automated house hand every player competes against. It is
// structurally a player without an identity or a seat.
type Dealer struct {
	Name   string `json:"name"`
	Hand   []Card `json:"hand"`
	Value  int    `json:"value"`
	Points int    `json:"points"`
}

// DealerName is the display name of the house entity.
const DealerName = "Banca"
