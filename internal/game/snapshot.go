package game

import (
	"github.com/cardtable/blackjack/internal/models"
)

// Snapshot is the read-path view of a session. Field names mirror what
// polling clients consume.
type Snapshot struct {
	Started       bool            `json:"started"`
	Countdown     bool            `json:"countdown"`
	Turn          string          `json:"turn"`
	Timer         int             `json:"timer"`
	TimerStart    int64           `json:"timerStart,omitempty"` // unix millis, 0 = no timer pending
	Players       []models.Player `json:"players"`
	Dealer        models.Dealer   `json:"dealer"`
	Finished      bool            `json:"finished"`
	Winner        []string        `json:"winner,omitempty"`
	MaxPlayers    int             `json:"maxPlayers"`
	CurrentRound  int             `json:"currentRound"`
	TotalRounds   int             `json:"totalRounds"`
	LastUpdate    int64           `json:"lastUpdate"`
	DealerPlaying bool            `json:"dealerPlaying"`
}

// Snapshot returns a deep copy of the visible state, or (nil, false) when
// nothing changed since the client's version. The dealer's hole card is
// forced hidden, and their displayed value counts visible cards only, for
// every observer while player turns are open. This is the uniform
// information-hiding contract: no per-player filtering.
func (s *Session) Snapshot(since int64) (*Snapshot, bool) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if since >= s.lastUpdate {
		return nil, false
	}

	snap := &Snapshot{
		Started:       s.Started,
		Countdown:     s.Countdown,
		Turn:          s.Turn,
		Timer:         int(s.Settings.TurnTimeout.Seconds()),
		Players:       make([]models.Player, len(s.Players)),
		Finished:      s.Finished,
		Winner:        append([]string(nil), s.Winners...),
		MaxPlayers:    s.Settings.MaxPlayers,
		CurrentRound:  s.CurrentRound,
		TotalRounds:   s.Settings.TotalRounds,
		LastUpdate:    s.lastUpdate,
		DealerPlaying: s.DealerPlaying,
	}
	if !s.TimerStart.IsZero() {
		snap.TimerStart = s.TimerStart.UnixMilli()
	}
	for i, p := range s.Players {
		snap.Players[i] = models.Player{
			ID:     p.ID,
			Name:   p.Name,
			Hand:   append([]models.Card(nil), p.Hand...),
			Value:  p.Value,
			Points: p.Points,
		}
	}

	hand := append([]models.Card(nil), s.Dealer.Hand...)
	value := s.Dealer.Value
	if s.Started && !s.Finished && !s.DealerPlaying && len(hand) > 0 {
		hand[0].Hidden = true
		value = HandValue(hand[1:])
	}
	snap.Dealer = models.Dealer{
		Name:   s.Dealer.Name,
		Hand:   hand,
		Value:  value,
		Points: s.Dealer.Points,
	}
	return snap, true
}
