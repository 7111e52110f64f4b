package game

import (
	"time"

	"github.com/google/uuid"
)

// PlayerResult is one player's line in a settled round.
type PlayerResult struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Value  int       `json:"value"`
	Points int       `json:"points"`
	Won    bool      `json:"won"`
}

// RoundResult is the record handed to OnRoundSettled after every round.
type RoundResult struct {
	SessionID    uuid.UUID      `json:"session_id"`
	Round        int            `json:"round"`
	DealerValue  int            `json:"dealer_value"`
	DealerPoints int            `json:"dealer_points"`
	Players      []PlayerResult `json:"players"`
	Timestamp    int64          `json:"timestamp"`
}

// playDealer runs the house hand to completion on its own goroutine. Each
// step takes the session lock, acts, bumps the version stamp so pollers see
// the draw, then sleeps the think-delay with the lock released. A panic is
// contained to this session: the round is settled with the cards on the table.
func (s *Session) playDealer() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("session", s.ID).Errorf("dealer automaton panic: %v", r)
			s.Mu.Lock()
			defer s.Mu.Unlock()
			if !s.closed && s.DealerPlaying {
				s.finishDealerPhase()
			}
		}
	}()

	if !s.revealHoleCard() {
		return
	}
	time.Sleep(s.Settings.DealerDelay)
	for s.dealerStep() {
		time.Sleep(s.Settings.DealerDelay)
	}
}

// revealHoleCard flips the dealer's face-down card. Returns false when the
// session died before the automaton got going.
func (s *Session) revealHoleCard() bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.closed || !s.DealerPlaying {
		return false
	}
	if len(s.Dealer.Hand) > 0 {
		s.Dealer.Hand[0].Hidden = false
	}
	s.Dealer.Value = HandValue(s.Dealer.Hand)
	s.bump()
	return true
}

// dealerStep makes one draw decision. Below 17 the house always draws; from
// 17 up to 20 it draws on a coin flip (the stochastic soft-17+ house rule,
// kept non-deterministic on purpose); at 21 or above it stops. Returns true
// while the automaton should keep going.
func (s *Session) dealerStep() bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.closed || !s.DealerPlaying {
		return false
	}
	v := HandValue(s.Dealer.Hand)
	if v < 17 || (v < 21 && s.rng.Intn(2) == 0) {
		s.Dealer.Hand = append(s.Dealer.Hand, draw(&s.deck))
		s.Dealer.Value = HandValue(s.Dealer.Hand)
		s.bump()
		return true
	}
	s.finishDealerPhase()
	return false
}

// finishDealerPhase settles the round and either deals the next one or ends
// the match. Lock held.
func (s *Session) finishDealerPhase() {
	s.DealerPlaying = false
	s.settle()
	s.advanceRound()
	s.bump()
}

// settle scores the finished round: a player takes the award only with a
// non-busted hand that beats a busted or lower dealer. Everything else,
// including pushes, goes to the house. Lock held.
func (s *Session) settle() {
	dealerScore := HandValue(s.Dealer.Hand)
	s.Dealer.Value = dealerScore

	res := RoundResult{
		SessionID:   s.ID,
		Round:       s.CurrentRound,
		DealerValue: dealerScore,
		Timestamp:   time.Now().UnixMilli(),
	}
	for _, p := range s.Players {
		ps := HandValue(p.Hand)
		won := ps <= 21 && (dealerScore > 21 || ps > dealerScore)
		if won {
			p.Points += RoundAward
		} else {
			s.Dealer.Points += RoundAward
		}
		res.Players = append(res.Players, PlayerResult{
			ID: p.ID, Name: p.Name, Value: ps, Points: p.Points, Won: won,
		})
	}
	res.DealerPoints = s.Dealer.Points

	if s.OnRoundSettled != nil {
		go s.OnRoundSettled(res)
	}
	s.logger.WithFields(map[string]interface{}{
		"session": s.ID, "round": s.CurrentRound, "dealer": dealerScore,
	}).Info("round settled")
}

// advanceRound starts the next round or, after the last one, finishes the
// match and computes the winner list (all players tied for maximum points).
// Lock held.
func (s *Session) advanceRound() {
	s.stopTurnTimer()
	if s.CurrentRound >= s.Settings.TotalRounds {
		s.Finished = true
		s.Started = false
		s.Turn = ""
		s.Winners = s.winners()
		s.logger.WithFields(map[string]interface{}{"session": s.ID, "winners": s.Winners}).Info("match finished")
		return
	}
	s.CurrentRound++
	s.CurrentPlayerIndex = 0
	s.dealRound()
	s.scheduleTurnTimer()
}

// winners returns the names of all players tied for the maximum score.
func (s *Session) winners() []string {
	max := -1
	for _, p := range s.Players {
		if p.Points > max {
			max = p.Points
		}
	}
	var names []string
	for _, p := range s.Players {
		if p.Points == max {
			names = append(names, p.Name)
		}
	}
	return names
}
