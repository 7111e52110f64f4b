package game

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cardtable/blackjack/internal/models"
)

// Defaults applied by Settings.withDefaults.
const (
	DefaultTurnTimeout = 15 * time.Second
	DefaultCountdown   = 3 * time.Second
	DefaultDealerDelay = 4 * time.Second

	// RoundAward is the fixed number of points at stake per player per round.
	RoundAward = 10

	// MaxPlayersCap bounds the room size so a 52-card deck can never be
	// exhausted mid-round: every non-busted hand is worth at most 21 and a
	// busted hand at most 31, so seven hands cannot hold all 52 cards.
	MaxPlayersCap = 6
)

// Settings carries the per-room configuration chosen at creation time.
type Settings struct {
	MaxPlayers  int
	TotalRounds int
	TurnTimeout time.Duration
	Countdown   time.Duration
	DealerDelay time.Duration
}

func (st Settings) withDefaults() Settings {
	if st.MaxPlayers < 1 {
		st.MaxPlayers = 2
	}
	if st.MaxPlayers > MaxPlayersCap {
		st.MaxPlayers = MaxPlayersCap
	}
	if st.TotalRounds < 1 {
		st.TotalRounds = 1
	}
	if st.TurnTimeout <= 0 {
		st.TurnTimeout = DefaultTurnTimeout
	}
	if st.Countdown <= 0 {
		st.Countdown = DefaultCountdown
	}
	if st.DealerDelay <= 0 {
		st.DealerDelay = DefaultDealerDelay
	}
	return st
}

// Session holds the entire state of one room. All exported methods lock;
// lowercase helpers assume the lock is held. The turn timer, the countdown
// and the dealer goroutine are the only concurrent writers, and each of them
// re-acquires the lock and re-checks phase before touching anything.
type Session struct {
	ID     uuid.UUID
	HostID uuid.UUID

	Settings Settings

	Players []*models.Player
	Dealer  *models.Dealer
	deck    []models.Card

	CurrentRound       int
	CurrentPlayerIndex int
	Turn               string // display name of the player to act, "" otherwise

	Started       bool
	Countdown     bool
	DealerPlaying bool
	Finished      bool
	Winners       []string

	TimerStart time.Time // zero while no turn timer is pending

	// lastUpdate is the change-detection version stamp, bumped on every
	// mutation. Reads compare against it to answer "nothing changed".
	lastUpdate int64

	// turnEpoch invalidates pending turn timers: it is incremented whenever
	// the turn advances or a timer is cancelled, and a firing callback whose
	// captured epoch no longer matches becomes a no-op. This is what resolves
	// the action-vs-expiry race as "first transition wins".
	turnEpoch int64

	turnTimer      *time.Timer
	countdownTimer *time.Timer

	closed bool

	rng    *rand.Rand
	logger *logrus.Logger

	// OnRoundSettled, if set, receives a record of every settled round.
	// Invoked on its own goroutine; must not call back into the session.
	OnRoundSettled func(RoundResult)

	Mu sync.Mutex
}

// NewSession creates a room with the host already seated.
func NewSession(hostName string, st Settings, logger *logrus.Logger) *Session {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	host := &models.Player{ID: uuid.New(), Name: hostName, Hand: []models.Card{}}
	s := &Session{
		ID:       uuid.New(),
		HostID:   host.ID,
		Settings: st.withDefaults(),
		Players:  []*models.Player{host},
		Dealer:   &models.Dealer{Name: models.DealerName, Hand: []models.Card{}},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger,
	}
	s.lastUpdate = 1
	return s
}

// Version returns the current change-detection stamp.
func (s *Session) Version() int64 {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.lastUpdate
}

// Joinable reports whether a new player could be seated right now.
func (s *Session) Joinable() bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return !s.closed && !s.Started && !s.Countdown && len(s.Players) < s.Settings.MaxPlayers
}

// Join seats a new player and returns their id. Seat order is turn order.
func (s *Session) Join(name string) (uuid.UUID, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if name == "" {
		return uuid.Nil, fmt.Errorf("%w: name is required", ErrBadRequest)
	}
	if s.closed {
		return uuid.Nil, fmt.Errorf("%w: session is gone", ErrNotFound)
	}
	if s.Started || s.Countdown {
		return uuid.Nil, fmt.Errorf("%w: game already started", ErrInvalidState)
	}
	if len(s.Players) >= s.Settings.MaxPlayers {
		return uuid.Nil, fmt.Errorf("%w: room is full", ErrForbidden)
	}
	p := &models.Player{ID: uuid.New(), Name: name, Hand: []models.Card{}}
	s.Players = append(s.Players, p)
	s.bump()
	s.logger.WithFields(logrus.Fields{"session": s.ID, "player": p.ID, "name": name}).Info("player joined")
	return p.ID, nil
}

// Leave removes a player. It returns true when the session must be destroyed:
// the host left, or the room emptied out.
func (s *Session) Leave(playerID uuid.UUID) (destroy bool, err error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	idx := -1
	for i, p := range s.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, fmt.Errorf("%w: player not in session", ErrBadRequest)
	}

	isHost := playerID == s.HostID
	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)
	s.bump()
	s.logger.WithFields(logrus.Fields{"session": s.ID, "player": playerID}).Info("player left")

	if isHost || len(s.Players) == 0 {
		return true, nil
	}

	// A shrinking room can no longer satisfy the full-room start condition.
	if s.Countdown {
		s.cancelCountdown()
	}

	if s.Started && !s.Finished && !s.DealerPlaying {
		switch {
		case idx < s.CurrentPlayerIndex:
			s.CurrentPlayerIndex--
		case idx == s.CurrentPlayerIndex:
			// The player to act left; their seat now belongs to the next
			// player (or the dealer, when they were last).
			s.stopTurnTimer()
			if s.CurrentPlayerIndex >= len(s.Players) {
				s.enterDealerPhase()
			} else {
				s.Turn = s.Players[s.CurrentPlayerIndex].Name
				s.scheduleTurnTimer()
			}
		}
	}
	return false, nil
}

// StartCountdown begins the fixed pre-deal countdown. The room must be full.
func (s *Session) StartCountdown() error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: session is gone", ErrNotFound)
	}
	if s.Started || s.Countdown {
		return fmt.Errorf("%w: game already started", ErrInvalidState)
	}
	if len(s.Players) < s.Settings.MaxPlayers {
		return fmt.Errorf("%w: waiting for players", ErrInvalidState)
	}
	s.Countdown = true
	s.bump()
	s.countdownTimer = time.AfterFunc(s.Settings.Countdown, s.beginMatch)
	s.logger.WithField("session", s.ID).Info("countdown started")
	return nil
}

// beginMatch is the countdown expiry callback. It deals the first round.
func (s *Session) beginMatch() {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.closed || !s.Countdown {
		return // countdown was cancelled
	}
	s.Countdown = false
	s.Started = true
	s.CurrentRound = 1
	s.CurrentPlayerIndex = 0
	s.dealRound()
	s.bump()
	s.scheduleTurnTimer()
	s.logger.WithFields(logrus.Fields{"session": s.ID, "round": s.CurrentRound}).Info("match started")
}

// Restart rewinds a finished match so the room can be started again. Hands,
// winners, the round counter and all point totals are cleared.
func (s *Session) Restart() error {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: session is gone", ErrNotFound)
	}
	if !s.Finished {
		return fmt.Errorf("%w: match still in progress", ErrInvalidState)
	}
	s.stopTurnTimer()
	s.Started = false
	s.Finished = false
	s.Countdown = false
	s.DealerPlaying = false
	s.CurrentRound = 0
	s.CurrentPlayerIndex = 0
	s.Winners = nil
	s.Turn = ""
	s.TimerStart = time.Time{}
	for _, p := range s.Players {
		p.Hand = []models.Card{}
		p.Value = 0
		p.Points = 0
	}
	s.Dealer.Hand = []models.Card{}
	s.Dealer.Value = 0
	s.Dealer.Points = 0
	s.bump()
	s.logger.WithField("session", s.ID).Info("session restarted")
	return nil
}

// Act applies a hit or stand for the current-turn player and returns the
// configured turn timeout in seconds as the acknowledgement echo.
func (s *Session) Act(playerID uuid.UUID, action string) (int, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.closed {
		return 0, fmt.Errorf("%w: session is gone", ErrNotFound)
	}
	if !s.Started || s.Finished || s.DealerPlaying {
		return 0, fmt.Errorf("%w: no player turn is open", ErrInvalidState)
	}
	if s.CurrentPlayerIndex >= len(s.Players) {
		return 0, fmt.Errorf("%w: dealer's turn", ErrInvalidState)
	}
	p := s.Players[s.CurrentPlayerIndex]
	if p.ID != playerID {
		return 0, fmt.Errorf("%w: not your turn", ErrForbidden)
	}

	timerSec := int(s.Settings.TurnTimeout / time.Second)
	switch action {
	case "hit":
		// Cancelling the timer before mutating prevents the expiry callback
		// from double-advancing the same turn.
		s.stopTurnTimer()
		p.Hand = append(p.Hand, draw(&s.deck))
		p.Value = HandValue(p.Hand)
		s.bump()
		if p.Value > 21 {
			s.advanceTurn()
		} else {
			s.scheduleTurnTimer()
		}
	case "stand":
		s.stopTurnTimer()
		s.advanceTurn()
	default:
		return 0, fmt.Errorf("%w: unknown action %q", ErrBadRequest, action)
	}
	return timerSec, nil
}

// Close cancels all pending timers and marks the session dead. Late callbacks
// and the dealer goroutine observe the flag and stop.
func (s *Session) Close() {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.closed = true
	s.stopTurnTimer()
	s.cancelCountdown()
}

// --- internals, lock held ---

func (s *Session) bump() {
	s.lastUpdate++
}

func (s *Session) cancelCountdown() {
	if s.countdownTimer != nil {
		s.countdownTimer.Stop()
		s.countdownTimer = nil
	}
	if s.Countdown {
		s.Countdown = false
		s.bump()
	}
}

// stopTurnTimer cancels the pending turn timer and invalidates any callback
// already in flight.
func (s *Session) stopTurnTimer() {
	if s.turnTimer != nil {
		s.turnTimer.Stop()
		s.turnTimer = nil
	}
	s.turnEpoch++
	s.TimerStart = time.Time{}
}

// scheduleTurnTimer arms the single per-session turn timer. At most one is
// ever pending: any previous timer is cancelled first.
func (s *Session) scheduleTurnTimer() {
	if s.Finished || !s.Started || s.DealerPlaying {
		return
	}
	s.stopTurnTimer()
	s.TimerStart = time.Now()
	epoch := s.turnEpoch
	s.turnTimer = time.AfterFunc(s.Settings.TurnTimeout, func() {
		s.turnExpired(epoch)
	})
}

// turnExpired treats a timed-out turn as an implicit stand. The epoch check
// discards stale callbacks that lost the race against an explicit action.
func (s *Session) turnExpired(epoch int64) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.closed || epoch != s.turnEpoch || !s.Started || s.Finished || s.DealerPlaying {
		return
	}
	s.logger.WithFields(logrus.Fields{"session": s.ID, "turn": s.Turn}).Debug("turn timed out")
	s.advanceTurn()
}

// advanceTurn moves the turn pointer. Index == len(Players) means every
// player has acted and the dealer takes over.
func (s *Session) advanceTurn() {
	s.stopTurnTimer()
	s.CurrentPlayerIndex++
	if s.CurrentPlayerIndex >= len(s.Players) {
		s.enterDealerPhase()
		return
	}
	s.Turn = s.Players[s.CurrentPlayerIndex].Name
	s.bump()
	s.scheduleTurnTimer()
}

// enterDealerPhase flips the phase flag and hands control to the automaton.
// The flag is set before the goroutine launches so the phase is entered
// exactly once per round.
func (s *Session) enterDealerPhase() {
	s.Turn = ""
	s.DealerPlaying = true
	s.bump()
	go s.playDealer()
}

// dealRound issues a fresh deck and deals two cards to everyone. The dealer's
// first card stays face down; their displayed value counts the visible card
// only until the reveal.
func (s *Session) dealRound() {
	s.deck = NewDeck(s.rng)
	for _, p := range s.Players {
		p.Hand = []models.Card{draw(&s.deck), draw(&s.deck)}
		p.Value = HandValue(p.Hand)
	}
	hole := draw(&s.deck)
	hole.Hidden = true
	s.Dealer.Hand = []models.Card{hole, draw(&s.deck)}
	s.Dealer.Value = HandValue(s.Dealer.Hand[1:])
	s.Turn = s.Players[0].Name
}
