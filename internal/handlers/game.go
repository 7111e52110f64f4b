package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cardtable/blackjack/internal/auth"
	"github.com/cardtable/blackjack/internal/game"
)

type createRequest struct {
	PlayerName string `json:"playerName"`
	MaxPlayers int    `json:"maxPlayers"`
	Rounds     int    `json:"rounds"`
	Timeout    int    `json:"timeout"` // seconds per turn; 0 = server default
}

type joinRequest struct {
	PlayerName string `json:"playerName"`
}

type actRequest struct {
	PlayerID string `json:"playerId"`
}

// handleCreate builds a new session with the caller as host.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerName == "" {
		writeError(w, fmt.Errorf("%w: playerName is required", game.ErrBadRequest))
		return
	}

	st := game.Settings{
		MaxPlayers:  req.MaxPlayers,
		TotalRounds: req.Rounds,
		TurnTimeout: time.Duration(req.Timeout) * time.Second,
		Countdown:   s.Cfg.Countdown(),
		DealerDelay: s.Cfg.DealerDelay(),
	}
	if req.Timeout <= 0 {
		st.TurnTimeout = s.Cfg.TurnTimeout()
	}

	sess := game.NewSession(req.PlayerName, st, s.Logger)
	if s.Recorder != nil {
		sess.OnRoundSettled = s.Recorder.RecordRound
	}
	s.Sessions.Add(sess)

	token, err := auth.CreatePlayerToken(sess.HostID, sess.ID)
	if err != nil {
		s.Logger.WithError(err).Error("failed to sign player token")
	}
	s.Logger.WithFields(logrus.Fields{"session": sess.ID, "host": sess.HostID}).Info("session created")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"gameId":   sess.ID,
		"playerId": sess.HostID,
		"token":    token,
	})
}

// handleJoinRandom seats the player in any open session.
func (s *Server) handleJoinRandom(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerName == "" {
		writeError(w, fmt.Errorf("%w: playerName is required", game.ErrBadRequest))
		return
	}
	sess, pid, err := s.Sessions.JoinRandom(req.PlayerName)
	if err != nil {
		writeError(w, err)
		return
	}
	token, _ := auth.CreatePlayerToken(pid, sess.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"gameId":   sess.ID,
		"playerId": pid,
		"token":    token,
	})
}

// handleJoin seats the player in a specific session.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, ok := s.Sessions.Get(sid)
	if !ok {
		writeError(w, fmt.Errorf("%w: unknown session", game.ErrNotFound))
		return
	}
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid payload", game.ErrBadRequest))
		return
	}
	pid, err := sess.Join(req.PlayerName)
	if err != nil {
		writeError(w, err)
		return
	}
	token, _ := auth.CreatePlayerToken(pid, sess.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"playerId": pid,
		"token":    token,
	})
}

// handleLeave removes a player; host leave or an emptied room destroys the
// session entirely.
func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, ok := s.Sessions.Get(sid)
	if !ok {
		writeError(w, fmt.Errorf("%w: unknown session", game.ErrNotFound))
		return
	}
	var req actRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid payload", game.ErrBadRequest))
		return
	}
	pid, err := resolvePlayer(r, sid, req.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	destroy, err := sess.Leave(pid)
	if err != nil {
		writeError(w, err)
		return
	}
	if destroy {
		s.Sessions.Destroy(sid)
		s.Logger.WithField("session", sid).Info("session destroyed")
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleStart kicks off the pre-deal countdown.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, ok := s.Sessions.Get(sid)
	if !ok {
		writeError(w, fmt.Errorf("%w: unknown session", game.ErrNotFound))
		return
	}
	if err := sess.StartCountdown(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleRestart rewinds a finished match.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, ok := s.Sessions.Get(sid)
	if !ok {
		writeError(w, fmt.Errorf("%w: unknown session", game.ErrNotFound))
		return
	}
	if err := sess.Restart(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleHit(w http.ResponseWriter, r *http.Request) {
	s.handleAct(w, r, "hit")
}

func (s *Server) handleStand(w http.ResponseWriter, r *http.Request) {
	s.handleAct(w, r, "stand")
}

func (s *Server) handleAct(w http.ResponseWriter, r *http.Request, action string) {
	sid, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, ok := s.Sessions.Get(sid)
	if !ok {
		writeError(w, fmt.Errorf("%w: unknown session", game.ErrNotFound))
		return
	}
	var req actRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid payload", game.ErrBadRequest))
		return
	}
	pid, err := resolvePlayer(r, sid, req.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	timer, err := sess.Act(pid, action)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"timer":   timer,
	})
}

// handleState is the polling read path. Clients pass their last-seen version
// as ?last=N (or an If-None-Match ETag); an up-to-date client gets a bare 304.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, ok := s.Sessions.Get(sid)
	if !ok {
		writeError(w, fmt.Errorf("%w: unknown session", game.ErrNotFound))
		return
	}

	since, _ := strconv.ParseInt(r.URL.Query().Get("last"), 10, 64)
	snap, changed := sess.Snapshot(since)
	if !changed {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	etag := fmt.Sprintf(`W/"%d"`, snap.LastUpdate)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
