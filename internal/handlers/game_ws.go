package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/cardtable/blackjack/internal/game"
)

// watchInterval is how often the watch loop checks the version stamp. It only
// bounds push latency; no payload is sent while nothing changed.
const watchInterval = 200 * time.Millisecond

// handleWatch upgrades to WebSocket and streams a state snapshot whenever the
// session's version stamp advances. It is a push-flavored alternative to
// polling GET /games/{id} and applies the same hole-card hiding.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	sid, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, ok := s.Sessions.Get(sid); !ok {
		writeError(w, fmt.Errorf("%w: unknown session", game.ErrNotFound))
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"watch"},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.Logger.WithError(err).Warn("websocket accept failed")
		return
	}
	defer c.Close(websocket.StatusInternalError, "watch handler exit")

	ctx := r.Context()
	ctx = c.CloseRead(ctx) // watch is one-way; any client frame ends it

	var last int64
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "client gone")
			return
		case <-ticker.C:
		}

		sess, ok := s.Sessions.Get(sid)
		if !ok {
			c.Close(websocket.StatusNormalClosure, "session destroyed")
			return
		}
		snap, changed := sess.Snapshot(last)
		if !changed {
			continue
		}
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := wsjson.Write(writeCtx, c, snap)
		cancel()
		if err != nil {
			return
		}
		last = snap.LastUpdate
	}
}
