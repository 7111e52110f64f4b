// Package handlers is the thin HTTP glue over the game core: routing, JSON
// decoding, error mapping. All game semantics live in internal/game.
package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/cardtable/blackjack/internal/cache"
	"github.com/cardtable/blackjack/internal/config"
	"github.com/cardtable/blackjack/internal/game"
	"github.com/cardtable/blackjack/internal/middleware"
)

// Server bundles the session registry with the process config and logger.
type Server struct {
	Logger   *logrus.Logger
	Cfg      config.Config
	Sessions *game.SessionStore

	// Recorder is optional; when nil, settled rounds are simply not recorded.
	Recorder *cache.Recorder
}

// NewServer builds a Server with a fresh registry.
func NewServer(cfg config.Config, logger *logrus.Logger) *Server {
	return &Server{
		Logger:   logger,
		Cfg:      cfg,
		Sessions: game.NewSessionStore(),
	}
}

// Routes returns the full route table wrapped in the access-log middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /games", s.handleCreate)
	mux.HandleFunc("POST /games/random/join", s.handleJoinRandom)
	mux.HandleFunc("POST /games/{id}/join", s.handleJoin)
	mux.HandleFunc("POST /games/{id}/leave", s.handleLeave)
	mux.HandleFunc("POST /games/{id}/start", s.handleStart)
	mux.HandleFunc("POST /games/{id}/restart", s.handleRestart)
	mux.HandleFunc("POST /games/{id}/hit", s.handleHit)
	mux.HandleFunc("POST /games/{id}/stand", s.handleStand)
	mux.HandleFunc("GET /games/{id}", s.handleState)
	mux.HandleFunc("GET /games/{id}/watch", s.handleWatch)

	return middleware.LogMiddleware(s.Logger)(mux)
}
