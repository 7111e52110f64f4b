// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/cardtable/blackjack/internal/auth"
	"github.com/cardtable/blackjack/internal/cache"
	"github.com/cardtable/blackjack/internal/config"
	"github.com/cardtable/blackjack/internal/handlers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	if err := auth.Init(); err != nil {
		log.Fatalf("failed to init auth keys: %v", err)
	}

	srv := handlers.NewServer(cfg, logger)

	// Round history is optional; the game is fully playable without Redis.
	if cfg.RedisAddr != "" {
		rec, err := cache.NewRecorder(cfg.RedisAddr, cfg.HistorianQueue, logger)
		if err != nil {
			logger.WithError(err).Warn("round history disabled")
		} else {
			defer rec.Close()
			srv.Recorder = rec
			logger.WithField("queue", cfg.HistorianQueue).Info("round history enabled")
		}
	}

	addr := ":" + cfg.Port
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, srv.Routes()); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
