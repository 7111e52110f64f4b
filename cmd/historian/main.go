// cmd/historian/main.go runs the round-history sink: it pops settled-round
// records from the Redis queue and persists them to Postgres.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/cardtable/blackjack/internal/config"
	"github.com/cardtable/blackjack/internal/database"
	"github.com/cardtable/blackjack/internal/historian"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required for the historian")
	}
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	pool, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	hs := historian.New(rdb, pool, cfg.HistorianQueue, logger)
	go hs.Run()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	<-sigs
	logger.Info("historian shutting down")
	hs.Stop()
}
