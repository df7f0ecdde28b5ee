package main

import (
	"context"
	"crypto/rand"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"voting-rooms/internal/config"
	"voting-rooms/internal/domain/room"
	"voting-rooms/internal/fhe"
	api "voting-rooms/internal/http"
	"voting-rooms/internal/journal"
	"voting-rooms/internal/metrics"
	jwtpkg "voting-rooms/internal/platform/jwt"
	"voting-rooms/internal/worker"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	api.SetLogger(logger)

	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jnl, err := journal.Open(ctx, cfg.JournalDSN)
	if err != nil {
		log.Fatalf("journal open error: %v", err)
	}
	defer jnl.Close()

	// In-process key for development and tests. A deployed registry talks to
	// an external coprocessor that holds the decryption key.
	engine, err := fhe.GenerateKey(rand.Reader, cfg.PaillierBits)
	if err != nil {
		log.Fatalf("key generation error: %v", err)
	}

	contract := fhe.Address(cfg.ContractAddress)
	events := make(chan room.Event, 256)
	reg := room.New(engine, contract, events)

	jwtMgr := jwtpkg.NewManager(cfg.JWTSecret, "voting-rooms")

	journalWorker := worker.NewJournalWorker(events, jnl)
	sweeper := worker.NewSweeper(reg, contract, cfg.SweepInterval)

	router := api.NewRouter(reg, jwtMgr, jnl)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go journalWorker.Run(ctx)
	go sweeper.Run(ctx)

	go func() {
		log.Printf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	<-stop
	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown error: %v", err)
	}

	log.Println("server stopped")
}
