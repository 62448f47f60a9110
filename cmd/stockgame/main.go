package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stockgame/internal/api"
	"stockgame/internal/game"
	"stockgame/internal/market"
	"stockgame/internal/store"
)

func main() {
	port := flag.String("port", "8080", "server port")
	dbPath := flag.String("db", "stockgame.db", "SQLite database path for round history")
	corsOrigins := flag.String("cors", "", "comma-separated allowed CORS origins (empty = allow all for dev)")
	duration := flag.Int("duration", 120, "round duration in seconds")
	initialCash := flag.Int64("cash", 500000, "starting cash per participant")
	staticDir := flag.String("static", "", "directory with frontend assets (empty = API only)")
	seed := flag.Int64("seed", 0, "price simulator seed (0 = time-based)")
	flag.Parse()

	if *duration <= 0 {
		log.Fatalf("invalid duration %d", *duration)
	}

	st, err := store.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	simSeed := *seed
	if simSeed == 0 {
		simSeed = time.Now().UnixNano()
	}
	sim := market.NewSimulator(market.DefaultUniverse(), simSeed)

	cfg := game.DefaultConfig()
	cfg.DurationSec = *duration
	cfg.InitialCash = *initialCash

	hub := api.NewHub()
	engine := game.NewEngine(cfg, sim, hub)

	// Completed rounds land in the history store.
	engine.OnRoundEnd(func(roundID string, started, ended time.Time, results []game.RoundResult) {
		record := store.RoundRecord{
			ID:               roundID,
			DurationSeconds:  cfg.DurationSec,
			InitialCash:      cfg.InitialCash,
			ParticipantCount: len(results),
			StartedAt:        started,
			EndedAt:          ended,
		}
		saved := make([]store.RoundResult, 0, len(results))
		for _, r := range results {
			saved = append(saved, store.RoundResult{
				RoundID:       roundID,
				ParticipantID: r.ParticipantID,
				FinalBalance:  r.FinalBalance,
				Profit:        r.Profit,
				Rank:          r.Rank,
			})
		}
		if err := st.SaveRound(record, saved); err != nil {
			log.Printf("Failed to save round %s: %v", roundID, err)
		}
	})

	server := api.NewServer(engine, hub, st)

	if *corsOrigins != "" {
		origins := strings.Split(*corsOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		server.SetCORSOrigins(origins)
		log.Printf("CORS restricted to: %v", origins)
	}
	if *staticDir != "" {
		server.SetStaticDir(*staticDir)
		log.Printf("Serving frontend from %s", *staticDir)
	}

	addr := ":" + *port
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("Starting stockgame server on http://localhost%s", addr)
		log.Printf("Round duration: %ds, initial cash: %d", cfg.DurationSec, cfg.InitialCash)
		log.Printf("Database: %s", *dbPath)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	engine.Stop()
	server.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := st.Close(); err != nil {
		log.Printf("Database close error: %v", err)
	}

	log.Println("Server shutdown complete")
}
