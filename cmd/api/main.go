package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sladmit/RPA2/internal/config"
	"github.com/sladmit/RPA2/internal/infrastructure/mirror"
	"github.com/sladmit/RPA2/internal/infrastructure/redisstore"
	"github.com/sladmit/RPA2/internal/infrastructure/telegram"
	transporthttp "github.com/sladmit/RPA2/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	rdb := redisstore.NewClient(cfg)
	store := redisstore.NewStore(rdb)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Ping(ctx); err != nil {
		cancel()
		log.Fatalf("redis unreachable at %s: %v", cfg.RedisAddr(), err)
	}
	cancel()

	sink := mirror.NewSink(cfg)
	if sink == nil {
		log.Println("WARN: mirror endpoint not configured, snapshots disabled")
	}

	deps := &transporthttp.Deps{
		Store:    store,
		Auths:    redisstore.NewPendingAuthRepo(store, cfg.PendingAuthTTL),
		Sessions: redisstore.NewSessionRepo(store, cfg.UserSessionTTL),
		Votes:    redisstore.NewVoteRepo(rdb, store, cfg.VoteTTL),
		Verifier: telegram.NewVerifier(cfg),
		Mirror:   sink,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // handshake steps may wait on the login provider
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
