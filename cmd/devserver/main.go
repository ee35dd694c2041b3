package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/answer24/supportchat/internal/config"
	"github.com/answer24/supportchat/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store := server.NewHistoryStore()

	// Pick the responder: real model when Ark credentials are present,
	// otherwise the canned fallback so the widget still round-trips.
	var responder server.Responder = server.CannedResponder{}
	if cfg.AI.Enabled() {
		arkResponder, err := server.NewArkResponder(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize Ark responder: %v", err)
			log.Println("continuing with canned replies only")
		} else {
			responder = arkResponder
			log.Println("Ark responder initialized successfully")
		}
	} else {
		log.Println("Ark credentials not configured, using canned replies")
	}

	handler := server.NewHandler(store, responder)
	hub := server.NewAgentHub(store)
	router := server.NewRouter(handler, hub, cfg.Server.Token)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("supportchat devserver listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
