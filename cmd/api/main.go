package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/orvn/orvi/backend/internal/config"
	"github.com/orvn/orvi/backend/internal/handler"
	streamHandler "github.com/orvn/orvi/backend/internal/handler/stream"
	"github.com/orvn/orvi/backend/internal/service/ai"
	chatService "github.com/orvn/orvi/backend/internal/service/chat"
	newsletterService "github.com/orvn/orvi/backend/internal/service/newsletter"
	"github.com/orvn/orvi/backend/internal/store"
	"github.com/orvn/orvi/backend/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	tel, err := telemetry.Init(ctx, "orvi-backend")
	if err != nil {
		log.Fatalf("failed to init telemetry: %v", err)
	}
	defer tel.Shutdown()

	db, err := store.OpenSQLite(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("failed to open message store: %v", err)
	}
	defer db.Close()

	var responder chatService.Responder
	var streamer streamHandler.Streamer
	if cfg.AI.Enabled() {
		aiSvc, err := ai.NewService(ctx, cfg.AI, cfg.Chat)
		if err != nil {
			slog.Warn("failed to initialize completion service, chat will answer 500", "error", err)
		} else {
			responder = aiSvc
			if aiSvc.StreamingEnabled() {
				streamer = aiSvc
			}
			slog.Info("completion service initialized", "model", cfg.AI.Model)
		}
	} else {
		slog.Warn("completion credentials not configured, chat will answer 500")
	}

	chatSvc := chatService.NewService(db, responder, cfg.Chat.HistoryWindow)

	var mailer newsletterService.Mailer
	if cfg.Mail.Enabled() {
		mailer = newsletterService.NewSMTPMailer(cfg.Mail)
	} else {
		slog.Warn("mail credentials not configured, welcome emails disabled")
	}
	newsSvc := newsletterService.NewService(db, mailer)

	router := handler.NewRouter(chatSvc, newsSvc, streamer, tel.Tracer, tel.Meter, cfg.Server.CORSOrigin)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	slog.Info("orvi backend listening", "addr", serverCfg.Addr)
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
