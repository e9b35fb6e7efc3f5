package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whisperchat/internal/accounts"
	"whisperchat/internal/config"
	"whisperchat/internal/convo"
	"whisperchat/internal/directory"
	"whisperchat/internal/domain"
	"whisperchat/internal/friends"
	"whisperchat/internal/server"
	"whisperchat/internal/store/memory"
	"whisperchat/internal/store/mongo"
)

// stores is the intersection the server needs from either backend.
type stores interface {
	domain.ConversationStore
	domain.DirectoryStore
	domain.MessageStore
	domain.AccountStore
	domain.FriendStore
}

// openVerifier passes every signup. Used when no challenge endpoint is
// configured (development).
type openVerifier struct{}

func (openVerifier) Verify(ctx context.Context, token string) (float64, error) {
	return 1.0, nil
}

func main() {
	configPath := flag.String("config", "whisperd.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logger.Level)); err != nil {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st stores
	if cfg.Mongo.URI != "" {
		ms, err := mongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			log.Error("connect store", "err", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Close(shutdownCtx)
		}()
		st = ms
		log.Info("store ready", "backend", "mongo", "database", cfg.Mongo.Database)
	} else {
		st = memory.New()
		log.Warn("store ready", "backend", "memory", "note", "state is not persisted")
	}

	var verifier accounts.Verifier = openVerifier{}
	if cfg.Challenge.Endpoint != "" {
		verifier = accounts.NewHTTPVerifier(cfg.Challenge.Endpoint, cfg.Challenge.Secret)
	}

	acct := accounts.New(st, verifier, []byte(cfg.JWT.Secret), cfg.JWT.Expiry, cfg.Challenge.MinScore)
	srv := server.New(log, acct, convo.New(st, st), directory.New(st), friends.New(st, st), st)
	app := srv.Router()

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	log.Info("listening", "addr", cfg.Server.Addr)
	if err := app.Listen(cfg.Server.Addr); err != nil {
		log.Error("serve", "err", err)
		os.Exit(1)
	}
}
