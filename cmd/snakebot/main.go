package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jonboulle/clockwork"

	"github.com/tukib/snakebot/internal/adapter/discord"
	"github.com/tukib/snakebot/internal/adapter/httpserver"
	"github.com/tukib/snakebot/internal/app"
	"github.com/tukib/snakebot/internal/command"
	"github.com/tukib/snakebot/internal/domain"
	"github.com/tukib/snakebot/internal/kv"
	"github.com/tukib/snakebot/internal/platform/config"
	"github.com/tukib/snakebot/internal/platform/logging"
	"github.com/tukib/snakebot/internal/platform/version"
)

const shutdownTimeout = 10 * time.Second

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupStore(cfg *config.Config) domain.KVStore {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := kv.Open(ctx, kv.Options{
		Backend:    cfg.StoreBackend,
		PebblePath: cfg.PebblePath,
		RedisURL:   cfg.RedisURL,
	})
	if err != nil {
		slog.Error("Failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	return store
}

func setupSession(cfg *config.Config) (*discordgo.Session, string) {
	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		slog.Error("Failed to create Discord session", "error", err)
		os.Exit(1)
	}
	if err := session.Open(); err != nil {
		slog.Error("Failed to connect to Discord", "error", err)
		os.Exit(1)
	}
	selfID, err := discord.SelfID(session)
	if err != nil {
		slog.Error("Failed to read bot identity", "error", err)
		os.Exit(1)
	}
	return session, selfID
}

func runGracefulShutdown(cancel context.CancelFunc, gateway *discord.Gateway, a *app.App, store domain.KVStore, srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		if err := gateway.Close(); err != nil {
			slog.Error("Gateway shutdown error", "error", err)
		}
		cancel()

		a.Stop()
		if err := store.Close(); err != nil {
			slog.Error("Store close error", "error", err)
		}

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	began := time.Now()
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "version", version.Get().Version, "store", cfg.StoreBackend)

	store := setupStore(cfg)
	session, selfID := setupSession(cfg)

	platform := discord.NewPlatform(session)
	waiter := discord.NewWaiter()
	a := app.New(cfg, store, platform, discord.NewPrompter(platform, waiter), clock, selfID)
	commands := command.NewHandler(a, platform, cfg.CommandPrefix)

	ctx, cancel := context.WithCancel(context.Background())
	gateway := discord.NewGateway(ctx, session, a.Dispatcher, commands, waiter, platform)
	gateway.Register()

	bootSeconds, err := a.Startup.Run(ctx, began)
	if err != nil {
		slog.Error("Startup maintenance failed", "error", err)
	} else {
		slog.Info("Bot ready", "user_id", selfID, "boot_seconds", bootSeconds)
	}

	srv := httpserver.NewServer(cfg.Port, store, clock, []httpserver.HealthCheck{
		{Name: "store", Check: store.Ping},
		{Name: "discord", Check: func(context.Context) error {
			if !session.DataReady {
				return errors.New("gateway not ready")
			}
			return nil
		}},
	})

	done := runGracefulShutdown(cancel, gateway, a, store, srv)

	if err := srv.Start(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
