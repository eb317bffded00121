package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/api/ws"
	"github.com/gosuda/taskboard/internal/apiclient"
	"github.com/gosuda/taskboard/internal/config"
	"github.com/gosuda/taskboard/internal/messages"
	"github.com/gosuda/taskboard/internal/notify"
	"github.com/gosuda/taskboard/internal/server"
	"github.com/gosuda/taskboard/internal/session"
	redisstore "github.com/gosuda/taskboard/internal/store/redis"
	"github.com/gosuda/taskboard/internal/web"
	webassets "github.com/gosuda/taskboard/web"
)

// redisKeyPrefix namespaces the session keys in a shared Redis.
const redisKeyPrefix = "taskboard:"

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	setupLogging()

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var (
		kv  session.KV
		bus notify.Bus
	)
	if cfg.Redis.Enabled() {
		client, redisErr := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if redisErr != nil {
			return redisErr
		}
		defer client.Close()

		kv = client.KV(redisKeyPrefix, cfg.Session.TTL)
		bus = client.PubSub()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("session store: redis")
	} else {
		kv = session.NewExpiringMemoryKV(ctx, cfg.Session.TTL)
		bus = notify.NewLocalBus()
		log.Info().Msg("session store: memory")
	}

	api, err := apiclient.New(apiclient.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout})
	if err != nil {
		return err
	}

	texts, err := messages.New(cfg.Lang)
	if err != nil {
		return err
	}

	pages, err := web.New(web.Deps{
		API:       api,
		KV:        kv,
		Bus:       bus,
		Texts:     texts,
		Templates: webassets.Templates,
		Config: web.Config{
			CookieSecure:  cfg.Session.CookieSecure,
			SessionTTL:    cfg.Session.TTL,
			RedirectDelay: cfg.Login.RedirectDelay,
			DefaultLang:   cfg.Lang,
		},
	})
	if err != nil {
		return fmt.Errorf("pages: %w", err)
	}

	hub := ws.NewHub(bus, originHosts(cfg.Server.CORSOrigins))

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(ctx, cfg, pages, hub, webassets.Static())

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("api", cfg.API.BaseURL).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

// setupLogging initializes structured logging from environment.
func setupLogging() {
	level, parseErr := zerolog.ParseLevel(os.Getenv("TASKBOARD_LOG_LEVEL"))
	if parseErr != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("TASKBOARD_LOG_FORMAT") == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

// originHosts turns origin URLs into the host patterns the WebSocket
// handshake matches against.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimPrefix(o, "https://")
		o = strings.TrimPrefix(o, "http://")
		hosts = append(hosts, strings.TrimRight(o, "/"))
	}
	return hosts
}
