package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sitebot/chatgate/internal/adapter/chat"
	"github.com/sitebot/chatgate/internal/adapter/directory"
	"github.com/sitebot/chatgate/internal/adapter/issues"
	"github.com/sitebot/chatgate/internal/adapter/nlu"
	"github.com/sitebot/chatgate/internal/adapter/oauth"
	"github.com/sitebot/chatgate/internal/cache"
	"github.com/sitebot/chatgate/internal/config"
	store "github.com/sitebot/chatgate/internal/repository"
	"github.com/sitebot/chatgate/internal/resolve"
	"github.com/sitebot/chatgate/internal/service"
	"github.com/sitebot/chatgate/internal/session"
	"github.com/sitebot/chatgate/internal/token"
	transport "github.com/sitebot/chatgate/internal/transport/http"
	"github.com/sitebot/chatgate/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()

	setupLogging(cfg.LogLevel)
	slog.Info("starting chatgate",
		"http_port", cfg.HTTPPort,
		"database", cfg.DatabaseURL,
		"redis", cfg.RedisURL)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if cfg.SeedFile != "" {
		seed, err := store.LoadSeedFile(cfg.SeedFile)
		if err != nil {
			log.Fatalf("Failed to load seed file: %v", err)
		}
		if err := db.Seed(ctx, seed); err != nil {
			log.Fatalf("Failed to apply seed file: %v", err)
		}
		slog.Info("seed file applied", "path", cfg.SeedFile)
	}

	// Initialize cache
	conn, err := cache.NewRedisConn(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to initialize redis connection: %v", err)
	}
	cacheClient := cache.New(conn, cfg.CacheTTL)
	if !cacheClient.Ping(ctx) {
		slog.Warn("cache backend unreachable at startup, operations degrade to misses")
	}

	// Initialize sessions
	sessions := session.New(cacheClient, cfg.SessionTTL)

	// Initialize adapters
	oauthClient := oauth.NewClient(cfg.AuthURL, cfg.UpstreamTimeout)
	directoryClient := directory.NewClient(cfg.DirectoryBaseURL, cfg.UpstreamTimeout)
	issuesClient := issues.NewClient(cfg.IssuesBaseURL, cfg.UpstreamTimeout)
	chatClient := chat.NewClient(cfg.ChatBaseURL, cfg.ChatPhoneID, cfg.ChatAccessToken, cfg.UpstreamTimeout)
	parser := nlu.NewParser(cfg.NLUBaseURL, cfg.NLUAPIKey, cfg.NLUModel, cfg.NLUTimeout)

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize service
	svc := service.New(service.Deps{
		Store:     db,
		Cache:     cacheClient,
		Sessions:  sessions,
		Tokens:    token.New(cacheClient, oauthClient),
		Resolver:  resolve.New(directoryClient),
		Parser:    parser,
		Messenger: chatClient,
		Issues:    issuesClient,
		Gate:      policyEngine,
	})

	// Create Echo server
	server := transport.NewServer(svc, cfg.VerifyToken)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	slog.Info("webhook server started", "port", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down chatgate")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server gracefully", "error", err)
	}

	slog.Info("chatgate stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
