package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aura-core/server/internal/agent/graph"
	"github.com/aura-core/server/internal/agent/model"
	"github.com/aura-core/server/internal/agent/repo"
	"github.com/aura-core/server/internal/core"
	"github.com/aura-core/server/internal/metrics"
	"github.com/aura-core/server/internal/server"
	logx "github.com/aura-core/server/pkg/logger"
	pkgredis "github.com/aura-core/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the server,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	HTTP  model.ServerConfig
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Intent       model.IntentModelConfig
	Extraction   model.ExtractionModelConfig
	Research     model.ResearchModelConfig
	Styling      model.StylingConfig
	Conversation model.ConversationConfig
}

func main() {
	if err := run(); err != nil {
		logx.Error().Err(err).Msg("Server exited")
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load(".env")

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		return fmt.Errorf("process environment config: %w", err)
	}

	logx.Init(logx.LoggerOpts{
		Environment: core.ParseEnvironment(envCfg.Environment),
		Level:       envCfg.LogLevel,
	})
	if envErr != nil {
		logx.Warn().Err(envErr).Msg("Could not load .env file")
	}
	metrics.Register(prometheus.DefaultRegisterer)

	rdb, err := envCfg.Redis.New()
	if err != nil {
		return fmt.Errorf("initialise redis client: %w", err)
	}
	defer rdb.Close()
	logx.Info().Msg("Connected to Redis successfully")

	ttl, err := envCfg.Conversation.TTLDuration()
	if err != nil {
		return fmt.Errorf("invalid CONVERSATION_TTL %q: %w", envCfg.Conversation.TTL, err)
	}

	stores := server.Stores{
		Profiles:      repo.NewRedisProfileRepository(rdb),
		Conversations: repo.NewRedisConversationRepository(rdb, ttl),
		Sessions:      repo.NewRedisSessionRepository(rdb, ttl),
	}
	cfg := graph.Config{
		APIKey:           envCfg.APIKey,
		BaseURL:          envCfg.BaseURL,
		IntentModel:      envCfg.Intent,
		ExtractionModel:  envCfg.Extraction,
		ResearchModel:    envCfg.Research,
		Styling:          envCfg.Styling,
		Conversation:     envCfg.Conversation,
		ConversationRepo: stores.Conversations,
		SessionRepo:      stores.Sessions,
		ProfileRepo:      stores.Profiles,
	}

	// A failed build leaves the server up; /chat answers 503 until restart.
	var runner server.ChatRunner
	if r, err := graph.BuildChatGraph(ctx, cfg); err != nil {
		logx.Error().Err(err).Msg("Failed to build chat graph")
	} else {
		runner = r
		logx.Info().Msg("Chat graph compiled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", envCfg.HTTP.Port),
		Handler:      server.NewServer(runner, stores).Router(),
		ReadTimeout:  envCfg.HTTP.ReadTimeout,
		WriteTimeout: envCfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logx.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), envCfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
