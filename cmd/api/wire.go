package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/pantrychef/backend/config"
	"github.com/pageza/pantrychef/backend/internal/api"
	"github.com/pageza/pantrychef/backend/internal/database"
	"github.com/pageza/pantrychef/backend/internal/embedding"
	"github.com/pageza/pantrychef/backend/internal/logging"
	"github.com/pageza/pantrychef/backend/internal/matching"
	"github.com/pageza/pantrychef/backend/internal/middleware"
	"github.com/pageza/pantrychef/backend/internal/resilience"
	"github.com/pageza/pantrychef/backend/internal/server"
	"github.com/pageza/pantrychef/backend/internal/service"
)

// embeddingCacheTTL bounds how long a Redis-cached vector outlives edits
// made by another replica.
const embeddingCacheTTL = 7 * 24 * time.Hour

type app struct {
	server *server.Server
	db     *gorm.DB
	redis  *redis.Client
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logging.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logging.Warn().Err(err).Msg("failed to close database")
		}
	}
}

// build connects the stores and wires every collaborator into the server.
func build(ctx context.Context, cfg *config.Config) (*app, error) {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient, err = database.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
	}

	provider, err := newEmbeddingProvider(cfg, redisClient)
	if err != nil {
		return nil, err
	}
	engine := matching.NewEngine(service.NewStore(db), provider, matching.Options{
		Workers: cfg.Embedding.Workers,
	})

	history, err := newHistoryLog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var generator service.TextGenerator
	if cfg.LLM.APIKey != "" {
		llm, err := service.NewLLMService(cfg.LLM)
		if err != nil {
			return nil, err
		}
		generator = llm
	} else {
		logging.Warn().Msg("LLM_API_KEY not set, chat replies will list the shortlist only")
	}

	var invalidator service.EmbeddingInvalidator
	if cached, ok := provider.(*embedding.CachedProvider); ok {
		invalidator = cached
	}

	handlers := api.Handlers{
		Ingredients: api.NewIngredientHandler(service.NewIngredientService(db)),
		Recipes:     api.NewRecipeHandler(service.NewRecipeService(db, history, invalidator)),
		Chat: api.NewChatHandler(
			service.NewChatService(engine, generator, service.ChatOptions{AllowRawFallback: cfg.ChatAllowRawFallback}),
			cfg.RecommendTopK,
		),
		Health: api.NewHealthHandler(db, redisClient),
	}

	var opts api.RouteOptions
	if cfg.WriteGuardEnabled() {
		opts.WriteGuard = middleware.WriteGuard(cfg.JWTSecret)
	}
	if redisClient != nil && cfg.ChatRateLimit > 0 {
		opts.ChatLimiter = middleware.NewChatRateLimiter(redisClient, cfg.ChatRateLimit).RateLimitMiddleware()
	}

	return &app{
		server: server.New(cfg, handlers, opts),
		db:     db,
		redis:  redisClient,
	}, nil
}

func newEmbeddingProvider(cfg *config.Config, redisClient *redis.Client) (embedding.Provider, error) {
	metric, err := embedding.ParseMetric(cfg.Embedding.Metric)
	if err != nil {
		return nil, err
	}

	var provider embedding.Provider
	switch cfg.Embedding.Provider {
	case "openai":
		remote, err := embedding.NewHTTPProvider(embedding.HTTPConfig{
			APIURL:     cfg.Embedding.APIURL,
			APIKey:     cfg.Embedding.APIKey,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Timeout:    cfg.LLM.Timeout,
			Metric:     metric,
		})
		if err != nil {
			return nil, err
		}
		provider = embedding.WithBreaker(remote, resilience.DefaultBreakerConfig("embedding"))
	default:
		provider = embedding.NewHashingProvider(cfg.Embedding.Dimensions, metric)
	}

	switch cfg.Embedding.Cache {
	case "memory":
		return embedding.WithCache(provider, embedding.NewMemoryCache(0)), nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("EMBEDDING_CACHE=redis requires REDIS_URL or REDIS_HOST")
		}
		return embedding.WithCache(provider, embedding.NewRedisCache(redisClient, "embedding", embeddingCacheTTL)), nil
	default:
		return provider, nil
	}
}

func newHistoryLog(ctx context.Context, cfg *config.Config) (service.HistoryLog, error) {
	var logs service.MultiHistoryLog
	if cfg.HistoryLogPath != "" {
		file, err := service.NewFileHistoryLog(cfg.HistoryLogPath)
		if err != nil {
			return nil, err
		}
		logs = append(logs, file)
	}
	if cfg.HistoryS3Bucket != "" {
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logs = append(logs, service.NewS3HistoryLog(s3cfg))
	}
	if len(logs) == 0 {
		return nil, nil
	}
	return logs, nil
}
