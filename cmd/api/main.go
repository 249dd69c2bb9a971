package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"support-widget/internal/bootstrap"
	"support-widget/internal/config"
	apihttp "support-widget/internal/http"
	"support-widget/internal/render"
	"support-widget/internal/repository"
	"support-widget/internal/service"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	res, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("bootstrap", zap.Error(err))
	}
	defer res.Close()

	var (
		bootLimiter service.BootRateLimiter
		tokenStore  service.ContextTokenStore
	)
	if res.RedisReady {
		bootLimiter = service.NewRedisBootRateLimiter(res.Backends.Redis, cfg.BootRateLimitWindow, cfg.BootRateLimitMax)
		tokenStore = service.NewRedisContextTokenStore(res.Backends.Redis)
	} else {
		bootLimiter = service.NewBootRateLimiter(cfg.BootRateLimitWindow, cfg.BootRateLimitMax)
	}

	scopes := repository.NewScopeFactory(cfg, res.Backends)
	if err := scopes.EnsureSchema(ctx); err != nil {
		logger.Fatal("storage schema", zap.Error(err))
	}

	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}
	tokens := service.NewContextTokenService(cfg.JWTSecret, cfg.ContextTokenTTL, tokenStore)

	// Markup sin colores: el estilo lo decide el cliente remoto.
	markdown, err := render.NewGlamourConverter(80, "notty")
	if err != nil {
		logger.Fatal("markdown converter", zap.Error(err))
	}

	registry := service.NewRegistry()
	factory := func(contextID string, renderer service.Renderer) (*service.Widget, error) {
		ephemeral, err := scopes.Ephemeral(contextID)
		if err != nil {
			return nil, err
		}
		durable, err := scopes.Durable()
		if err != nil {
			return nil, err
		}
		return service.NewWidget(service.WidgetOptions{
			ContextID:        contextID,
			Endpoint:         cfg.BackendURL,
			BackendTimeout:   cfg.BackendTimeout,
			Store:            repository.NewWidgetStore(ephemeral, durable, logger, cfg.MaxMessages),
			Renderer:         renderer,
			Markdown:         markdown,
			Logger:           logger.With(zap.String("context_id", contextID)),
			Registry:         registry,
			AcceptLocaleEcho: cfg.AcceptLocaleEcho,
			MaxMessages:      cfg.MaxMessages,
		})
	}

	widgetHandler := apihttp.NewWidgetHandler(logger, tokens, bootLimiter, factory, cfg.AllowedOrigins)
	router := apihttp.NewRouter(logger, tokens, widgetHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server",
		zap.String("port", cfg.HTTPPort),
		zap.String("ephemeral_store", cfg.EphemeralStore),
		zap.String("durable_store", cfg.DurableStore),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
