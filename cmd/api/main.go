package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chatsense/internal/classifier"
	"chatsense/internal/config"
	"chatsense/internal/db"
	"chatsense/internal/engine"
	apihttp "chatsense/internal/http"
	"chatsense/internal/repository"
	"chatsense/internal/service"
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

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	analysisRepo := repository.NewPgAnalysisRepository(pool)
	chatRepo := repository.NewPgChatAnalysisRepository(pool)
	messageRepo := repository.NewPgImportedMessageRepository(pool)

	var cls classifier.Classifier
	if cfg.ClassifierBaseURL != "" {
		cls = classifier.NewHTTPClient(
			cfg.ClassifierBaseURL,
			cfg.ClassifierAPIKey,
			cfg.ClassifierSentimentModel,
			cfg.ClassifierEmotionModel,
			nil,
		)
	} else {
		logger.Info("classifier not configured, scoring is lexical only")
	}
	eng := engine.New(cls, logger)

	var (
		limiter    service.RateLimiter
		tokenStore service.RefreshTokenStore
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			limiter = service.NewRedisRateLimiter(
				redisClient,
				time.Duration(cfg.AnalyzeRateWindowSeconds)*time.Second,
				cfg.AnalyzeRateMax,
			)
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)

	userSvc := service.NewUserService(logger, userRepo)
	analysisSvc := service.NewAnalysisService(logger, eng, analysisRepo, chatRepo, messageRepo, limiter)
	dashboardSvc := service.NewDashboardService(logger, analysisRepo)

	router := apihttp.NewRouter(
		logger,
		jwtSvc,
		apihttp.NewAuthHandler(logger, userSvc, jwtSvc),
		apihttp.NewAnalysisHandler(logger, analysisSvc),
		apihttp.NewDashboardHandler(logger, dashboardSvc),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
