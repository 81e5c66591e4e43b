// Package main runs the InternHub HTTP server with team chat and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/internhub/backend/config"
	"github.com/internhub/backend/internal/analytics"
	"github.com/internhub/backend/internal/auth"
	"github.com/internhub/backend/internal/completion"
	"github.com/internhub/backend/internal/formation"
	"github.com/internhub/backend/internal/middleware"
	"github.com/internhub/backend/internal/models"
	"github.com/internhub/backend/internal/modules"
	"github.com/internhub/backend/internal/quiz"
	"github.com/internhub/backend/internal/realtime"
	"github.com/internhub/backend/internal/session"
	"github.com/internhub/backend/internal/store"
	"github.com/internhub/backend/pkg/database"
	"github.com/internhub/backend/pkg/queue"
	"github.com/internhub/backend/pkg/redis"
	"github.com/internhub/backend/pkg/response"
	"github.com/internhub/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	var backend store.Backend
	switch cfg.Store.Backend {
	case "postgres":
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		backend = store.NewPostgresBackend(pool, logger)
	default:
		fb, err := store.NewFileBackend(cfg.Store.DataDir, logger)
		if err != nil {
			logger.Fatal("file store", zap.Error(err))
		}
		backend = fb
	}

	questions, err := quiz.LoadCatalogue(cfg.Seed.QuestionsFile)
	if err != nil {
		logger.Fatal("question catalogue", zap.Error(err))
	}
	if err := quiz.Seed(ctx, backend, questions, logger); err != nil {
		logger.Fatal("seed questions", zap.Error(err))
	}
	if err := auth.EnsureAdmin(ctx, backend, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword, cfg.Seed.AdminCompany, logger); err != nil {
		logger.Fatal("bootstrap admin", zap.Error(err))
	}

	// Redis is optional: without it the lock and chat stay in-process and jobs are disabled.
	var (
		locker   formation.Locker
		jobQueue *queue.Queue
		hub      *realtime.Hub
	)
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
		locker = formation.NewRedisLocker(rdb.Client, cfg.Formation.LockTTL())
		jobQueue = queue.NewQueue(rdb.Client, logger)
		pubsub := realtime.NewRedisPubSub(rdb.Client, logger)
		hub = realtime.NewHub(logger, pubsub, pubsub)
	} else {
		hub = realtime.NewHub(logger, nil, nil)
	}

	var (
		uploads  storage.Uploader
		localDir string
	)
	switch cfg.Uploads.Backend {
	case "s3":
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Bucket:          cfg.AWS.UploadsBucket,
			PublicBaseURL:   cfg.AWS.PublicBaseURL,
		}, logger)
		if err != nil {
			logger.Fatal("s3", zap.Error(err))
		}
		uploads = s3Client
	default:
		local, err := storage.NewLocal(cfg.Uploads.Dir, cfg.Uploads.PublicPrefix, logger)
		if err != nil {
			logger.Fatal("uploads dir", zap.Error(err))
		}
		uploads = local
		localDir = local.Dir()
	}

	completer := completion.NewClient(completion.Options{
		BaseURL:     cfg.Completion.BaseURL,
		APIKey:      cfg.Completion.APIKey,
		Model:       cfg.Completion.Model,
		Temperature: cfg.Completion.Temperature,
		JSONMode:    cfg.Completion.JSONMode,
		Timeout:     cfg.Completion.Timeout(),
	}, nil, logger)
	formationSvc := formation.NewService(backend, formation.NewLLMOracle(completer, cfg.Formation.TeamSize), locker, logger)

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	authHandler := auth.NewHandler(auth.NewRepository(backend), jwtService, logger)
	quizHandler := quiz.NewHandler(backend, logger)
	modulesHandler := modules.NewHandler(backend, uploads, int64(cfg.Uploads.MaxSizeMB)<<20, logger)
	analyticsHandler := analytics.NewHandler(backend, logger)

	var jobs formation.JobEnqueuer
	if jobQueue != nil {
		jobs = jobQueue
	}
	formationHandler := formation.NewHandler(formationSvc, jobs, cfg.Formation.RunTimeout(), logger)

	validateToken := func(token string) (session.Session, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return session.Session{}, err
		}
		return claims.Session(), nil
	}
	teamsOf := func(ctx context.Context, username string) ([]string, error) {
		m, err := formationSvc.MembershipOf(ctx, username)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(m.Teams))
		for _, t := range m.Teams {
			ids = append(ids, t.TeamID)
		}
		return ids, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if localDir != "" {
		router.Static(cfg.Uploads.PublicPrefix, localDir)
	}

	router.POST("/auth/login", authHandler.Login)

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws/team", realtime.ServeWs(hub, logger, validateToken, teamsOf))

	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/me", authHandler.Me)

		api.GET("/quiz/questions", quizHandler.Questions)
		api.POST("/quiz", quizHandler.Submit)

		api.GET("/modules", modulesHandler.List)
		api.GET("/courses", modulesHandler.List)
		api.GET("/teams/me", formationHandler.Mine)
	}

	admin := api.Group("")
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.POST("/credentials", authHandler.CreateCredential)
		admin.GET("/roles", authHandler.ListRoles)
		admin.GET("/stats", analyticsHandler.Stats)
		admin.POST("/modules", modulesHandler.Create)

		admin.POST("/team-formation", formationHandler.Form)
		admin.POST("/team-formation/jobs", formationHandler.Enqueue)
		admin.GET("/team-formation/jobs/:id", formationHandler.Job)
		admin.GET("/teams", formationHandler.List)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Backend),
			zap.String("uploads", cfg.Uploads.Backend),
			zap.Bool("redis", cfg.Redis.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
