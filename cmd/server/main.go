package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "mafiainsight/docs"
	"mafiainsight/internal/auth"
	"mafiainsight/internal/client/gomafia"
	"mafiainsight/internal/config"
	cronrunner "mafiainsight/internal/cron"
	"mafiainsight/internal/db"
	"mafiainsight/internal/handler"
	"mafiainsight/internal/logger"
	gormrepository "mafiainsight/internal/repository/gorm"
	"mafiainsight/internal/service"
)

func main() {
	cfgPath := os.Getenv("MI_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("MI_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	gomafiaHTTP := &http.Client{Timeout: cfg.Gomafia.Timeout}
	gomafiaClient := gomafia.NewClient(gomafiaHTTP, cfg.Gomafia.BaseURL)
	store := gormrepository.New(dbConn.Gorm)

	statusHolder := service.NewStatusHolder(store, logger)
	statusHolder.Restore(context.Background())

	skippedManager := service.NewSkippedEntityManager(store, logger)
	syncService := &service.SyncService{
		Repo:    store,
		Source:  gomafiaClient,
		Skipped: skippedManager,
		Status:  statusHolder,
		Logger:  logger,
		Config:  cfg.Sync,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	playerHandler := &handler.PlayerHandler{Repo: store, Logger: logger}
	playerHandler.Register(engine)
	clubHandler := &handler.ClubHandler{Repo: store, Logger: logger}
	clubHandler.Register(engine)
	tournamentHandler := &handler.TournamentHandler{Repo: store, Logger: logger}
	tournamentHandler.Register(engine)
	gameHandler := &handler.GameHandler{Repo: store, Logger: logger}
	gameHandler.Register(engine)

	statusWS := &handler.StatusWSHandler{Status: statusHolder, Logger: logger}
	statusWS.Register(engine)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	scheduler := service.NewScheduler(cronRunner, syncService, cfg.Sync, logger)
	if err := scheduler.Initialize(); err != nil {
		logger.Fatal("scheduler init failed", zap.Error(err))
	}
	defer scheduler.Stop()

	healthHandler := &handler.HealthHandler{DB: dbConn, Scheduler: scheduler}
	healthHandler.Register(engine)

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)
	guard := auth.NewMiddleware(verifier, logger, cfg.Auth.Disabled)
	admin := engine.Group("/api/admin", guard.RequireAuth(), guard.RequireAdmin(), guard.Audit())

	syncHandler := &handler.SyncHandler{
		Repo:      store,
		Sync:      syncService,
		Scheduler: scheduler,
		Logger:    logger,
	}
	syncHandler.Register(admin)
	skippedHandler := &handler.SkippedHandler{
		Repo:    store,
		Skipped: skippedManager,
		Source:  gomafiaClient,
		Sync:    syncService,
		Logger:  logger,
	}
	skippedHandler.Register(admin)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
