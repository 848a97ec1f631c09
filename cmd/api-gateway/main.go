package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/noah-isme/schoolbus-api/api/swagger"
	"github.com/noah-isme/schoolbus-api/internal/handler"
	internalmiddleware "github.com/noah-isme/schoolbus-api/internal/middleware"
	"github.com/noah-isme/schoolbus-api/internal/models"
	"github.com/noah-isme/schoolbus-api/internal/repository"
	"github.com/noah-isme/schoolbus-api/internal/service"
	"github.com/noah-isme/schoolbus-api/pkg/cache"
	"github.com/noah-isme/schoolbus-api/pkg/config"
	"github.com/noah-isme/schoolbus-api/pkg/database"
	"github.com/noah-isme/schoolbus-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/schoolbus-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/schoolbus-api/pkg/middleware/requestid"
)

// @title School Bus API
// @version 1.0.0
// @description Administrative backend for school bus tracking
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to open storage", zap.Error(err))
	}
	defer store.Close() //nolint:errcheck

	if err := seedAdmin(ctx, store, cfg.Bootstrap, logr); err != nil {
		logr.Fatal("failed to seed bootstrap admin", zap.Error(err))
	}

	metrics := service.NewMetricsService()

	recorder := service.NewActivityRecorder(store, service.ActivityRecorderConfig{
		Workers: cfg.Audit.Workers,
		Buffer:  cfg.Audit.Buffer,
	}, metrics, logr)
	// Shutdown drains the queue through recorder.Stop, not the signal.
	recorder.Start(context.WithoutCancel(ctx))

	var cacheRepo *repository.CacheRepository
	if cfg.Dashboard.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard cache disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cacheRepo.Enabled())

	dashboardSvc := service.NewDashboardService(store, cacheSvc, service.DashboardServiceConfig{
		RecentNotifications: cfg.Dashboard.RecentNotifications,
		CacheTTL:            cfg.Dashboard.CacheTTL,
	}, logr)
	recorder.OnRecord(dashboardSvc.HandleActivity)

	authSvc := service.NewAuthService(store, recorder, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
	})

	handlers := handler.Handlers{
		Auth:     handler.NewAuthHandler(authSvc),
		Users:    handler.NewUserHandler(service.NewUserService(store, recorder, logr)),
		Students: handler.NewStudentHandler(service.NewStudentService(store, recorder, logr)),
		Buses:    handler.NewBusHandler(service.NewBusService(store, recorder, logr)),
		Rounds: handler.NewRoundHandler(service.NewRoundService(store, recorder, metrics, service.RoundServiceConfig{
			StrictTransitions: cfg.Rounds.StrictTransitions,
		}, logr)),
		Locations:     handler.NewLocationHandler(service.NewLocationService(store, recorder, metrics, logr)),
		Notifications: handler.NewNotificationHandler(service.NewNotificationService(store, recorder, logr)),
		Absences:      handler.NewAbsenceHandler(service.NewAbsenceService(store, recorder, logr)),
		ActivityLogs:  handler.NewActivityLogHandler(service.NewActivityLogService(store, nil, nil, logr)),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
		Metrics:       handler.NewMetricsHandler(metrics, store, logr),
	}

	if cfg.Tracking.SimulatorEnabled {
		sim := service.NewTrackingSimulator(store, metrics, service.TrackingSimulatorConfig{
			Interval:  cfg.Tracking.Interval,
			CenterLat: cfg.Tracking.CenterLat,
			CenterLng: cfg.Tracking.CenterLng,
		}, logr)
		go sim.Run(ctx)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.WithResponseMeta())
	r.Use(internalmiddleware.Metrics(metrics, "/metrics"))

	handler.RegisterRoutes(r, cfg.APIPrefix, authSvc, handlers)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http shutdown failed", zap.Error(err))
	}
	recorder.Stop()
}

func openStorage(ctx context.Context, cfg *config.Config, logr *zap.Logger) (repository.Storage, error) {
	if cfg.Storage.Driver != config.StoragePostgres {
		logr.Info("using in-memory storage")
		return repository.NewMemoryStorage(), nil
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return repository.NewPostgresStorage(db), nil
}

func seedAdmin(ctx context.Context, store repository.Storage, boot config.BootstrapConfig, logr *zap.Logger) error {
	hash, err := service.HashPassword(boot.Password, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.NewUser{
		Username: boot.Username,
		Password: hash,
		Email:    boot.Email,
		FullName: boot.FullName,
	}
	if boot.Phone != "" {
		phone := boot.Phone
		admin.Phone = &phone
	}

	user, created, err := repository.EnsureAdmin(ctx, store, admin)
	if err != nil {
		return err
	}
	if created {
		logr.Info("bootstrap admin created", zap.String("username", user.Username), zap.Int64("userId", user.ID))
	}
	return nil
}
