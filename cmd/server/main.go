package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/d60-Lab/postjournal/config"
	"github.com/d60-Lab/postjournal/internal/api"
	"github.com/d60-Lab/postjournal/internal/api/handler"
	"github.com/d60-Lab/postjournal/internal/auth"
	"github.com/d60-Lab/postjournal/internal/moderation"
	"github.com/d60-Lab/postjournal/internal/repository"
	"github.com/d60-Lab/postjournal/internal/service"
	"github.com/d60-Lab/postjournal/pkg/cache"
	"github.com/d60-Lab/postjournal/pkg/database"
	"github.com/d60-Lab/postjournal/pkg/logger"
	"github.com/d60-Lab/postjournal/pkg/tracing"
)

// @title           postjournal API
// @version         1.0
// @description     帖子、评论、延迟自动回复与用户字段审计日志
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			SampleRate:  cfg.Sentry.SampleRate,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer func() { _ = database.Close(db) }()
	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	var revoked auth.RevocationSet
	switch cfg.Auth.RevocationStore {
	case "redis":
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		defer func() { _ = rdb.Close() }()
		revoked = auth.NewRedisRevocationSet(rdb)
	default:
		revoked = auth.NewMemoryRevocationSet()
	}
	authority := auth.NewAuthority(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.Issuer, revoked)

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	journalRepo := repository.NewJournalRepository(db)

	filter := moderation.New(cfg.Moderation.Words...)
	writer := service.NewCommentWriter(commentRepo, filter)
	scheduler := service.NewScheduler(postRepo, commentRepo, writer, service.SchedulerOptions{
		MaxDelay:    cfg.Scheduler.MaxDelay,
		FireTimeout: cfg.Scheduler.FireTimeout,
		MaxPending:  cfg.Scheduler.MaxPending,
	})
	go drainMetrics(scheduler.Metrics())

	accounts := service.NewAccountService(db, userRepo, postRepo, journalRepo, authority)
	content := service.NewContentService(postRepo, commentRepo, writer, filter, scheduler, cfg.Scheduler.DefaultDelay, cfg.Scheduler.MaxDelay)
	router := api.NewRouter(cfg, handler.NewHandler(accounts, content), authority)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("db", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	// 待触发的自动回复直接丢弃
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler stop", zap.Error(err), zap.Int("pending", scheduler.Pending()))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown", zap.Error(err))
	}
	logger.Info("server exited")
	return nil
}

// drainMetrics 记录自动回复从排期到落库的耗时
func drainMetrics(ch <-chan time.Duration) {
	for d := range ch {
		logger.Debug("auto-reply fired", zap.Duration("latency", d))
	}
}
