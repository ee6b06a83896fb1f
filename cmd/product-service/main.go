package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/MikeMC777/product-catalog/internal/auth"
	"github.com/MikeMC777/product-catalog/internal/category"
	"github.com/MikeMC777/product-catalog/internal/config"
	"github.com/MikeMC777/product-catalog/internal/database"
	"github.com/MikeMC777/product-catalog/internal/health"
	"github.com/MikeMC777/product-catalog/internal/logx"
	"github.com/MikeMC777/product-catalog/internal/product"
	"github.com/MikeMC777/product-catalog/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	log := logx.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("product-service stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		OTLPEndpoint:   cfg.OTLPEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(sctx); err != nil {
			log.WithError(err).Warn("telemetry shutdown")
		}
	}()

	if cfg.AutoMigrate {
		log.WithField("path", cfg.MigrationsPath).Info("running database migrations")
		if err := database.RunMigrations(cfg.PostgresDSN, cfg.MigrationsPath); err != nil {
			return err
		}
	}

	pool, err := database.NewPool(ctx, cfg.PostgresDSN, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	verifier, err := auth.NewVerifier(cfg.JWT)
	if err != nil {
		return err
	}

	var productRepo product.Repository = product.NewPGRepo(pool)
	if cfg.RedisAddr != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unavailable, product cache disabled")
		} else {
			productRepo = product.NewCachedRepo(productRepo, rc, cfg.CacheTTL, log)
		}
	}

	categories := category.NewService(category.NewPGRepo(pool), log)
	products := product.NewService(productRepo, categories, log)

	monitor := health.NewMonitor(pool, cfg.HealthInterval, log)
	go monitor.Run(ctx)
	go func() {
		if err := monitor.Serve(ctx, cfg.GRPCHealthAddr); err != nil {
			log.WithError(err).Error("grpc health server")
		}
	}()

	gin.SetMode(cfg.GinMode)
	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: newRouter(deps{
			products:   products,
			categories: categories,
			db:         monitor,
			verifier:   verifier,
			log:        log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("product-service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("http server stopped")
	return nil
}
