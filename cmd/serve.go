package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"local-marketplace/internal/api"
	"local-marketplace/internal/cache"
	"local-marketplace/internal/config"
	"local-marketplace/internal/domain"
	"local-marketplace/internal/metrics"
	"local-marketplace/internal/schema"
	"local-marketplace/internal/store"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP storefront/admin API and the gRPC catalog lookup",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	logger.Info("configuration loaded", zap.String("app_env", cfg.AppEnv), zap.String("default_city", cfg.Site.DefaultCity))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	dbStore := store.NewPostgresStore(db)
	defer func() {
		if err := dbStore.Close(); err != nil {
			logger.Warn("error closing database", zap.Error(err))
		}
	}()
	logger.Info("database connection established")

	registry, err := schema.New(cfg.Site.ImageHosts)
	if err != nil {
		return err
	}

	slugCache := connectCache(ctx, cfg.Redis)
	if slugCache != nil {
		defer slugCache.Close()
	}
	stores := buildStores(dbStore, slugCache)

	httpAPIHandler := api.NewHTTPHandler(stores, registry, cfg, logger)
	httpAPIHandler.AddHealthCheck("postgres", dbStore.Ping)
	if slugCache != nil {
		httpAPIHandler.AddHealthCheck("redis", slugCache.Ping)
	}

	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter)
	httpRouter.Handle("/metrics", metrics.Handler())
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	grpcServer := api.NewGRPCServer(api.NewGRPCHandler(stores.Cities, stores.Products, logger), logger)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on port %s: %w", cfg.GrpcServer.Port, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("port", cfg.HttpServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("gRPC server listening", zap.String("port", cfg.GrpcServer.Port))
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("starting graceful shutdown")
		shutdown(httpServer, grpcServer)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("service shutdown sequence finished")
	return nil
}

func setupBaseMiddleware(router *chi.Mux) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  zap.NewStdLog(logger.Named("access")),
		NoColor: true,
	}))
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)
	router.Use(middleware.Timeout(60 * time.Second))
}

// connectCache returns nil when Redis is not configured or not reachable; the site then reads through to Postgres.
func connectCache(ctx context.Context, cfg config.RedisConfig) *cache.SlugCache {
	if !cfg.Enabled() {
		logger.Info("storefront cache disabled")
		return nil
	}
	c := cache.NewSlugCache(cache.NewRedisClient(cfg), cfg.TTL, logger)
	if err := c.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, continuing without storefront cache", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = c.Close()
		return nil
	}
	logger.Info("storefront cache connected", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.TTL))
	return c
}

// buildStores puts the slug cache in front of every slug-bearing collection.
func buildStores(pg *store.PostgresStore, c *cache.SlugCache) api.Stores {
	collection := func(k domain.Kind) string { return schema.MustLookup(k).Collection }
	return api.Stores{
		Cities:           cache.Wrap[domain.City](pg.Cities, c, collection(domain.KindCity)),
		Businesses:       cache.Wrap[domain.Business](pg.Businesses, c, collection(domain.KindBusiness)),
		Products:         cache.Wrap[domain.Product](pg.Products, c, collection(domain.KindProduct)),
		Categories:       cache.Wrap[domain.ProductCategory](pg.Categories, c, collection(domain.KindProductCategory)),
		Tags:             cache.Wrap[domain.ProductTag](pg.Tags, c, collection(domain.KindProductTag)),
		Services:         cache.Wrap[domain.Service](pg.Services, c, collection(domain.KindService)),
		LocationProfiles: cache.Wrap[domain.LocationProfile](pg.LocationProfiles, c, collection(domain.KindLocationProfile)),
		Terms:            pg.Terms,
	}
}

func shutdown(httpServer *http.Server, grpcServer *grpc.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("HTTP server gracefully shut down")
	}

	select {
	case <-stoppedGrpc:
		logger.Info("gRPC server gracefully shut down")
	case <-shutdownCtx.Done():
		logger.Warn("gRPC server graceful shutdown timed out, forcing stop", zap.Error(shutdownCtx.Err()))
		grpcServer.Stop()
	}
}
