package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"usermgr/db"
	"usermgr/internal/cache"
	"usermgr/internal/config"
	usergrpc "usermgr/internal/grpc"
	"usermgr/internal/handlers"
	loggerUtils "usermgr/internal/logger"
	"usermgr/internal/repository"
	"usermgr/internal/server"
	"usermgr/internal/services"
	"usermgr/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger, err := loggerUtils.InitLogger(cfg.IsProduction())
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	var redisClient *cache.RedisClient
	if cfg.RedisRequired() {
		redisClient, err = cache.NewRedisClient(&cache.RedisConfig{
			Host:         cfg.RedisHost,
			Port:         cfg.RedisPort,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			MaxRetries:   3,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	checks := map[string]handlers.HealthCheck{}
	if redisClient != nil {
		checks["redis"] = redisClient.HealthCheck
	}

	var repo services.UserRepository
	switch cfg.Store {
	case config.StoreScylla:
		database, err := db.Connect(cfg.ScyllaHosts, cfg.ScyllaKeyspace, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer database.Close()

		scyllaRepo := repository.NewScyllaUserRepository(database.Session, repository.NewRedisSequence(redisClient))
		if err := scyllaRepo.EnsureSchema(); err != nil {
			logger.Fatal("Failed to prepare schema", zap.Error(err))
		}
		repo = scyllaRepo
		checks["scylla"] = database.HealthWithContext
	case config.StoreMemory:
		logger.Warn("Using in-memory user store, data is lost on restart")
		repo = repository.NewMemoryUserRepository()
	}

	var cacheManager *cache.CacheManager
	if cfg.CacheEnabled {
		localConfig := cache.DefaultLocalCacheConfig()
		localConfig.LifeWindow = cfg.CacheLocalTTL
		local, err := cache.NewLocalCache(localConfig, logger)
		if err != nil {
			logger.Fatal("Failed to create local cache", zap.Error(err))
		}
		managerConfig := cache.DefaultCacheManagerConfig()
		managerConfig.RedisTTL = cfg.CacheRedisTTL
		// redisClient is nil for the memory store, leaving only the local tier.
		cacheManager = cache.NewCacheManager(local, redisClient, managerConfig, logger)
		defer cacheManager.Close()

		repo = repository.NewCachedUserRepository(repo, cacheManager, logger)
	}

	userService := services.NewUserService(repo, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := server.NewRouter(server.RequestLogger(logger), server.CORS(cfg.CORSOrigin))
	server.SetupRoutes(router, handlers.NewUserHandler(userService, cacheManager, checks, logger), cfg.APIBasePath)

	grpcServer := grpc.NewServer()
	usergrpc.RegisterUsersServer(grpcServer, usergrpc.NewUserServer(userService, logger))

	ctx, stop := utils.ShutdownContext(context.Background())
	defer stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go StartGRPCServer(grpcServer, cfg.GRPCPort, logger)
	go startHTTPServer(httpServer, logger)

	<-ctx.Done()
	logger.Info("Shutting down servers...")
	shutdownServers(grpcServer, httpServer, logger)
}

func StartGRPCServer(grpcServer *grpc.Server, port string, logger *zap.Logger) {
	logger.Info("Starting gRPC server", zap.String("port", port))
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		logger.Fatal("Failed to listen", zap.String("port", port), zap.Error(err))
	}
	if err := grpcServer.Serve(listener); err != nil {
		logger.Fatal("Failed to serve gRPC server", zap.Error(err))
	}
}

func startHTTPServer(httpServer *http.Server, logger *zap.Logger) {
	logger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to serve HTTP server", zap.Error(err))
	}
}

func shutdownServers(grpcServer *grpc.Server, httpServer *http.Server, logger *zap.Logger) {
	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
		return
	}
	logger.Info("HTTP server stopped gracefully")
}
