package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	_ "modernc.org/sqlite"

	"github.com/rl1809/vending-machine/internal/adapter/handler"
	"github.com/rl1809/vending-machine/internal/adapter/storage"
	"github.com/rl1809/vending-machine/internal/config"
	"github.com/rl1809/vending-machine/internal/core/machine"
	"github.com/rl1809/vending-machine/internal/core/service"
	"github.com/rl1809/vending-machine/internal/port"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize SQL journal
	db, err := openDB(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect database", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	journal := storage.NewSQLAdapter(db)
	if err := journal.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to create schema", zap.Error(err))
	}
	logger.Info("connected to database", zap.String("driver", cfg.DBDriver))

	// Initialize snapshot and idempotency store
	cache, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect cache", zap.String("driver", cfg.CacheDriver), zap.Error(err))
	}
	logger.Info("cache ready", zap.String("driver", cfg.CacheDriver))

	// Initialize machine and service
	strategy, err := machine.NewStrategy(cfg.ChangeStrategy)
	if err != nil {
		logger.Fatal("invalid change strategy", zap.Error(err))
	}
	vm := machine.New(machine.NewCashManager(strategy))
	machineService := service.NewMachineService(cfg.MachineID, vm, cache, journal, cfg.QueueSize, logger)
	if err := machineService.Restore(ctx); err != nil {
		logger.Fatal("failed to restore machine", zap.Error(err))
	}

	// Start journal workers
	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerCount; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			service.JournalWorker(id, machineService.GetSaleQueue(), journal, logger)
		}(i)
	}
	logger.Info("started journal workers", zap.Int("count", cfg.WorkerCount))

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	handler.RegisterVendingServer(grpcServer, handler.NewGRPCHandler(machineService, logger))
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	mux := http.NewServeMux()
	handler.NewHTTPHandler(machineService, logger).Routes(mux)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// Close sale queue and wait for workers
	machineService.Close()
	wg.Wait()
	logger.Info("journal workers stopped")

	closeCache()
	db.Close()
	logger.Info("connections closed")
}

func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == config.DriverSQLite {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

func openCache(ctx context.Context, cfg config.Config) (port.CacheRepository, func(), error) {
	if cfg.CacheDriver == config.CacheMemory {
		return storage.NewMemoryCache(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: 100,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, err
	}
	return storage.NewRedisAdapter(rdb), func() { rdb.Close() }, nil
}
