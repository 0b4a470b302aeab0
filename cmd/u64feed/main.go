package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/u64feed/internal/application/greeter"
	"github.com/aescanero/u64feed/internal/config"
	redisevents "github.com/aescanero/u64feed/pkg/adapters/events/redis"
	"github.com/aescanero/u64feed/pkg/adapters/metrics/prometheus"
	memorystorage "github.com/aescanero/u64feed/pkg/adapters/storage/memory"
	redisstorage "github.com/aescanero/u64feed/pkg/adapters/storage/redis"
	"github.com/aescanero/u64feed/pkg/api/grpc"
	"github.com/aescanero/u64feed/pkg/api/http"
	"github.com/aescanero/u64feed/pkg/ports"
	"github.com/aescanero/u64feed/pkg/wsclient"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

// frameStreamMaxLen caps the Redis frame stream
const frameStreamMaxLen = 100000

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting u64feed",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("endpoint", cfg.WebSocket.URL))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize adapters
	metricsCollector := prometheus.NewCollector()

	var (
		redisClient *goredis.Client
		publisher   ports.FramePublisher
		store       ports.SessionStore
	)

	if cfg.RedisEnabled() {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

		publisher = redisevents.NewStreamsPublisher(redisClient, cfg.Redis.FrameTopic, frameStreamMaxLen, logger)
		store = redisstorage.NewSessionStore(redisClient, cfg.SessionTTL, logger)
	} else {
		store = memorystorage.NewSessionStore()
	}

	client, err := wsclient.NewClient(&wsclient.Config{
		Endpoint:         cfg.WebSocket.URL,
		HandshakeTimeout: cfg.WebSocket.HandshakeTimeout,
		PingInterval:     cfg.WebSocket.PingInterval,
		WriteTimeout:     cfg.WebSocket.WriteTimeout,
		Metrics:          metricsCollector,
		Logger:           logger,
	})
	if err != nil {
		logger.Fatal("failed to create websocket client", zap.Error(err))
	}

	feed := greeter.NewGreeter(&greeter.Config{
		Greeting:  cfg.WebSocket.Greeting,
		Publisher: publisher,
		Store:     store,
		Logger:    logger,
	})

	// Initialize ops servers
	var httpServer *http.Server
	if cfg.Ops.HTTPPort > 0 {
		ln, err := net.Listen("tcp", cfg.GetHTTPAddr())
		if err != nil {
			logger.Fatal("failed to listen for HTTP", zap.String("addr", cfg.GetHTTPAddr()), zap.Error(err))
		}

		httpServer = http.NewServer(&http.Config{
			Sessions: store,
			State:    feed,
			Logger:   logger,
		})

		go func() {
			if err := httpServer.Serve(ln); err != nil {
				logger.Fatal("HTTP server failed", zap.Error(err))
			}
		}()
	}

	var grpcServer *grpc.Server
	if cfg.Ops.GRPCPort > 0 {
		ln, err := net.Listen("tcp", cfg.GetGRPCAddr())
		if err != nil {
			logger.Fatal("failed to listen for gRPC", zap.String("addr", cfg.GetGRPCAddr()), zap.Error(err))
		}

		grpcServer = grpc.NewServer(ln, &grpc.Config{
			State:  feed,
			Logger: logger,
		})

		go func() {
			if err := grpcServer.Start(); err != nil {
				logger.Fatal("gRPC server failed", zap.Error(err))
			}
		}()
	}

	// Run the session
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)

		record, err := feed.Run(ctx, client)
		fields := []zap.Field{
			zap.String("session_id", record.ID),
			zap.Int64("frames_received", record.FramesReceived),
			zap.Bool("greeting_sent", record.GreetingSent),
		}
		if err != nil {
			logger.Warn("session ended with transport error", append(fields, zap.Error(err))...)
			return
		}
		logger.Info("session ended", fields...)
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case <-runDone:
		if !cfg.WebSocket.ExitOnClose {
			logger.Info("session is closed, waiting for shutdown signal")
			<-ctx.Done()
			logger.Info("received shutdown signal")
		}
	}
	stop()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	select {
	case <-runDone:
	case <-shutdownCtx.Done():
		logger.Error("session did not close before shutdown timeout")
	}

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	if grpcServer != nil {
		if err := grpcServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("gRPC server shutdown error", zap.Error(err))
		}
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("frame publisher close error", zap.Error(err))
		}
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("u64feed shut down complete")
}

// initLogger builds a logger writing errors to stderr and everything else to stdout
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	errLevel := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.ErrorLevel && l >= zapLevel
	})
	outLevel := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l < zapcore.ErrorLevel && l >= zapLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), outLevel),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), errLevel),
	)

	return zap.New(core, zap.AddCaller())
}
