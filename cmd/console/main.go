package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sharemeal/console/internal/application/application"
	"github.com/sharemeal/console/internal/application/domain"
	"github.com/sharemeal/console/internal/application/infrastructure/audit"
	"github.com/sharemeal/console/internal/application/infrastructure/platform"
	httpserver "github.com/sharemeal/console/internal/application/interfaces/http"
	"github.com/sharemeal/console/internal/session"
	"github.com/sharemeal/console/pkg/cache"
	"github.com/sharemeal/console/pkg/config"
	"github.com/sharemeal/console/pkg/logger"
	"github.com/sharemeal/console/pkg/metrics"
	"github.com/sharemeal/console/pkg/middleware"
	"github.com/sharemeal/console/pkg/mq"
	"github.com/sharemeal/console/pkg/ratelimit"
)

var configPath = flag.String("config", "configs/console/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. 初始化配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}

	ctx := context.Background()
	logger.Info(ctx, "starting console service", "service", cfg.ServiceName, "environment", cfg.Environment)

	// 3. 初始化指标
	m := metrics.New(cfg.ServiceName)
	if cfg.Metrics.Enabled {
		m.Serve(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// 4. 初始化 Redis。会话快照与国家目录缓存都依赖它，
	// 不可用时降级到进程内存储继续服务。
	var redisCache *cache.RedisCache
	redisCache, err = cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Warn(ctx, "Redis unavailable, falling back to in-memory session store", "error", err)
		redisCache = nil
	}

	var store session.Store
	if redisCache != nil {
		store = session.NewRedisStore(redisCache, 24*time.Hour)
	} else {
		store = session.NewMemoryStore()
	}

	// 5. 初始化审计事件发布者
	var publisher domain.EventPublisher = &audit.LogPublisher{}
	var producer *mq.KafkaProducer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = mq.NewProducer(mq.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			logger.Warn(ctx, "Kafka unavailable, audit events will be logged only", "error", err)
		} else {
			publisher = audit.NewKafkaPublisher(producer, cfg.Kafka.AuditTopic)
		}
	}

	// 6. 初始化上游平台客户端
	gateway := platform.NewClient(platform.Config{
		BaseURL:         cfg.Platform.BaseURL,
		Timeout:         time.Duration(cfg.Platform.Timeout) * time.Second,
		Cache:           redisCache,
		CountryCacheTTL: time.Duration(cfg.Platform.CountryCacheTTL) * time.Second,
		Metrics:         m,
	})

	// 7. 初始化应用服务
	svc := application.NewService(gateway, publisher, store, m)

	// 8. 初始化接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinCORSMiddleware(),
		middleware.GinMetricsMiddleware(m),
	)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	var submitLimit gin.HandlerFunc
	if redisCache != nil && cfg.Auth.SubmitRatePerMinute > 0 {
		limiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())
		submitLimit = middleware.GinRateLimitMiddleware(limiter, "submit", ratelimit.PerMinute(cfg.Auth.SubmitRatePerMinute))
	}

	handler := httpserver.NewWorkspaceHandler(svc)
	handler.RegisterRoutes(router, middleware.GinAuthMiddleware(cfg.Auth.JWTSecret), submitLimit)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	// 9. 启动 HTTP 服务
	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// 10. 等待退出信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down console service")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "HTTP server shutdown failed", "error", err)
	}
	if producer != nil {
		_ = producer.Close()
	}
	if redisCache != nil {
		_ = redisCache.Close()
	}
	logger.Info(ctx, "console service stopped")
}
