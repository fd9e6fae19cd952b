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

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"playlog/internal/core/auth"
	"playlog/internal/core/cache"
	"playlog/internal/core/config"
	"playlog/internal/core/database"
	"playlog/internal/core/logger"
	"playlog/internal/core/server"
	"playlog/internal/core/storage"
	"playlog/internal/repo"
	"playlog/internal/service"
	"playlog/internal/transport/http/handler"
	"playlog/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}

	log, cleanup := logger.Build(logger.Options{
		Level:       cfg.Log.Level,
		JSON:        cfg.Log.JSON,
		AddCaller:   true,
		Development: !cfg.Log.JSON,
		Rotate: logger.FileRotate{
			Enable:     cfg.Log.Rotate.Enable,
			Filename:   cfg.Log.Rotate.Filename,
			MaxSizeMB:  cfg.Log.Rotate.MaxSizeMB,
			MaxBackups: cfg.Log.Rotate.MaxBackups,
			MaxAgeDays: cfg.Log.Rotate.MaxAgeDays,
			Compress:   cfg.Log.Rotate.Compress,
		},
	})
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))
	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// JWT
	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	// 游戏缓存（可选）
	var gameCache *cache.Cache
	if cfg.Redis.Addr != "" {
		gameCache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pctx, pcancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := gameCache.Ping(pctx); err != nil {
			log.Warn("redis unavailable, game cache disabled", zap.Error(err))
			_ = gameCache.Close()
			gameCache = nil
		} else {
			defer gameCache.Close()
		}
		pcancel()
	}

	// 上传签名（未配置 bucket 时 /sign-s3 一律 422）
	var signer handler.UploadSigner
	if cfg.S3.Bucket != "" {
		p, err := storage.NewPresigner(context.Background(), cfg.S3.Bucket, cfg.S3.Region,
			time.Duration(cfg.S3.PresignTTLSec)*time.Second)
		if err != nil {
			log.Warn("s3 presigner disabled", zap.Error(err))
		} else {
			signer = p
		}
	}

	// 依赖
	userRepo := repo.NewUserRepo(db)
	userSvc := service.NewUserService(userRepo, jwter, log)
	catalog := service.NewCatalogService(repo.NewGameRepo(db), gameCache,
		time.Duration(cfg.Redis.GameCacheTTL)*time.Second, log)
	librarySvc := service.NewLibraryService(userRepo, catalog, log)
	postSvc := service.NewPostService(repo.NewPostRepo(db), log)

	reg := &router.Registry{}
	reg.Register(
		handler.NewAuthHandler(userSvc),
		handler.NewUserHandler(userSvc),
		handler.NewLibraryHandler(librarySvc),
		handler.NewPostHandler(postSvc),
		handler.NewUploadHandler(signer, log),
	)
	r := router.NewAPIEngine(log, cfg.App.HTTP, jwter, userSvc, reg)

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("playlog api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api", baseURL+"/api"),
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("playlog api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("playlog api stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	}, l)
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
