package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"

	restctx "github.com/dtroode/videotube-server/internal/api/rest/context"
	"github.com/dtroode/videotube-server/internal/api/rest/handler"
	"github.com/dtroode/videotube-server/internal/api/rest/router"
	httpServer "github.com/dtroode/videotube-server/internal/api/rest/server"
	"github.com/dtroode/videotube-server/internal/config"
	"github.com/dtroode/videotube-server/internal/lock"
	"github.com/dtroode/videotube-server/internal/logger"
	"github.com/dtroode/videotube-server/internal/model"
	"github.com/dtroode/videotube-server/internal/password"
	"github.com/dtroode/videotube-server/internal/repository/postgres"
	"github.com/dtroode/videotube-server/internal/server"
	"github.com/dtroode/videotube-server/internal/service"
	storage "github.com/dtroode/videotube-server/internal/storage/minio"
	"github.com/dtroode/videotube-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	accountRepo := postgres.NewAccountRepository(db)
	hasher := password.NewBcrypt(cfg.Bcrypt.Cost)
	tokenManager := token.NewJWT(token.Params{
		AccessSecret:  cfg.JWT.AccessSecret,
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshSecret: cfg.JWT.RefreshSecret,
		RefreshTTL:    cfg.JWT.RefreshTTL,
	})

	locker, closeLocker := newLocker(ctx, cfg.Redis, logger)
	defer closeLocker()

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket, cfg.Storage.PublicURL)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	tokenService := service.NewTokenService(tokenManager, accountRepo, locker, logger)
	authService := service.NewAuth(accountRepo, hasher, storageClient, tokenService, logger)
	ctxMgr := restctx.NewManager()

	r := router.New(authService, tokenService, ctxMgr, router.Options{
		Cookies: handler.CookieConfig{
			Secure:     cfg.Cookie.Secure,
			Domain:     cfg.Cookie.Domain,
			AccessTTL:  cfg.JWT.AccessTTL,
			RefreshTTL: cfg.JWT.RefreshTTL,
		},
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	}, logger)
	srv := httpServer.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	sl := server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address(), "https", cfg.HTTP.EnableHTTPS)
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// newLocker serializes token rotation through Redis when it is configured,
// so several replicas agree on a single winner.
func newLocker(ctx context.Context, cfg config.Redis, logger *logger.Logger) (model.Locker, func()) {
	if cfg.Addr == "" {
		logger.Info("Redis address not set, using in-process rotation lock")
		return lock.NewLocal(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", "error", err, "addr", cfg.Addr)
	}

	return lock.NewRedis(client, cfg.LockTTL, logger), func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
