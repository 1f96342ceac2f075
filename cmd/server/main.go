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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/config"
	"github.com/mamadbah2/stockroom/internal/repository"
	"github.com/mamadbah2/stockroom/internal/repository/firestoredb"
	"github.com/mamadbah2/stockroom/internal/repository/memory"
	"github.com/mamadbah2/stockroom/internal/repository/mongodb"
	"github.com/mamadbah2/stockroom/internal/repository/redisstore"
	"github.com/mamadbah2/stockroom/internal/repository/sheets"
	"github.com/mamadbah2/stockroom/internal/scheduler"
	"github.com/mamadbah2/stockroom/internal/server/handlers"
	"github.com/mamadbah2/stockroom/internal/server/router"
	"github.com/mamadbah2/stockroom/internal/service/identity"
	inventorysvc "github.com/mamadbah2/stockroom/internal/service/inventory"
	reportingsvc "github.com/mamadbah2/stockroom/internal/service/reporting"
	"github.com/mamadbah2/stockroom/pkg/clients/identitytoolkit"
	"github.com/mamadbah2/stockroom/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)
	gin.SetMode(gin.ReleaseMode)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	stores, err := openStores(startCtx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init document store", zap.Error(err))
	}
	defer func() {
		if err := stores.inventory.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close document store", zap.Error(err))
		}
	}()

	revocations, closeRevocations := openRevocationStore(startCtx, cfg.Redis, baseLogger)
	defer closeRevocations()

	provider := newIdentityProvider(cfg, stores.users, revocations, baseLogger.Named("svc.identity"))

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(startCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Warn("google sheets not configured, inventory export disabled")
	}

	inventorySvc := inventorysvc.NewService(stores.inventory, cfg.Store.Timeout, baseLogger.Named("svc.inventory"))
	reportingSvc := reportingsvc.NewService(stores.inventory, sheetsRepo, cfg.Export.SheetRange, baseLogger.Named("svc.reporting"))

	authHandler := handlers.NewAuthHandler(provider, baseLogger.Named("handlers.auth"))
	inventoryHandler := handlers.NewInventoryHandler(inventorySvc, reportingSvc, baseLogger.Named("handlers.inventory"))
	engine := router.New(authHandler, inventoryHandler, baseLogger.Named("router"))

	if sheetsRepo != nil {
		sched := scheduler.NewScheduler(cfg.Export, reportingSvc, baseLogger.Named("scheduler"))
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("store", cfg.Store.Backend),
			zap.String("auth", cfg.Auth.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

type storeSet struct {
	inventory repository.InventoryStore
	users     repository.UserStore
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (storeSet, error) {
	switch cfg.Store.Backend {
	case config.BackendMongoDB:
		repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB, cfg.Store.Collection, log.Named("repo.mongodb"))
		if err != nil {
			return storeSet{}, err
		}
		return storeSet{inventory: repo, users: repo}, nil
	case config.BackendFirestore:
		repo, err := firestoredb.NewRepository(ctx, cfg.Firestore.ProjectID, cfg.Store.Collection, log.Named("repo.firestore"))
		if err != nil {
			return storeSet{}, err
		}
		// accounts live in Firebase Authentication with this backend
		return storeSet{inventory: repo}, nil
	case config.BackendMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return storeSet{inventory: memory.NewInventoryStore(), users: memory.NewUserStore()}, nil
	default:
		return storeSet{}, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}

func openRevocationStore(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (repository.RevocationStore, func()) {
	if cfg.Addr == "" {
		log.Warn("REDIS_ADDR not set, session revocations are kept in memory")
		return memory.NewRevocationStore(), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.String("addr", cfg.Addr), zap.Error(err))
	}

	return redisstore.NewRevocationStore(client), func() {
		if err := client.Close(); err != nil {
			log.Error("failed to close redis connection", zap.Error(err))
		}
	}
}

func newIdentityProvider(cfg *config.Config, users repository.UserStore, revocations repository.RevocationStore, log *zap.Logger) identity.Provider {
	if cfg.Auth.Provider == config.AuthFirebase {
		client := identitytoolkit.NewClient(identitytoolkit.Config{APIKey: cfg.Auth.FirebaseAPIKey})
		return identity.NewFirebaseProvider(client, revocations, cfg.Auth.FirebaseProjectID, log)
	}
	return identity.NewLocalProvider(users, revocations, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, log)
}
