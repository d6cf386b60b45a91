package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/handler"
	"storefront/internal/infra/catalog"
	"storefront/internal/infra/db"
	"storefront/internal/infra/events"
	"storefront/internal/infra/kv"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/logger"
	"storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/telemetry"
	"storefront/internal/usecase"
	auth "storefront/internal/usecase/auth_usecase"

	"github.com/cenkalti/backoff/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// 管理者トークンの有効期限
	adminTokenTTL = time.Hour
	// DB停止中に起動した時、マイグレーション等を再試行する間隔（上限）
	bootstrapMaxRetryInterval = 2 * time.Minute
)

type stores struct {
	products repository.ProductRepository
	users    repository.UserRepository
	audit    repository.AuditLogRepository
	db       *gorm.DB
}

func main() {
	//.envは無くてもよい
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var traceOut io.Writer
	if cfg.TracesStdout {
		traceOut = os.Stdout
	}
	tp, err := telemetry.NewProvider("storefront", traceOut)
	if err != nil {
		lg.Error("telemetry init failed", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	st := openStores(cfg, lg)
	slots := openSlots(ctx, cfg, lg)
	notifier := openNotifier(cfg, lg)
	defer func() { _ = notifier.Close() }()

	//マイグレーション・初期管理者（DBが止まっていたら後で再試行）
	clock := auth.RealClock{}
	retry := backoff.NewExponentialBackOff()
	retry.MaxInterval = bootstrapMaxRetryInterval
	boot := usecase.NewBootstrap(time.Now, retry, lg, bootstrapSteps(cfg, st, clock, lg)...)
	boot.Ensure(ctx)

	//Usecase
	productUC := usecase.NewProductUsecase(st.products, st.audit, lg)
	auditUC := usecase.NewAuditUsecase(st.audit, lg)
	cartUC := usecase.NewCartUsecase(slots, st.products, lg)
	statusUC := usecase.NewStatusUsecase(st.products, lg)
	importUC := usecase.NewImportUsecase(
		cfg,
		catalog.NewClient(cfg.CatalogURL, cfg.CatalogTimeout),
		st.products,
		st.audit,
		notifier,
		lg,
	)
	loginUC := auth.NewLoginUsecase(st.users, auth.NewBcryptPasswordVerifier(), auth.NewJWTIssuer(cfg.JWTSecret, adminTokenTTL), clock)
	logoutUC := auth.NewLogoutUsecase(st.users)

	//Handler
	hs := server.Handlers{
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC, auditUC),
		Cart:         handler.NewCartHandler(cartUC, cfg.CartTTL, cfg.GoEnv == "prod"),
		Import:       handler.NewImportHandler(importUC),
		Status:       handler.NewStatusHandler(statusUC),
		Auth:         handler.NewAuthHandler(loginUC, logoutUC, lg),
	}

	srv := server.New(cfg, lg, st.users, hs, server.WithReadiness(boot))
	if err := srv.Start(ctx); err != nil {
		lg.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
	lg.Info("server stopped")
}

// 接続情報が無ければ未設定用のリポジトリで起動する
func openStores(cfg config.Config, lg *logger.Logger) stores {
	if !cfg.StoreConfigured() {
		lg.Warn("store is not configured, running without database")
		return stores{
			products: infraRepo.NewUnconfiguredProductRepository(),
			users:    infraRepo.UnconfiguredUserRepository{},
			audit:    infraRepo.UnconfiguredAuditLogRepository{},
		}
	}

	gdb, err := db.Connect(cfg)
	if err != nil {
		lg.Error("db open failed", zap.Error(err))
		os.Exit(1)
	}

	return stores{
		products: infraRepo.NewProductGormRepository(gdb),
		users:    infraRepo.NewUserGormRepository(gdb),
		audit:    infraRepo.NewAuditLogGormRepository(gdb),
		db:       gdb,
	}
}

// DB未設定なら何もしない（どのステップも成功しないため）
func bootstrapSteps(cfg config.Config, st stores, clock auth.Clock, lg *logger.Logger) []usecase.BootstrapStep {
	if st.db == nil {
		return nil
	}

	steps := []usecase.BootstrapStep{{
		Name: "migrate",
		Run: func(ctx context.Context) error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := db.Ping(pingCtx, st.db); err != nil {
				return err
			}
			return st.db.WithContext(ctx).AutoMigrate(&model.Product{}, &model.User{}, &model.AuditLog{})
		},
	}}

	if cfg.AdminEmail != "" {
		ensureUC := auth.NewEnsureAdminUsecase(st.users, auth.NewBcryptPasswordHasher(12), clock)
		steps = append(steps, usecase.BootstrapStep{
			Name: "admin seed",
			Run: func(ctx context.Context) error {
				created, err := ensureUC.Execute(ctx, auth.EnsureAdminInput{Email: cfg.AdminEmail, Password: cfg.AdminPassword})
				if err != nil {
					return err
				}
				if created {
					lg.Info("admin user created", zap.String("email", cfg.AdminEmail))
				}
				return nil
			},
		})
	}
	return steps
}

// REDIS_URLが無い・繋がらない時はメモリ
func openSlots(ctx context.Context, cfg config.Config, lg *logger.Logger) repository.SlotStorage {
	if cfg.RedisURL == "" {
		return kv.NewMemorySlotStorage()
	}
	client, err := kv.Dial(ctx, cfg.RedisURL)
	if err != nil {
		lg.Warn("redis unavailable, carts are kept in memory", zap.Error(err))
		return kv.NewMemorySlotStorage()
	}
	return kv.NewRedisSlotStorage(client, "storefront", cfg.CartTTL)
}

type closingNotifier interface {
	usecase.ImportNotifier
	Close() error
}

func openNotifier(cfg config.Config, lg *logger.Logger) closingNotifier {
	if cfg.RabbitMQURI == "" {
		return events.NopPublisher{}
	}
	p, err := events.NewAMQPPublisher(cfg.RabbitMQURI, cfg.ImportEventsQueue)
	if err != nil {
		lg.Warn("rabbitmq unavailable, import events are not published", zap.Error(err))
		return events.NopPublisher{}
	}
	return p
}
