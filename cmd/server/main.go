package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/ALVINfrs/caffeine/internal/config"
	"github.com/ALVINfrs/caffeine/internal/database"
	"github.com/ALVINfrs/caffeine/internal/handler"
	"github.com/ALVINfrs/caffeine/internal/middleware"
	"github.com/ALVINfrs/caffeine/internal/payment"
	"github.com/ALVINfrs/caffeine/internal/queue"
	"github.com/ALVINfrs/caffeine/internal/repository"
	"github.com/ALVINfrs/caffeine/internal/router"
	"github.com/ALVINfrs/caffeine/internal/service"
	"github.com/ALVINfrs/caffeine/internal/session"
)

func newLogger(cfg config.Config) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if cfg.IsProd() {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	return log
}

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()
	log := newLogger(cfg)
	defer log.Sync()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatal("schema migration failed", zap.Error(err))
		}
	}

	// Redis backs the cache, the rate limiter and optionally sessions.
	// Without it those features degrade to pass-through.
	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		log.Warn("redis unavailable, cache and rate limiting disabled", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	sessCfg := config.LoadSessionConfig(cfg.IsProd())
	store, err := session.NewStore(sessCfg, rdb, db)
	if err != nil {
		log.Fatal("session store", zap.String("store", sessCfg.Store), zap.Error(err))
	}

	mt := config.LoadMidtransConfig()
	if mt.ServerKey == "" {
		log.Warn("MIDTRANS_SERVER_KEY not set, webhook signatures are not verified")
	}
	gateway := payment.NewBreaker(payment.NewMidtrans(mt), mt.BreakerMaxFailures,
		time.Duration(mt.BreakerResetSec)*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pub service.Publisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		pub = service.NewAMQPPublisher(cfg.RabbitMQURL, log)
		go func() {
			if err := queue.StartEventConsumer(ctx, cfg.RabbitMQURL, cfg.EventsLogPath, log); err != nil {
				log.Error("event consumer stopped", zap.Error(err))
			}
		}()
	}

	reservationRepo := repository.NewReservationRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	productRepo := repository.NewProductRepo(db)
	userRepo := repository.NewUserRepo(db)

	reservations := service.NewReservationService(reservationRepo, cfg.Location, pub, log)
	vouchers := service.NewVoucherService(repository.NewVoucherRepo(db), log)
	orders := service.NewOrderService(orderRepo, productRepo, vouchers, gateway, pub, log)
	payments := service.NewPaymentService(orderRepo, gateway, mt.ServerKey, pub, log)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))
	e.Use(middleware.Identity(store, sessCfg, log))
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Metrics())

	guards := router.Guards{
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
	}
	router.RegisterRoutes(e, &handler.HealthHandler{DB: db})
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, sessCfg, userRepo, store, log), guards)
	router.RegisterReservations(e, handler.NewReservationHandler(reservations, log), guards)
	router.RegisterProducts(e, &handler.ProductHandler{Products: productRepo, Log: log}, guards)
	router.RegisterVouchers(e, handler.NewVoucherHandler(vouchers, log), guards)
	router.RegisterOrders(e, handler.NewOrderHandler(orders, payments, log), guards)
	router.RegisterAdmin(e, &handler.AdminHandler{
		Stats:        repository.NewStatsRepo(db),
		Users:        userRepo,
		Products:     productRepo,
		Orders:       orders,
		Reservations: reservations,
		Vouchers:     vouchers,
		Log:          log,
	}, cfg.JWTSecret)

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
