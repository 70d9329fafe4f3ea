package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	exchangeapp "github.com/marketplace/backend/internal/application/exchange"
	paymentapp "github.com/marketplace/backend/internal/application/payment"
	tradeapp "github.com/marketplace/backend/internal/application/trade"
	walletapp "github.com/marketplace/backend/internal/application/wallet"
	domainpayment "github.com/marketplace/backend/internal/domain/payment"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/event"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	gateway "github.com/marketplace/backend/internal/infrastructure/payment"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"github.com/marketplace/backend/internal/interfaces/http/router"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting marketplace backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	if cfg.Telemetry.Enabled {
		if err := db.DB.Use(otelgorm.NewPlugin()); err != nil {
			log.Warn("Failed to enable gorm tracing", zap.Error(err))
		}
	}

	idempotencyStore, err := cache.NewRedisIdempotencyStore(cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()
	log.Info("Redis connected")

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db)
	walletRepo := persistence.NewGormWalletRepository(db)
	txRepo := persistence.NewGormTransactionRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	exchangeRepo := persistence.NewGormExchangeRepository(db)
	productRepo := persistence.NewGormProductRepository(db)

	// Payment gateway adapters. Stripe and PayPal are optional and only
	// registered when credentials are configured; the mock gateway is
	// always available.
	gateways := []domainpayment.GatewayClient{
		gateway.NewMockGateway(cfg.Payment.MockAutoComplete),
	}
	if cfg.Payment.StripeAPIKey != "" {
		stripeAdapter, err := gateway.NewStripeAdapter(gateway.StripeConfig{
			APIKey:  cfg.Payment.StripeAPIKey,
			BaseURL: cfg.Payment.StripeBaseURL,
			Timeout: cfg.Payment.RequestTimeout,
		})
		if err != nil {
			log.Fatal("Failed to configure Stripe adapter", zap.Error(err))
		}
		gateways = append(gateways, stripeAdapter)
		log.Info("Stripe gateway registered")
	}
	if cfg.Payment.PayPalClientID != "" {
		paypalAdapter, err := gateway.NewPayPalAdapter(gateway.PayPalConfig{
			ClientID: cfg.Payment.PayPalClientID,
			Secret:   cfg.Payment.PayPalSecret,
			BaseURL:  cfg.Payment.PayPalBaseURL,
			Timeout:  cfg.Payment.RequestTimeout,
		})
		if err != nil {
			log.Fatal("Failed to configure PayPal adapter", zap.Error(err))
		}
		gateways = append(gateways, paypalAdapter)
		log.Info("PayPal gateway registered")
	}

	// Domain event bus with an audit trail subscriber
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditHandler(log))

	// Application services
	orderService := tradeapp.NewOrderService(orderRepo, productRepo)
	orderService.SetEventPublisher(eventBus)
	deliveryService := tradeapp.NewDeliveryService(orderRepo)
	deliveryService.SetEventPublisher(eventBus)
	walletService := walletapp.NewWalletService(walletRepo, txRepo, db)
	walletService.SetEventPublisher(eventBus)
	paymentService := paymentapp.NewPaymentService(paymentRepo, walletRepo, txRepo, idempotencyStore, db, gateways...)
	exchangeService := exchangeapp.NewExchangeService(exchangeRepo, productRepo)

	// HTTP handlers
	orderHandler := handler.NewOrderHandler(orderService)
	deliveryHandler := handler.NewDeliveryHandler(deliveryService)
	walletHandler := handler.NewWalletHandler(walletService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	exchangeHandler := handler.NewExchangeHandler(exchangeService)
	systemHandler := handler.NewSystemHandler(db, cfg.App.Name, cfg.App.Env)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	if cfg.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		MaxAge:       12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	systemHandler.RegisterRoutes(engine)

	r := router.New(engine, "v1")
	r.Register(orderHandler, deliveryHandler, walletHandler, paymentHandler, exchangeHandler)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}
