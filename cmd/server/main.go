package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/smartprint/backend/internal/application/wallet"
	"github.com/smartprint/backend/internal/domain/shared/valueobject"
	"github.com/smartprint/backend/internal/infrastructure/auth"
	"github.com/smartprint/backend/internal/infrastructure/config"
	"github.com/smartprint/backend/internal/infrastructure/logger"
	"github.com/smartprint/backend/internal/infrastructure/payment"
	"github.com/smartprint/backend/internal/infrastructure/persistence"
	"github.com/smartprint/backend/internal/interfaces/http/handler"
	"github.com/smartprint/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting SmartPrint backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	initialBalance, err := valueobject.NewMoneyINRFromString(cfg.Pricing.InitialBalance)
	if err != nil {
		log.Fatal("Invalid initial balance setting", zap.Error(err))
	}

	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	accountRepo := persistence.NewGormAccountRepository(db.DB)
	transactionRepo := persistence.NewGormBalanceTransactionRepository(db.DB)

	gateway, err := payment.NewRazorpayAdapter(&payment.RazorpayConfig{
		KeyID:     cfg.Razorpay.KeyID,
		KeySecret: cfg.Razorpay.KeySecret,
		BaseURL:   cfg.Razorpay.BaseURL,
		Currency:  valueobject.Currency(cfg.Pricing.Currency),
		Timeout:   cfg.Razorpay.Timeout,
	})
	if err != nil {
		log.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}

	ledgerService := wallet.NewLedgerService(accountRepo, transactionRepo, initialBalance, log)
	topUpService := wallet.NewTopUpService(gateway, ledgerService, transactionRepo, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	engine, err := router.NewEngine(cfg, log)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	r := router.NewRouter(engine)
	r.Register(handler.NewPaymentHandler(ledgerService, topUpService, log)).
		Register(handler.NewWalletHandler(ledgerService, log))
	r.Setup(jwtService)

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

	// Graceful shutdown
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
