package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"crowdfund/internal/config"
	"crowdfund/internal/database"
	"crowdfund/internal/handler"
	"crowdfund/internal/jobs"
	"crowdfund/internal/ledger"
	"crowdfund/internal/logger"
	"crowdfund/internal/metrics"
	"crowdfund/internal/middleware"
	"crowdfund/internal/notify"
	"crowdfund/internal/service"
	"crowdfund/internal/storage"
)

func main() {
	log := logger.NewDefault("api")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// Initialize database
	db, err := database.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer db.Close()

	ledgerClient, conn, err := ledger.Dial(cfg.Ledger.Target, cfg.Ledger.Timeout, logger.NewDefault("ledger"))
	if err != nil {
		log.WithError(err).Fatal("failed to create ledger client")
	}
	defer conn.Close()

	docs, err := storage.NewDisk(cfg.Documents.Dir, cfg.Documents.BaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize document storage")
	}

	notifier := newNotifier(cfg.Telegram, log)
	svc := newServices(db, ledgerClient, notifier, docs)

	scheduler := jobs.NewScheduler(logger.NewDefault("jobs"))
	if err := scheduler.AddPairCodePurge(cfg.PairCode.PurgeSchedule, svc.Wallets, cfg.PairCode.TTL); err != nil {
		log.WithError(err).Fatal("failed to schedule jobs")
	}
	limiter := middleware.NewIPRateLimiter(cfg.RateLimit)
	err = scheduler.Add("rate_limit_cleanup", "@every 10m", func(context.Context) error {
		limiter.Cleanup(time.Hour)
		return nil
	})
	if err != nil {
		log.WithError(err).Fatal("failed to schedule jobs")
	}
	scheduler.Start()

	// Initialize router
	router := setupRouter(cfg, svc, limiter)

	// Configure server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("port", cfg.Server.Port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
	scheduler.Stop(shutdownCtx)
}

func newNotifier(cfg config.TelegramConfig, log *logger.Logger) notify.Notifier {
	if cfg.BotToken == "" {
		return notify.NewLog(logger.NewDefault("notify"))
	}
	tg, err := notify.NewTelegram(cfg.BotToken, cfg.ChatID, logger.NewDefault("notify"))
	if err != nil {
		log.WithError(err).Warn("telegram unavailable, notifications go to the log")
		return notify.NewLog(logger.NewDefault("notify"))
	}
	return tg
}

func newServices(db *database.Database, l service.Ledger, n notify.Notifier, docs storage.DocumentStorage) handler.Services {
	log := logger.NewDefault("service")
	txInfo := service.NewTxInfoService(db)
	poster := service.NewPoster(db, l, log)
	return handler.Services{
		Wallets:     service.NewWalletService(db, l, poster, txInfo, log),
		Projects:    service.NewProjectService(db, log),
		Investments: service.NewInvestmentService(db, l, poster, txInfo, log),
		Withdraws:   service.NewWithdrawService(db, l, poster, txInfo, n, docs, log),
		Deposits:    service.NewDepositService(db, l, poster, txInfo, n, docs, log),
		Portfolio:   service.NewPortfolioService(db, l),
		TxInfo:      txInfo,
	}
}

func setupRouter(cfg *config.Config, svc handler.Services, limiter *middleware.IPRateLimiter) *gin.Engine {
	router := gin.New()

	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger.NewDefault("http")),
		middleware.Cors(),
		metrics.Middleware(),
		limiter.RateLimit(),
	)

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.Static(cfg.Documents.BaseURL, cfg.Documents.Dir)

	h := handler.NewHandler(svc, logger.NewDefault("handler"))
	h.Register(router, handler.RouterConfig{
		JWTSecret:   []byte(cfg.Auth.JWTSecret),
		AdminAPIKey: cfg.Auth.AdminAPIKey,
	})
	return router
}
