package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-app/config"
	"marketplace-app/database"
	adminapi "marketplace-app/internal/api/admin"
	auctionsapi "marketplace-app/internal/api/auctions"
	"marketplace-app/internal/api/billing"
	commissionsapi "marketplace-app/internal/api/commissions"
	notificationsapi "marketplace-app/internal/api/notifications"
	"marketplace-app/internal/api/paymentwebhook"
	worksapi "marketplace-app/internal/api/works"
	routes "marketplace-app/internal/app/http"
	"marketplace-app/internal/app/http/middleware"
	"marketplace-app/internal/auction"
	"marketplace-app/internal/checkout"
	"marketplace-app/internal/commission"
	"marketplace-app/internal/earnings"
	"marketplace-app/internal/events"
	stripelinks "marketplace-app/internal/infra/stripe"
	"marketplace-app/internal/ledger"
	"marketplace-app/internal/logging"
	"marketplace-app/internal/notify"
	"marketplace-app/internal/scheduler"
	"marketplace-app/internal/settlement"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").WithError(err).Fatal("configuration")
	}
	root := logging.New(cfg.LogLevel, cfg.LogFormat)
	log := logging.Component(root, "main")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBURL, root.IsLevelEnabled(logrus.DebugLevel))
	if err != nil {
		log.WithError(err).Fatal("database")
	}
	store := ledger.NewGormStore(db)
	log.Info("connected and migrated")

	// live notifications
	hub := notify.NewHub(logging.Component(root, "hub"))
	var live notify.Deliverer = hub
	if cfg.RedisAddr != "" {
		fanout, err := notify.NewRedisFanout(cfg.RedisAddr, cfg.RedisPassword, hub, logging.Component(root, "redis"))
		if err != nil {
			log.WithError(err).Fatal("redis")
		}
		defer fanout.Close()
		go func() {
			if err := fanout.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("redis fan-out stopped")
			}
		}()
		live = fanout
	}
	notifier := notify.NewService(store, live, logging.Component(root, "notify"), nil)

	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		nats, err := events.NewNATSPublisher(ctx, cfg.NATSURL)
		if err != nil {
			log.WithError(err).Fatal("nats")
		}
		defer nats.Close()
		publisher = nats
	}

	links := stripelinks.NewCheckoutLinks(cfg.StripeSecretKey)
	successURL := cfg.AppURL + "/payments/success"
	failureURL := cfg.AppURL + "/payments/cancelled"

	bids := auction.NewBidService(store, notifier, publisher, logging.Component(root, "bids"), nil)
	closer := auction.NewProcessor(store, notifier, publisher, logging.Component(root, "auction-close"),
		auction.WithBatchSize(cfg.JobBatchSize))
	commissions := commission.NewService(store, notifier, links, commission.Config{
		Currency:   cfg.Currency,
		SuccessURL: successURL,
		FailureURL: failureURL,
	}, logging.Component(root, "commission"), nil)
	shop := checkout.NewService(store, links, checkout.Config{
		Currency:   cfg.Currency,
		SuccessURL: successURL,
		FailureURL: failureURL,
	}, logging.Component(root, "checkout"), nil)
	clearance := earnings.NewClearance(store, notifier, publisher, cfg.ClearanceWindow, cfg.JobBatchSize,
		logging.Component(root, "earnings-clearance"), nil)
	settler := settlement.NewHandler(store, notifier, publisher, settlement.Config{
		Secret:              cfg.WebhookSecret,
		AllowTestSignatures: cfg.AllowTestSignatures,
		Tolerance:           cfg.SignatureTolerance,
		SucceededEvents:     cfg.PaymentSucceededEvents,
		FeeRate:             cfg.PlatformFeeRate,
	}, logging.Component(root, "settlement"), nil)

	jobs := scheduler.New(logging.Component(root, "scheduler"), 0)
	if err := jobs.Register(cfg.AuctionCloseSchedule, closer); err != nil {
		log.WithError(err).Fatal("scheduler")
	}
	if err := jobs.Register(cfg.EarningsClearanceSchedule, clearance); err != nil {
		log.WithError(err).Fatal("scheduler")
	}
	jobs.Start()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logging.Component(root, "http")), middleware.RequestMetrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	apiLog := logging.Component(root, "api")
	routes.RegisterRoutes(r, routes.Handlers{
		Admin:         adminapi.NewHandler(store, apiLog),
		Auctions:      auctionsapi.NewHandler(bids, apiLog),
		Billing:       billing.NewHandler(shop, clearance, apiLog),
		Commissions:   commissionsapi.NewHandler(commissions, apiLog),
		Notifications: notificationsapi.NewHandler(notifier, hub, cfg.CORSOrigin, apiLog),
		Webhook:       paymentwebhook.NewHandler(settler, cfg.SignatureHeader, cfg.WebhookTimeout, logging.Component(root, "webhook")),
		Works:         worksapi.NewHandler(shop, apiLog),
	}, routes.Options{
		JWTSecret:  cfg.JWTSecret,
		BidLimiter: middleware.NewRateLimiter(cfg.BidRatePerSecond, cfg.BidRateBurst),
		HealthCheck: func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Ping()
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	jobs.Stop(shutdownCtx)
	log.Info("stopped")
}
