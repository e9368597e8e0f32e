package routes

import (
	"net/http"

	adminapi "marketplace-app/internal/api/admin"
	auctionsapi "marketplace-app/internal/api/auctions"
	"marketplace-app/internal/api/billing"
	commissionsapi "marketplace-app/internal/api/commissions"
	notificationsapi "marketplace-app/internal/api/notifications"
	"marketplace-app/internal/api/paymentwebhook"
	worksapi "marketplace-app/internal/api/works"
	"marketplace-app/internal/app/http/middleware"
	"marketplace-app/internal/metrics"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Admin         *adminapi.Handler
	Auctions      *auctionsapi.Handler
	Billing       *billing.Handler
	Commissions   *commissionsapi.Handler
	Notifications *notificationsapi.Handler
	Webhook       *paymentwebhook.Handler
	Works         *worksapi.Handler
}

type Options struct {
	JWTSecret   string
	BidLimiter  *middleware.RateLimiter
	HealthCheck func() error
}

func RegisterRoutes(r *gin.Engine, h Handlers, opts Options) {
	r.POST("/webhooks/payments", h.Webhook.Receive)
	r.GET("/health", func(c *gin.Context) {
		if opts.HealthCheck != nil {
			if err := opts.HealthCheck(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(opts.JWTSecret))
	auth.GET("/ws", h.Notifications.Live)
	auth.GET("/notifications", h.Notifications.List)
	auth.POST("/notifications/:id/read", h.Notifications.MarkRead)

	auth.GET("/auctions", h.Auctions.ListAuctions)
	auth.GET("/auctions/:id/bids", h.Auctions.ListBids)
	bidding := auth.Group("/")
	if opts.BidLimiter != nil {
		bidding.Use(opts.BidLimiter.Middleware())
	}
	bidding.POST("/auctions/:id/bids", h.Auctions.PlaceBid)

	auth.GET("/cart", h.Billing.GetCart)
	auth.GET("/orders", h.Billing.ListOrders)
	auth.GET("/earnings", h.Billing.ListEarnings)
	auth.GET("/earnings/balance", h.Billing.Balance)

	auth.GET("/commissions/:id", h.Commissions.GetCommission)
	auth.GET("/commissions/:id/proposals", h.Commissions.ListProposals)
	auth.GET("/projects/:id", h.Commissions.GetProject)
	auth.GET("/projects/:id/updates", h.Commissions.ListUpdates)

	// Free-text writes
	clean := auth.Group("/")
	clean.Use(middleware.SanitizeAndCleanInputMiddleware())

	clean.POST("/artworks", h.Works.CreateArtwork)
	clean.POST("/auctions", h.Auctions.CreateAuction)
	clean.POST("/cart", h.Billing.AddToCart)
	clean.POST("/checkout", h.Billing.Checkout)

	clean.POST("/commissions", h.Commissions.CreateCommission)
	clean.POST("/commissions/:id/cancel", h.Commissions.CancelCommission)
	clean.POST("/commissions/:id/proposals", h.Commissions.SubmitProposal)
	clean.POST("/proposals/:id/accept", h.Commissions.AcceptProposal)
	clean.POST("/proposals/:id/reject", h.Commissions.RejectProposal)

	clean.POST("/projects/:id/start", h.Commissions.StartProject)
	clean.POST("/projects/:id/cancel", h.Commissions.CancelProject)
	clean.POST("/projects/:id/updates", h.Commissions.CreateUpdate)
	clean.POST("/updates/:id/submit", h.Commissions.SubmitUpdate)
	clean.POST("/updates/:id/review", h.Commissions.ReviewUpdate)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(opts.JWTSecret), middleware.RequireRole("admin"))
	admin.GET("/dashboard", h.Admin.Dashboard)
	admin.GET("/ledger", h.Admin.LedgerStats)
}
