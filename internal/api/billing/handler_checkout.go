package billing

import (
	"errors"
	"io"
	"net/http"

	"marketplace-app/internal/api/respond"
	"marketplace-app/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

type cartRequest struct {
	ArtworkID string `json:"artwork_id" binding:"required"`
}

func (h *Handler) AddToCart(c *gin.Context) {
	var body cartRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respond.BadRequest(c, "Missing or invalid artwork_id")
		return
	}
	item, err := h.checkout.AddToCart(c.Request.Context(), middleware.UserID(c), body.ArtworkID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) GetCart(c *gin.Context) {
	items, err := h.checkout.Cart(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type checkoutRequest struct {
	ArtworkIDs []string `json:"artwork_ids"`
}

// Checkout opens a payment link for the listed artworks, or the whole cart
// when none are listed.
func (h *Handler) Checkout(c *gin.Context) {
	var body checkoutRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		respond.BadRequest(c, "Invalid checkout payload")
		return
	}
	pp, err := h.checkout.StartPurchase(c.Request.Context(), middleware.UserID(c), body.ArtworkIDs)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"url":     pp.CheckoutURL,
		"link_id": pp.LinkID,
		"amount":  pp.Amount,
	})
}

func (h *Handler) ListOrders(c *gin.Context) {
	list, err := h.checkout.ListOrders(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}
