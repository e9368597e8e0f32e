package billing

import (
	"net/http"

	"marketplace-app/internal/api/respond"
	"marketplace-app/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListEarnings(c *gin.Context) {
	list, err := h.earnings.ListEarnings(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"earnings": list})
}

func (h *Handler) Balance(c *gin.Context) {
	b, err := h.earnings.Balance(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
