package admin

import (
	"net/http"

	"marketplace-app/internal/api/respond"
	"marketplace-app/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	store ledger.Store
	log   *logrus.Entry
}

func NewHandler(store ledger.Store, log *logrus.Entry) *Handler {
	return &Handler{store: store, log: log}
}

func (h *Handler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the admin dashboard",
	})
}

// LedgerStats reports order, earning and payment totals.
func (h *Handler) LedgerStats(c *gin.Context) {
	var stats ledger.Stats
	err := h.store.InTx(c.Request.Context(), func(tx ledger.Tx) error {
		var err error
		stats, err = tx.Stats()
		return err
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
