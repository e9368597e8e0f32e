package paymentwebhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"marketplace-app/internal/apperr"
	"marketplace-app/internal/settlement"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 65536

type Settler interface {
	Handle(ctx context.Context, header string, body []byte) (settlement.Result, error)
}

type Handler struct {
	settler         Settler
	signatureHeader string
	timeout         time.Duration
	log             *logrus.Entry
}

func NewHandler(settler Settler, signatureHeader string, timeout time.Duration, log *logrus.Entry) *Handler {
	return &Handler{settler: settler, signatureHeader: signatureHeader, timeout: timeout, log: log}
}

// Receive answers 200 for applied, duplicate and ignored deliveries, 400 for
// anything the provider should not retry and 500 for transient failures.
func (h *Handler) Receive(c *gin.Context) {
	payload, err := readBody(c, maxBodyBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.settler.Handle(ctx, c.GetHeader(h.signatureHeader), payload)
	if err != nil {
		kind, _ := apperr.KindOf(err)
		switch kind {
		case apperr.KindSignature:
			h.log.WithError(err).Warn("payment webhook signature verification failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		case apperr.KindValidation:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Settlement failed, retry later"})
		}
		return
	}

	status := "received"
	if res.Outcome == settlement.OutcomeIgnored || res.Outcome == settlement.OutcomeDuplicate {
		status = string(res.Outcome)
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func readBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
