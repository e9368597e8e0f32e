// Package respond writes handler errors as {"error": message} bodies with the
// status their apperr kind maps to.
package respond

import (
	"errors"
	"net/http"

	"marketplace-app/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Error writes err. Domain errors keep their message; anything else is
// logged and hidden behind a generic 500.
func Error(c *gin.Context, log *logrus.Entry, err error) {
	status := apperr.HTTPStatus(err)
	var domain *apperr.Error
	if status == http.StatusInternalServerError || !errors.As(err, &domain) {
		log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": domain.Message})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
