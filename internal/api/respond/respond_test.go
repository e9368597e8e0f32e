package respond

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketplace-app/internal/apperr"
	"marketplace-app/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{apperr.ErrBidTooLow, http.StatusBadRequest, `{"error":"bid too low"}`},
		{fmt.Errorf("wrapped: %w", apperr.NotFound("auction not found")), http.StatusNotFound, `{"error":"auction not found"}`},
		{apperr.Conflict("busy"), http.StatusConflict, `{"error":"busy"}`},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Error(c, logging.Discard(), tc.err)
		assert.Equal(t, tc.status, w.Code)
		assert.JSONEq(t, tc.body, w.Body.String())
	}
}
