package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKindAndMessage(t *testing.T) {
	err := fmt.Errorf("place bid: %w", &Error{Kind: KindValidation, Message: "bid too low"})

	assert.ErrorIs(t, err, ErrBidTooLow)
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrAuctionEnded)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		Validation("x"):          http.StatusBadRequest,
		Signature("x"):           http.StatusBadRequest,
		Authorization("x"):       http.StatusForbidden,
		NotFound("x"):            http.StatusNotFound,
		ErrAuctionEnded:          http.StatusConflict,
		ErrDuplicateEvent:        http.StatusOK,
		fmt.Errorf("db is down"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}
