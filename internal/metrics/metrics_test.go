package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesMarketplaceCollectors(t *testing.T) {
	AuctionClosed("sold")
	BidPlaced("accepted")
	WebhookEvent("duplicate")
	EarningsCleared(3)
	ObserveJob("auction-close", 20*time.Millisecond)
	HTTPRequest(http.MethodGet, "/health", http.StatusOK)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, name := range []string{
		`marketplace_auctions_closed_total{outcome="sold"}`,
		`marketplace_bids_total{result="accepted"}`,
		`marketplace_webhook_events_total{outcome="duplicate"}`,
		`marketplace_earnings_cleared_total`,
		`marketplace_job_duration_seconds_count{job="auction-close"}`,
		`marketplace_http_requests_total{method="GET",path="/health",status="200"}`,
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}
