package auctions

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"marketplace-app/internal/api/respond"
	"marketplace-app/internal/app/http/middleware"
	"marketplace-app/internal/auction"
	"marketplace-app/internal/domain/auctions"
	"marketplace-app/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	bids *auction.BidService
	log  *logrus.Entry
}

func NewHandler(bids *auction.BidService, log *logrus.Entry) *Handler {
	return &Handler{bids: bids, log: log}
}

type createAuctionRequest struct {
	ArtworkID    string           `json:"artwork_id" binding:"required"`
	StartingBid  decimal.Decimal  `json:"starting_bid"`
	ReservePrice *decimal.Decimal `json:"reserve_price"`
	StartTime    time.Time        `json:"start_time"`
	EndTime      time.Time        `json:"end_time"`
}

func (h *Handler) CreateAuction(c *gin.Context) {
	var req createAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid auction payload")
		return
	}
	a, err := h.bids.CreateAuction(c.Request.Context(), middleware.UserID(c), auction.NewAuction{
		ArtworkID:    req.ArtworkID,
		StartingBid:  req.StartingBid,
		ReservePrice: req.ReservePrice,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
	})
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAuctions(c *gin.Context) {
	f, err := parseFilter(c)
	if err != nil {
		respond.BadRequest(c, err.Error())
		return
	}
	list, err := h.bids.ListAuctions(c.Request.Context(), f)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auctions": list})
}

type filterError string

func (e filterError) Error() string { return string(e) }

func parseFilter(c *gin.Context) (ledger.AuctionFilter, error) {
	var f ledger.AuctionFilter
	if s := c.Query("status"); s != "" {
		for _, v := range strings.Split(s, ",") {
			st := auctions.Status(strings.TrimSpace(v))
			switch st {
			case auctions.StatusUpcoming, auctions.StatusActive, auctions.StatusEnded:
				f.Statuses = append(f.Statuses, st)
			default:
				return f, filterError("unknown status " + v)
			}
		}
	}
	if s := c.Query("seller_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return f, filterError("invalid seller_id")
		}
		seller := uint(id)
		f.SellerID = &seller
	}
	f.ArtworkID = c.Query("artwork_id")
	for key, dst := range map[string]**decimal.Decimal{"min_bid": &f.MinBid, "max_bid": &f.MaxBid} {
		if s := c.Query(key); s != "" {
			d, err := decimal.NewFromString(s)
			if err != nil {
				return f, filterError("invalid " + key)
			}
			*dst = &d
		}
	}
	if s := c.Query("ending_before"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return f, filterError("ending_before must be RFC3339")
		}
		f.EndingBefore = &t
	}
	switch sort := ledger.AuctionSort(c.Query("sort")); sort {
	case "", ledger.SortEndingSoon, ledger.SortNewest, ledger.SortHighestBid:
		f.Sort = sort
	default:
		return f, filterError("unknown sort " + string(sort))
	}
	f.Limit, _ = strconv.Atoi(c.Query("limit"))
	f.Offset, _ = strconv.Atoi(c.Query("offset"))
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f, nil
}

func (h *Handler) ListBids(c *gin.Context) {
	bids, err := h.bids.ListBids(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

type placeBidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) PlaceBid(c *gin.Context) {
	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, "Invalid bid payload")
		return
	}
	res, err := h.bids.PlaceBid(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Amount)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
