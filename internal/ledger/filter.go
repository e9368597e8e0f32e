package ledger

import (
	"time"

	"marketplace-app/internal/domain/auctions"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AuctionSort string

const (
	SortEndingSoon AuctionSort = "ending_soon"
	SortNewest     AuctionSort = "newest"
	SortHighestBid AuctionSort = "highest_bid"
)

const maxAuctionPage = 100

// AuctionFilter is the typed query behind GET /auctions. Zero fields do not
// constrain the result.
type AuctionFilter struct {
	Statuses     []auctions.Status
	SellerID     *uint
	ArtworkID    string
	MinBid       *decimal.Decimal
	MaxBid       *decimal.Decimal
	EndingBefore *time.Time
	Sort         AuctionSort
	Limit        int
	Offset       int
}

func (f AuctionFilter) limit() int {
	if f.Limit <= 0 || f.Limit > maxAuctionPage {
		return maxAuctionPage
	}
	return f.Limit
}

// Scopes compiles the filter into GORM scopes. Values are always bound as
// parameters.
func (f AuctionFilter) Scopes() []func(*gorm.DB) *gorm.DB {
	var scopes []func(*gorm.DB) *gorm.DB
	if len(f.Statuses) > 0 {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("status IN ?", f.Statuses) })
	}
	if f.SellerID != nil {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("seller_id = ?", *f.SellerID) })
	}
	if f.ArtworkID != "" {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("artwork_id = ?", f.ArtworkID) })
	}
	if f.MinBid != nil {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("current_bid >= ?", *f.MinBid) })
	}
	if f.MaxBid != nil {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("current_bid <= ?", *f.MaxBid) })
	}
	if f.EndingBefore != nil {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB { return db.Where("end_time <= ?", *f.EndingBefore) })
	}
	scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
		switch f.Sort {
		case SortNewest:
			db = db.Order("created_at DESC")
		case SortHighestBid:
			db = db.Order("current_bid DESC")
		default:
			db = db.Order("end_time ASC")
		}
		return db.Order("id ASC").Limit(f.limit()).Offset(f.Offset)
	})
	return scopes
}

// Match is the in-memory equivalent of the WHERE part of Scopes.
func (f AuctionFilter) Match(a auctions.Auction) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if a.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.SellerID != nil && a.SellerID != *f.SellerID {
		return false
	}
	if f.ArtworkID != "" && a.ArtworkID != f.ArtworkID {
		return false
	}
	if f.MinBid != nil && a.CurrentBid.LessThan(*f.MinBid) {
		return false
	}
	if f.MaxBid != nil && a.CurrentBid.GreaterThan(*f.MaxBid) {
		return false
	}
	if f.EndingBefore != nil && a.EndTime.After(*f.EndingBefore) {
		return false
	}
	return true
}

// less orders two auctions the way Scopes does.
func (f AuctionFilter) less(a, b auctions.Auction) bool {
	switch f.Sort {
	case SortNewest:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	case SortHighestBid:
		if c := a.CurrentBid.Cmp(b.CurrentBid); c != 0 {
			return c > 0
		}
	default:
		if !a.EndTime.Equal(b.EndTime) {
			return a.EndTime.Before(b.EndTime)
		}
	}
	return a.ID < b.ID
}
