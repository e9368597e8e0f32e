// Package ledger is the single relational source of truth for auctions,
// commissions, orders, payments and earnings. Every mutation happens inside
// Store.InTx; Lock* methods take row locks that hold until the unit of work
// commits or rolls back.
package ledger

import (
	"context"
	"errors"
	"time"

	"marketplace-app/internal/domain/access"
	"marketplace-app/internal/domain/auctions"
	"marketplace-app/internal/domain/billing"
	"marketplace-app/internal/domain/cart"
	"marketplace-app/internal/domain/commissions"
	"marketplace-app/internal/domain/notifications"
	"marketplace-app/internal/domain/orders"
	"marketplace-app/internal/domain/works"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("ledger: record not found")

type Store interface {
	// InTx runs fn in one transaction. A non-nil error from fn rolls back
	// every write fn made.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	CreateArtwork(a *works.Artwork) error
	GetArtwork(id string) (works.Artwork, error)
	LockArtworks(ids []string) ([]works.Artwork, error)
	SetArtworkStatus(ids []string, status works.Status) error

	CreateAuction(a *auctions.Auction) error
	GetAuction(id string) (auctions.Auction, error)
	LockAuction(id string) (auctions.Auction, error)
	ListAuctions(f AuctionFilter) ([]auctions.Auction, error)
	// ActivateDueAuctions flips upcoming auctions whose start time has passed.
	ActivateDueAuctions(now time.Time) (int64, error)
	// DueAuctionIDs returns active auctions whose end time has passed.
	DueAuctionIDs(now time.Time, limit int) ([]string, error)
	// HighestBid returns nil when the auction has no bids.
	HighestBid(auctionID string) (*auctions.Bid, error)
	InsertBid(b *auctions.Bid) error
	ListBids(auctionID string) ([]auctions.Bid, error)
	// RaiseBid applies amount only while the auction is open and amount
	// beats current_bid. It reports whether a row was updated.
	RaiseBid(auctionID string, bidderID uint, amount decimal.Decimal, now time.Time) (bool, error)
	// EndAuction ends an active, expired auction. It reports whether a row
	// was updated.
	EndAuction(id string, winnerID *uint, now time.Time) (bool, error)

	CreateOrder(o *orders.Order) error
	ListOrders(buyerID uint) ([]orders.Order, error)

	AddCartItem(item *cart.CartItem) error
	ListCartItems(userID uint) ([]cart.CartItem, error)
	DeleteCartItems(userID uint, artworkIDs []string) error

	// GrantDigitalAccess is a no-op when the user already holds access.
	GrantDigitalAccess(g *access.DigitalAssetAccess) error
	HasDigitalAccess(userID uint, artworkID string) (bool, error)

	CreateCommission(c *commissions.Commission) error
	GetCommission(id string) (commissions.Commission, error)
	LockCommission(id string) (commissions.Commission, error)
	TransitionCommission(id string, from []commissions.CommissionStatus, to commissions.CommissionStatus, acceptedProposalID *string) (bool, error)

	CreateProposal(p *commissions.Proposal) error
	GetProposal(id string) (commissions.Proposal, error)
	ListProposals(commissionID string) ([]commissions.Proposal, error)
	HasPendingProposal(commissionID string, artistID uint) (bool, error)
	SetProposalStatus(id string, from, to commissions.ProposalStatus) (bool, error)
	RejectOtherProposals(commissionID, keepID string) (int64, error)

	CreateProject(p *commissions.Project) error
	GetProject(id string) (commissions.Project, error)
	LockProject(id string) (commissions.Project, error)
	TransitionProject(id string, from []commissions.ProjectStatus, to commissions.ProjectStatus) (bool, error)

	CreateProjectUpdate(u *commissions.ProjectUpdate) error
	LockProjectUpdate(id string) (commissions.ProjectUpdate, error)
	ListProjectUpdates(projectID string) ([]commissions.ProjectUpdate, error)
	SetUpdateStatus(id string, from []commissions.UpdateStatus, to commissions.UpdateStatus, feedback string) (bool, error)
	ReplaceUpdateContent(id, description string, files []string) error

	CreatePendingPayment(p *billing.PendingPayment) error
	// LockPendingPayment returns nil when no pending payment holds linkID.
	LockPendingPayment(linkID string) (*billing.PendingPayment, error)
	DeletePendingPayment(id string) error

	CreateCommissionPayment(p *billing.CommissionPayment) error
	// LockCommissionPayment returns nil when no payment holds linkID.
	LockCommissionPayment(linkID string) (*billing.CommissionPayment, error)
	FindPendingCommissionPayment(projectID string) (*billing.CommissionPayment, error)
	MarkCommissionPaymentPaid(id string, now time.Time) (bool, error)

	InsertEarning(e *billing.ArtistEarning) error
	LockMaturedEarnings(cutoff time.Time, limit int) ([]billing.ArtistEarning, error)
	MarkEarningsCleared(ids []string, now time.Time) (int64, error)
	ListEarnings(artistID uint) ([]billing.ArtistEarning, error)

	CreateNotification(n *notifications.Notification) error
	ListNotifications(userID uint, unreadOnly bool, limit int) ([]notifications.Notification, error)
	MarkNotificationRead(id string, userID uint) (bool, error)

	Stats() (Stats, error)
}

// Stats are ledger-wide totals for the admin dashboard.
type Stats struct {
	OrdersByStatus   map[orders.Status]int64                    `json:"orders_by_status"`
	EarningsByStatus map[billing.EarningStatus]decimal.Decimal `json:"earnings_by_status"`
	PlatformFees     decimal.Decimal                            `json:"platform_fees"`
	PendingPayments  int64                                      `json:"pending_payments"`
	ActiveAuctions   int64                                      `json:"active_auctions"`
}

type duplicateKeyError string

func (e duplicateKeyError) Error() string {
	return "ledger: duplicate key " + string(e)
}

func errDuplicateKey(key string) error { return duplicateKeyError(key) }
