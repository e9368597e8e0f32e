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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the Postgres-backed ledger.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (t *gormTx) forUpdate() *gorm.DB {
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// artworks

func (t *gormTx) CreateArtwork(a *works.Artwork) error {
	ensureID(&a.ID)
	return t.db.Create(a).Error
}

func (t *gormTx) GetArtwork(id string) (works.Artwork, error) {
	var a works.Artwork
	err := t.db.First(&a, "id = ?", id).Error
	return a, notFound(err)
}

func (t *gormTx) LockArtworks(ids []string) ([]works.Artwork, error) {
	var out []works.Artwork
	err := t.forUpdate().Where("id IN ?", ids).Order("id").Find(&out).Error
	return out, err
}

func (t *gormTx) SetArtworkStatus(ids []string, status works.Status) error {
	if len(ids) == 0 {
		return nil
	}
	return t.db.Model(&works.Artwork{}).Where("id IN ?", ids).Update("status", status).Error
}

// auctions

func (t *gormTx) CreateAuction(a *auctions.Auction) error {
	ensureID(&a.ID)
	return t.db.Create(a).Error
}

func (t *gormTx) GetAuction(id string) (auctions.Auction, error) {
	var a auctions.Auction
	err := t.db.First(&a, "id = ?", id).Error
	return a, notFound(err)
}

func (t *gormTx) LockAuction(id string) (auctions.Auction, error) {
	var a auctions.Auction
	err := t.forUpdate().First(&a, "id = ?", id).Error
	return a, notFound(err)
}

func (t *gormTx) ListAuctions(f AuctionFilter) ([]auctions.Auction, error) {
	var out []auctions.Auction
	err := t.db.Scopes(f.Scopes()...).Find(&out).Error
	return out, err
}

func (t *gormTx) ActivateDueAuctions(now time.Time) (int64, error) {
	res := t.db.Model(&auctions.Auction{}).
		Where("status = ? AND start_time <= ?", auctions.StatusUpcoming, now).
		Update("status", auctions.StatusActive)
	return res.RowsAffected, res.Error
}

func (t *gormTx) DueAuctionIDs(now time.Time, limit int) ([]string, error) {
	var ids []string
	err := t.db.Model(&auctions.Auction{}).
		Where("status = ? AND end_time <= ?", auctions.StatusActive, now).
		Order("end_time ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (t *gormTx) HighestBid(auctionID string) (*auctions.Bid, error) {
	var bids []auctions.Bid
	err := t.db.Where("auction_id = ?", auctionID).
		Order("amount DESC").
		Order("created_at ASC").
		Limit(1).
		Find(&bids).Error
	if err != nil || len(bids) == 0 {
		return nil, err
	}
	return &bids[0], nil
}

func (t *gormTx) InsertBid(b *auctions.Bid) error {
	ensureID(&b.ID)
	return t.db.Create(b).Error
}

func (t *gormTx) ListBids(auctionID string) ([]auctions.Bid, error) {
	var out []auctions.Bid
	err := t.db.Where("auction_id = ?", auctionID).
		Order("amount DESC").
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (t *gormTx) RaiseBid(auctionID string, bidderID uint, amount decimal.Decimal, now time.Time) (bool, error) {
	res := t.db.Model(&auctions.Auction{}).
		Where("id = ? AND status <> ? AND start_time <= ? AND end_time > ? AND current_bid < ?",
			auctionID, auctions.StatusEnded, now, now, amount).
		Updates(map[string]interface{}{
			"current_bid": amount,
			"total_bids":  gorm.Expr("total_bids + 1"),
			"winner_id":   bidderID,
			"status":      auctions.StatusActive,
		})
	return res.RowsAffected > 0, res.Error
}

func (t *gormTx) EndAuction(id string, winnerID *uint, now time.Time) (bool, error) {
	res := t.db.Model(&auctions.Auction{}).
		Where("id = ? AND status = ? AND end_time <= ?", id, auctions.StatusActive, now).
		Updates(map[string]interface{}{
			"status":    auctions.StatusEnded,
			"winner_id": winnerID,
		})
	return res.RowsAffected > 0, res.Error
}

// orders, cart, access

func (t *gormTx) CreateOrder(o *orders.Order) error {
	ensureID(&o.ID)
	for i := range o.Items {
		ensureID(&o.Items[i].ID)
		o.Items[i].OrderID = o.ID
	}
	return t.db.Create(o).Error
}

func (t *gormTx) ListOrders(buyerID uint) ([]orders.Order, error) {
	var out []orders.Order
	err := t.db.Preload("Items").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (t *gormTx) AddCartItem(item *cart.CartItem) error {
	ensureID(&item.ID)
	return t.db.Clauses(clause.OnConflict{DoNothing: true}).Create(item).Error
}

func (t *gormTx) ListCartItems(userID uint) ([]cart.CartItem, error) {
	var out []cart.CartItem
	err := t.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (t *gormTx) DeleteCartItems(userID uint, artworkIDs []string) error {
	if len(artworkIDs) == 0 {
		return nil
	}
	return t.db.Where("user_id = ? AND artwork_id IN ?", userID, artworkIDs).
		Delete(&cart.CartItem{}).Error
}

func (t *gormTx) GrantDigitalAccess(g *access.DigitalAssetAccess) error {
	ensureID(&g.ID)
	return t.db.Clauses(clause.OnConflict{DoNothing: true}).Create(g).Error
}

func (t *gormTx) HasDigitalAccess(userID uint, artworkID string) (bool, error) {
	var n int64
	err := t.db.Model(&access.DigitalAssetAccess{}).
		Where("user_id = ? AND artwork_id = ?", userID, artworkID).
		Count(&n).Error
	return n > 0, err
}

// commissions

func (t *gormTx) CreateCommission(c *commissions.Commission) error {
	ensureID(&c.ID)
	return t.db.Create(c).Error
}

func (t *gormTx) GetCommission(id string) (commissions.Commission, error) {
	var c commissions.Commission
	err := t.db.First(&c, "id = ?", id).Error
	return c, notFound(err)
}

func (t *gormTx) LockCommission(id string) (commissions.Commission, error) {
	var c commissions.Commission
	err := t.forUpdate().First(&c, "id = ?", id).Error
	return c, notFound(err)
}

func (t *gormTx) TransitionCommission(id string, from []commissions.CommissionStatus, to commissions.CommissionStatus, acceptedProposalID *string) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if acceptedProposalID != nil {
		updates["accepted_proposal_id"] = *acceptedProposalID
	}
	res := t.db.Model(&commissions.Commission{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (t *gormTx) CreateProposal(p *commissions.Proposal) error {
	ensureID(&p.ID)
	return t.db.Create(p).Error
}

func (t *gormTx) GetProposal(id string) (commissions.Proposal, error) {
	var p commissions.Proposal
	err := t.db.First(&p, "id = ?", id).Error
	return p, notFound(err)
}

func (t *gormTx) ListProposals(commissionID string) ([]commissions.Proposal, error) {
	var out []commissions.Proposal
	err := t.db.Where("commission_id = ?", commissionID).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (t *gormTx) HasPendingProposal(commissionID string, artistID uint) (bool, error) {
	var n int64
	err := t.db.Model(&commissions.Proposal{}).
		Where("commission_id = ? AND artist_id = ? AND status = ?", commissionID, artistID, commissions.ProposalPending).
		Count(&n).Error
	return n > 0, err
}

func (t *gormTx) SetProposalStatus(id string, from, to commissions.ProposalStatus) (bool, error) {
	res := t.db.Model(&commissions.Proposal{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

func (t *gormTx) RejectOtherProposals(commissionID, keepID string) (int64, error) {
	res := t.db.Model(&commissions.Proposal{}).
		Where("commission_id = ? AND id <> ? AND status <> ?", commissionID, keepID, commissions.ProposalRejected).
		Update("status", commissions.ProposalRejected)
	return res.RowsAffected, res.Error
}

// projects

func (t *gormTx) CreateProject(p *commissions.Project) error {
	ensureID(&p.ID)
	return t.db.Create(p).Error
}

func (t *gormTx) GetProject(id string) (commissions.Project, error) {
	var p commissions.Project
	err := t.db.First(&p, "id = ?", id).Error
	return p, notFound(err)
}

func (t *gormTx) LockProject(id string) (commissions.Project, error) {
	var p commissions.Project
	err := t.forUpdate().First(&p, "id = ?", id).Error
	return p, notFound(err)
}

func (t *gormTx) TransitionProject(id string, from []commissions.ProjectStatus, to commissions.ProjectStatus) (bool, error) {
	res := t.db.Model(&commissions.Project{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

func (t *gormTx) CreateProjectUpdate(u *commissions.ProjectUpdate) error {
	ensureID(&u.ID)
	for i := range u.Files {
		u.Files[i].ProjectUpdateID = u.ID
		u.Files[i].Position = i
	}
	return t.db.Create(u).Error
}

func (t *gormTx) LockProjectUpdate(id string) (commissions.ProjectUpdate, error) {
	var u commissions.ProjectUpdate
	if err := t.forUpdate().First(&u, "id = ?", id).Error; err != nil {
		return u, notFound(err)
	}
	err := t.db.Where("project_update_id = ?", id).Order("position").Find(&u.Files).Error
	return u, err
}

func (t *gormTx) ListProjectUpdates(projectID string) ([]commissions.ProjectUpdate, error) {
	var out []commissions.ProjectUpdate
	err := t.db.Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (t *gormTx) SetUpdateStatus(id string, from []commissions.UpdateStatus, to commissions.UpdateStatus, feedback string) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if feedback != "" {
		updates["feedback"] = feedback
	}
	res := t.db.Model(&commissions.ProjectUpdate{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (t *gormTx) ReplaceUpdateContent(id, description string, files []string) error {
	if description != "" {
		if err := t.db.Model(&commissions.ProjectUpdate{}).Where("id = ?", id).
			Update("description", description).Error; err != nil {
			return err
		}
	}
	if files == nil {
		return nil
	}
	if err := t.db.Where("project_update_id = ?", id).Delete(&commissions.ProjectUpdateFile{}).Error; err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	rows := make([]commissions.ProjectUpdateFile, len(files))
	for i, path := range files {
		rows[i] = commissions.ProjectUpdateFile{ProjectUpdateID: id, Path: path, Position: i}
	}
	return t.db.Create(&rows).Error
}

// payments

func (t *gormTx) CreatePendingPayment(p *billing.PendingPayment) error {
	ensureID(&p.ID)
	for i := range p.Items {
		ensureID(&p.Items[i].ID)
		p.Items[i].PendingPaymentID = p.ID
	}
	return t.db.Create(p).Error
}

func (t *gormTx) LockPendingPayment(linkID string) (*billing.PendingPayment, error) {
	var p billing.PendingPayment
	err := t.forUpdate().First(&p, "link_id = ?", linkID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := t.db.Where("pending_payment_id = ?", p.ID).Order("id").Find(&p.Items).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *gormTx) DeletePendingPayment(id string) error {
	if err := t.db.Where("pending_payment_id = ?", id).Delete(&billing.PendingPaymentItem{}).Error; err != nil {
		return err
	}
	return t.db.Where("id = ?", id).Delete(&billing.PendingPayment{}).Error
}

func (t *gormTx) CreateCommissionPayment(p *billing.CommissionPayment) error {
	ensureID(&p.ID)
	return t.db.Create(p).Error
}

func (t *gormTx) LockCommissionPayment(linkID string) (*billing.CommissionPayment, error) {
	var p billing.CommissionPayment
	err := t.forUpdate().First(&p, "link_id = ?", linkID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *gormTx) FindPendingCommissionPayment(projectID string) (*billing.CommissionPayment, error) {
	var out []billing.CommissionPayment
	err := t.db.Where("project_id = ? AND status = ?", projectID, billing.CommissionPaymentPending).
		Order("created_at DESC").
		Limit(1).
		Find(&out).Error
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return &out[0], nil
}

func (t *gormTx) MarkCommissionPaymentPaid(id string, now time.Time) (bool, error) {
	res := t.db.Model(&billing.CommissionPayment{}).
		Where("id = ? AND status = ?", id, billing.CommissionPaymentPending).
		Updates(map[string]interface{}{
			"status":  billing.CommissionPaymentPaid,
			"paid_at": now,
		})
	return res.RowsAffected > 0, res.Error
}

// earnings

func (t *gormTx) InsertEarning(e *billing.ArtistEarning) error {
	ensureID(&e.ID)
	return t.db.Create(e).Error
}

func (t *gormTx) LockMaturedEarnings(cutoff time.Time, limit int) ([]billing.ArtistEarning, error) {
	var out []billing.ArtistEarning
	err := t.forUpdate().
		Where("status = ? AND created_at <= ?", billing.EarningPendingClearance, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (t *gormTx) MarkEarningsCleared(ids []string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := t.db.Model(&billing.ArtistEarning{}).
		Where("id IN ? AND status = ?", ids, billing.EarningPendingClearance).
		Updates(map[string]interface{}{
			"status":     billing.EarningCleared,
			"cleared_at": now,
		})
	return res.RowsAffected, res.Error
}

func (t *gormTx) ListEarnings(artistID uint) ([]billing.ArtistEarning, error) {
	var out []billing.ArtistEarning
	err := t.db.Where("artist_id = ?", artistID).Order("created_at DESC").Find(&out).Error
	return out, err
}

// notifications

func (t *gormTx) CreateNotification(n *notifications.Notification) error {
	ensureID(&n.ID)
	return t.db.Create(n).Error
}

func (t *gormTx) ListNotifications(userID uint, unreadOnly bool, limit int) ([]notifications.Notification, error) {
	q := t.db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []notifications.Notification
	err := q.Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (t *gormTx) MarkNotificationRead(id string, userID uint) (bool, error) {
	res := t.db.Model(&notifications.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	return res.RowsAffected > 0, res.Error
}

// stats

func (t *gormTx) Stats() (Stats, error) {
	st := Stats{
		OrdersByStatus:   map[orders.Status]int64{},
		EarningsByStatus: map[billing.EarningStatus]decimal.Decimal{},
		PlatformFees:     decimal.Zero,
	}

	var orderRows []struct {
		Status orders.Status
		Count  int64
	}
	if err := t.db.Model(&orders.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&orderRows).Error; err != nil {
		return st, err
	}
	for _, r := range orderRows {
		st.OrdersByStatus[r.Status] = r.Count
	}

	var earningRows []struct {
		Status billing.EarningStatus
		Total  decimal.Decimal
		Fees   decimal.Decimal
	}
	if err := t.db.Model(&billing.ArtistEarning{}).
		Select("status, COALESCE(SUM(net_amount), 0) AS total, COALESCE(SUM(platform_fee), 0) AS fees").
		Group("status").
		Scan(&earningRows).Error; err != nil {
		return st, err
	}
	for _, r := range earningRows {
		st.EarningsByStatus[r.Status] = r.Total
		st.PlatformFees = st.PlatformFees.Add(r.Fees)
	}

	if err := t.db.Model(&billing.PendingPayment{}).Count(&st.PendingPayments).Error; err != nil {
		return st, err
	}
	err := t.db.Model(&auctions.Auction{}).Where("status = ?", auctions.StatusActive).Count(&st.ActiveAuctions).Error
	return st, err
}
