package ledger

import (
	"context"
	"sort"
	"sync"
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

// MemoryStore keeps the ledger in process. Transactions are serialised by a
// single mutex, so every Lock* call trivially holds its row for the whole
// unit of work. A failed unit of work restores the snapshot taken at start.
type MemoryStore struct {
	mu  sync.Mutex
	st  *memState
	now func() time.Time
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{st: &memState{}, now: now}
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&memTx{st: s.st, now: s.now}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

type memState struct {
	artworks      []works.Artwork
	auctions      []auctions.Auction
	bids          []auctions.Bid
	orders        []orders.Order
	cart          []cart.CartItem
	access        []access.DigitalAssetAccess
	commissions   []commissions.Commission
	proposals     []commissions.Proposal
	projects      []commissions.Project
	updates       []commissions.ProjectUpdate
	pending       []billing.PendingPayment
	commPayments  []billing.CommissionPayment
	earnings      []billing.ArtistEarning
	notifications []notifications.Notification
}

func (m *memState) clone() *memState {
	c := &memState{
		artworks:      append([]works.Artwork(nil), m.artworks...),
		auctions:      append([]auctions.Auction(nil), m.auctions...),
		bids:          append([]auctions.Bid(nil), m.bids...),
		cart:          append([]cart.CartItem(nil), m.cart...),
		access:        append([]access.DigitalAssetAccess(nil), m.access...),
		commissions:   append([]commissions.Commission(nil), m.commissions...),
		proposals:     append([]commissions.Proposal(nil), m.proposals...),
		projects:      append([]commissions.Project(nil), m.projects...),
		commPayments:  append([]billing.CommissionPayment(nil), m.commPayments...),
		earnings:      append([]billing.ArtistEarning(nil), m.earnings...),
		notifications: append([]notifications.Notification(nil), m.notifications...),
	}
	for _, o := range m.orders {
		c.orders = append(c.orders, copyOrder(o))
	}
	for _, u := range m.updates {
		c.updates = append(c.updates, copyUpdate(u))
	}
	for _, p := range m.pending {
		c.pending = append(c.pending, copyPending(p))
	}
	return c
}

func copyOrder(o orders.Order) orders.Order {
	o.Items = append([]orders.OrderItem(nil), o.Items...)
	return o
}

func copyUpdate(u commissions.ProjectUpdate) commissions.ProjectUpdate {
	u.Files = append([]commissions.ProjectUpdateFile(nil), u.Files...)
	return u
}

func copyPending(p billing.PendingPayment) billing.PendingPayment {
	p.Items = append([]billing.PendingPaymentItem(nil), p.Items...)
	return p
}

func find[T any](list []T, pred func(*T) bool) *T {
	for i := range list {
		if pred(&list[i]) {
			return &list[i]
		}
	}
	return nil
}

func in[T comparable](v T, set []T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

type memTx struct {
	st  *memState
	now func() time.Time
}

func (t *memTx) stamp(created *time.Time) {
	if created.IsZero() {
		*created = t.now()
	}
}

// artworks

func (t *memTx) CreateArtwork(a *works.Artwork) error {
	ensureID(&a.ID)
	t.stamp(&a.CreatedAt)
	a.UpdatedAt = a.CreatedAt
	t.st.artworks = append(t.st.artworks, *a)
	return nil
}

func (t *memTx) GetArtwork(id string) (works.Artwork, error) {
	a := find(t.st.artworks, func(a *works.Artwork) bool { return a.ID == id })
	if a == nil {
		return works.Artwork{}, ErrNotFound
	}
	return *a, nil
}

func (t *memTx) LockArtworks(ids []string) ([]works.Artwork, error) {
	var out []works.Artwork
	for _, a := range t.st.artworks {
		if in(a.ID, ids) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) SetArtworkStatus(ids []string, status works.Status) error {
	for i := range t.st.artworks {
		if in(t.st.artworks[i].ID, ids) {
			t.st.artworks[i].Status = status
			t.st.artworks[i].UpdatedAt = t.now()
		}
	}
	return nil
}

// auctions

func (t *memTx) CreateAuction(a *auctions.Auction) error {
	ensureID(&a.ID)
	t.stamp(&a.CreatedAt)
	a.UpdatedAt = a.CreatedAt
	t.st.auctions = append(t.st.auctions, *a)
	return nil
}

func (t *memTx) auction(id string) *auctions.Auction {
	return find(t.st.auctions, func(a *auctions.Auction) bool { return a.ID == id })
}

func (t *memTx) GetAuction(id string) (auctions.Auction, error) {
	a := t.auction(id)
	if a == nil {
		return auctions.Auction{}, ErrNotFound
	}
	return *a, nil
}

func (t *memTx) LockAuction(id string) (auctions.Auction, error) {
	return t.GetAuction(id)
}

func (t *memTx) ListAuctions(f AuctionFilter) ([]auctions.Auction, error) {
	var out []auctions.Auction
	for _, a := range t.st.auctions {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return f.less(out[i], out[j]) })
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if len(out) > f.limit() {
		out = out[:f.limit()]
	}
	return out, nil
}

func (t *memTx) ActivateDueAuctions(now time.Time) (int64, error) {
	var n int64
	for i := range t.st.auctions {
		a := &t.st.auctions[i]
		if a.Status == auctions.StatusUpcoming && !a.StartTime.After(now) {
			a.Status = auctions.StatusActive
			a.UpdatedAt = t.now()
			n++
		}
	}
	return n, nil
}

func (t *memTx) DueAuctionIDs(now time.Time, limit int) ([]string, error) {
	var due []auctions.Auction
	for _, a := range t.st.auctions {
		if a.Status == auctions.StatusActive && !a.EndTime.After(now) {
			due = append(due, a)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].EndTime.Before(due[j].EndTime) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	ids := make([]string, len(due))
	for i, a := range due {
		ids[i] = a.ID
	}
	return ids, nil
}

func (t *memTx) HighestBid(auctionID string) (*auctions.Bid, error) {
	var best *auctions.Bid
	for i := range t.st.bids {
		b := t.st.bids[i]
		if b.AuctionID != auctionID {
			continue
		}
		if best == nil || b.Outranks(*best) {
			best = &b
		}
	}
	return best, nil
}

func (t *memTx) InsertBid(b *auctions.Bid) error {
	ensureID(&b.ID)
	t.stamp(&b.CreatedAt)
	t.st.bids = append(t.st.bids, *b)
	return nil
}

func (t *memTx) ListBids(auctionID string) ([]auctions.Bid, error) {
	var out []auctions.Bid
	for _, b := range t.st.bids {
		if b.AuctionID == auctionID {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Outranks(out[j]) })
	return out, nil
}

func (t *memTx) RaiseBid(auctionID string, bidderID uint, amount decimal.Decimal, now time.Time) (bool, error) {
	a := t.auction(auctionID)
	if a == nil || a.Status == auctions.StatusEnded || a.StartTime.After(now) ||
		!a.EndTime.After(now) || !a.CurrentBid.LessThan(amount) {
		return false, nil
	}
	winner := bidderID
	a.CurrentBid = amount
	a.TotalBids++
	a.WinnerID = &winner
	a.Status = auctions.StatusActive
	a.UpdatedAt = t.now()
	return true, nil
}

func (t *memTx) EndAuction(id string, winnerID *uint, now time.Time) (bool, error) {
	a := t.auction(id)
	if a == nil || a.Status != auctions.StatusActive || a.EndTime.After(now) {
		return false, nil
	}
	a.Status = auctions.StatusEnded
	a.WinnerID = winnerID
	a.UpdatedAt = t.now()
	return true, nil
}

// orders, cart, access

func (t *memTx) CreateOrder(o *orders.Order) error {
	ensureID(&o.ID)
	t.stamp(&o.CreatedAt)
	o.UpdatedAt = o.CreatedAt
	for i := range o.Items {
		ensureID(&o.Items[i].ID)
		o.Items[i].OrderID = o.ID
	}
	t.st.orders = append(t.st.orders, copyOrder(*o))
	return nil
}

func (t *memTx) ListOrders(buyerID uint) ([]orders.Order, error) {
	var out []orders.Order
	for i := len(t.st.orders) - 1; i >= 0; i-- {
		if t.st.orders[i].BuyerID == buyerID {
			out = append(out, copyOrder(t.st.orders[i]))
		}
	}
	return out, nil
}

func (t *memTx) AddCartItem(item *cart.CartItem) error {
	if find(t.st.cart, func(c *cart.CartItem) bool {
		return c.UserID == item.UserID && c.ArtworkID == item.ArtworkID
	}) != nil {
		return nil
	}
	ensureID(&item.ID)
	t.stamp(&item.CreatedAt)
	t.st.cart = append(t.st.cart, *item)
	return nil
}

func (t *memTx) ListCartItems(userID uint) ([]cart.CartItem, error) {
	var out []cart.CartItem
	for _, c := range t.st.cart {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (t *memTx) DeleteCartItems(userID uint, artworkIDs []string) error {
	kept := t.st.cart[:0:0]
	for _, c := range t.st.cart {
		if c.UserID == userID && in(c.ArtworkID, artworkIDs) {
			continue
		}
		kept = append(kept, c)
	}
	t.st.cart = kept
	return nil
}

func (t *memTx) GrantDigitalAccess(g *access.DigitalAssetAccess) error {
	if find(t.st.access, func(a *access.DigitalAssetAccess) bool {
		return a.UserID == g.UserID && a.ArtworkID == g.ArtworkID
	}) != nil {
		return nil
	}
	ensureID(&g.ID)
	t.stamp(&g.CreatedAt)
	t.st.access = append(t.st.access, *g)
	return nil
}

func (t *memTx) HasDigitalAccess(userID uint, artworkID string) (bool, error) {
	return find(t.st.access, func(a *access.DigitalAssetAccess) bool {
		return a.UserID == userID && a.ArtworkID == artworkID
	}) != nil, nil
}

// commissions

func (t *memTx) commission(id string) *commissions.Commission {
	return find(t.st.commissions, func(c *commissions.Commission) bool { return c.ID == id })
}

func (t *memTx) CreateCommission(c *commissions.Commission) error {
	ensureID(&c.ID)
	t.stamp(&c.CreatedAt)
	c.UpdatedAt = c.CreatedAt
	t.st.commissions = append(t.st.commissions, *c)
	return nil
}

func (t *memTx) GetCommission(id string) (commissions.Commission, error) {
	c := t.commission(id)
	if c == nil {
		return commissions.Commission{}, ErrNotFound
	}
	return *c, nil
}

func (t *memTx) LockCommission(id string) (commissions.Commission, error) {
	return t.GetCommission(id)
}

func (t *memTx) TransitionCommission(id string, from []commissions.CommissionStatus, to commissions.CommissionStatus, acceptedProposalID *string) (bool, error) {
	c := t.commission(id)
	if c == nil || !in(c.Status, from) {
		return false, nil
	}
	c.Status = to
	if acceptedProposalID != nil {
		pid := *acceptedProposalID
		c.AcceptedProposalID = &pid
	}
	c.UpdatedAt = t.now()
	return true, nil
}

func (t *memTx) proposal(id string) *commissions.Proposal {
	return find(t.st.proposals, func(p *commissions.Proposal) bool { return p.ID == id })
}

func (t *memTx) CreateProposal(p *commissions.Proposal) error {
	ensureID(&p.ID)
	t.stamp(&p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	t.st.proposals = append(t.st.proposals, *p)
	return nil
}

func (t *memTx) GetProposal(id string) (commissions.Proposal, error) {
	p := t.proposal(id)
	if p == nil {
		return commissions.Proposal{}, ErrNotFound
	}
	return *p, nil
}

func (t *memTx) ListProposals(commissionID string) ([]commissions.Proposal, error) {
	var out []commissions.Proposal
	for _, p := range t.st.proposals {
		if p.CommissionID == commissionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *memTx) HasPendingProposal(commissionID string, artistID uint) (bool, error) {
	return find(t.st.proposals, func(p *commissions.Proposal) bool {
		return p.CommissionID == commissionID && p.ArtistID == artistID && p.Status == commissions.ProposalPending
	}) != nil, nil
}

func (t *memTx) SetProposalStatus(id string, from, to commissions.ProposalStatus) (bool, error) {
	p := t.proposal(id)
	if p == nil || p.Status != from {
		return false, nil
	}
	p.Status = to
	p.UpdatedAt = t.now()
	return true, nil
}

func (t *memTx) RejectOtherProposals(commissionID, keepID string) (int64, error) {
	var n int64
	for i := range t.st.proposals {
		p := &t.st.proposals[i]
		if p.CommissionID == commissionID && p.ID != keepID && p.Status != commissions.ProposalRejected {
			p.Status = commissions.ProposalRejected
			p.UpdatedAt = t.now()
			n++
		}
	}
	return n, nil
}

// projects

func (t *memTx) project(id string) *commissions.Project {
	return find(t.st.projects, func(p *commissions.Project) bool { return p.ID == id })
}

func (t *memTx) CreateProject(p *commissions.Project) error {
	if find(t.st.projects, func(x *commissions.Project) bool { return x.CommissionID == p.CommissionID }) != nil {
		return errDuplicateKey("projects.commission_id")
	}
	ensureID(&p.ID)
	t.stamp(&p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	t.st.projects = append(t.st.projects, *p)
	return nil
}

func (t *memTx) GetProject(id string) (commissions.Project, error) {
	p := t.project(id)
	if p == nil {
		return commissions.Project{}, ErrNotFound
	}
	return *p, nil
}

func (t *memTx) LockProject(id string) (commissions.Project, error) {
	return t.GetProject(id)
}

func (t *memTx) TransitionProject(id string, from []commissions.ProjectStatus, to commissions.ProjectStatus) (bool, error) {
	p := t.project(id)
	if p == nil || !in(p.Status, from) {
		return false, nil
	}
	p.Status = to
	p.UpdatedAt = t.now()
	return true, nil
}

func (t *memTx) update(id string) *commissions.ProjectUpdate {
	return find(t.st.updates, func(u *commissions.ProjectUpdate) bool { return u.ID == id })
}

func (t *memTx) CreateProjectUpdate(u *commissions.ProjectUpdate) error {
	ensureID(&u.ID)
	t.stamp(&u.CreatedAt)
	u.UpdatedAt = u.CreatedAt
	for i := range u.Files {
		u.Files[i].ProjectUpdateID = u.ID
		u.Files[i].Position = i
	}
	t.st.updates = append(t.st.updates, copyUpdate(*u))
	return nil
}

func (t *memTx) LockProjectUpdate(id string) (commissions.ProjectUpdate, error) {
	u := t.update(id)
	if u == nil {
		return commissions.ProjectUpdate{}, ErrNotFound
	}
	return copyUpdate(*u), nil
}

func (t *memTx) ListProjectUpdates(projectID string) ([]commissions.ProjectUpdate, error) {
	var out []commissions.ProjectUpdate
	for _, u := range t.st.updates {
		if u.ProjectID == projectID {
			out = append(out, copyUpdate(u))
		}
	}
	return out, nil
}

func (t *memTx) SetUpdateStatus(id string, from []commissions.UpdateStatus, to commissions.UpdateStatus, feedback string) (bool, error) {
	u := t.update(id)
	if u == nil || !in(u.Status, from) {
		return false, nil
	}
	u.Status = to
	if feedback != "" {
		u.Feedback = feedback
	}
	u.UpdatedAt = t.now()
	return true, nil
}

func (t *memTx) ReplaceUpdateContent(id, description string, files []string) error {
	u := t.update(id)
	if u == nil {
		return ErrNotFound
	}
	if description != "" {
		u.Description = description
	}
	if files != nil {
		u.Files = make([]commissions.ProjectUpdateFile, len(files))
		for i, path := range files {
			u.Files[i] = commissions.ProjectUpdateFile{ProjectUpdateID: id, Path: path, Position: i}
		}
	}
	return nil
}

// payments

func (t *memTx) CreatePendingPayment(p *billing.PendingPayment) error {
	if find(t.st.pending, func(x *billing.PendingPayment) bool { return x.LinkID == p.LinkID }) != nil {
		return errDuplicateKey("pending_payments.link_id")
	}
	ensureID(&p.ID)
	t.stamp(&p.CreatedAt)
	for i := range p.Items {
		ensureID(&p.Items[i].ID)
		p.Items[i].PendingPaymentID = p.ID
	}
	t.st.pending = append(t.st.pending, copyPending(*p))
	return nil
}

func (t *memTx) LockPendingPayment(linkID string) (*billing.PendingPayment, error) {
	p := find(t.st.pending, func(x *billing.PendingPayment) bool { return x.LinkID == linkID })
	if p == nil {
		return nil, nil
	}
	out := copyPending(*p)
	return &out, nil
}

func (t *memTx) DeletePendingPayment(id string) error {
	kept := t.st.pending[:0:0]
	for _, p := range t.st.pending {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	t.st.pending = kept
	return nil
}

func (t *memTx) CreateCommissionPayment(p *billing.CommissionPayment) error {
	if find(t.st.commPayments, func(x *billing.CommissionPayment) bool { return x.LinkID == p.LinkID }) != nil {
		return errDuplicateKey("commission_payments.link_id")
	}
	ensureID(&p.ID)
	t.stamp(&p.CreatedAt)
	t.st.commPayments = append(t.st.commPayments, *p)
	return nil
}

func (t *memTx) LockCommissionPayment(linkID string) (*billing.CommissionPayment, error) {
	p := find(t.st.commPayments, func(x *billing.CommissionPayment) bool { return x.LinkID == linkID })
	if p == nil {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (t *memTx) FindPendingCommissionPayment(projectID string) (*billing.CommissionPayment, error) {
	for i := len(t.st.commPayments) - 1; i >= 0; i-- {
		p := t.st.commPayments[i]
		if p.ProjectID == projectID && p.Status == billing.CommissionPaymentPending {
			return &p, nil
		}
	}
	return nil, nil
}

func (t *memTx) MarkCommissionPaymentPaid(id string, now time.Time) (bool, error) {
	p := find(t.st.commPayments, func(x *billing.CommissionPayment) bool { return x.ID == id })
	if p == nil || p.Status != billing.CommissionPaymentPending {
		return false, nil
	}
	paidAt := now
	p.Status = billing.CommissionPaymentPaid
	p.PaidAt = &paidAt
	return true, nil
}

// earnings

func (t *memTx) InsertEarning(e *billing.ArtistEarning) error {
	ensureID(&e.ID)
	t.stamp(&e.CreatedAt)
	t.st.earnings = append(t.st.earnings, *e)
	return nil
}

func (t *memTx) LockMaturedEarnings(cutoff time.Time, limit int) ([]billing.ArtistEarning, error) {
	var out []billing.ArtistEarning
	for _, e := range t.st.earnings {
		if e.Status == billing.EarningPendingClearance && !e.CreatedAt.After(cutoff) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *memTx) MarkEarningsCleared(ids []string, now time.Time) (int64, error) {
	var n int64
	for i := range t.st.earnings {
		e := &t.st.earnings[i]
		if in(e.ID, ids) && e.Status == billing.EarningPendingClearance {
			clearedAt := now
			e.Status = billing.EarningCleared
			e.ClearedAt = &clearedAt
			n++
		}
	}
	return n, nil
}

func (t *memTx) ListEarnings(artistID uint) ([]billing.ArtistEarning, error) {
	var out []billing.ArtistEarning
	for i := len(t.st.earnings) - 1; i >= 0; i-- {
		if t.st.earnings[i].ArtistID == artistID {
			out = append(out, t.st.earnings[i])
		}
	}
	return out, nil
}

// notifications

func (t *memTx) CreateNotification(n *notifications.Notification) error {
	ensureID(&n.ID)
	t.stamp(&n.CreatedAt)
	t.st.notifications = append(t.st.notifications, *n)
	return nil
}

func (t *memTx) ListNotifications(userID uint, unreadOnly bool, limit int) ([]notifications.Notification, error) {
	var out []notifications.Notification
	for i := len(t.st.notifications) - 1; i >= 0; i-- {
		n := t.st.notifications[i]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (t *memTx) MarkNotificationRead(id string, userID uint) (bool, error) {
	n := find(t.st.notifications, func(n *notifications.Notification) bool {
		return n.ID == id && n.UserID == userID
	})
	if n == nil {
		return false, nil
	}
	n.IsRead = true
	return true, nil
}

// stats

func (t *memTx) Stats() (Stats, error) {
	st := Stats{
		OrdersByStatus:   map[orders.Status]int64{},
		EarningsByStatus: map[billing.EarningStatus]decimal.Decimal{},
		PlatformFees:     decimal.Zero,
		PendingPayments:  int64(len(t.st.pending)),
	}
	for _, o := range t.st.orders {
		st.OrdersByStatus[o.Status]++
	}
	for _, e := range t.st.earnings {
		total, ok := st.EarningsByStatus[e.Status]
		if !ok {
			total = decimal.Zero
		}
		st.EarningsByStatus[e.Status] = total.Add(e.NetAmount)
		st.PlatformFees = st.PlatformFees.Add(e.PlatformFee)
	}
	for _, a := range t.st.auctions {
		if a.Status == auctions.StatusActive {
			st.ActiveAuctions++
		}
	}
	return st, nil
}
