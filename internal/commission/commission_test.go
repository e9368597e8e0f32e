package commission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"marketplace-app/internal/domain/commissions"
	"marketplace-app/internal/domain/notifications"
	"marketplace-app/internal/ledger"
	"marketplace-app/internal/logging"
	"marketplace-app/internal/notify"
	"marketplace-app/internal/payments"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	clientID = uint(1)
	artistA  = uint(20)
	artistB  = uint(21)
	artistC  = uint(22)
)

var start = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type fakeLinks struct {
	mu    sync.Mutex
	reqs  []payments.LinkRequest
	fail  error
	count int
}

func (l *fakeLinks) CreateLink(_ context.Context, req payments.LinkRequest) (payments.Link, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return payments.Link{}, l.fail
	}
	l.count++
	l.reqs = append(l.reqs, req)
	id := fmt.Sprintf("link_%d", l.count)
	return payments.Link{ID: id, CheckoutURL: "https://pay.example/" + id}, nil
}

var errProvider = errors.New("provider unavailable")

type fixture struct {
	store    *ledger.MemoryStore
	notifier *notify.Service
	links    *fakeLinks
	svc      *Service
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: start, links: &fakeLinks{}}
	f.store = ledger.NewMemoryStore(f.clock)
	f.notifier = notify.NewService(f.store, nil, logging.Discard(), f.clock)
	f.svc = NewService(f.store, f.notifier, f.links, Config{Currency: "php"}, logging.Discard(), f.clock)
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (f *fixture) commission(t *testing.T, artist *uint) commissions.Commission {
	t.Helper()
	c, err := f.svc.CreateCommission(context.Background(), clientID, NewCommission{
		ArtistID:  artist,
		Title:     "Family portrait",
		BudgetMin: dec(500),
		BudgetMax: dec(3000),
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) propose(t *testing.T, commissionID string, artist uint, price int64) commissions.Proposal {
	t.Helper()
	p, err := f.svc.SubmitProposal(context.Background(), artist, commissionID, NewProposal{
		Text:  "Oil on canvas, 60x90",
		Price: dec(price),
	})
	require.NoError(t, err)
	return p
}

// project creates a public commission and an accepted, started project with
// artistA at price 1500.
func (f *fixture) project(t *testing.T) commissions.Project {
	t.Helper()
	c := f.commission(t, nil)
	p := f.propose(t, c.ID, artistA, 1500)
	pr, err := f.svc.AcceptProposal(context.Background(), clientID, p.ID)
	require.NoError(t, err)
	pr, err = f.svc.StartProject(context.Background(), clientID, pr.ID)
	require.NoError(t, err)
	return pr
}

func (f *fixture) getCommission(t *testing.T, id string) commissions.Commission {
	t.Helper()
	c, err := f.svc.GetCommission(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (f *fixture) getProject(t *testing.T, id string) commissions.Project {
	t.Helper()
	p, err := f.svc.GetProject(context.Background(), clientID, id)
	require.NoError(t, err)
	return p
}

func (f *fixture) proposals(t *testing.T, commissionID string) map[string]commissions.Proposal {
	t.Helper()
	list, err := f.svc.ListProposals(context.Background(), clientID, commissionID)
	require.NoError(t, err)
	out := make(map[string]commissions.Proposal, len(list))
	for _, p := range list {
		out[p.ID] = p
	}
	return out
}

func (f *fixture) inbox(t *testing.T, user uint) []notifications.Notification {
	t.Helper()
	out, err := f.notifier.List(context.Background(), user, false)
	require.NoError(t, err)
	return out
}
