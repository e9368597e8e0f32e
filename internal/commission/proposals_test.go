package commission

import (
	"context"
	"sync"
	"testing"
	"time"

	"marketplace-app/internal/apperr"
	"marketplace-app/internal/domain/commissions"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptProposalCreatesProjectAndRejectsSiblings(t *testing.T) {
	f := newFixture(t)
	c := f.commission(t, nil)
	p := f.propose(t, c.ID, artistA, 1500)
	other1 := f.propose(t, c.ID, artistB, 1200)
	other2 := f.propose(t, c.ID, artistC, 2000)

	project, err := f.svc.AcceptProposal(context.Background(), clientID, p.ID)
	require.NoError(t, err)

	assert.Equal(t, commissions.ProjectAwaitingPayment, project.Status)
	assert.True(t, project.FinalPrice.Equal(dec(1500)))
	assert.Equal(t, artistA, project.ArtistID)
	assert.Equal(t, clientID, project.ClientID)

	got := f.proposals(t, c.ID)
	assert.Equal(t, commissions.ProposalAccepted, got[p.ID].Status)
	assert.Equal(t, commissions.ProposalRejected, got[other1.ID].Status)
	assert.Equal(t, commissions.ProposalRejected, got[other2.ID].Status)

	cm := f.getCommission(t, c.ID)
	assert.Equal(t, commissions.CommissionInProgress, cm.Status)
	require.NotNil(t, cm.AcceptedProposalID)
	assert.Equal(t, p.ID, *cm.AcceptedProposalID)

	assert.NotEmpty(t, f.inbox(t, artistA))
	assert.NotEmpty(t, f.inbox(t, artistB))
	assert.NotEmpty(t, f.inbox(t, artistC))
}

func TestAcceptProposalAtMostOnce(t *testing.T) {
	f := newFixture(t)
	c := f.commission(t, nil)
	ids := []string{
		f.propose(t, c.ID, artistA, 1500).ID,
		f.propose(t, c.ID, artistB, 1600).ID,
		f.propose(t, c.ID, artistC, 1700).ID,
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := f.svc.AcceptProposal(context.Background(), clientID, id); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, apperr.ErrConflict)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	accepted := 0
	for _, p := range f.proposals(t, c.ID) {
		if p.Status == commissions.ProposalAccepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestAcceptProposalOnlyByClient(t *testing.T) {
	f := newFixture(t)
	c := f.commission(t, nil)
	p := f.propose(t, c.ID, artistA, 1500)

	_, err := f.svc.AcceptProposal(context.Background(), artistB, p.ID)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)
	assert.Equal(t, commissions.ProposalPending, f.proposals(t, c.ID)[p.ID].Status)
}

func TestSubmitProposalValidation(t *testing.T) {
	f := newFixture(t)
	c := f.commission(t, nil)
	ctx := context.Background()

	_, err := f.svc.SubmitProposal(ctx, artistA, c.ID, NewProposal{Text: "x", Price: dec(99)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.SubmitProposal(ctx, artistA, c.ID, NewProposal{Text: "  ", Price: dec(500)})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.SubmitProposal(ctx, artistA, c.ID, NewProposal{Text: "x", Price: decimal.RequireFromString("500.005")})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.svc.SubmitProposal(ctx, clientID, c.ID, NewProposal{Text: "mine", Price: dec(500)})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	f.propose(t, c.ID, artistA, 100)
	_, err = f.svc.SubmitProposal(ctx, artistA, c.ID, NewProposal{Text: "again", Price: dec(500)})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.svc.SubmitProposal(ctx, artistA, "missing", NewProposal{Text: "x", Price: dec(500)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDirectedCommissionAcceptsOnlyItsArtist(t *testing.T) {
	f := newFixture(t)
	artist := artistA
	c := f.commission(t, &artist)
	assert.Equal(t, commissions.CommissionAwaitingProposal, c.Status)
	require.Len(t, f.inbox(t, artistA), 1)

	_, err := f.svc.SubmitProposal(context.Background(), artistB, c.ID, NewProposal{Text: "me too", Price: dec(500)})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	f.propose(t, c.ID, artistA, 800)
}

func TestSubmitProposalAfterAcceptanceConflicts(t *testing.T) {
	f := newFixture(t)
	c := f.commission(t, nil)
	p := f.propose(t, c.ID, artistA, 1500)
	_, err := f.svc.AcceptProposal(context.Background(), clientID, p.ID)
	require.NoError(t, err)

	_, err = f.svc.SubmitProposal(context.Background(), artistB, c.ID, NewProposal{Text: "late", Price: dec(500)})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRejectProposal(t *testing.T) {
	f := newFixture(t)
	c := f.commission(t, nil)
	p := f.propose(t, c.ID, artistA, 1500)

	require.NoError(t, f.svc.RejectProposal(context.Background(), clientID, p.ID))
	assert.Equal(t, commissions.ProposalRejected, f.proposals(t, c.ID)[p.ID].Status)

	err := f.svc.RejectProposal(context.Background(), clientID, p.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// a rejected artist may try again
	f.propose(t, c.ID, artistA, 1400)
}

func TestListProposalsVisibility(t *testing.T) {
	f := newFixture(t)
	c := f.commission(t, nil)
	f.propose(t, c.ID, artistA, 1500)
	f.propose(t, c.ID, artistB, 1600)

	mine, err := f.svc.ListProposals(context.Background(), artistA, c.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, artistA, mine[0].ArtistID)

	assert.Len(t, f.proposals(t, c.ID), 2)
}

func TestCancelCommissionRejectsPendingProposals(t *testing.T) {
	f := newFixture(t)
	c := f.commission(t, nil)
	p := f.propose(t, c.ID, artistA, 1500)

	err := f.svc.CancelCommission(context.Background(), artistA, c.ID)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	require.NoError(t, f.svc.CancelCommission(context.Background(), clientID, c.ID))
	assert.Equal(t, commissions.CommissionCancelled, f.getCommission(t, c.ID).Status)
	assert.Equal(t, commissions.ProposalRejected, f.proposals(t, c.ID)[p.ID].Status)

	err = f.svc.CancelCommission(context.Background(), clientID, c.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCancelCommissionWithProjectConflicts(t *testing.T) {
	f := newFixture(t)
	pr := f.project(t)

	err := f.svc.CancelCommission(context.Background(), clientID, pr.CommissionID)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestCreateCommissionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := start.Add(-time.Hour)
	self := clientID

	cases := map[string]NewCommission{
		"missing title":   {BudgetMin: dec(1), BudgetMax: dec(2)},
		"inverted budget": {Title: "x", BudgetMin: dec(5), BudgetMax: dec(2)},
		"past deadline":   {Title: "x", BudgetMin: dec(1), BudgetMax: dec(2), Deadline: &past},
		"self directed":   {Title: "x", BudgetMin: dec(1), BudgetMax: dec(2), ArtistID: &self},
		"sub-cent budget": {Title: "x", BudgetMin: dec(1), BudgetMax: decimal.RequireFromString("2.001")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateCommission(ctx, clientID, in)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}
