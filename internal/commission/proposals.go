package commission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"marketplace-app/internal/apperr"
	"marketplace-app/internal/domain/commissions"
	"marketplace-app/internal/ledger"
	"marketplace-app/internal/notify"
	"marketplace-app/internal/payments"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type NewProposal struct {
	Text                string
	Price               decimal.Decimal
	EstimatedCompletion *time.Time
}

func (s *Service) SubmitProposal(ctx context.Context, artistID uint, commissionID string, in NewProposal) (commissions.Proposal, error) {
	if strings.TrimSpace(in.Text) == "" {
		return commissions.Proposal{}, apperr.Validation("proposal text is required")
	}
	if in.Price.LessThan(commissions.MinProposedPrice) {
		return commissions.Proposal{}, apperr.Validation("proposed price must be at least %s", commissions.MinProposedPrice)
	}
	if !payments.WholeCents(in.Price) {
		return commissions.Proposal{}, apperr.Validation("proposed price must have at most two decimal places")
	}

	var (
		p        commissions.Proposal
		clientID uint
	)
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		c, err := tx.LockCommission(commissionID)
		if err != nil {
			return missing(err, "commission")
		}
		if c.ClientID == artistID {
			return apperr.Authorization("cannot propose on your own commission")
		}
		if c.ArtistID != nil && *c.ArtistID != artistID {
			return apperr.Authorization("commission is directed at another artist")
		}
		if !c.Status.CanTransition(commissions.CommissionInProgress) {
			return apperr.Conflict("commission is %s", c.Status)
		}
		pending, err := tx.HasPendingProposal(c.ID, artistID)
		if err != nil {
			return err
		}
		if pending {
			return apperr.Conflict("you already have a pending proposal on this commission")
		}

		p = commissions.Proposal{
			CommissionID:        c.ID,
			ArtistID:            artistID,
			ProposalText:        strings.TrimSpace(in.Text),
			ProposedPrice:       in.Price,
			EstimatedCompletion: in.EstimatedCompletion,
			Status:              commissions.ProposalPending,
			CreatedAt:           s.now(),
		}
		clientID = c.ClientID
		return tx.CreateProposal(&p)
	})
	if err != nil {
		return commissions.Proposal{}, err
	}

	notify.Send(ctx, s.notifier, s.log, notify.Message{
		UserID: clientID,
		Text:   fmt.Sprintf("New proposal of %s on your commission.", p.ProposedPrice.StringFixed(2)),
		Link:   "/commissions/" + commissionID,
	})
	return p, nil
}

// AcceptProposal accepts one proposal, rejects every sibling, moves the
// commission to in_progress and creates its single project, all in one
// transaction.
func (s *Service) AcceptProposal(ctx context.Context, clientID uint, proposalID string) (commissions.Project, error) {
	var (
		project  commissions.Project
		rejected []uint
	)
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		p, err := tx.GetProposal(proposalID)
		if err != nil {
			return missing(err, "proposal")
		}
		c, err := tx.LockCommission(p.CommissionID)
		if err != nil {
			return missing(err, "commission")
		}
		if c.ClientID != clientID {
			return apperr.Authorization("only the client can accept proposals")
		}
		if !c.Status.CanTransition(commissions.CommissionInProgress) {
			return apperr.Conflict("commission is %s", c.Status)
		}

		ok, err := tx.SetProposalStatus(p.ID, commissions.ProposalPending, commissions.ProposalAccepted)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("proposal is no longer pending")
		}

		siblings, err := tx.ListProposals(c.ID)
		if err != nil {
			return err
		}
		for _, sib := range siblings {
			if sib.ID != p.ID && sib.Status == commissions.ProposalPending {
				rejected = append(rejected, sib.ArtistID)
			}
		}
		if _, err := tx.RejectOtherProposals(c.ID, p.ID); err != nil {
			return err
		}

		ok, err = tx.TransitionCommission(c.ID,
			commissions.CommissionSources(commissions.CommissionInProgress),
			commissions.CommissionInProgress, &p.ID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("commission changed concurrently")
		}

		project = commissions.Project{
			CommissionID: c.ID,
			ProposalID:   p.ID,
			ClientID:     c.ClientID,
			ArtistID:     p.ArtistID,
			FinalPrice:   p.ProposedPrice,
			Status:       commissions.ProjectAwaitingPayment,
			CreatedAt:    s.now(),
		}
		return tx.CreateProject(&project)
	})
	if err != nil {
		return commissions.Project{}, err
	}

	log := s.log.WithFields(logrus.Fields{"project_id": project.ID, "proposal_id": proposalID})
	msgs := []notify.Message{{
		UserID: project.ArtistID,
		Text:   "Your proposal was accepted. The project is awaiting the client's payment.",
		Link:   "/projects/" + project.ID,
	}}
	for _, a := range rejected {
		msgs = append(msgs, notify.Message{UserID: a, Text: "Your proposal was not selected.", Link: "/commissions/" + project.CommissionID})
	}
	notify.Send(ctx, s.notifier, log, msgs...)
	log.Info("proposal accepted")
	return project, nil
}

func (s *Service) RejectProposal(ctx context.Context, clientID uint, proposalID string) error {
	var artistID uint
	var commissionID string
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		p, err := tx.GetProposal(proposalID)
		if err != nil {
			return missing(err, "proposal")
		}
		c, err := tx.LockCommission(p.CommissionID)
		if err != nil {
			return missing(err, "commission")
		}
		if c.ClientID != clientID {
			return apperr.Authorization("only the client can reject proposals")
		}
		ok, err := tx.SetProposalStatus(p.ID, commissions.ProposalPending, commissions.ProposalRejected)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("proposal is no longer pending")
		}
		artistID, commissionID = p.ArtistID, c.ID
		return nil
	})
	if err != nil {
		return err
	}
	notify.Send(ctx, s.notifier, s.log, notify.Message{
		UserID: artistID, Text: "Your proposal was declined.", Link: "/commissions/" + commissionID,
	})
	return nil
}

// ListProposals returns every proposal to the client and only their own to
// anybody else.
func (s *Service) ListProposals(ctx context.Context, userID uint, commissionID string) ([]commissions.Proposal, error) {
	var out []commissions.Proposal
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		c, err := tx.GetCommission(commissionID)
		if err != nil {
			return missing(err, "commission")
		}
		all, err := tx.ListProposals(c.ID)
		if err != nil {
			return err
		}
		if c.ClientID == userID {
			out = all
			return nil
		}
		for _, p := range all {
			if p.ArtistID == userID {
				out = append(out, p)
			}
		}
		return nil
	})
	return out, err
}
