// Package commission runs the commission, proposal, project and delivery
// update workflow. Every state change goes through the transition tables in
// domain/commissions and a status-guarded update in the ledger.
package commission

import (
	"context"
	"errors"
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

type Config struct {
	Currency   string
	SuccessURL string
	FailureURL string
}

type Service struct {
	store    ledger.Store
	notifier notify.Notifier
	links    payments.LinkCreator
	cfg      Config
	log      *logrus.Entry
	now      func() time.Time
}

func NewService(store ledger.Store, notifier notify.Notifier, links payments.LinkCreator, cfg Config, log *logrus.Entry, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, notifier: notifier, links: links, cfg: cfg, log: log, now: now}
}

func missing(err error, what string) error {
	if errors.Is(err, ledger.ErrNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	return err
}

type NewCommission struct {
	ArtistID    *uint
	Title       string
	Description string
	BudgetMin   decimal.Decimal
	BudgetMax   decimal.Decimal
	Deadline    *time.Time
}

// CreateCommission opens a public commission, or a directed one when
// ArtistID is set.
func (s *Service) CreateCommission(ctx context.Context, clientID uint, in NewCommission) (commissions.Commission, error) {
	now := s.now()
	switch {
	case strings.TrimSpace(in.Title) == "":
		return commissions.Commission{}, apperr.Validation("title is required")
	case in.BudgetMin.IsNegative() || in.BudgetMax.LessThan(in.BudgetMin):
		return commissions.Commission{}, apperr.Validation("budget range is invalid")
	case !payments.WholeCents(in.BudgetMin) || !payments.WholeCents(in.BudgetMax):
		return commissions.Commission{}, apperr.Validation("budget must have at most two decimal places")
	case in.Deadline != nil && !in.Deadline.After(now):
		return commissions.Commission{}, apperr.Validation("deadline must be in the future")
	case in.ArtistID != nil && *in.ArtistID == clientID:
		return commissions.Commission{}, apperr.Validation("cannot commission yourself")
	}

	c := commissions.Commission{
		ClientID:    clientID,
		ArtistID:    in.ArtistID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		BudgetMin:   in.BudgetMin,
		BudgetMax:   in.BudgetMax,
		Deadline:    in.Deadline,
		Status:      commissions.CommissionOpen,
		CreatedAt:   now,
	}
	if !c.Public() {
		c.Status = commissions.CommissionAwaitingProposal
	}

	if err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		return tx.CreateCommission(&c)
	}); err != nil {
		return commissions.Commission{}, fmt.Errorf("create commission: %w", err)
	}

	if c.ArtistID != nil {
		notify.Send(ctx, s.notifier, s.log, notify.Message{
			UserID: *c.ArtistID,
			Text:   fmt.Sprintf("You have a new commission request: %s", c.Title),
			Link:   "/commissions/" + c.ID,
		})
	}
	return c, nil
}

// CancelCommission withdraws a commission that has no accepted proposal yet.
// Pending proposals are rejected with it.
func (s *Service) CancelCommission(ctx context.Context, clientID uint, commissionID string) error {
	var artists []uint
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		c, err := tx.LockCommission(commissionID)
		if err != nil {
			return missing(err, "commission")
		}
		if c.ClientID != clientID {
			return apperr.Authorization("only the client can cancel this commission")
		}
		if c.Status == commissions.CommissionInProgress {
			return apperr.Conflict("commission has a project; cancel the project instead")
		}
		if !c.Status.CanTransition(commissions.CommissionCancelled) {
			return apperr.Conflict("commission is %s", c.Status)
		}

		proposals, err := tx.ListProposals(c.ID)
		if err != nil {
			return err
		}
		for _, p := range proposals {
			if p.Status != commissions.ProposalPending {
				continue
			}
			if _, err := tx.SetProposalStatus(p.ID, commissions.ProposalPending, commissions.ProposalRejected); err != nil {
				return err
			}
			artists = append(artists, p.ArtistID)
		}
		ok, err := tx.TransitionCommission(c.ID, []commissions.CommissionStatus{c.Status}, commissions.CommissionCancelled, nil)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("commission changed concurrently")
		}
		return nil
	})
	if err != nil {
		return err
	}

	msgs := make([]notify.Message, 0, len(artists))
	for _, a := range artists {
		msgs = append(msgs, notify.Message{UserID: a, Text: "A commission you proposed on was cancelled.", Link: "/commissions/" + commissionID})
	}
	notify.Send(ctx, s.notifier, s.log, msgs...)
	return nil
}

func (s *Service) GetCommission(ctx context.Context, commissionID string) (commissions.Commission, error) {
	var c commissions.Commission
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		c, err = tx.GetCommission(commissionID)
		return missing(err, "commission")
	})
	return c, err
}
