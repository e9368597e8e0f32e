package commission

import (
	"context"
	"fmt"

	"marketplace-app/internal/apperr"
	"marketplace-app/internal/domain/billing"
	"marketplace-app/internal/domain/commissions"
	"marketplace-app/internal/ledger"
	"marketplace-app/internal/notify"
	"marketplace-app/internal/payments"

	"github.com/sirupsen/logrus"
)

type NewUpdate struct {
	Type        commissions.UpdateType
	Description string
	Files       []string
}

// UpdateContent optionally replaces an update's description and files on
// (re)submission. A nil Files keeps the current files.
type UpdateContent struct {
	Description string
	Files       []string
}

type Decision string

const (
	DecisionApprove         Decision = "approve"
	DecisionRequestRevision Decision = "request_revision"
)

type Review struct {
	Decision Decision
	Feedback string
}

type ReviewResult struct {
	Update  commissions.ProjectUpdate `json:"update"`
	Project commissions.Project       `json:"project"`
	// Payment is set when approving a final delivery.
	Payment *billing.CommissionPayment `json:"payment,omitempty"`
}

func toFiles(paths []string) []commissions.ProjectUpdateFile {
	files := make([]commissions.ProjectUpdateFile, len(paths))
	for i, p := range paths {
		files[i] = commissions.ProjectUpdateFile{Path: p, Position: i}
	}
	return files
}

// CreateUpdate drafts a progress report or final delivery. Only the project's
// artist may create updates, and only while the project is in progress.
func (s *Service) CreateUpdate(ctx context.Context, artistID uint, projectID string, in NewUpdate) (commissions.ProjectUpdate, error) {
	if !in.Type.Valid() {
		return commissions.ProjectUpdate{}, apperr.Validation("unknown update type %q", in.Type)
	}
	var u commissions.ProjectUpdate
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		p, err := tx.LockProject(projectID)
		if err != nil {
			return missing(err, "project")
		}
		if p.ArtistID != artistID {
			return apperr.Authorization("only the project's artist can create updates")
		}
		if p.Status != commissions.ProjectInProgress {
			return apperr.Conflict("project is %s", p.Status)
		}
		u = commissions.ProjectUpdate{
			ProjectID:   p.ID,
			UpdateType:  in.Type,
			Status:      commissions.UpdatePending,
			Description: in.Description,
			Files:       toFiles(in.Files),
			CreatedAt:   s.now(),
		}
		return tx.CreateProjectUpdate(&u)
	})
	return u, err
}

// SubmitUpdate hands an update to the client. A first submission moves the
// project to the matching pending state; a resubmission after a revision
// request leaves the project where the first submission put it.
func (s *Service) SubmitUpdate(ctx context.Context, artistID uint, updateID string, content UpdateContent) (commissions.ProjectUpdate, error) {
	var (
		u commissions.ProjectUpdate
		p commissions.Project
	)
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		u, err = tx.LockProjectUpdate(updateID)
		if err != nil {
			return missing(err, "update")
		}
		p, err = tx.LockProject(u.ProjectID)
		if err != nil {
			return missing(err, "project")
		}
		if p.ArtistID != artistID {
			return apperr.Authorization("only the project's artist can submit updates")
		}
		if !u.Status.CanTransition(commissions.UpdateSubmitted) {
			return apperr.Conflict("update is %s", u.Status)
		}

		target, _ := commissions.ProjectStatusFor(u.UpdateType, commissions.UpdateSubmitted)
		if u.Status == commissions.UpdatePending {
			if err := s.moveProject(tx, &p, target); err != nil {
				return err
			}
		} else if p.Status != target {
			return apperr.Conflict("project is %s", p.Status)
		}

		if content.Description != "" || content.Files != nil {
			if err := tx.ReplaceUpdateContent(u.ID, content.Description, content.Files); err != nil {
				return err
			}
		}
		if err := s.moveUpdate(tx, &u, commissions.UpdateSubmitted, ""); err != nil {
			return err
		}
		u, err = tx.LockProjectUpdate(u.ID)
		return err
	})
	if err != nil {
		return commissions.ProjectUpdate{}, err
	}

	text := "A progress report is ready for your review."
	if u.UpdateType == commissions.UpdateFinalDelivery {
		text = "The final delivery is ready for your review."
	}
	notify.Send(ctx, s.notifier, s.log, notify.Message{UserID: p.ClientID, Text: text, Link: "/projects/" + p.ID})
	return u, nil
}

// ReviewUpdate is the client's decision on a submitted update. Approving a
// final delivery does not complete the project: it moves the project to
// pending_client_approval and opens a payment link for the final price.
// Settlement of that payment completes the project.
func (s *Service) ReviewUpdate(ctx context.Context, clientID uint, updateID string, r Review) (ReviewResult, error) {
	if r.Decision != DecisionApprove && r.Decision != DecisionRequestRevision {
		return ReviewResult{}, apperr.Validation("decision must be approve or request_revision")
	}

	var (
		res          ReviewResult
		needsPayment bool
	)
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		u, err := tx.LockProjectUpdate(updateID)
		if err != nil {
			return missing(err, "update")
		}
		p, err := tx.LockProject(u.ProjectID)
		if err != nil {
			return missing(err, "project")
		}
		if p.ClientID != clientID {
			return apperr.Authorization("only the project's client can review updates")
		}
		if u.Status != commissions.UpdateSubmitted {
			return apperr.Conflict("update is %s", u.Status)
		}

		switch {
		case r.Decision == DecisionRequestRevision:
			if p.Status == commissions.ProjectPendingClientApproval {
				return apperr.Conflict("final delivery is approved and awaiting payment")
			}
			if err := s.moveUpdate(tx, &u, commissions.UpdateRequiresRevision, r.Feedback); err != nil {
				return err
			}

		case u.UpdateType == commissions.UpdateProgressReport:
			if err := s.moveUpdate(tx, &u, commissions.UpdateApproved, r.Feedback); err != nil {
				return err
			}
			target, _ := commissions.ProjectStatusFor(u.UpdateType, commissions.UpdateApproved)
			if err := s.moveProject(tx, &p, target); err != nil {
				return err
			}

		default:
			// Final delivery: the update stays submitted until payment settles.
			if p.Status != commissions.ProjectPendingClientApproval {
				if err := s.moveProject(tx, &p, commissions.ProjectPendingClientApproval); err != nil {
					return err
				}
			}
			existing, err := tx.FindPendingCommissionPayment(p.ID)
			if err != nil {
				return err
			}
			res.Payment = existing
			needsPayment = existing == nil
		}
		res.Update, res.Project = u, p
		return nil
	})
	if err != nil {
		return ReviewResult{}, err
	}

	if needsPayment {
		payment, err := s.openPayment(ctx, res.Project, res.Update)
		if err != nil {
			return res, err
		}
		res.Payment = &payment
	}

	log := s.log.WithFields(logrus.Fields{"project_id": res.Project.ID, "update_id": res.Update.ID})
	link := "/projects/" + res.Project.ID
	switch {
	case r.Decision == DecisionRequestRevision:
		notify.Send(ctx, s.notifier, log, notify.Message{UserID: res.Project.ArtistID, Text: "The client requested a revision.", Link: link})
	case res.Payment != nil:
		notify.Send(ctx, s.notifier, log, notify.Message{UserID: res.Project.ArtistID, Text: "The client approved your final delivery. Awaiting payment.", Link: link})
	default:
		notify.Send(ctx, s.notifier, log, notify.Message{UserID: res.Project.ArtistID, Text: "The client approved your progress report.", Link: link})
	}
	return res, nil
}

// openPayment creates the provider link outside any transaction, then
// records it. If recording fails the client can approve again; the project
// is already pending_client_approval and a fresh link is opened.
func (s *Service) openPayment(ctx context.Context, p commissions.Project, u commissions.ProjectUpdate) (billing.CommissionPayment, error) {
	if s.links == nil {
		return billing.CommissionPayment{}, fmt.Errorf("payment links are not configured")
	}
	link, err := s.links.CreateLink(ctx, payments.LinkRequest{
		AmountMinor: payments.ToMinorUnits(p.FinalPrice),
		Currency:    s.cfg.Currency,
		Description: "Commission project " + p.ID,
		SuccessURL:  s.cfg.SuccessURL,
		FailureURL:  s.cfg.FailureURL,
		Metadata: map[string]string{
			"project_id": p.ID,
			"update_id":  u.ID,
		},
	})
	if err != nil {
		return billing.CommissionPayment{}, fmt.Errorf("create payment link: %w", err)
	}

	payment := billing.CommissionPayment{
		LinkID:          link.ID,
		ProjectID:       p.ID,
		ProjectUpdateID: u.ID,
		Amount:          p.FinalPrice,
		Status:          billing.CommissionPaymentPending,
		CheckoutURL:     link.CheckoutURL,
		CreatedAt:       s.now(),
	}
	if err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		return tx.CreateCommissionPayment(&payment)
	}); err != nil {
		return billing.CommissionPayment{}, fmt.Errorf("record commission payment: %w", err)
	}
	return payment, nil
}

func (s *Service) ListUpdates(ctx context.Context, userID uint, projectID string) ([]commissions.ProjectUpdate, error) {
	var out []commissions.ProjectUpdate
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		p, err := tx.GetProject(projectID)
		if err != nil {
			return missing(err, "project")
		}
		if !participant(p, userID) {
			return apperr.Authorization("not a participant of this project")
		}
		out, err = tx.ListProjectUpdates(p.ID)
		return err
	})
	return out, err
}

func (s *Service) moveUpdate(tx ledger.Tx, u *commissions.ProjectUpdate, to commissions.UpdateStatus, feedback string) error {
	if !u.Status.CanTransition(to) {
		return apperr.Conflict("update cannot move from %s to %s", u.Status, to)
	}
	ok, err := tx.SetUpdateStatus(u.ID, []commissions.UpdateStatus{u.Status}, to, feedback)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("update changed concurrently")
	}
	u.Status = to
	if feedback != "" {
		u.Feedback = feedback
	}
	return nil
}
