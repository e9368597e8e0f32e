package commission

import (
	"context"

	"marketplace-app/internal/apperr"
	"marketplace-app/internal/domain/commissions"
	"marketplace-app/internal/ledger"
	"marketplace-app/internal/notify"
)

func participant(p commissions.Project, userID uint) bool {
	return p.ClientID == userID || p.ArtistID == userID
}

func (s *Service) GetProject(ctx context.Context, userID uint, projectID string) (commissions.Project, error) {
	var p commissions.Project
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		p, err = tx.GetProject(projectID)
		if err != nil {
			return missing(err, "project")
		}
		if !participant(p, userID) {
			return apperr.Authorization("not a participant of this project")
		}
		return nil
	})
	return p, err
}

// StartProject is the client's confirmation that work may begin.
func (s *Service) StartProject(ctx context.Context, clientID uint, projectID string) (commissions.Project, error) {
	var p commissions.Project
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		p, err = tx.LockProject(projectID)
		if err != nil {
			return missing(err, "project")
		}
		if p.ClientID != clientID {
			return apperr.Authorization("only the client can start the project")
		}
		return s.moveProject(tx, &p, commissions.ProjectInProgress)
	})
	if err != nil {
		return commissions.Project{}, err
	}
	notify.Send(ctx, s.notifier, s.log, notify.Message{
		UserID: p.ArtistID, Text: "Your project has started.", Link: "/projects/" + p.ID,
	})
	return p, nil
}

// CancelProject cancels a non-terminal project and its commission. Either
// participant may cancel.
func (s *Service) CancelProject(ctx context.Context, userID uint, projectID string) (commissions.Project, error) {
	var p commissions.Project
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		p, err = tx.LockProject(projectID)
		if err != nil {
			return missing(err, "project")
		}
		if !participant(p, userID) {
			return apperr.Authorization("not a participant of this project")
		}
		if err := s.moveProject(tx, &p, commissions.ProjectCancelled); err != nil {
			return err
		}
		_, err = tx.TransitionCommission(p.CommissionID,
			commissions.CommissionSources(commissions.CommissionCancelled),
			commissions.CommissionCancelled, nil)
		return err
	})
	if err != nil {
		return commissions.Project{}, err
	}

	other := p.ClientID
	if userID == p.ClientID {
		other = p.ArtistID
	}
	notify.Send(ctx, s.notifier, s.log, notify.Message{
		UserID: other, Text: "A project you are part of was cancelled.", Link: "/projects/" + p.ID,
	})
	return p, nil
}

// moveProject applies one table-checked transition with a status guard.
func (s *Service) moveProject(tx ledger.Tx, p *commissions.Project, to commissions.ProjectStatus) error {
	if !p.Status.CanTransition(to) {
		return apperr.Conflict("project cannot move from %s to %s", p.Status, to)
	}
	ok, err := tx.TransitionProject(p.ID, []commissions.ProjectStatus{p.Status}, to)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("project changed concurrently")
	}
	p.Status = to
	return nil
}
