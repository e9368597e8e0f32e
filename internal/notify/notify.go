// Package notify persists user notifications and pushes them to live
// connections on a best-effort basis.
package notify

import (
	"context"
	"fmt"
	"time"

	"marketplace-app/internal/apperr"
	"marketplace-app/internal/domain/notifications"
	"marketplace-app/internal/ledger"

	"github.com/sirupsen/logrus"
)

const listLimit = 50

// Notifier is the sink every workflow writes to after its transaction commits.
type Notifier interface {
	Enqueue(ctx context.Context, userID uint, message, link string) (notifications.Notification, error)
}

// Deliverer pushes a persisted notification to whoever is listening.
type Deliverer interface {
	Deliver(ctx context.Context, n notifications.Notification) error
}

type Service struct {
	store ledger.Store
	live  Deliverer
	log   *logrus.Entry
	now   func() time.Time
}

func NewService(store ledger.Store, live Deliverer, log *logrus.Entry, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, live: live, log: log, now: now}
}

// Enqueue stores the notification, then attempts live delivery. Delivery
// failures are logged, never returned.
func (s *Service) Enqueue(ctx context.Context, userID uint, message, link string) (notifications.Notification, error) {
	n := notifications.Notification{
		UserID:    userID,
		Message:   message,
		Link:      link,
		CreatedAt: s.now(),
	}
	if err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		return tx.CreateNotification(&n)
	}); err != nil {
		return n, fmt.Errorf("persist notification: %w", err)
	}

	if s.live != nil {
		if err := s.live.Deliver(ctx, n); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("live notification delivery failed")
		}
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, userID uint, unreadOnly bool) ([]notifications.Notification, error) {
	var out []notifications.Notification
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.ListNotifications(userID, unreadOnly, listLimit)
		return err
	})
	return out, err
}

func (s *Service) MarkRead(ctx context.Context, id string, userID uint) error {
	return s.store.InTx(ctx, func(tx ledger.Tx) error {
		ok, err := tx.MarkNotificationRead(id, userID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("notification not found")
		}
		return nil
	})
}

// Message is one pending notification.
type Message struct {
	UserID uint
	Text   string
	Link   string
}

// Send enqueues every message, logging and dropping failures. Callers run it
// after commit so a broken sink never undoes a financial write.
func Send(ctx context.Context, n Notifier, log *logrus.Entry, msgs ...Message) {
	if n == nil {
		return
	}
	for _, m := range msgs {
		if m.UserID == 0 {
			continue
		}
		if _, err := n.Enqueue(ctx, m.UserID, m.Text, m.Link); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"user_id": m.UserID,
				"link":    m.Link,
			}).Error("notification enqueue failed")
		}
	}
}
