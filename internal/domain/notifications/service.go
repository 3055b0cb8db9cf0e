package notifications

import (
	"context"
	"log/slog"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store StoreAPI
	// Mailer is optional; notifications are still stored when email is off.
	Mailer      Mailer
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer, defaultFrom string) *Service {
	return &Service{store: store, Mailer: mailer, DefaultFrom: defaultFrom}
}

func (s *Service) Notify(ctx context.Context, employeeID int64, kind, title, body string) error {
	if err := s.store.CreateNotification(ctx, employeeID, kind, title, body); err != nil {
		return err
	}
	if s.Mailer == nil {
		return nil
	}

	email, err := s.store.EmployeeEmail(ctx, employeeID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.DefaultFrom, email, title, body); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, employeeID int64, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, employeeID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, employeeID int64) (int, error) {
	return s.store.CountUnread(ctx, employeeID)
}

func (s *Service) MarkRead(ctx context.Context, employeeID, notificationID int64) error {
	return s.store.MarkRead(ctx, employeeID, notificationID)
}
