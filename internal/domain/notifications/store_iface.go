package notifications

import "context"

type StoreAPI interface {
	CreateNotification(ctx context.Context, employeeID int64, kind, title, body string) error
	EmployeeEmail(ctx context.Context, employeeID int64) (string, error)
	ListNotifications(ctx context.Context, employeeID int64, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, employeeID int64) (int, error)
	MarkRead(ctx context.Context, employeeID, notificationID int64) error
}
