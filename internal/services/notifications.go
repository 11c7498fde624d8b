package services

import (
	"context"
	"fmt"

	"financy/internal/core"
	"financy/internal/storage"
)

type NotificationService struct {
	store storage.NotificationStore
}

func NewNotificationService(store storage.NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

// List returns the latest notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string) ([]core.Notification, error) {
	out, err := s.store.ListNotifications(ctx, userID, storage.NotificationLimit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// UnreadCount returns the number of unread notifications and its badge text.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, string, error) {
	n, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return 0, "", fmt.Errorf("count unread: %w", err)
	}
	return n, core.UnreadBadge(n), nil
}

func (s *NotificationService) SetRead(ctx context.Context, userID string, id int64, read bool) error {
	if err := s.store.SetNotificationRead(ctx, userID, id, read); err != nil {
		return fmt.Errorf("set notification %d read: %w", id, err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return n, nil
}
