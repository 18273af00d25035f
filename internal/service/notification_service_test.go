package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iti-edu/schoolmis-api/internal/models"
	appErrors "github.com/iti-edu/schoolmis-api/pkg/errors"
)

type mockNotificationRepo struct {
	notifications map[string]models.Notification
	nextID        int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{notifications: make(map[string]models.Notification)}
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	m.nextID++
	n.ID = fmt.Sprintf("ntf-%d", m.nextID)
	m.notifications[n.ID] = *n
	return nil
}

func (m *mockNotificationRepo) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	if n, ok := m.notifications[id]; ok {
		found := n
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	var list []models.Notification
	for _, n := range m.notifications {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			list = append(list, n)
		}
	}
	return list, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	n, ok := m.notifications[id]
	if !ok {
		return sql.ErrNoRows
	}
	n.Read = true
	n.ReadAt = &readAt
	m.notifications[id] = n
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string, readAt time.Time) error {
	for id, n := range m.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			n.ReadAt = &readAt
			m.notifications[id] = n
		}
	}
	return nil
}

func (m *mockNotificationRepo) Delete(ctx context.Context, id string) error {
	delete(m.notifications, id)
	return nil
}

func sendTestNotification(t *testing.T, svc *NotificationService, userID string) *models.Notification {
	t.Helper()
	n, err := svc.Send(context.Background(), SendNotificationRequest{
		UserID:  userID,
		Title:   "Enrollment confirmed",
		Message: "You are enrolled in CS-201.",
		Type:    "ENROLLMENT",
	})
	require.NoError(t, err)
	return n
}

func TestNotificationServiceMarkRead(t *testing.T) {
	svc := NewNotificationService(newMockNotificationRepo(), nil, nil)
	n := sendTestNotification(t, svc, "u1")

	read, err := svc.MarkRead(context.Background(), n.ID, "u1")
	require.NoError(t, err)
	assert.True(t, read.Read)
	require.NotNil(t, read.ReadAt)
}

func TestNotificationServiceMarkReadOwnershipEnforced(t *testing.T) {
	svc := NewNotificationService(newMockNotificationRepo(), nil, nil)
	n := sendTestNotification(t, svc, "u1")

	_, err := svc.MarkRead(context.Background(), n.ID, "u2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestNotificationServiceUnreadFilter(t *testing.T) {
	svc := NewNotificationService(newMockNotificationRepo(), nil, nil)
	first := sendTestNotification(t, svc, "u1")
	sendTestNotification(t, svc, "u1")

	_, err := svc.MarkRead(context.Background(), first.ID, "u1")
	require.NoError(t, err)

	unread, err := svc.ListByUser(context.Background(), "u1", true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	all, err := svc.ListByUser(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNotificationServiceMarkAllRead(t *testing.T) {
	svc := NewNotificationService(newMockNotificationRepo(), nil, nil)
	sendTestNotification(t, svc, "u1")
	sendTestNotification(t, svc, "u1")

	require.NoError(t, svc.MarkAllRead(context.Background(), "u1"))

	unread, err := svc.ListByUser(context.Background(), "u1", true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestNotificationServiceDeleteOwnershipEnforced(t *testing.T) {
	svc := NewNotificationService(newMockNotificationRepo(), nil, nil)
	n := sendTestNotification(t, svc, "u1")

	err := svc.Delete(context.Background(), n.ID, "u2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), n.ID, "u1"))
}
