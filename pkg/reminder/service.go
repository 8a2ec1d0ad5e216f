package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/google/uuid"
)

var ErrEmptyMessage = errors.New("reminder message is required")

type Store interface {
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	ListDueNotifications(ctx context.Context, role string, now time.Time) ([]models.Notification, error)
	DismissNotification(ctx context.Context, id uuid.UUID) error
}

// Service manages reminder records consumed by polling staff dashboards.
type Service struct {
	store   Store
	nowFunc func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, nowFunc: time.Now}
}

func (s *Service) Create(ctx context.Context, req models.CreateNotificationRequest) (models.Notification, error) {
	if req.Message == "" {
		return models.Notification{}, ErrEmptyMessage
	}
	return s.store.CreateNotification(ctx, models.Notification{
		ID:         uuid.New(),
		Message:    req.Message,
		TargetRole: req.TargetRole,
		DueDate:    req.DueDate,
	})
}

// Due returns the reminders visible to role right now: anything undated plus
// anything whose due date has passed.
func (s *Service) Due(ctx context.Context, role string) ([]models.Notification, error) {
	return s.store.ListDueNotifications(ctx, role, s.nowFunc().UTC())
}

func (s *Service) Dismiss(ctx context.Context, id uuid.UUID) error {
	return s.store.DismissNotification(ctx, id)
}
