package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/storeflow/storefront/internal/notification/domain"
	"github.com/storeflow/storefront/pkg/apperr"
	"github.com/storeflow/storefront/pkg/identity"
)

type Service struct {
	repo NotificationRepository
}

func NewService(repo NotificationRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListForUser(ctx context.Context, caller identity.Identity) ([]domain.Notification, error) {
	return s.repo.ListForUser(ctx, caller.UserID)
}

// MarkRead flips the read flag. A notification belonging to another user is
// reported as missing, not forbidden, so ids cannot be probed.
func (s *Service) MarkRead(ctx context.Context, caller identity.Identity, id uuid.UUID) (domain.Notification, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Notification{}, err
	}
	if n.UserID != caller.UserID {
		return domain.Notification{}, apperr.NotFound("notification not found")
	}
	if n.IsRead {
		return n, nil
	}
	return s.repo.MarkRead(ctx, id)
}
