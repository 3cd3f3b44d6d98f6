package subscription

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Service interface defines subscription read operations. All writes go
// through the billing reconciler.
type Service interface {
	GetMine(ctx context.Context, accountID uuid.UUID) (*Subscription, error)
}

type service struct {
	repo Repository
}

// NewService creates subscription service
func NewService(db *sqlx.DB) Service {
	return &service{repo: NewRepository(db)}
}

func (s *service) GetMine(ctx context.Context, accountID uuid.UUID) (*Subscription, error) {
	sub, err := s.repo.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}
