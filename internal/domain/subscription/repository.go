package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	GetByAccount(ctx context.Context, accountID uuid.UUID) (*Subscription, error)

	// Tx variants run inside a caller-managed transaction. The webhook
	// reconciler uses them so the subscription update, any credit award and
	// the processed-event record commit together.
	GetByProviderIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, providerID string) (*Subscription, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, s *Subscription) error
	UpdateTx(ctx context.Context, tx *sqlx.Tx, s *Subscription) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates subscription repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const subscriptionColumns = `
		id, account_id, plan_id, provider_subscription_id, status,
		current_period_start, current_period_end, cancel_at_period_end,
		created_at, updated_at`

func (r *repository) GetByAccount(ctx context.Context, accountID uuid.UUID) (*Subscription, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var s Subscription
	err := r.db.GetContext(ctx2, &s, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE account_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get subscription", ErrInternal)
	}
	return &s, nil
}

func (r *repository) GetByProviderIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, providerID string) (*Subscription, error) {
	var s Subscription
	err := tx.GetContext(ctx, &s, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE provider_subscription_id = $1
		FOR UPDATE
	`, providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get subscription for update", ErrInternal)
	}
	return &s, nil
}

func (r *repository) CreateTx(ctx context.Context, tx *sqlx.Tx, s *Subscription) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO subscriptions (
			id, account_id, plan_id, provider_subscription_id, status,
			current_period_start, current_period_end, cancel_at_period_end,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`, s.ID, s.AccountID, s.PlanID, s.ProviderSubscriptionID, s.Status,
		s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CancelAtPeriodEnd, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: create subscription", ErrInternal)
	}
	return nil
}

func (r *repository) UpdateTx(ctx context.Context, tx *sqlx.Tx, s *Subscription) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE subscriptions SET
			plan_id = $2,
			status = $3,
			current_period_start = $4,
			current_period_end = $5,
			cancel_at_period_end = $6,
			updated_at = $7
		WHERE id = $1
	`, s.ID, s.PlanID, s.Status, s.CurrentPeriodStart, s.CurrentPeriodEnd,
		s.CancelAtPeriodEnd, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: update subscription", ErrInternal)
	}
	return nil
}
