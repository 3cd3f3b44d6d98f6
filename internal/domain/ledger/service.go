package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// service implements the Service interface
type service struct {
	repo     Repository
	notifier Notifier
}

// NewService creates a new ledger service. notifier may be nil.
func NewService(db *sqlx.DB, notifier Notifier) Service {
	return &service{
		repo:     NewRepository(db),
		notifier: notifier,
	}
}

func (s *service) Award(ctx context.Context, accountID uuid.UUID, amount int, kind EntryKind, source Source, description string) (*Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	entry, err := s.repo.Award(ctx, accountID.String(), amount, string(kind), source, description)
	if err != nil {
		return nil, err
	}

	// Post-commit, best-effort: a notification failure cannot undo the award.
	s.notifyAward(ctx, accountID, amount, entry)

	return entry, nil
}

func (s *service) AwardTx(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, amount int, kind EntryKind, source Source, description string) (*Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.repo.AwardTx(ctx, tx, accountID.String(), amount, string(kind), source, description)
}

func (s *service) Spend(ctx context.Context, accountID uuid.UUID, amount int, kind EntryKind, source Source, description string) (*Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.repo.Spend(ctx, accountID.String(), amount, string(kind), source, description)
}

func (s *service) GetBalance(ctx context.Context, accountID uuid.UUID) (int, error) {
	return s.repo.GetBalance(ctx, accountID.String())
}

func (s *service) ListEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	return s.repo.ListEntries(ctx, accountID.String(), Pagination{Limit: limit, Offset: offset})
}

func (s *service) SearchEntries(ctx context.Context, filters SearchFilters) ([]Entry, error) {
	return s.repo.SearchEntries(ctx, filters)
}

func (s *service) notifyAward(ctx context.Context, accountID uuid.UUID, amount int, entry *Entry) {
	if s.notifier == nil {
		return
	}

	title := "Credits added"
	message := fmt.Sprintf("%d credit(s) were added to your balance", amount)
	if err := s.notifier.Notify(ctx, accountID, "credits_awarded", title, message, "/credits"); err != nil {
		log.Error().Err(err).
			Str("account_id", accountID.String()).
			Str("entry_id", entry.ID).
			Msg("Failed to deliver award notification")
	}
}
