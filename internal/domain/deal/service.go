package deal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/bizbroker/bizbroker-api/internal/domain/ledger"
)

// ListingInfo is the slice of a listing that deal creation needs
type ListingInfo struct {
	ID       uuid.UUID
	SellerID uuid.UUID
}

// ListingSource resolves listings for deal creation. Returns (nil, nil)
// when the listing does not exist.
type ListingSource interface {
	GetListing(ctx context.Context, id uuid.UUID) (*ListingInfo, error)
}

// Service interface defines deal pipeline operations
type Service interface {
	// CreateInterest opens a deal at the entry stage. At most one open deal
	// per (buyer, listing) pair.
	CreateInterest(ctx context.Context, buyerID, listingID uuid.UUID) (*Deal, error)

	Get(ctx context.Context, dealID uuid.UUID) (*Deal, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]Deal, error)

	// Move advances the deal to a higher-ordinal stage. Moving to the
	// current stage is a no-op; backward and absorbing targets are rejected.
	Move(ctx context.Context, dealID uuid.UUID, target Stage, actor string) (*Deal, error)

	// Release closes the deal and awards credits when the history shows
	// progress past the entry stage. Returns the credits awarded.
	Release(ctx context.Context, dealID uuid.UUID, reason, actor string) (*Deal, int, error)

	// Abandon closes the deal without any award
	Abandon(ctx context.Context, dealID uuid.UUID, actor string) (*Deal, error)

	History(ctx context.Context, dealID uuid.UUID) ([]StageHistoryEvent, error)
}

type service struct {
	db          *sqlx.DB
	repo        Repository
	listings    ListingSource
	timers      TimerPolicyProvider
	evaluator   *Evaluator
	ledger      ledger.Service
	notifier    ledger.Notifier
	sellerBonus int
}

// NewService creates deal service
func NewService(
	db *sqlx.DB,
	listings ListingSource,
	timers TimerPolicyProvider,
	evaluator *Evaluator,
	ledgerSvc ledger.Service,
	notifier ledger.Notifier,
	sellerBonus int,
) Service {
	return &service{
		db:          db,
		repo:        NewRepository(db),
		listings:    listings,
		timers:      timers,
		evaluator:   evaluator,
		ledger:      ledgerSvc,
		notifier:    notifier,
		sellerBonus: sellerBonus,
	}
}

func (s *service) CreateInterest(ctx context.Context, buyerID, listingID uuid.UUID) (*Deal, error) {
	l, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve listing", ErrInternal)
	}
	if l == nil {
		return nil, ErrListingNotFound
	}

	if existing, err := s.repo.GetOpenByBuyerAndListing(ctx, buyerID, listingID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrDealExists
	}

	now := time.Now().UTC()
	d := &Deal{
		ID:             uuid.New(),
		BuyerID:        buyerID,
		ListingID:      listingID,
		SellerID:       l.SellerID,
		Stage:          StageInterest,
		StageEnteredAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// The partial unique index closes the race between the pre-check and
	// the insert.
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	return d, nil
}

func (s *service) Get(ctx context.Context, dealID uuid.UUID) (*Deal, error) {
	d, err := s.repo.GetByID(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDealNotFound
	}
	return d, nil
}

func (s *service) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]Deal, error) {
	return s.repo.ListByBuyer(ctx, buyerID, limit, offset)
}

func (s *service) Move(ctx context.Context, dealID uuid.UUID, target Stage, actor string) (*Deal, error) {
	if target.Absorbing() {
		return nil, ErrAbsorbingTarget
	}
	targetOrd, ok := target.Ordinal()
	if !ok {
		return nil, ErrUnknownStage
	}

	d, err := s.Get(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if d.Terminal() {
		return nil, ErrTerminalDeal
	}

	currentOrd, ok := d.Stage.Ordinal()
	if !ok {
		return nil, ErrTerminalDeal
	}

	if targetOrd == currentOrd {
		// Lateral move: accepted, nothing changes and no history is written
		return d, nil
	}
	if targetOrd < currentOrd {
		return nil, ErrBackwardMove
	}

	policy, err := s.timers.TimerPolicy(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: timer policy", ErrInternal)
	}

	now := time.Now().UTC()
	move := StageMove{
		DealID:           dealID,
		From:             d.Stage,
		To:               target,
		Actor:            actor,
		Now:              now,
		TimeInStageDelta: int64(now.Sub(d.StageEnteredAt).Seconds()),
		Reserve:          !d.Reserved,
	}
	if dwell, tracked := policy.DwellFor(target); tracked {
		move.ReservedUntil = sql.NullTime{Time: now.Add(dwell), Valid: true}
	}

	if err := s.repo.MoveStage(ctx, move); err != nil {
		return nil, err
	}

	return s.Get(ctx, dealID)
}

func (s *service) Release(ctx context.Context, dealID uuid.UUID, reason, actor string) (*Deal, int, error) {
	d, err := s.Get(ctx, dealID)
	if err != nil {
		return nil, 0, err
	}
	if d.ReleasedAt.Valid {
		return nil, 0, ErrAlreadyReleased
	}
	if d.Terminal() {
		return nil, 0, ErrTerminalDeal
	}

	history, err := s.repo.History(ctx, dealID)
	if err != nil {
		return nil, 0, err
	}

	amount := 0
	if s.evaluator.Eligible(history) {
		amount, err = s.evaluator.CreditAmount(ctx, d.BuyerID, d.ListingID)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: compute award", ErrInternal)
		}
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	if err := s.repo.MarkReleasedTx(ctx, tx, dealID, d.Stage, reason, actor, amount, time.Now().UTC()); err != nil {
		return nil, 0, err
	}

	if amount > 0 {
		source := ledger.DealReleaseSource(dealID.String())
		if _, err := s.ledger.AwardTx(ctx, tx, d.BuyerID, amount, ledger.KindReleaseAward, source, "deal release award"); err != nil {
			return nil, 0, err
		}
		// The seller bonus is only paid on a voluntary release, signalled
		// by the buyer giving a reason
		if s.sellerBonus > 0 && reason != "" {
			if _, err := s.ledger.AwardTx(ctx, tx, d.SellerID, s.sellerBonus, ledger.KindSellerBonus, source, "seller release bonus"); err != nil {
				return nil, 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	if amount > 0 {
		s.notifyAward(ctx, d, amount)
	}

	released, err := s.Get(ctx, dealID)
	if err != nil {
		return nil, 0, err
	}
	return released, amount, nil
}

func (s *service) Abandon(ctx context.Context, dealID uuid.UUID, actor string) (*Deal, error) {
	d, err := s.Get(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if d.Terminal() {
		return nil, ErrTerminalDeal
	}

	if err := s.repo.MarkAbandoned(ctx, dealID, d.Stage, actor, time.Now().UTC()); err != nil {
		return nil, err
	}

	return s.Get(ctx, dealID)
}

func (s *service) History(ctx context.Context, dealID uuid.UUID) ([]StageHistoryEvent, error) {
	if _, err := s.Get(ctx, dealID); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, dealID)
}

func (s *service) notifyAward(ctx context.Context, d *Deal, amount int) {
	if s.notifier == nil {
		return
	}
	msg := fmt.Sprintf("You earned %d credits for your work on this deal", amount)
	if err := s.notifier.Notify(ctx, d.BuyerID, "deal_released", "Deal released", msg, "/deals/"+d.ID.String()); err != nil {
		log.Warn().Err(err).Str("deal_id", d.ID.String()).Msg("release notification failed")
	}
}
