package deal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

// uniqueViolation is the Postgres error code raised by the partial unique
// index on open (buyer_id, listing_id) pairs.
const uniqueViolation = "23505"

// StageMove carries one validated stage transition to the store
type StageMove struct {
	DealID           uuid.UUID
	From             Stage
	To               Stage
	Actor            string
	Now              time.Time
	TimeInStageDelta int64
	Reserve          bool
	ReservedUntil    sql.NullTime
}

type Repository interface {
	Create(ctx context.Context, d *Deal) error
	GetByID(ctx context.Context, id uuid.UUID) (*Deal, error)
	GetOpenByBuyerAndListing(ctx context.Context, buyerID, listingID uuid.UUID) (*Deal, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]Deal, error)
	MoveStage(ctx context.Context, move StageMove) error

	// MarkReleasedTx runs inside a caller-managed transaction so the credit
	// award and the terminal update commit or roll back together.
	MarkReleasedTx(ctx context.Context, tx *sqlx.Tx, dealID uuid.UUID, from Stage, reason, actor string, creditsEarned int, now time.Time) error
	MarkAbandoned(ctx context.Context, dealID uuid.UUID, from Stage, actor string, now time.Time) error
	History(ctx context.Context, dealID uuid.UUID) ([]StageHistoryEvent, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates deal repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, d *Deal) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx2, `
		INSERT INTO deals (
			id, buyer_id, listing_id, seller_id, stage, stage_entered_at,
			time_in_stage_secs, reserved, total_credits_earned, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, 0, false, 0, $7, $7)
	`, d.ID, d.BuyerID, d.ListingID, d.SellerID, d.Stage, d.StageEnteredAt, d.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDealExists
		}
		return fmt.Errorf("%w: create deal", ErrInternal)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Deal, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var d Deal
	err := r.db.GetContext(ctx2, &d, `
		SELECT `+dealColumns+`
		FROM deals
		WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get deal", ErrInternal)
	}
	return &d, nil
}

func (r *repository) GetOpenByBuyerAndListing(ctx context.Context, buyerID, listingID uuid.UUID) (*Deal, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var d Deal
	err := r.db.GetContext(ctx2, &d, `
		SELECT `+dealColumns+`
		FROM deals
		WHERE buyer_id = $1 AND listing_id = $2 AND released_at IS NULL AND abandoned_at IS NULL
	`, buyerID, listingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get open deal", ErrInternal)
	}
	return &d, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]Deal, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 20
	}

	deals := make([]Deal, 0)
	err := r.db.SelectContext(ctx2, &deals, `
		SELECT `+dealColumns+`
		FROM deals
		WHERE buyer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, buyerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list deals", ErrInternal)
	}
	return deals, nil
}

// MoveStage applies one forward transition with a compare-and-set on the
// stage read at move-initiation time. The history event is appended in the
// same transaction.
func (r *repository) MoveStage(ctx context.Context, move StageMove) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx2, `
		UPDATE deals SET
			stage = $3,
			stage_entered_at = $4,
			time_in_stage_secs = time_in_stage_secs + $5,
			reserved = CASE WHEN $6 THEN true ELSE reserved END,
			reserved_at = CASE WHEN $6 THEN $4 ELSE reserved_at END,
			reserved_until = $7,
			updated_at = $4
		WHERE id = $1 AND stage = $2 AND released_at IS NULL AND abandoned_at IS NULL
	`, move.DealID, move.From, move.To, move.Now, move.TimeInStageDelta, move.Reserve, move.ReservedUntil)
	if err != nil {
		return fmt.Errorf("%w: move stage", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrStaleStage
	}

	if err := insertHistoryEvent(ctx2, tx, move.DealID, move.From, move.To, move.Actor, move.Now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return nil
}

func (r *repository) MarkReleasedTx(ctx context.Context, tx *sqlx.Tx, dealID uuid.UUID, from Stage, reason, actor string, creditsEarned int, now time.Time) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE deals SET
			stage = $2,
			released_at = $3,
			release_reason = $4,
			total_credits_earned = total_credits_earned + $5,
			updated_at = $3
		WHERE id = $1 AND released_at IS NULL AND abandoned_at IS NULL
	`, dealID, StageReleased, now, sql.NullString{String: reason, Valid: reason != ""}, creditsEarned)
	if err != nil {
		return fmt.Errorf("%w: mark released", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrAlreadyReleased
	}

	return insertHistoryEvent(ctx, tx, dealID, from, StageReleased, actor, now)
}

func (r *repository) MarkAbandoned(ctx context.Context, dealID uuid.UUID, from Stage, actor string, now time.Time) error {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx2, `
		UPDATE deals SET
			stage = $2,
			abandoned_at = $3,
			updated_at = $3
		WHERE id = $1 AND released_at IS NULL AND abandoned_at IS NULL
	`, dealID, StageAbandoned, now)
	if err != nil {
		return fmt.Errorf("%w: mark abandoned", ErrInternal)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected", ErrInternal)
	}
	if rows == 0 {
		return ErrTerminalDeal
	}

	if err := insertHistoryEvent(ctx2, tx, dealID, from, StageAbandoned, actor, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return nil
}

func (r *repository) History(ctx context.Context, dealID uuid.UUID) ([]StageHistoryEvent, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	events := make([]StageHistoryEvent, 0)
	err := r.db.SelectContext(ctx2, &events, `
		SELECT id, deal_id, from_stage, to_stage, actor, created_at
		FROM deal_stage_events
		WHERE deal_id = $1
		ORDER BY created_at ASC
	`, dealID)
	if err != nil {
		return nil, fmt.Errorf("%w: deal history", ErrInternal)
	}
	return events, nil
}

const dealColumns = `
		id, buyer_id, listing_id, seller_id, stage, stage_entered_at,
		time_in_stage_secs, reserved, reserved_at, reserved_until,
		total_credits_earned, released_at, release_reason, abandoned_at,
		created_at, updated_at`

func insertHistoryEvent(ctx context.Context, tx *sqlx.Tx, dealID uuid.UUID, from, to Stage, actor string, now time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO deal_stage_events (id, deal_id, from_stage, to_stage, actor, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
	`, dealID, from, to, actor, now)
	if err != nil {
		return fmt.Errorf("%w: insert stage event", ErrInternal)
	}
	return nil
}
