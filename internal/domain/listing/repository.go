package listing

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines read-only listing access
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Listing, error)

	// CountValidatedEnrichments counts distinct validated enrichment records a
	// buyer submitted for a listing. Consumed by release credit computation.
	CountValidatedEnrichments(ctx context.Context, buyerID, listingID uuid.UUID) (int, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates listing repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	query := `
		SELECT id, seller_id, title, status, asking_price, region, created_at
		FROM listings
		WHERE id = $1
	`
	var l Listing
	err := r.db.GetContext(ctx, &l, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *repository) CountValidatedEnrichments(ctx context.Context, buyerID, listingID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(DISTINCT id)
		FROM enrichments
		WHERE buyer_id = $1 AND listing_id = $2 AND validated = true
	`, buyerID, listingID)
	return count, err
}
