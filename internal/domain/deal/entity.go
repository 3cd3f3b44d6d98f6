package deal

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Deal is one buyer's relationship to one listing. At most one non-released
// deal exists per (buyer, listing) pair; deals are never hard-deleted.
type Deal struct {
	ID        uuid.UUID `db:"id" json:"id"`
	BuyerID   uuid.UUID `db:"buyer_id" json:"buyer_id"`
	ListingID uuid.UUID `db:"listing_id" json:"listing_id"`
	SellerID  uuid.UUID `db:"seller_id" json:"seller_id"`

	Stage          Stage        `db:"stage" json:"stage"`
	StageEnteredAt time.Time    `db:"stage_entered_at" json:"stage_entered_at"`
	TimeInStage    int64        `db:"time_in_stage_secs" json:"time_in_stage_secs"`
	Reserved       bool         `db:"reserved" json:"reserved"`
	ReservedAt     sql.NullTime `db:"reserved_at" json:"reserved_at,omitempty"`
	ReservedUntil  sql.NullTime `db:"reserved_until" json:"reserved_until,omitempty"`

	TotalCreditsEarned int            `db:"total_credits_earned" json:"total_credits_earned"`
	ReleasedAt         sql.NullTime   `db:"released_at" json:"released_at,omitempty"`
	ReleaseReason      sql.NullString `db:"release_reason" json:"release_reason,omitempty"`
	AbandonedAt        sql.NullTime   `db:"abandoned_at" json:"abandoned_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the deal accepts no further stage transitions
func (d *Deal) Terminal() bool {
	return d.ReleasedAt.Valid || d.AbandonedAt.Valid || d.Stage.Absorbing()
}

// TimerExpired is a derived property evaluated on read: the stored stage is
// never changed by a lapsed timer, an explicit caller acts on it.
func (d *Deal) TimerExpired(now time.Time) bool {
	if d.Terminal() {
		return false
	}
	if !d.ReservedUntil.Valid {
		return false
	}
	if _, tracked := d.Stage.Group(); !tracked {
		return false
	}
	return now.After(d.ReservedUntil.Time)
}

// StageHistoryEvent is an append-only record of one stage transition or of
// a release/abandon event. Never mutated after creation.
type StageHistoryEvent struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DealID    uuid.UUID `db:"deal_id" json:"deal_id"`
	FromStage Stage     `db:"from_stage" json:"from_stage"`
	ToStage   Stage     `db:"to_stage" json:"to_stage"`
	Actor     string    `db:"actor" json:"actor"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
