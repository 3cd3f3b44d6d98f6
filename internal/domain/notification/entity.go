package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds emitted by the platform.
const (
	KindDealReleased    = "deal_released"
	KindCreditsAwarded  = "credits_awarded"
	KindCreditsSpent    = "credits_spent"
	KindSubscription    = "subscription"
	KindAdminAdjustment = "admin_adjustment"
)

// Notification is one message delivered to an account
type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	AccountID uuid.UUID `db:"account_id" json:"account_id"`
	Kind      string    `db:"kind" json:"kind"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Link      string    `db:"link" json:"link,omitempty"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
