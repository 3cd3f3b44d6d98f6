package subscription

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status represents a subscription lifecycle state
type Status string

const (
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
	StatusActive    Status = "active"
)

// statusRanks orders statuses for monotonic webhook application. A stored
// status is only replaced by one of equal or higher rank, so late or
// replayed provider events cannot regress the lifecycle.
var statusRanks = map[Status]int{
	StatusPending:   0,
	StatusFailed:    1,
	StatusExpired:   2,
	StatusCancelled: 3,
	StatusActive:    4,
}

// Rank returns the monotonic ordering rank of a status
func (s Status) Rank() (int, bool) {
	rank, ok := statusRanks[s]
	return rank, ok
}

// ParseStatus validates a raw status from a provider payload
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	_, ok := statusRanks[s]
	return s, ok
}

// Subscription mirrors the billing provider's view of one account's plan
type Subscription struct {
	ID                     uuid.UUID      `db:"id" json:"id"`
	AccountID              uuid.UUID      `db:"account_id" json:"account_id"`
	PlanID                 sql.NullString `db:"plan_id" json:"plan_id,omitempty"`
	ProviderSubscriptionID string         `db:"provider_subscription_id" json:"provider_subscription_id"`
	Status                 Status         `db:"status" json:"status"`
	CurrentPeriodStart     sql.NullTime   `db:"current_period_start" json:"current_period_start,omitempty"`
	CurrentPeriodEnd       sql.NullTime   `db:"current_period_end" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd      bool           `db:"cancel_at_period_end" json:"cancel_at_period_end"`
	CreatedAt              time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time      `db:"updated_at" json:"updated_at"`
}
