package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 3 * time.Second

const uniqueViolation = "23505"

// ErrEventAlreadyProcessed is returned when a concurrent delivery of the
// same event won the processed-event insert.
var ErrEventAlreadyProcessed = errors.New("event already processed")

var errInternal = errors.New("internal error")

// EventStore records provider event IDs that have been fully applied.
// The primary key on event_id is what makes at-least-once delivery safe.
type EventStore interface {
	Processed(ctx context.Context, eventID string) (bool, error)

	// MarkProcessedTx inserts the processed-event record inside the same
	// transaction as the event's effects. Returns ErrEventAlreadyProcessed
	// on a duplicate event ID.
	MarkProcessedTx(ctx context.Context, tx *sqlx.Tx, eventID, eventType string) error
}

type eventStore struct {
	db *sqlx.DB
}

// NewEventStore creates processed-event store
func NewEventStore(db *sqlx.DB) EventStore {
	return &eventStore{db: db}
}

func (s *eventStore) Processed(ctx context.Context, eventID string) (bool, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := s.db.GetContext(ctx2, &exists, `
		SELECT EXISTS (SELECT 1 FROM processed_billing_events WHERE event_id = $1)
	`, eventID)
	if err != nil {
		return false, fmt.Errorf("%w: check processed event", errInternal)
	}
	return exists, nil
}

func (s *eventStore) MarkProcessedTx(ctx context.Context, tx *sqlx.Tx, eventID, eventType string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO processed_billing_events (event_id, event_type, processed_at)
		VALUES ($1, $2, now())
	`, eventID, eventType)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrEventAlreadyProcessed
		}
		return fmt.Errorf("%w: mark event processed", errInternal)
	}
	return nil
}
