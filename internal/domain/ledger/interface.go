package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Notifier delivers fire-and-forget account notifications. Failures are
// logged by the caller and never propagated into the ledger transaction.
type Notifier interface {
	Notify(ctx context.Context, accountID uuid.UUID, kind, title, message, link string) error
}

// Service interface defines the ledger operations
type Service interface {
	// Award atomically adds credits to an account and emits a best-effort
	// notification after the mutation commits
	Award(ctx context.Context, accountID uuid.UUID, amount int, kind EntryKind, source Source, description string) (*Entry, error)

	// AwardTx awards credits within an external transaction.
	// Used when the award must be atomic with another operation.
	AwardTx(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, amount int, kind EntryKind, source Source, description string) (*Entry, error)

	// Spend atomically deducts credits from an account.
	// Returns ErrInsufficientCredits if the balance is insufficient.
	Spend(ctx context.Context, accountID uuid.UUID, amount int, kind EntryKind, source Source, description string) (*Entry, error)

	// GetBalance returns the current credit balance for an account
	GetBalance(ctx context.Context, accountID uuid.UUID) (int, error)

	// ListEntries returns paginated ledger history for an account
	ListEntries(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]Entry, error)

	// SearchEntries returns filtered entries (admin use)
	SearchEntries(ctx context.Context, filters SearchFilters) ([]Entry, error)
}
