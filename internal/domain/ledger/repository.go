package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const queryTimeout = 3 * time.Second

type Repository interface {
	Award(ctx context.Context, accountID string, amount int, kind string, source Source, description string) (*Entry, error)
	AwardTx(ctx context.Context, tx *sqlx.Tx, accountID string, amount int, kind string, source Source, description string) (*Entry, error)
	Spend(ctx context.Context, accountID string, amount int, kind string, source Source, description string) (*Entry, error)
	GetBalance(ctx context.Context, accountID string) (int, error)
	ListEntries(ctx context.Context, accountID string, pagination Pagination) ([]Entry, error)
	SearchEntries(ctx context.Context, filters SearchFilters) ([]Entry, error)
}

// LedgerRepository provides ledger and balance operations.
type LedgerRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Award increments the account balance and appends the matching entry in
// one transaction. The account row is locked so the stamped balance_after
// cannot race a concurrent mutation.
func (r *LedgerRepository) Award(ctx context.Context, accountID string, amount int, kind string, source Source, description string) (*Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	entry, err := r.AwardTx(ctx2, tx, accountID, amount, kind, source, description)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return entry, nil
}

// AwardTx awards credits within an external transaction (FOR UPDATE row
// lock). Used when the award must be atomic with another operation, e.g.
// recording a processed billing event. The caller commits or rolls back.
func (r *LedgerRepository) AwardTx(ctx context.Context, tx *sqlx.Tx, accountID string, amount int, kind string, source Source, description string) (*Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	balance, err := lockBalance(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	newBalance := balance + amount
	if err := updateBalance(ctx, tx, accountID, newBalance); err != nil {
		return nil, err
	}

	return insertEntry(ctx, tx, accountID, amount, kind, source, description, newBalance)
}

// Spend checks the balance and decrements it under the same row lock, so two
// concurrent spends against one account cannot both pass the check.
func (r *LedgerRepository) Spend(ctx context.Context, accountID string, amount int, kind string, source Source, description string) (*Entry, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx2, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx", ErrInternal)
	}
	defer tx.Rollback()

	balance, err := lockBalance(ctx2, tx, accountID)
	if err != nil {
		return nil, err
	}

	if balance < amount {
		return nil, ErrInsufficientCredits
	}

	newBalance := balance - amount
	if err := updateBalance(ctx2, tx, accountID, newBalance); err != nil {
		return nil, err
	}

	entry, err := insertEntry(ctx2, tx, accountID, -amount, kind, source, description, newBalance)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit tx", ErrInternal)
	}

	return entry, nil
}

func (r *LedgerRepository) GetBalance(ctx context.Context, accountID string) (int, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int
	err := r.db.GetContext(ctx2, &balance, `SELECT credit_balance FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, fmt.Errorf("%w: get balance", ErrInternal)
	}

	return balance, nil
}

func (r *LedgerRepository) ListEntries(ctx context.Context, accountID string, pagination Pagination) ([]Entry, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	limit := pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	entries := make([]Entry, 0)
	err := r.db.SelectContext(ctx2, &entries, `
		SELECT id, account_id, amount_delta, entry_kind, source_type, source_ref, description, balance_after, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, pagination.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries", ErrInternal)
	}

	return entries, nil
}

func (r *LedgerRepository) SearchEntries(ctx context.Context, filters SearchFilters) ([]Entry, error) {
	ctx2, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	base := `
		SELECT id, account_id, amount_delta, entry_kind, source_type, source_ref, description, balance_after, created_at
		FROM ledger_entries
		WHERE 1=1`
	args := make([]interface{}, 0, 8)
	idx := 1

	if filters.AccountID != nil && *filters.AccountID != "" {
		base += fmt.Sprintf(" AND account_id = $%d", idx)
		args = append(args, *filters.AccountID)
		idx++
	}
	if filters.EntryKind != nil && *filters.EntryKind != "" {
		base += fmt.Sprintf(" AND entry_kind = $%d", idx)
		args = append(args, *filters.EntryKind)
		idx++
	}
	if filters.SourceType != nil && *filters.SourceType != "" {
		base += fmt.Sprintf(" AND source_type = $%d", idx)
		args = append(args, *filters.SourceType)
		idx++
	}
	if filters.SourceRef != nil && *filters.SourceRef != "" {
		base += fmt.Sprintf(" AND source_ref = $%d", idx)
		args = append(args, *filters.SourceRef)
		idx++
	}
	if filters.DateFrom != nil {
		base += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, *filters.DateFrom)
		idx++
	}
	if filters.DateTo != nil {
		base += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, *filters.DateTo)
		idx++
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}

	base = strings.TrimSpace(base) + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, filters.Offset)

	entries := make([]Entry, 0)
	if err := r.db.SelectContext(ctx2, &entries, base, args...); err != nil {
		return nil, fmt.Errorf("%w: search entries", ErrInternal)
	}

	return entries, nil
}

func lockBalance(ctx context.Context, tx *sqlx.Tx, accountID string) (int, error) {
	var balance int
	err := tx.QueryRowContext(ctx, `SELECT credit_balance FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, fmt.Errorf("%w: lock account row", ErrInternal)
	}
	return balance, nil
}

func updateBalance(ctx context.Context, tx *sqlx.Tx, accountID string, newBalance int) error {
	_, err := tx.ExecContext(ctx, `UPDATE accounts SET credit_balance = $2 WHERE id = $1`, accountID, newBalance)
	if err != nil {
		return fmt.Errorf("%w: update account balance", ErrInternal)
	}
	return nil
}

func insertEntry(ctx context.Context, tx *sqlx.Tx, accountID string, amountDelta int, kind string, source Source, description string, balanceAfter int) (*Entry, error) {
	kind = strings.TrimSpace(kind)
	if kind != string(KindReleaseAward) && kind != string(KindSellerBonus) &&
		kind != string(KindPurchase) && kind != string(KindAdminGrant) && kind != string(KindSpend) {
		return nil, ErrInternal
	}

	if !source.Valid() {
		return nil, ErrInvalidSource
	}

	if strings.TrimSpace(description) == "" {
		description = "credit balance adjustment"
	}

	entry := &Entry{
		AccountID:    accountID,
		AmountDelta:  amountDelta,
		EntryKind:    kind,
		SourceType:   string(source.Type),
		SourceRef:    source.Ref,
		Description:  description,
		BalanceAfter: balanceAfter,
	}

	err := tx.QueryRowContext(ctx, `
		INSERT INTO ledger_entries (
			id, account_id, amount_delta, entry_kind, source_type, source_ref, description, balance_after
		)
		VALUES (
			gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7
		)
		RETURNING id, created_at
	`, accountID, amountDelta, kind, source.Type, source.Ref, description, balanceAfter).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: insert ledger entry", ErrInternal)
	}

	return entry, nil
}
