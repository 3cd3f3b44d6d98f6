package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/bizbroker/bizbroker-api/internal/domain/ledger"
	"github.com/bizbroker/bizbroker-api/internal/domain/subscription"
	"github.com/bizbroker/bizbroker-api/internal/pkg/payhook"
)

// Result classifies the outcome of applying one provider event
type Result string

const (
	ResultApplied   Result = "applied"
	ResultDuplicate Result = "duplicate"
	ResultRejected  Result = "rejected"
)

// ErrEventRejected wraps semantic rejections: unknown event types, unknown
// statuses, malformed references. Retrying the same event cannot succeed.
var ErrEventRejected = errors.New("event rejected")

// Applier applies provider events. Split out so the webhook handler can be
// tested without a database.
type Applier interface {
	Apply(ctx context.Context, ev *payhook.Event) (Result, error)
}

// Reconciler applies billing-provider events exactly once. Every effect of
// an event commits in the same transaction as its processed-event record,
// so a crash between the two cannot double-apply.
type Reconciler struct {
	db     *sqlx.DB
	subs   subscription.Repository
	ledger ledger.Service
	events EventStore
}

// NewReconciler creates billing event reconciler
func NewReconciler(db *sqlx.DB, subs subscription.Repository, ledgerSvc ledger.Service, events EventStore) *Reconciler {
	return &Reconciler{db: db, subs: subs, ledger: ledgerSvc, events: events}
}

func (r *Reconciler) Apply(ctx context.Context, ev *payhook.Event) (Result, error) {
	// Fast path. The authoritative duplicate check is the insert at commit
	// time; this only skips work for the common replay case.
	processed, err := r.events.Processed(ctx, ev.EventID)
	if err != nil {
		return "", err
	}
	if processed {
		return ResultDuplicate, nil
	}

	accountID, err := uuid.Parse(ev.AccountID)
	if err != nil {
		return ResultRejected, fmt.Errorf("%w: bad account id %q", ErrEventRejected, ev.AccountID)
	}

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	switch ev.Type {
	case payhook.TypeSubscriptionUpdated:
		err = r.applySubscriptionUpdated(ctx, tx, accountID, ev)
	case payhook.TypePaymentSucceeded:
		err = r.applyPaymentSucceeded(ctx, tx, accountID, ev)
	case payhook.TypePaymentFailed:
		err = r.applyPaymentFailed(ctx, tx, ev)
	default:
		err = fmt.Errorf("%w: unknown event type %q", ErrEventRejected, ev.Type)
	}
	if err != nil {
		if errors.Is(err, ErrEventRejected) {
			return ResultRejected, err
		}
		return "", err
	}

	if err := r.events.MarkProcessedTx(ctx, tx, ev.EventID, ev.Type); err != nil {
		if errors.Is(err, ErrEventAlreadyProcessed) {
			// A concurrent delivery of the same event committed first
			return ResultDuplicate, nil
		}
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit tx: %w", err)
	}

	return ResultApplied, nil
}

func (r *Reconciler) applySubscriptionUpdated(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, ev *payhook.Event) error {
	if ev.ProviderSubscriptionID == "" {
		return fmt.Errorf("%w: subscription_id is required", ErrEventRejected)
	}
	status, ok := subscription.ParseStatus(ev.Status)
	if !ok {
		return fmt.Errorf("%w: unknown status %q", ErrEventRejected, ev.Status)
	}

	now := time.Now().UTC()
	sub, err := r.subs.GetByProviderIDForUpdateTx(ctx, tx, ev.ProviderSubscriptionID)
	if err != nil {
		return err
	}

	if sub == nil {
		sub = &subscription.Subscription{
			ID:                     uuid.New(),
			AccountID:              accountID,
			ProviderSubscriptionID: ev.ProviderSubscriptionID,
			Status:                 status,
			CreatedAt:              now,
			UpdatedAt:              now,
		}
		applyEventFields(sub, ev)
		return r.subs.CreateTx(ctx, tx, sub)
	}

	// Status only moves to an equal or higher rank. Out-of-order delivery
	// of a stale status cannot undo a later one. Period and plan fields
	// reflect the latest event either way.
	newRank, _ := status.Rank()
	curRank, _ := sub.Status.Rank()
	if newRank >= curRank {
		sub.Status = status
	} else {
		log.Info().
			Str("provider_subscription_id", ev.ProviderSubscriptionID).
			Str("stored_status", string(sub.Status)).
			Str("event_status", string(status)).
			Msg("ignoring status regression from out-of-order event")
	}
	applyEventFields(sub, ev)
	sub.UpdatedAt = now
	return r.subs.UpdateTx(ctx, tx, sub)
}

func applyEventFields(sub *subscription.Subscription, ev *payhook.Event) {
	if ev.PlanID != "" {
		sub.PlanID = sql.NullString{String: ev.PlanID, Valid: true}
	}
	if ev.PeriodStart != nil {
		sub.CurrentPeriodStart = sql.NullTime{Time: *ev.PeriodStart, Valid: true}
	}
	if ev.PeriodEnd != nil {
		sub.CurrentPeriodEnd = sql.NullTime{Time: *ev.PeriodEnd, Valid: true}
	}
	if ev.CancelAtPeriodEnd != nil {
		sub.CancelAtPeriodEnd = *ev.CancelAtPeriodEnd
	}
}

func (r *Reconciler) applyPaymentSucceeded(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, ev *payhook.Event) error {
	if ev.CreditAmount <= 0 {
		return fmt.Errorf("%w: payment.succeeded without a positive credit_amount", ErrEventRejected)
	}

	ref := ev.CreditPackID
	if ref == "" {
		ref = ev.EventID
	}
	_, err := r.ledger.AwardTx(ctx, tx, accountID, ev.CreditAmount, ledger.KindPurchase, ledger.PurchaseSource(ref), "credit pack purchase")
	return err
}

func (r *Reconciler) applyPaymentFailed(ctx context.Context, tx *sqlx.Tx, ev *payhook.Event) error {
	if ev.ProviderSubscriptionID == "" {
		// A failed one-off payment carries no subscription; recording the
		// event is all there is to do.
		return nil
	}

	sub, err := r.subs.GetByProviderIDForUpdateTx(ctx, tx, ev.ProviderSubscriptionID)
	if err != nil {
		return err
	}
	if sub == nil {
		return nil
	}

	newRank, _ := subscription.StatusFailed.Rank()
	curRank, _ := sub.Status.Rank()
	if newRank >= curRank {
		sub.Status = subscription.StatusFailed
		sub.UpdatedAt = time.Now().UTC()
		return r.subs.UpdateTx(ctx, tx, sub)
	}
	return nil
}
