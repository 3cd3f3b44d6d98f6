package deal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// EnrichmentCounter counts distinct validated enrichments a buyer has
// contributed for a listing.
type EnrichmentCounter interface {
	CountValidatedEnrichments(ctx context.Context, buyerID, listingID uuid.UUID) (int, error)
}

// Evaluator decides whether a release earns credits and how many. The
// stage history log is the authoritative progress signal: the live stage
// column on the deal row plays no part in the decision.
type Evaluator struct {
	enrichments EnrichmentCounter
}

// NewEvaluator creates release eligibility evaluator
func NewEvaluator(enrichments EnrichmentCounter) *Evaluator {
	return &Evaluator{enrichments: enrichments}
}

// Eligible reports whether the deal progressed past the entry stage. A
// deal whose history contains a forward move into any stage with ordinal
// above zero qualifies; a deal released straight from interest does not.
func (e *Evaluator) Eligible(history []StageHistoryEvent) bool {
	for _, event := range history {
		ord, ok := event.ToStage.Ordinal()
		if !ok {
			continue
		}
		if ord > 0 {
			return true
		}
	}
	return false
}

// CreditAmount computes the award for an eligible release: one base credit
// plus one per distinct validated enrichment on the (buyer, listing) pair.
func (e *Evaluator) CreditAmount(ctx context.Context, buyerID, listingID uuid.UUID) (int, error) {
	count, err := e.enrichments.CountValidatedEnrichments(ctx, buyerID, listingID)
	if err != nil {
		return 0, fmt.Errorf("count enrichments: %w", err)
	}
	return 1 + count, nil
}
