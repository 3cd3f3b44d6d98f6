package deal

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type fakeEnrichmentCounter struct {
	count int
	err   error
}

func (f *fakeEnrichmentCounter) CountValidatedEnrichments(ctx context.Context, buyerID, listingID uuid.UUID) (int, error) {
	return f.count, f.err
}

func historyOf(stages ...Stage) []StageHistoryEvent {
	events := make([]StageHistoryEvent, 0, len(stages))
	from := StageInterest
	for _, to := range stages {
		events = append(events, StageHistoryEvent{FromStage: from, ToStage: to})
		from = to
	}
	return events
}

func TestEligible(t *testing.T) {
	e := NewEvaluator(&fakeEnrichmentCounter{})

	tests := []struct {
		name    string
		history []StageHistoryEvent
		want    bool
	}{
		{"no history", nil, false},
		{"single forward move", historyOf(StageContact), true},
		{"deep progress", historyOf(StageContact, StageNegotiation, StageSigned), true},
		{"released straight from interest", historyOf(StageReleased), false},
		{"abandoned straight from interest", historyOf(StageAbandoned), false},
		{"progress then released", historyOf(StageAnalysis, StageReleased), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Eligible(tt.history); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreditAmount(t *testing.T) {
	ctx := context.Background()
	buyer, listing := uuid.New(), uuid.New()

	e := NewEvaluator(&fakeEnrichmentCounter{count: 0})
	amount, err := e.CreditAmount(ctx, buyer, listing)
	if err != nil {
		t.Fatalf("CreditAmount: %v", err)
	}
	if amount != 1 {
		t.Errorf("base award = %d, want 1", amount)
	}

	e = NewEvaluator(&fakeEnrichmentCounter{count: 3})
	amount, err = e.CreditAmount(ctx, buyer, listing)
	if err != nil {
		t.Fatalf("CreditAmount: %v", err)
	}
	if amount != 4 {
		t.Errorf("award with 3 enrichments = %d, want 4", amount)
	}
}
