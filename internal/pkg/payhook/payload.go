package payhook

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Event represents one billing-provider notification.
// EventID is the provider-assigned idempotency key.
type Event struct {
	EventID                string     `json:"event_id"`
	Type                   string     `json:"type"`
	ProviderSubscriptionID string     `json:"subscription_id,omitempty"`
	AccountID              string     `json:"account_id"`
	Status                 string     `json:"status,omitempty"`
	PlanID                 string     `json:"plan_id,omitempty"`
	PeriodStart            *time.Time `json:"period_start,omitempty"`
	PeriodEnd              *time.Time `json:"period_end,omitempty"`
	CancelAtPeriodEnd      *bool      `json:"cancel_at_period_end,omitempty"`
	CreditPackID           string     `json:"credit_pack_id,omitempty"`
	CreditAmount           int        `json:"credit_amount,omitempty"`
}

// Well-known event types.
const (
	TypeSubscriptionUpdated = "subscription.updated"
	TypePaymentSucceeded    = "payment.succeeded"
	TypePaymentFailed       = "payment.failed"
)

// ParseEvent decodes and minimally validates a raw webhook body.
func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("malformed payload: %w", err)
	}

	if strings.TrimSpace(ev.EventID) == "" {
		return nil, fmt.Errorf("event_id is required")
	}
	if strings.TrimSpace(ev.Type) == "" {
		return nil, fmt.Errorf("type is required")
	}
	if strings.TrimSpace(ev.AccountID) == "" {
		return nil, fmt.Errorf("account_id is required")
	}

	return &ev, nil
}
