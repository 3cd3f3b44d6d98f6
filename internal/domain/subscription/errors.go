package subscription

import "errors"

var (
	// ErrSubscriptionNotFound is returned when the account has no subscription
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrUnknownStatus is returned for a status outside the lifecycle
	ErrUnknownStatus = errors.New("unknown subscription status")

	ErrInternal = errors.New("internal error")
)
