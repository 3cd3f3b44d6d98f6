package deal

import "errors"

var (
	// ErrDealNotFound is returned when the deal doesn't exist
	ErrDealNotFound = errors.New("deal not found")

	// ErrDealExists is returned when an open deal already exists for the
	// same buyer and listing
	ErrDealExists = errors.New("open deal already exists for this listing")

	// ErrListingNotFound is returned when the referenced listing doesn't exist
	ErrListingNotFound = errors.New("listing not found")

	// ErrUnknownStage is returned for a stage outside the pipeline
	ErrUnknownStage = errors.New("unknown stage")

	// ErrAbsorbingTarget is returned when Move is asked to enter a terminal
	// state; those require Release or Abandon
	ErrAbsorbingTarget = errors.New("terminal stages require the release or abandon operation")

	// ErrTerminalDeal is returned when the deal is already released or abandoned
	ErrTerminalDeal = errors.New("deal is already released or abandoned")

	// ErrBackwardMove is returned for a move to a lower-ordinal stage
	ErrBackwardMove = errors.New("stage moves are forward-only")

	// ErrStaleStage is returned when a concurrent move won the compare-and-set
	ErrStaleStage = errors.New("deal stage changed concurrently, retry")

	// ErrAlreadyReleased is returned when releasing a released deal
	ErrAlreadyReleased = errors.New("deal already released")

	ErrInternal = errors.New("internal error")
)
