package engine

import "errors"

// The engine reports every expected failure as one of these sentinels so the
// HTTP layer can map them with errors.Is. None of them indicate a bug; only
// ErrStorageUnavailable is worth retrying by the caller.
var (
	ErrUnknownCaseType        = errors.New("unknown case type")
	ErrInvalidStatus          = errors.New("status is not valid for this case type")
	ErrIllegalTransition      = errors.New("transition is not allowed from the current status")
	ErrAlreadyTerminal        = errors.New("case is in a terminal status")
	ErrVerificationRequired   = errors.New("two-stage verification has not been completed")
	ErrStage1NotComplete      = errors.New("stage-1 verification has not been approved")
	ErrForbidden              = errors.New("actor role is not authorized for this action")
	ErrNoEligibleOfficers     = errors.New("no eligible officers to assign")
	ErrConcurrentModification = errors.New("case was modified concurrently")
	ErrNotFound               = errors.New("case not found")
	ErrStorageUnavailable     = errors.New("case store unavailable")
	ErrInvalidPriority        = errors.New("priority must be one of P1..P4")
	ErrInvalidOutcome         = errors.New("verification outcome must be APPROVED or REJECTED")
)
