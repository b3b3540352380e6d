package rotation

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this package wraps exactly one of
// these, so callers can branch with errors.Is on the category or on the
// specific error below.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrConflict        = errors.New("conflict")
	ErrExpired         = errors.New("expired")
	ErrExternalFailure = errors.New("external failure")
	ErrInvalid         = errors.New("invalid argument")
)

var (
	ErrAlreadyMember      = fmt.Errorf("%w: user is already a member", ErrConflict)
	ErrDuplicateRequest   = fmt.Errorf("%w: join request already pending", ErrConflict)
	ErrCapacityExceeded   = fmt.Errorf("%w: group is full", ErrConflict)
	ErrSelfPayment        = fmt.Errorf("%w: payer is the current collector", ErrConflict)
	ErrNoCollector        = fmt.Errorf("%w: group has no collector yet", ErrConflict)
	ErrGroupNotActive     = fmt.Errorf("%w: group is not active", ErrConflict)
	ErrAmountMismatch     = fmt.Errorf("%w: amount does not match contribution amount", ErrConflict)
	ErrDuplicateReference = fmt.Errorf("%w: payment reference already recorded", ErrConflict)

	ErrNotCreator = fmt.Errorf("%w: only the group creator can do this", ErrUnauthorized)
	ErrNotAMember = fmt.Errorf("%w: user is not a member of the group", ErrUnauthorized)

	ErrRequestNotFound = fmt.Errorf("%w: join request", ErrNotFound)
	ErrPaymentNotFound = fmt.Errorf("%w: payment", ErrNotFound)

	ErrRequestExpired = fmt.Errorf("%w: join request is older than the allowed window", ErrExpired)

	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive", ErrInvalid)
)
