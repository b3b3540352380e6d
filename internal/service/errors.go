package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/susu/internal/gateway"
	"github.com/mmynk/susu/internal/rotation"
	"github.com/mmynk/susu/internal/storage"
)

// toConnectError maps domain errors onto connect codes. Errors that are
// already connect errors pass through unchanged.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}
	return connect.NewError(codeOf(err), err)
}

func codeOf(err error) connect.Code {
	switch {
	case errors.Is(err, rotation.ErrAlreadyMember),
		errors.Is(err, rotation.ErrDuplicateRequest),
		errors.Is(err, rotation.ErrDuplicateReference):
		return connect.CodeAlreadyExists
	case errors.Is(err, rotation.ErrConflict):
		return connect.CodeFailedPrecondition
	case errors.Is(err, rotation.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, rotation.ErrUnauthorized):
		return connect.CodePermissionDenied
	case errors.Is(err, rotation.ErrExpired):
		return connect.CodeDeadlineExceeded
	case errors.Is(err, rotation.ErrExternalFailure), errors.Is(err, gateway.ErrGatewayFailure):
		return connect.CodeUnavailable
	case errors.Is(err, rotation.ErrInvalid):
		return connect.CodeInvalidArgument
	case errors.Is(err, storage.ErrVersionConflict):
		return connect.CodeAborted
	default:
		return connect.CodeInternal
	}
}
