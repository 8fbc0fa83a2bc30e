package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/groupledger/internal/api"
	"github.com/mmynk/groupledger/internal/calculator"
	"github.com/mmynk/groupledger/internal/ledger"
	"github.com/mmynk/groupledger/internal/lock"
	"github.com/mmynk/groupledger/internal/storage"
)

var (
	errNotAuthenticated = errors.New("no authenticated member")
	errNotGroupMember   = errors.New("caller is not a member of this group")
	errNotGroupAdmin    = errors.New("only the group admin can do this")
)

// toConnectError maps ledger and storage errors onto Connect codes.
func toConnectError(op string, err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	switch {
	case errors.Is(err, api.ErrInvalidRequest),
		errors.Is(err, calculator.ErrInvalidAmount),
		errors.Is(err, calculator.ErrShareMismatch),
		errors.Is(err, calculator.ErrEmptyGroup),
		errors.Is(err, calculator.ErrDuplicateParticipant),
		errors.Is(err, ledger.ErrZeroPayment),
		errors.Is(err, ledger.ErrSelfPayment):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ledger.ErrNotMember),
		errors.Is(err, ledger.ErrUnsettledBalance),
		errors.Is(err, ledger.ErrAdminRemoval):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, errNotAuthenticated):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, errNotGroupMember), errors.Is(err, errNotGroupAdmin):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, lock.ErrNotObtained):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}

	// Invariant violations land here too; they are already logged by the
	// recorder but the caller only sees a generic failure.
	slog.Error(op+" failed", "error", err)
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}
