package vaultrpc

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Philogy/Social-Recovery-Asset-Vault/command"
	"github.com/Philogy/Social-Recovery-Asset-Vault/vault"
)

// Server-side admission failures. These are about the envelope's relation to
// this server, not about the vault's own rules.
var (
	ErrWrongVault    = errors.New("vaultrpc: command addressed to a different vault")
	ErrReplayed      = errors.New("vaultrpc: command already executed")
	ErrStaleNonce    = errors.New("vaultrpc: nonce not greater than last executed")
	ErrUnknownLedger = errors.New("vaultrpc: unknown asset ledger")
)

// mapExecuteErr maps an Execute failure to a gRPC status. Vault sentinel
// messages are preserved verbatim so clients can map them back.
func mapExecuteErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrWrongVault),
		errors.Is(err, ErrStaleNonce),
		errors.Is(err, vault.ErrNotInitialized),
		errors.Is(err, vault.ErrDelayNotElapsed),
		errors.Is(err, vault.ErrInsufficientBalance),
		errors.Is(err, vault.ErrClockRegression):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrReplayed),
		errors.Is(err, vault.ErrAlreadyInitialized):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, vault.ErrNotOwner),
		errors.Is(err, vault.ErrInvalidProof):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, ErrUnknownLedger):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, vault.ErrZeroOwner),
		errors.Is(err, vault.ErrBatchMismatch),
		command.IsKind(err, command.KindParse),
		command.IsKind(err, command.KindCanonical),
		command.IsKind(err, command.KindValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case command.IsKind(err, command.KindCrypto):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

var wireSentinels = []error{
	ErrWrongVault,
	ErrReplayed,
	ErrStaleNonce,
	ErrUnknownLedger,
	vault.ErrAlreadyInitialized,
	vault.ErrNotInitialized,
	vault.ErrNotOwner,
	vault.ErrInvalidProof,
	vault.ErrDelayNotElapsed,
	vault.ErrInsufficientBalance,
	vault.ErrZeroOwner,
	vault.ErrClockRegression,
	vault.ErrBatchMismatch,
}

// mapRPC maps a gRPC error back to the sentinel it encodes, where possible.
// The server sends sentinel messages verbatim, so an exact message match
// recovers the original error for errors.Is on the client side.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, sentinel := range wireSentinels {
		if st.Message() == sentinel.Error() {
			return sentinel
		}
	}
	return err
}
