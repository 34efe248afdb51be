package handler

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/salesdesk/internal/model"
)

// handleError converts a service error into a gRPC status. Errors that are
// already a status pass through unchanged.
func handleError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, model.ErrInvalidCode):
		return status.Error(codes.InvalidArgument, "invalid verification code")
	case errors.Is(err, model.ErrUnknownMethod), errors.Is(err, model.ErrInvalidConfig):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrAlreadyEnabled):
		return status.Error(codes.FailedPrecondition, "two-factor authentication is already enabled")
	case errors.Is(err, model.ErrNotEnabled):
		return status.Error(codes.FailedPrecondition, "two-factor authentication is not enabled")
	case errors.Is(err, model.ErrNoPendingSetup):
		return status.Error(codes.FailedPrecondition, "two-factor setup was not initialized")
	case errors.Is(err, model.ErrNoEligibleReps):
		return status.Error(codes.FailedPrecondition, "no eligible sales reps")
	case errors.Is(err, model.ErrLeadAlreadyAssigned):
		return status.Error(codes.FailedPrecondition, "lead is already assigned")
	case errors.Is(err, model.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, "too many attempts, retry later")
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}
