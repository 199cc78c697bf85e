package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/lens-advisor/api/internal/platform/httpx"
	"github.com/lens-advisor/api/internal/platform/requestctx"
	"github.com/lens-advisor/api/internal/repositories"
	"github.com/lens-advisor/api/internal/services"
)

// writeServiceError maps errors shared by every service onto the envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var lister services.ProblemLister
	switch {
	case errors.Is(err, services.ErrValidation) && errors.As(err, &lister):
		httpx.WriteError(ctx, w, httpx.NewError("validation_failed", "submitted data failed validation", http.StatusUnprocessableEntity).WithProblems(lister.Problems()))
	case errors.Is(err, services.ErrRepositoryMissing):
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "service is not configured", http.StatusServiceUnavailable))
	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("deadline_exceeded", "request timed out", http.StatusGatewayTimeout))
	case repositories.IsUnavailable(err):
		httpx.WriteError(ctx, w, httpx.NewError("reference_data_unavailable", "reference data is temporarily unavailable", http.StatusServiceUnavailable))
	case repositories.IsNotFound(err):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "referenced data not found", http.StatusNotFound))
	default:
		requestctx.Logger(ctx).Error("unhandled service error", zap.Error(err))
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal server error", http.StatusInternalServerError))
	}
}
