package forvo

import (
	"context"
	"errors"

	"github.com/oshokin/forvo-grabber/internal/logger"
)

// ErrorHandler provides centralized error handling and recording.
type ErrorHandler struct {
	service *ServiceImpl
}

// NewErrorHandler creates an error handler for the service.
func NewErrorHandler(service *ServiceImpl) *ErrorHandler {
	return &ErrorHandler{service: service}
}

// HandleError logs and records a failed word.
// Returns true if there was an error to handle.
func (h *ErrorHandler) HandleError(ctx context.Context, err error, errorCtx *ErrorContext) bool {
	if err == nil {
		return false
	}

	// Cancellation is what the user asked for, not a failure worth reporting.
	if errors.Is(err, context.Canceled) {
		return true
	}

	logger.Errorf(ctx, "Word '%s': %s failed: %v", errorCtx.Word, errorCtx.Phase, err)

	h.service.recordError(errorCtx, err)
	h.service.incrementWordFailed(errorCtx.Word)

	return true
}

// HandleResult records a finished lookup in the statistics.
func (h *ErrorHandler) HandleResult(result *FetchResult) {
	switch result.Status {
	case FetchStatusDownloaded, FetchStatusDryRun:
		h.service.incrementWordDownloaded(result)
	case FetchStatusExists:
		h.service.incrementWordSkipped(result)
	case FetchStatusNoCandidates:
		h.service.incrementWordWithoutCandidates(result)
	case FetchStatusFailed:
		h.service.incrementWordFailed(result.Word)
	}
}
