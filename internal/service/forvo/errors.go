package forvo

import (
	"context"
	"errors"
)

// Pipeline phases reported with errors.
const (
	phaseReadingWords       = "reading words"
	phaseNormalizing        = "normalizing word"
	phaseCheckingFile       = "checking destination"
	phaseQuerying           = "querying Forvo"
	phaseDecoding           = "decoding response"
	phaseDownloading        = "downloading audio"
	phaseSaving             = "saving audio"
	phaseStoringInAnki      = "storing in Anki"
	defaultPhaseDescription = "processing word"
)

// ErrEmptyFilenameTemplateResult indicates that the filename template produced nothing usable.
var ErrEmptyFilenameTemplateResult = errors.New("filename template produced an empty name")

// phaseError attaches the pipeline phase to an error.
// Its message is the message of the wrapped error.
type phaseError struct {
	phase string
	err   error
}

func (e *phaseError) Error() string {
	return e.err.Error()
}

func (e *phaseError) Unwrap() error {
	return e.err
}

// withPhase wraps err with the phase it happened in. A nil error stays nil.
func withPhase(phase string, err error) error {
	if err == nil {
		return nil
	}

	return &phaseError{phase: phase, err: err}
}

// phaseOf returns the phase err happened in.
func phaseOf(err error) string {
	var pe *phaseError
	if errors.As(err, &pe) {
		return pe.phase
	}

	return defaultPhaseDescription
}

// ErrorContext provides context information for download errors.
type ErrorContext struct {
	// Word is the word that failed.
	Word string
	// Phase indicates when the error occurred.
	Phase string
}

// recordError records an error in the statistics with proper context.
// Context cancellation errors are ignored as they are expected during graceful shutdown.
func (s *ServiceImpl) recordError(errCtx *ErrorContext, err error) {
	if errCtx == nil || err == nil {
		return
	}

	if errors.Is(err, context.Canceled) {
		return
	}

	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.Errors = append(s.stats.Errors, DownloadError{
		Word:         errCtx.Word,
		Phase:        errCtx.Phase,
		ErrorMessage: err.Error(),
	})
}
