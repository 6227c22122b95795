package forvo

import (
	"time"

	"github.com/oshokin/forvo-grabber/internal/pronunciation"
)

// FetchStatus describes how a word lookup ended.
type FetchStatus uint8

const (
	// FetchStatusFailed means that the lookup ended with an error.
	FetchStatusFailed FetchStatus = iota
	// FetchStatusDownloaded means that the winning recording was saved.
	FetchStatusDownloaded
	// FetchStatusExists means that the destination file already existed, so nothing was requested.
	FetchStatusExists
	// FetchStatusNoCandidates means that the provider has no usable recordings for the word.
	FetchStatusNoCandidates
	// FetchStatusDryRun means that a winner was selected but not downloaded.
	FetchStatusDryRun
)

// String returns a human-readable name of the status.
func (s FetchStatus) String() string {
	switch s {
	case FetchStatusFailed:
		return "failed"
	case FetchStatusDownloaded:
		return "downloaded"
	case FetchStatusExists:
		return "exists"
	case FetchStatusNoCandidates:
		return "no candidates"
	case FetchStatusDryRun:
		return "would download"
	default:
		return "unknown"
	}
}

// FetchResult is the outcome of a single word lookup.
type FetchResult struct {
	// Word is the word as it was requested.
	Word string
	// NormalizedWord is the word without stress marks, as sent to the provider.
	NormalizedWord string
	// Status tells how the lookup ended.
	Status FetchStatus
	// Winner is the selected recording, or nil when none was selected.
	Winner *pronunciation.ScoredCandidate
	// CandidatesCount is the number of usable recordings the provider returned.
	CandidatesCount int
	// Path is the destination file path.
	Path string
	// BytesDownloaded is the size of the saved audio file.
	BytesDownloaded int64
	// AnkiFilename is the name Anki stored the media file under, if it was stored.
	AnkiFilename string
}

// DownloadStatistics tracks statistics for a download session.
type DownloadStatistics struct {
	// StartTime is when the download session began.
	StartTime time.Time
	// EndTime is when the download session completed.
	EndTime time.Time
	// IsDryRun indicates if this was a dry-run preview.
	IsDryRun bool
	// TotalWordsProcessed is the total number of words attempted.
	TotalWordsProcessed int64
	// WordsDownloaded is the number of words whose recording was saved (or would be, in dry-run mode).
	WordsDownloaded int64
	// WordsSkippedExists is the number of words skipped because their file already exists.
	WordsSkippedExists int64
	// WordsWithoutCandidates is the number of words Forvo has no recordings for.
	WordsWithoutCandidates int64
	// WordsFailed is the number of words that failed.
	WordsFailed int64
	// WordsStoredInAnki is the number of files registered with Anki.
	WordsStoredInAnki int64
	// TotalBytesDownloaded is the total size of downloaded audio in bytes.
	TotalBytesDownloaded int64
	// Results holds one row per processed word, in completion order.
	Results []WordResult
	// Errors is a list of all errors encountered during the download process.
	Errors []DownloadError
}

// WordResult is a summary row for a processed word.
type WordResult struct {
	// Word is the word as it was requested.
	Word string
	// Status tells how the lookup ended.
	Status FetchStatus
	// Recording describes the selected recording, if any.
	Recording string
	// Path is the destination file path.
	Path string
}

// DownloadError represents a single error that occurred during download.
type DownloadError struct {
	// Word is the word that failed.
	Word string
	// Phase indicates when the error occurred (e.g., "querying Forvo", "saving audio").
	Phase string
	// ErrorMessage is the error message.
	ErrorMessage string
}
