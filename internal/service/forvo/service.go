package forvo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oshokin/forvo-grabber/internal/client/ankiconnect"
	"github.com/oshokin/forvo-grabber/internal/client/forvo"
	"github.com/oshokin/forvo-grabber/internal/config"
	"github.com/oshokin/forvo-grabber/internal/constants"
	"github.com/oshokin/forvo-grabber/internal/logger"
	"github.com/oshokin/forvo-grabber/internal/pronunciation"
	"github.com/oshokin/forvo-grabber/internal/utils"
)

// Service provides methods for downloading word pronunciations from Forvo.
type Service interface {
	// DownloadWords downloads the best pronunciation of every word given directly or in text files.
	DownloadWords(ctx context.Context, args []string)
	// FetchWord looks up a single word, selects its best recording and saves it.
	FetchWord(ctx context.Context, word string) (*FetchResult, error)
	// PrintDownloadSummary prints a formatted summary of download statistics.
	PrintDownloadSummary(ctx context.Context)
}

// ServiceImpl implements the pronunciation download service.
type ServiceImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// forvoClient is the client for interacting with Forvo's API.
	forvoClient forvo.Client
	// ankiClient registers downloaded files with Anki, nil when disabled.
	ankiClient ankiconnect.Client
	// wordProcessor turns command line arguments into words.
	wordProcessor WordProcessor
	// templateManager generates filenames.
	templateManager TemplateManager
	// tagProcessor writes metadata tags to audio files.
	tagProcessor TagProcessor
	// scorer selects the best recording.
	scorer *pronunciation.Scorer
	// errorHandler records failures and results in the statistics.
	errorHandler *ErrorHandler
	// stats tracks download statistics for the current session.
	stats *DownloadStatistics
	// statsMutex protects concurrent access to statistics.
	statsMutex *sync.Mutex
}

// NewService creates a download service instance with dependency-injected components.
// A nil ankiClient disables storing files in Anki.
func NewService(
	cfg *config.Config,
	forvoClient forvo.Client,
	ankiClient ankiconnect.Client,
	wordProcessor WordProcessor,
	templateManager TemplateManager,
	tagProcessor TagProcessor,
) Service {
	service := &ServiceImpl{
		cfg:             cfg,
		forvoClient:     forvoClient,
		ankiClient:      ankiClient,
		wordProcessor:   wordProcessor,
		templateManager: templateManager,
		tagProcessor:    tagProcessor,
		scorer:          pronunciation.NewScorer(cfg.ParsedBonusPolicy),
		stats:           new(DownloadStatistics),
		statsMutex:      new(sync.Mutex),
	}

	service.errorHandler = NewErrorHandler(service)

	return service
}

// DownloadWords downloads the best pronunciation of every word given directly or in text files.
// Failures are recorded in the statistics and do not stop the remaining words.
func (s *ServiceImpl) DownloadWords(ctx context.Context, args []string) {
	s.statsMutex.Lock()
	s.stats.StartTime = time.Now()
	s.stats.IsDryRun = s.cfg.DryRun
	s.statsMutex.Unlock()

	defer func() {
		s.statsMutex.Lock()
		s.stats.EndTime = time.Now()
		s.statsMutex.Unlock()
	}()

	if !s.cfg.DryRun {
		err := os.MkdirAll(s.cfg.OutputPath, constants.DefaultFolderPermissions)
		if err != nil {
			logger.Errorf(ctx, "Failed to create output path: %v", err)

			return
		}
	} else {
		logger.Infof(ctx, "[DRY-RUN] Would create output directory: %s", s.cfg.OutputPath)
	}

	words, err := s.wordProcessor.ExtractWords(ctx, args)
	if err != nil {
		logger.Errorf(ctx, "Failed to extract words: %v", err)
		s.recordError(&ErrorContext{Phase: phaseReadingWords}, err)

		return
	}

	if len(words) == 0 {
		logger.Warn(ctx, "No words to download")

		return
	}

	logger.Infof(ctx, "Downloading pronunciations of %d word(s), language: %s", len(words), s.cfg.Language)
	logger.Debugf(ctx, "Contributor bonus: %s", s.cfg.ParsedBonusPolicy)

	if s.cfg.MaxConcurrentDownloads > 1 {
		s.downloadWordsConcurrently(ctx, words, s.cfg.MaxConcurrentDownloads)
	} else {
		s.downloadWordsSequentially(ctx, words)
	}

	logger.Info(ctx, "Download process completed")
}

// downloadWordsSequentially downloads words one by one.
func (s *ServiceImpl) downloadWordsSequentially(ctx context.Context, words []string) {
	for i, word := range words {
		// Check if context was canceled (CTRL+C pressed) - stop immediately.
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.executeWordDownload(ctx, i, len(words), word)
	}
}

// downloadWordsConcurrently downloads words using a worker pool for concurrent execution.
func (s *ServiceImpl) downloadWordsConcurrently(ctx context.Context, words []string, maxConcurrent int64) {
	// Create a semaphore channel to limit concurrent downloads.
	semaphore := make(chan struct{}, maxConcurrent)

	var waitGroup sync.WaitGroup

	for index, word := range words {
		// Check if context was canceled (CTRL+C pressed) - stop queueing new downloads.
		select {
		case <-ctx.Done():
			goto waitForCompletion
		default:
		}

		waitGroup.Add(1)

		go func(wordIndex int, currentWord string) {
			defer waitGroup.Done()

			// Acquire semaphore slot (blocks if all workers are busy).
			semaphore <- struct{}{}

			defer func() {
				// Release semaphore slot when done.
				<-semaphore
			}()

			s.executeWordDownload(ctx, wordIndex, len(words), currentWord)
		}(index, word)
	}

waitForCompletion:
	// Wait for all in-flight downloads to complete.
	waitGroup.Wait()
}

// executeWordDownload downloads a word and pauses before the next one.
func (s *ServiceImpl) executeWordDownload(ctx context.Context, index, count int, word string) {
	if ctx.Err() != nil {
		return
	}

	logger.Infof(ctx, "Processing word: %s (%d / %d)", word, index+1, count)

	s.processWord(ctx, word)

	// Add a random pause between requests to avoid rate limiting.
	if !s.cfg.DryRun && index+1 < count {
		utils.RandomPause(ctx, 0, s.cfg.ParsedMaxDownloadPause)
	}
}

// processWord fetches a word and records the outcome in the statistics.
func (s *ServiceImpl) processWord(ctx context.Context, word string) {
	result, err := s.FetchWord(ctx, word)

	// The file is kept when only the Anki step failed.
	if result != nil && result.Status != FetchStatusFailed {
		s.errorHandler.HandleResult(result)

		if err != nil {
			logger.Warnf(ctx, "Word '%s' was downloaded, but %s failed: %v", word, phaseOf(err), err)
			s.recordError(&ErrorContext{Word: word, Phase: phaseOf(err)}, err)
		}

		return
	}

	s.errorHandler.HandleError(ctx, err, &ErrorContext{Word: word, Phase: phaseOf(err)})
}

// FetchWord looks up a single word, selects its best recording and saves it.
// The filename is built from the word as given; the provider is asked for the word without stress marks.
//
//nolint:funlen,cyclop // Function orchestrates the lookup workflow with multiple sequential steps.
func (s *ServiceImpl) FetchWord(ctx context.Context, word string) (*FetchResult, error) {
	normalizedWord := pronunciation.Normalize(word)
	if normalizedWord == "" {
		return nil, withPhase(phaseNormalizing, fmt.Errorf("%w: %q", pronunciation.ErrEmptyWord, word))
	}

	if pronunciation.HasStressMarks(word) {
		logger.Debugf(ctx, "Stress marks removed: '%s' is looked up as '%s'", word, normalizedWord)
	}

	result := &FetchResult{
		Word:           word,
		NormalizedWord: normalizedWord,
		Status:         FetchStatusFailed,
	}

	tags := map[string]string{
		tagWord:           word,
		tagNormalizedWord: normalizedWord,
		tagLanguage:       s.cfg.Language,
	}

	destination, err := s.destinationPath(ctx, tags)
	if err != nil {
		return nil, withPhase(phaseCheckingFile, err)
	}

	result.Path = destination

	if !s.cfg.ReplaceFiles {
		isExist, statErr := utils.IsFileExist(destination)
		if statErr != nil {
			return nil, withPhase(phaseCheckingFile, fmt.Errorf("%w: %w", pronunciation.ErrStorage, statErr))
		}

		if isExist {
			logger.Infof(ctx, "Pronunciation '%s' already exists, skipping download", destination)

			result.Status = FetchStatusExists

			return result, nil
		}
	}

	raw, err := s.forvoClient.GetWordPronunciations(ctx, normalizedWord, s.cfg.Language)
	if err != nil {
		return nil, withPhase(phaseQuerying, fmt.Errorf("%w: %w", pronunciation.ErrTransport, err))
	}

	candidates, err := pronunciation.Decode(raw)
	if err != nil {
		return nil, withPhase(phaseDecoding, err)
	}

	result.CandidatesCount = len(candidates)

	s.logRanking(ctx, normalizedWord, candidates)

	winner, ok := s.scorer.Select(candidates).Winner()
	if !ok {
		logger.Warnf(ctx, "Forvo has no pronunciations of '%s'", normalizedWord)

		result.Status = FetchStatusNoCandidates

		return result, nil
	}

	result.Winner = &winner

	if s.cfg.DryRun {
		logger.Infof(ctx, "[DRY-RUN] Would download %s to: %s", winner.Describe(), destination)

		result.Status = FetchStatusDryRun

		return result, nil
	}

	logger.Infof(ctx, "Selected recording %s", winner.Describe())

	audio, err := s.forvoClient.DownloadFromURL(ctx, winner.AudioReference)
	if err != nil {
		return nil, withPhase(phaseDownloading, fmt.Errorf("%w: %w", pronunciation.ErrTransport, err))
	}

	defer audio.Body.Close() //nolint:errcheck // Error on close is not critical here.

	tags[tagContributor] = winner.ContributorID.String()
	tags[tagCountry] = winner.Country
	tags[tagSourceURL] = winner.AudioReference

	bytesWritten, err := s.persistAudio(ctx, audio.Body, audio.TotalBytes, destination, tags)
	if err != nil {
		return nil, withPhase(phaseSaving, err)
	}

	result.Status = FetchStatusDownloaded
	result.BytesDownloaded = bytesWritten

	logger.Infof(ctx, "Saved pronunciation of '%s' to: %s", word, destination)

	if s.ankiClient == nil {
		return result, nil
	}

	ankiFilename, err := s.storeInAnki(ctx, destination)
	if err != nil {
		return result, withPhase(phaseStoringInAnki, err)
	}

	result.AnkiFilename = ankiFilename

	return result, nil
}

// destinationPath builds the path of the audio file from the filename template.
func (s *ServiceImpl) destinationPath(ctx context.Context, tags map[string]string) (string, error) {
	filename := utils.SanitizeFilename(s.templateManager.GetWordFilename(ctx, tags))
	if filename == "" {
		return "", ErrEmptyFilenameTemplateResult
	}

	filename = utils.SetFileExtension(filename, constants.ExtensionMP3, false)

	return filepath.Join(s.cfg.OutputPath, filename), nil
}

// storeInAnki registers the file in the Anki media folder.
func (s *ServiceImpl) storeInAnki(ctx context.Context, path string) (string, error) {
	absolutePath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", pronunciation.ErrAnkiConnect, err)
	}

	storedAs, err := s.ankiClient.StoreMediaFile(ctx, filepath.Base(path), absolutePath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", pronunciation.ErrAnkiConnect, err)
	}

	logger.Infof(ctx, "Stored '%s' in Anki media as '%s'", path, storedAs)

	return storedAs, nil
}

// logRanking logs every candidate with its score at debug level.
func (s *ServiceImpl) logRanking(ctx context.Context, word string, candidates []pronunciation.Candidate) {
	if !logger.IsDebugLevel() {
		return
	}

	logger.Debugf(ctx, "Forvo returned %d usable pronunciation(s) of '%s'", len(candidates), word)

	for _, candidate := range s.scorer.Rank(candidates) {
		logger.Debugf(ctx, "  %s", candidate.Describe())
	}
}
