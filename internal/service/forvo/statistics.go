package forvo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/oshokin/forvo-grabber/internal/logger"
)

// summarySeparator frames the download summary.
const summarySeparator = "═══════════════════════════════════════════════════════════════"

// formatDuration formats a duration into a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	return fmt.Sprintf("%ds", seconds)
}

// newWordResult builds a summary row from a lookup result.
func newWordResult(result *FetchResult) WordResult {
	row := WordResult{
		Word:   result.Word,
		Status: result.Status,
		Path:   result.Path,
	}

	if result.Winner != nil {
		row.Recording = result.Winner.Describe()
	}

	return row
}

// incrementWordDownloaded increments the downloaded words counter and adds bytes.
func (s *ServiceImpl) incrementWordDownloaded(result *FetchResult) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.WordsDownloaded++
	s.stats.TotalWordsProcessed++
	s.stats.TotalBytesDownloaded += result.BytesDownloaded

	if result.AnkiFilename != "" {
		s.stats.WordsStoredInAnki++
	}

	s.stats.Results = append(s.stats.Results, newWordResult(result))
}

// incrementWordSkipped increments the counter of words whose file already exists.
func (s *ServiceImpl) incrementWordSkipped(result *FetchResult) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.WordsSkippedExists++
	s.stats.TotalWordsProcessed++
	s.stats.Results = append(s.stats.Results, newWordResult(result))
}

// incrementWordWithoutCandidates increments the counter of words Forvo has no recordings for.
func (s *ServiceImpl) incrementWordWithoutCandidates(result *FetchResult) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.WordsWithoutCandidates++
	s.stats.TotalWordsProcessed++
	s.stats.Results = append(s.stats.Results, newWordResult(result))
}

// incrementWordFailed increments the failed words counter.
func (s *ServiceImpl) incrementWordFailed(word string) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.WordsFailed++
	s.stats.TotalWordsProcessed++
	s.stats.Results = append(s.stats.Results, WordResult{Word: word, Status: FetchStatusFailed})
}

// PrintDownloadSummary prints a formatted summary of download statistics.
func (s *ServiceImpl) PrintDownloadSummary(ctx context.Context) {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	stats := s.stats

	// If nothing was processed, don't print summary.
	if stats.TotalWordsProcessed == 0 {
		return
	}

	wasInterrupted := ctx.Err() != nil

	s.printSummaryHeader(ctx, wasInterrupted, stats.IsDryRun)
	s.printWordStatistics(ctx, stats)
	s.printDataTransferStatistics(ctx, stats)
	s.printResultsTable(ctx, stats)
	logger.Info(ctx, summarySeparator)
	s.printErrorDetails(ctx, stats)
	s.printFinalMessage(ctx, wasInterrupted, stats)
	s.printDryRunSuggestion(ctx, stats)
}

func (s *ServiceImpl) printSummaryHeader(ctx context.Context, wasInterrupted, isDryRun bool) {
	title := "                     DOWNLOAD SUMMARY"

	switch {
	case isDryRun:
		title = "                  DRY-RUN PREVIEW"
	case wasInterrupted:
		title = "           DOWNLOAD SUMMARY (Interrupted)"
	}

	logger.Info(ctx, "")
	logger.Info(ctx, summarySeparator)
	logger.Info(ctx, title)
	logger.Info(ctx, summarySeparator)
}

func (s *ServiceImpl) printWordStatistics(ctx context.Context, stats *DownloadStatistics) {
	logger.Infof(ctx, "Words:            %d total processed", stats.TotalWordsProcessed)

	if stats.WordsDownloaded > 0 {
		if stats.IsDryRun {
			logger.Infof(ctx, "  Would Download:  %d", stats.WordsDownloaded)
		} else {
			logger.Infof(ctx, "  Downloaded:      %d", stats.WordsDownloaded)
		}
	}

	if stats.WordsSkippedExists > 0 {
		logger.Infof(ctx, "  Already Exist:   %d", stats.WordsSkippedExists)
	}

	if stats.WordsWithoutCandidates > 0 {
		logger.Infof(ctx, "  Not on Forvo:    %d", stats.WordsWithoutCandidates)
	}

	if stats.WordsFailed > 0 {
		logger.Infof(ctx, "  Failed:          %d", stats.WordsFailed)
	}

	if stats.WordsStoredInAnki > 0 {
		logger.Infof(ctx, "  Stored in Anki:  %d", stats.WordsStoredInAnki)
	}

	if !stats.IsDryRun {
		successCount := stats.WordsDownloaded + stats.WordsSkippedExists
		successRate := float64(successCount) / float64(stats.TotalWordsProcessed) * 100
		logger.Infof(ctx, "  Success Rate:    %.1f%%", successRate)
	}
}

func (s *ServiceImpl) printDataTransferStatistics(ctx context.Context, stats *DownloadStatistics) {
	if stats.IsDryRun {
		return
	}

	if stats.TotalBytesDownloaded > 0 {
		logger.Info(ctx, "")
		//nolint:gosec // TotalBytesDownloaded is always positive, no overflow risk.
		logger.Infof(ctx, "Data Downloaded:  %s", humanize.Bytes(uint64(stats.TotalBytesDownloaded)))
	}

	if stats.StartTime.IsZero() || stats.EndTime.IsZero() {
		return
	}

	duration := stats.EndTime.Sub(stats.StartTime)

	// Only show if duration is meaningful (> 100ms).
	if duration <= 100*time.Millisecond {
		return
	}

	logger.Infof(ctx, "Duration:         %s", formatDuration(duration))

	if stats.TotalBytesDownloaded > 0 {
		bytesPerSecond := float64(stats.TotalBytesDownloaded) / duration.Seconds()
		logger.Infof(ctx, "Average Speed:    %s/s", humanize.Bytes(uint64(bytesPerSecond)))
	}
}

func (s *ServiceImpl) printResultsTable(ctx context.Context, stats *DownloadStatistics) {
	rendered := renderResultsTable(stats.Results)
	if rendered == "" {
		return
	}

	logger.Info(ctx, "")

	for line := range strings.SplitSeq(rendered, "\n") {
		logger.Info(ctx, line)
	}
}

// renderResultsTable renders one row per word: the word, its status and the selected recording.
func renderResultsTable(results []WordResult) string {
	if len(results) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Word", "Status", "Recording"})

	for i := range results {
		tw.AppendRow(table.Row{i + 1, results[i].Word, results[i].Status.String(), results[i].Recording})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

func (s *ServiceImpl) printErrorDetails(ctx context.Context, stats *DownloadStatistics) {
	if len(stats.Errors) == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Errorf(ctx, "ERRORS ENCOUNTERED: %d", len(stats.Errors))

	for i := range stats.Errors {
		logger.Info(ctx, "")
		logger.Errorf(ctx, "  [%d] %s", i+1, stats.Errors[i].Word)
		logger.Errorf(ctx, "      Phase: %s", stats.Errors[i].Phase)
		logger.Errorf(ctx, "      Error: %s", stats.Errors[i].ErrorMessage)
	}

	logger.Info(ctx, "")
	logger.Info(ctx, summarySeparator)

	s.printRetryCommand(ctx, stats.Errors)
}

// printRetryCommand prints a command that retries only the failed words.
func (s *ServiceImpl) printRetryCommand(ctx context.Context, errors []DownloadError) {
	var (
		seen  = make(map[string]struct{}, len(errors))
		words = make([]string, 0, len(errors))
	)

	for i := range errors {
		if _, ok := seen[errors[i].Word]; ok || errors[i].Word == "" {
			continue
		}

		seen[errors[i].Word] = struct{}{}

		words = append(words, quoteArgument(errors[i].Word))
	}

	if len(words) == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Info(ctx, "To retry only failed words, run:")
	logger.Info(ctx, "")
	logger.Infof(ctx, "  forvo-grabber %s", strings.Join(words, " "))
}

func quoteArgument(arg string) string {
	if strings.ContainsAny(arg, " \t'\"") {
		return fmt.Sprintf("%q", arg)
	}

	return arg
}

func (s *ServiceImpl) printDryRunSuggestion(ctx context.Context, stats *DownloadStatistics) {
	if !stats.IsDryRun || stats.WordsDownloaded == 0 {
		return
	}

	logger.Info(ctx, "")
	logger.Info(ctx, "To proceed with actual download, remove the --dry-run flag:")
	logger.Info(ctx, "  forvo-grabber <same command without --dry-run>")
}

func (s *ServiceImpl) printFinalMessage(ctx context.Context, wasInterrupted bool, stats *DownloadStatistics) {
	if stats.IsDryRun {
		if stats.WordsDownloaded == 0 && stats.WordsSkippedExists > 0 {
			logger.Info(ctx, "")
			logger.Info(ctx, "All words already have pronunciations - nothing to download.")
		}

		return
	}

	switch {
	case wasInterrupted:
		logger.Info(ctx, "")
		logger.Warn(ctx, "Download interrupted by user (CTRL+C).")

		if stats.WordsDownloaded > 0 {
			logger.Infof(ctx, "Successfully downloaded %d pronunciation(s) before interruption.", stats.WordsDownloaded)
		}
	case len(stats.Errors) > 0:
		logger.Info(ctx, "")
		logger.Warnf(ctx, "%d error(s) occurred during download. See detailed error log above.", len(stats.Errors))
	case stats.WordsDownloaded > 0:
		logger.Info(ctx, "")
		logger.Info(ctx, "All downloads completed successfully!")
	case stats.WordsSkippedExists > 0 && stats.WordsWithoutCandidates == 0:
		logger.Info(ctx, "")
		logger.Info(ctx, "All pronunciations already exist in the output directory.")
	}
}
