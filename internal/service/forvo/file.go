package forvo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/oshokin/forvo-grabber/internal/constants"
	"github.com/oshokin/forvo-grabber/internal/logger"
	"github.com/oshokin/forvo-grabber/internal/pronunciation"
)

// createNewFileOptions creates a new file and fails if it already exists.
const createNewFileOptions = os.O_CREATE | os.O_EXCL | os.O_WRONLY

// bodyReadError marks failures of the audio body, as opposed to failures of the local file.
type bodyReadError struct {
	err error
}

func (e *bodyReadError) Error() string {
	return e.err.Error()
}

func (e *bodyReadError) Unwrap() error {
	return e.err
}

// bodyReader wraps the audio body so that its read errors can be told apart from write errors.
type bodyReader struct {
	reader io.Reader
}

func (r *bodyReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, &bodyReadError{err: err}
	}

	return n, err
}

// persistAudio streams body into a temporary .part file next to destination, checks its size
// against total (negative means unknown), writes tags and renames it onto destination.
// The temporary file never outlives a failed call.
// Local file failures are reported as ErrStorage, body failures as ErrTransport.
func (s *ServiceImpl) persistAudio(
	ctx context.Context,
	body io.Reader,
	total int64,
	destination string,
	tags map[string]string,
) (int64, error) {
	folder := filepath.Dir(destination)

	if err := os.MkdirAll(folder, constants.DefaultFolderPermissions); err != nil {
		return 0, fmt.Errorf("%w: failed to create folder: %w", pronunciation.ErrStorage, err)
	}

	tempFilePath := destination + "." + uuid.New().String() + constants.ExtensionPart

	f, err := os.OpenFile(filepath.Clean(tempFilePath), createNewFileOptions, constants.DefaultFilePermissions)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create temporary file: %w", pronunciation.ErrStorage, err)
	}

	var (
		isFileClosed bool
		isSucceeded  bool
	)

	defer func() {
		if !isFileClosed {
			_ = f.Close() //nolint:errcheck // The file is removed right after.
		}

		if isSucceeded {
			return
		}

		if removeErr := os.Remove(tempFilePath); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warnf(ctx, "Failed to clean up temporary file '%s': %v", tempFilePath, removeErr)
		}
	}()

	// Progress bars are disabled when downloading concurrently to avoid terminal output conflicts.
	var writer io.Writer = f

	if logger.Level() <= zap.InfoLevel && s.cfg.MaxConcurrentDownloads <= 1 {
		bar := progressbar.DefaultBytes(total, "Downloading")
		writer = io.MultiWriter(f, bar)
	}

	bytesWritten, err := s.copyAudio(ctx, writer, &bodyReader{reader: body})
	if err != nil {
		return 0, classifyCopyError(err)
	}

	if total >= 0 && bytesWritten != total {
		return 0, fmt.Errorf(
			"%w: %w: wrote %d bytes, expected %d bytes",
			pronunciation.ErrTransport,
			pronunciation.ErrIncompleteDownload,
			bytesWritten,
			total,
		)
	}

	isFileClosed = true

	if err = f.Close(); err != nil {
		return 0, fmt.Errorf("%w: failed to close temporary file: %w", pronunciation.ErrStorage, err)
	}

	if s.cfg.WriteTags {
		req := &WriteTagsRequest{FilePath: tempFilePath, Tags: tags}
		if tagErr := s.tagProcessor.WriteTags(ctx, req); tagErr != nil {
			logger.Warnf(ctx, "Failed to write tags to '%s': %v", destination, tagErr)
		}
	}

	if err = os.Rename(tempFilePath, destination); err != nil {
		return 0, fmt.Errorf("%w: failed to move file into place: %w", pronunciation.ErrStorage, err)
	}

	isSucceeded = true

	return bytesWritten, nil
}

// copyAudio copies reader into writer, at most ParsedDownloadSpeedLimit bytes per second when the limit is set.
func (s *ServiceImpl) copyAudio(ctx context.Context, writer io.Writer, reader io.Reader) (int64, error) {
	limit := s.cfg.ParsedDownloadSpeedLimit
	if limit <= 0 {
		return io.Copy(writer, reader)
	}

	var bytesWritten int64

	for {
		n, err := io.CopyN(writer, reader, limit)
		bytesWritten += n

		if errors.Is(err, io.EOF) {
			return bytesWritten, nil
		}

		if err != nil {
			return bytesWritten, err
		}

		// Throttle to respect speed limit.
		select {
		case <-ctx.Done():
			return bytesWritten, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func classifyCopyError(err error) error {
	var readErr *bodyReadError
	if errors.As(err, &readErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: failed to read audio: %w", pronunciation.ErrTransport, err)
	}

	return fmt.Errorf("%w: failed to write file: %w", pronunciation.ErrStorage, err)
}
