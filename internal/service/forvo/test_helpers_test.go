package forvo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oshokin/forvo-grabber/internal/client/forvo"
	mock_ankiconnect "github.com/oshokin/forvo-grabber/internal/client/ankiconnect/mocks"
	mock_forvo_client "github.com/oshokin/forvo-grabber/internal/client/forvo/mocks"
	"github.com/oshokin/forvo-grabber/internal/config"
	"github.com/oshokin/forvo-grabber/internal/constants"
	"github.com/oshokin/forvo-grabber/internal/logger"
	"github.com/oshokin/forvo-grabber/internal/pronunciation"
)

// testLanguage is the language every test setup requests.
const testLanguage = "ru"

// testRecording describes a record of a fake word-pronunciations response.
type testRecording struct {
	username string
	votes    int64
}

// mockTagProcessor records WriteTags calls.
type mockTagProcessor struct {
	mutex    sync.Mutex
	requests []WriteTagsRequest
	err      error
}

func (m *mockTagProcessor) WriteTags(_ context.Context, req *WriteTagsRequest) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.requests = append(m.requests, *req)

	return m.err
}

// testDownloadSetup encapsulates common test dependencies and configuration.
type testDownloadSetup struct {
	ctrl         *gomock.Controller
	mockClient   *mock_forvo_client.MockClient
	mockAnki     *mock_ankiconnect.MockClient
	tagProcessor *mockTagProcessor
	service      *ServiceImpl
	config       *config.Config
	tempDir      string
}

// newTestDownloadSetup creates a standard test setup with optional config overrides.
// The Anki client is wired only when StoreInAnki is set by an override.
func newTestDownloadSetup(t *testing.T, configOverrides ...func(*config.Config)) *testDownloadSetup {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockClient := mock_forvo_client.NewMockClient(ctrl)
	mockAnki := mock_ankiconnect.NewMockClient(ctrl)
	tempDir := t.TempDir()

	cfg := &config.Config{
		Language:               testLanguage,
		OutputPath:             tempDir,
		FilenameTemplate:       config.DefaultFilenameTemplate,
		MaxConcurrentDownloads: 1,
		ParsedLogLevel:         logger.Level(),
		ParsedBonusPolicy:      pronunciation.DefaultBonusPolicy(),
	}

	for _, override := range configOverrides {
		override(cfg)
	}

	tagProcessor := new(mockTagProcessor)

	var service Service
	if cfg.StoreInAnki {
		service = NewService(cfg, mockClient, mockAnki, NewWordProcessor(),
			NewTemplateManager(t.Context(), cfg), tagProcessor)
	} else {
		service = NewService(cfg, mockClient, nil, NewWordProcessor(),
			NewTemplateManager(t.Context(), cfg), tagProcessor)
	}

	impl, ok := service.(*ServiceImpl)
	require.True(t, ok)

	return &testDownloadSetup{
		ctrl:         ctrl,
		mockClient:   mockClient,
		mockAnki:     mockAnki,
		tagProcessor: tagProcessor,
		service:      impl,
		config:       cfg,
		tempDir:      tempDir,
	}
}

// audioURL returns the fake audio URL of the recording at index.
func audioURL(index int) string {
	return fmt.Sprintf("https://audio00.forvo.com/mp3/%d.mp3", index+1)
}

// newPronunciationsResponse builds a word-pronunciations response body.
func newPronunciationsResponse(t *testing.T, recordings ...testRecording) []byte {
	t.Helper()

	items := make([]map[string]any, 0, len(recordings))
	for i, r := range recordings {
		items = append(items, map[string]any{
			"id":                 1000 + i,
			"username":           r.username,
			"country":            "Russian Federation",
			"hits":               10 * (i + 1),
			"num_positive_votes": r.votes,
			"pathmp3":            audioURL(i),
		})
	}

	body, err := json.Marshal(map[string]any{
		"attributes": map[string]any{"total": len(items)},
		"items":      items,
	})
	require.NoError(t, err)

	return body
}

// newAudioResult returns a download result streaming data with its exact length announced.
func newAudioResult(data []byte) *forvo.FetchAudioResult {
	return &forvo.FetchAudioResult{
		Body:        io.NopCloser(bytes.NewReader(data)),
		TotalBytes:  int64(len(data)),
		ContentType: "audio/mpeg",
	}
}

// failingReader returns data and then fails.
type failingReader struct {
	data []byte
	err  error
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.read {
		return 0, r.err
	}

	r.read = true

	return copy(p, r.data), nil
}

// listPartFiles returns the temporary files left in dir.
func listPartFiles(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var result []string

	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), constants.ExtensionPart) {
			result = append(result, entry.Name())
		}
	}

	return result
}
