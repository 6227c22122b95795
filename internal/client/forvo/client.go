package forvo

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/oshokin/forvo-grabber/internal/config"
	http_transport "github.com/oshokin/forvo-grabber/internal/transport/http"
)

// Client defines the interface for interacting with Forvo's API.
type Client interface {
	// DownloadFromURL opens a download of the audio file at the specified URL.
	DownloadFromURL(ctx context.Context, url string) (*FetchAudioResult, error)
	// GetWordPronunciations returns the raw word-pronunciations response for an already normalized word.
	GetWordPronunciations(ctx context.Context, word, language string) ([]byte, error)
}

// ClientImpl implements the Client interface for interacting with Forvo's API.
type ClientImpl struct {
	// apiKey is the Forvo API key.
	apiKey string
	// baseURL is the base URL for API requests, without a trailing slash.
	baseURL string
	// httpClient is the HTTP client for making requests.
	httpClient *http.Client
}

const (
	// maxResponseSize limits the size of a word-pronunciations response.
	maxResponseSize = 4 * 1024 * 1024
	// maxErrorBodySize limits how much of an error response is quoted in the error message.
	maxErrorBodySize = 256
)

// NewClient creates and returns a new instance of ClientImpl.
func NewClient(cfg *config.Config) (Client, error) {
	baseURL, err := url.Parse(cfg.ForvoBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid host URL: %w", err)
	}

	client := &ClientImpl{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL.String(), "/"),
		httpClient: http_transport.NewClient(cfg.ParsedRequestTimeout, http_transport.NewDefaultUserAgentProvider()),
	}

	return client, nil
}

// GetWordPronunciations returns the raw word-pronunciations response for the word.
// The word is sent as is: the caller is responsible for normalizing it.
func (c *ClientImpl) GetWordPronunciations(ctx context.Context, word, language string) ([]byte, error) {
	route := c.wordPronunciationsURL(word, language)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, route, http.NoBody)
	if err != nil {
		return nil, err
	}

	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	if response.StatusCode != http.StatusOK {
		return nil, unexpectedStatusError(response)
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if len(body) > maxResponseSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, maxResponseSize)
	}

	return body, nil
}

// DownloadFromURL opens a download of the audio file at the specified URL.
func (c *ClientImpl) DownloadFromURL(ctx context.Context, url string) (*FetchAudioResult, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

		return nil, unexpectedStatusError(response)
	}

	return &FetchAudioResult{
		Body:        response.Body,
		TotalBytes:  response.ContentLength,
		ContentType: response.Header.Get("Content-Type"),
	}, nil
}

// wordPronunciationsURL builds
// {base}/key/{key}/format/json/action/word-pronunciations/word/{word}/language/{language}.
func (c *ClientImpl) wordPronunciationsURL(word, language string) string {
	segments := []string{
		"key", c.apiKey,
		"format", "json",
		"action", "word-pronunciations",
		"word", word,
		"language", language,
	}

	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}

	return c.baseURL + "/" + strings.Join(segments, "/")
}

// unexpectedStatusError describes a non-200 response, quoting the start of its body.
func unexpectedStatusError(response *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodySize))

	message := strings.TrimSpace(string(snippet))
	if message == "" {
		return fmt.Errorf("%w: %d", ErrUnexpectedHTTPStatus, response.StatusCode)
	}

	return fmt.Errorf("%w: %d: %s", ErrUnexpectedHTTPStatus, response.StatusCode, message)
}
