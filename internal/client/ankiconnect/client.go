package ankiconnect

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/oshokin/forvo-grabber/internal/config"
	http_transport "github.com/oshokin/forvo-grabber/internal/transport/http"
)

// Client defines the AnkiConnect actions used by the application.
type Client interface {
	// StoreMediaFile copies the file at path into the collection media folder under filename.
	// It returns the name Anki stored the file under.
	StoreMediaFile(ctx context.Context, filename, path string) (string, error)
	// Version returns the AnkiConnect API version.
	Version(ctx context.Context) (int64, error)
}

// ClientImpl implements the Client interface over HTTP.
type ClientImpl struct {
	// endpoint is the AnkiConnect URL.
	endpoint string
	// httpClient is the HTTP client for making requests.
	httpClient *http.Client
}

// APIVersion is the AnkiConnect protocol version requests are sent with.
const APIVersion = 6

// maxResponseSize limits the size of an AnkiConnect response.
const maxResponseSize = 1024 * 1024

// Static error definitions for better error handling.
var (
	// ErrUnexpectedHTTPStatus indicates an unexpected HTTP status code was received.
	ErrUnexpectedHTTPStatus = errors.New("unexpected HTTP status")
	// ErrActionFailed indicates that AnkiConnect reported an error for the action.
	ErrActionFailed = errors.New("ankiconnect action failed")
)

// request is the envelope of every AnkiConnect call.
type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

// response is the envelope of every AnkiConnect reply.
type response[T any] struct {
	Result T       `json:"result"`
	Error  *string `json:"error"`
}

// storeMediaFileParams are the parameters of the storeMediaFile action.
type storeMediaFileParams struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// NewClient creates and returns a new instance of ClientImpl.
func NewClient(cfg *config.Config) Client {
	return &ClientImpl{
		endpoint:   cfg.AnkiConnectURL,
		httpClient: http_transport.NewClient(cfg.ParsedRequestTimeout, http_transport.NewDefaultUserAgentProvider()),
	}
}

// StoreMediaFile copies the file at path into the collection media folder under filename.
func (c *ClientImpl) StoreMediaFile(ctx context.Context, filename, path string) (string, error) {
	params := storeMediaFileParams{
		Filename: filename,
		Path:     path,
	}

	return invoke[string](c, ctx, "storeMediaFile", params)
}

// Version returns the AnkiConnect API version.
func (c *ClientImpl) Version(ctx context.Context) (int64, error) {
	return invoke[int64](c, ctx, "version", nil)
}

// invoke performs an action and decodes its result.
//
//nolint:revive // Has no sense, it's cause Go doesn't allow struct methods to be generic.
func invoke[T any](c *ClientImpl, ctx context.Context, action string, params any) (T, error) {
	var zero T

	payload, err := json.Marshal(request{
		Action:  action,
		Version: APIVersion,
		Params:  params,
	})
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s request: %w", action, err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return zero, err
	}

	httpRequest.Header.Set("Content-Type", "application/json")

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return zero, err
	}

	defer httpResponse.Body.Close() //nolint:errcheck // Error on close is not critical here.

	if httpResponse.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("%w: %d", ErrUnexpectedHTTPStatus, httpResponse.StatusCode)
	}

	var result response[T]
	if err = json.NewDecoder(io.LimitReader(httpResponse.Body, maxResponseSize)).Decode(&result); err != nil {
		return zero, fmt.Errorf("failed to decode %s response: %w", action, err)
	}

	if result.Error != nil && *result.Error != "" {
		return zero, fmt.Errorf("%w: %s: %s", ErrActionFailed, action, *result.Error)
	}

	return result.Result, nil
}
