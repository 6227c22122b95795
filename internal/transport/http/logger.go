package http

import (
	"errors"
	"net/http"
	"net/http/httputil"
	"regexp"
	"time"

	"github.com/oshokin/forvo-grabber/internal/config"
	"github.com/oshokin/forvo-grabber/internal/logger"
	"github.com/oshokin/forvo-grabber/internal/utils"
)

// LogTransport is a custom http.RoundTripper that logs HTTP requests and responses.
// It wraps another http.RoundTripper and logs debug information for each request/response cycle.
// API keys embedded in Forvo URLs are masked in every logged line.
type LogTransport struct {
	// next is the underlying HTTP round tripper.
	next http.RoundTripper
	// maxLogLength is the maximum length of logged request/response data.
	maxLogLength uint64
}

// redactedKey replaces API keys in logged URLs.
const redactedKey = "/key/***/"

// Static error definitions for better error handling.
var (
	// ErrNilRequest indicates that the HTTP request is nil.
	ErrNilRequest = errors.New("request is nil")
)

// apiKeyPathPattern matches the key segment of a Forvo API path.
//
//nolint:gochecknoglobals // This is immutable, pre-compiled regex pattern and used as a constant.
var apiKeyPathPattern = regexp.MustCompile(`/key/[^/\s]+/`)

// NewLogTransport creates and returns a new instance of LogTransport.
// If maxLogLength is less than or equal to 0, it defaults to config.DefaultMaxLogLength.
func NewLogTransport(next http.RoundTripper, maxLogLength uint64) http.RoundTripper {
	if maxLogLength <= 0 {
		maxLogLength = config.DefaultMaxLogLength
	}

	return &LogTransport{
		next:         next,
		maxLogLength: maxLogLength,
	}
}

// RedactAPIKey masks the API key segment of a Forvo URL or path.
func RedactAPIKey(text string) string {
	return apiKeyPathPattern.ReplaceAllString(text, redactedKey)
}

// RoundTrip executes a single HTTP transaction and logs the request and response.
// It implements the http.RoundTripper interface.
func (t *LogTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	// Skip logging if the logger is not at debug level.
	if !logger.IsDebugLevel() {
		return t.next.RoundTrip(req)
	}

	var (
		ctx         = req.Context()
		requestDump = t.dumpRequest(req)
		route       = RedactAPIKey(req.URL.Path)
		startTime   = time.Now()
	)

	resp, err := t.next.RoundTrip(req)

	duration := time.Since(startTime)

	if err != nil {
		logger.Debugf(ctx, "Request failed: %s %s | Error: %s",
			req.Method, RedactAPIKey(req.URL.String()), RedactAPIKey(err.Error()))

		return nil, err
	}

	responseDump := t.dumpResponse(resp)

	logger.Debugf(ctx, "%s %s [%d] %s\nRequest: %s\nResponse: %s",
		req.Method, route, resp.StatusCode, duration, requestDump, responseDump)

	return resp, nil
}

func (t *LogTransport) dumpRequest(req *http.Request) string {
	// Include the request body in the dump.
	dump, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		return err.Error()
	}

	return t.truncate(RedactAPIKey(string(dump)))
}

func (t *LogTransport) dumpResponse(resp *http.Response) string {
	// Audio bodies are skipped, JSON and text bodies are dumped.
	contentType := resp.Header.Get("Content-Type")

	dump, err := httputil.DumpResponse(resp, utils.IsTextContentType(contentType))
	if err != nil {
		return err.Error()
	}

	return t.truncate(string(dump))
}

func (t *LogTransport) truncate(data string) string {
	if uint64(len(data)) > t.maxLogLength {
		return data[:t.maxLogLength] + "... [truncated]"
	}

	return data
}
