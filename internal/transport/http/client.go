package http

import (
	"net/http"
	"time"

	"github.com/oshokin/forvo-grabber/internal/utils"
	"github.com/oshokin/forvo-grabber/internal/version"
)

// NewDefaultUserAgentProvider returns a provider identifying this build, e.g. "forvo-grabber/0.2.0 (+https://...)".
func NewDefaultUserAgentProvider() utils.UserAgentProvider {
	return utils.NewProductUserAgentProvider(ProductName, version.Short(), ProductComment)
}

// NewClient creates an HTTP client that injects the User-Agent header and dumps traffic at debug level.
// A non-positive timeout falls back to DefaultTimeout; a nil provider falls back to NewDefaultUserAgentProvider.
func NewClient(timeout time.Duration, userAgentProvider utils.UserAgentProvider) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if userAgentProvider == nil {
		userAgentProvider = NewDefaultUserAgentProvider()
	}

	return &http.Client{
		Transport: NewUserAgentInjector(
			NewLogTransport(http.DefaultTransport, 0),
			userAgentProvider),
		Timeout: timeout,
	}
}
