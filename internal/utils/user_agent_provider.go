package utils

//go:generate $MOCKGEN -source=user_agent_provider.go -destination=mocks/user_agent_provider_mock.go

import (
	"fmt"
	"strings"
)

// UserAgentProvider is an interface that defines a method for retrieving a User-Agent string.
type UserAgentProvider interface {
	// GetUserAgent returns a User-Agent string.
	GetUserAgent() string
}

// SimpleUserAgentProvider is a basic implementation of the UserAgentProvider interface.
// It provides a static User-Agent string that is set during initialization.
type SimpleUserAgentProvider struct {
	// userAgent is the User-Agent string to return.
	userAgent string
}

// NewSimpleUserAgentProvider creates and returns a new instance of SimpleUserAgentProvider.
func NewSimpleUserAgentProvider(userAgent string) UserAgentProvider {
	return &SimpleUserAgentProvider{userAgent: userAgent}
}

// NewProductUserAgentProvider returns a provider for a "product/version (comment)" User-Agent.
// Empty version and comment parts are omitted.
func NewProductUserAgentProvider(product, version, comment string) UserAgentProvider {
	return &SimpleUserAgentProvider{userAgent: FormatUserAgent(product, version, comment)}
}

// GetUserAgent returns a User-Agent string.
func (p *SimpleUserAgentProvider) GetUserAgent() string {
	return p.userAgent
}

// FormatUserAgent builds a product token as described in RFC 9110, section 10.1.5.
func FormatUserAgent(product, version, comment string) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimSpace(product))

	if version = strings.TrimSpace(version); version != "" {
		sb.WriteByte('/')
		sb.WriteString(version)
	}

	if comment = strings.TrimSpace(comment); comment != "" {
		fmt.Fprintf(&sb, " (%s)", comment)
	}

	return sb.String()
}
