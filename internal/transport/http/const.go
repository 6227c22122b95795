package http

import "time"

const (
	// DefaultTimeout is the default timeout duration for HTTP requests.
	DefaultTimeout = 60 * time.Second

	// ProductName is the product token sent in the User-Agent header.
	ProductName = "forvo-grabber"

	// ProductComment points API operators to the project page.
	ProductComment = "+https://github.com/oshokin/forvo-grabber"
)
