// Package forvo implements the HTTP client for the Forvo pronunciation API:
// the word-pronunciations query and plain audio downloads.
package forvo
