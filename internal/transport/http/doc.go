// Package http provides the HTTP client stack shared by the Forvo and AnkiConnect clients:
// a debug-level request/response logger that masks API keys and a User-Agent injector.
package http
