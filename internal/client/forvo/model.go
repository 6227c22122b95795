package forvo

import "io"

// FetchAudioResult is an open audio download.
type FetchAudioResult struct {
	// Body streams the audio file; the caller must close it.
	Body io.ReadCloser
	// TotalBytes is the announced content length, or -1 when unknown.
	TotalBytes int64
	// ContentType is the announced media type.
	ContentType string
}
