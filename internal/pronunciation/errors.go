package pronunciation

import "errors"

// Lookup failure classes. Callers wrap the underlying cause with one of these
// so both can be matched with errors.Is.
var (
	// ErrTransport indicates that the provider or the audio host could not be reached
	// or answered with an unexpected status.
	ErrTransport = errors.New("transport error")
	// ErrDecode indicates that the provider response is not the expected structure.
	ErrDecode = errors.New("decode error")
	// ErrStorage indicates that the audio file could not be written to its destination.
	ErrStorage = errors.New("storage error")
	// ErrEmptyWord indicates that nothing is left of the word after normalization.
	ErrEmptyWord = errors.New("word is empty")
	// ErrAnkiConnect indicates that the downloaded file could not be registered with Anki.
	ErrAnkiConnect = errors.New("ankiconnect error")
	// ErrIncompleteDownload indicates that fewer bytes arrived than the server announced.
	ErrIncompleteDownload = errors.New("incomplete download")
)
