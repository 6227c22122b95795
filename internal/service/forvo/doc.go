// Package forvo provides the pronunciation download pipeline: it normalizes the requested words,
// asks Forvo for their recordings, picks the best one and stores it as an MP3 file,
// optionally registering it with Anki.
package forvo
