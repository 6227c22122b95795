// Package ankiconnect is a minimal client for the AnkiConnect add-on.
// It registers downloaded audio files in the media folder of the open Anki collection.
package ankiconnect
