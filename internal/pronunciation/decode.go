package pronunciation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Field names of a provider pronunciation record.
const (
	fieldItems       = "items"
	fieldID          = "id"
	fieldHits        = "hits"
	fieldUsername    = "username"
	fieldCountry     = "country"
	fieldVotes       = "num_positive_votes"
	fieldAudioMP3URL = "pathmp3"
)

//nolint:gochecknoglobals // Immutable literal compared against raw JSON values.
var jsonNull = []byte("null")

// Static error definitions for better error handling.
var (
	// errNotAnObject indicates that the response body is not a JSON object.
	errNotAnObject = errors.New("response is not a JSON object")
	// errNoItems indicates that the response has no items array.
	errNoItems = errors.New("response has no items array")
)

// Decode parses the provider's word-pronunciations response into candidates, keeping provider order.
// Records with a missing or malformed vote count or audio URL are skipped.
// A body that is not an object with an items array fails with ErrDecode.
func Decode(raw []byte) ([]Candidate, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		if message := providerMessage(raw); message != "" {
			return nil, fmt.Errorf("%w: provider says %q", ErrDecode, message)
		}

		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if envelope == nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, errNotAnObject)
	}

	rawItems, ok := envelope[fieldItems]
	if !ok || isJSONNull(rawItems) {
		return nil, fmt.Errorf("%w: %w", ErrDecode, errNoItems)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(rawItems, &items); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrDecode, errNoItems, err)
	}

	candidates := make([]Candidate, 0, len(items))

	for i, item := range items {
		candidate, isValid := decodeCandidate(item)
		if !isValid {
			continue
		}

		candidate.ProviderIndex = i
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// decodeCandidate decodes a single record.
// The second return value is false when a required field is missing or malformed.
func decodeCandidate(raw json.RawMessage) (Candidate, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Candidate{}, false
	}

	var candidate Candidate

	rawVotes, ok := fields[fieldVotes]
	if !ok || isJSONNull(rawVotes) {
		return Candidate{}, false
	}

	if err := json.Unmarshal(rawVotes, &candidate.Votes); err != nil {
		return Candidate{}, false
	}

	if err := json.Unmarshal(fields[fieldAudioMP3URL], &candidate.AudioReference); err != nil {
		return Candidate{}, false
	}

	candidate.AudioReference = strings.TrimSpace(candidate.AudioReference)
	if candidate.AudioReference == "" {
		return Candidate{}, false
	}

	// Optional fields fall back to zero values.
	decodeOptional(fields[fieldID], &candidate.ID)
	decodeOptional(fields[fieldHits], &candidate.Hits)
	decodeOptional(fields[fieldUsername], &candidate.ContributorID)
	decodeOptional(fields[fieldCountry], &candidate.Country)

	return candidate, true
}

// decodeOptional unmarshals an optional field, leaving the target untouched when it is absent or malformed.
func decodeOptional[T any](raw json.RawMessage, target *T) {
	if len(raw) == 0 || isJSONNull(raw) {
		return
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return
	}

	*target = value
}

// providerMessage extracts the text of an error response such as ["Limit/day reached."].
func providerMessage(raw []byte) string {
	var messages []string
	if err := json.Unmarshal(raw, &messages); err != nil {
		return ""
	}

	return strings.TrimSpace(strings.Join(messages, " "))
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}
