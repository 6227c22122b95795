package pronunciation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ContributorID identifies the person who recorded a pronunciation.
// The provider sends user names as strings but numeric ids are accepted too.
type ContributorID string

// UnmarshalJSON decodes a contributor identifier from a JSON string or number.
// JSON null decodes to the empty identifier.
func (id *ContributorID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		*id = ""

		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*id = ContributorID(text)

		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("contributor id must be a string or a number: %w", err)
	}

	*id = ContributorID(number.String())

	return nil
}

// String returns the identifier as is.
func (id ContributorID) String() string {
	return string(id)
}

// Candidate is one pronunciation record returned by the provider.
type Candidate struct {
	// ID is the provider's identifier of the recording.
	ID int64
	// Hits is how many times the recording was played.
	Hits int64
	// Votes is the net vote count; down-voted recordings have negative values.
	Votes int64
	// ContributorID identifies who recorded the pronunciation.
	ContributorID ContributorID
	// AudioReference is the URL of the MP3 file.
	AudioReference string
	// Country is the contributor's country, if known.
	Country string
	// ProviderIndex is the record's index in the provider's items array, skipped records included.
	ProviderIndex int
}

// ScoredCandidate is a candidate with its computed score.
type ScoredCandidate struct {
	Candidate

	// Score is the candidate's votes plus the contributor bonus.
	Score int64
	// Position is the candidate's index among the candidates passed to the scorer.
	// Skipped records are not counted, see Candidate.ProviderIndex.
	Position int
}

// SelectionResult holds the winning candidate or the "no candidates" outcome.
type SelectionResult struct {
	winner *ScoredCandidate
}

// NoCandidates reports whether there was nothing to choose from.
func (r SelectionResult) NoCandidates() bool {
	return r.winner == nil
}

// Winner returns the selected candidate. The second value is false for the "no candidates" outcome.
func (r SelectionResult) Winner() (ScoredCandidate, bool) {
	if r.winner == nil {
		return ScoredCandidate{}, false
	}

	return *r.winner, true
}

// Describe returns a short human-readable form of the candidate, used in logs and summaries.
func (c ScoredCandidate) Describe() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "#%d by %s, votes: %d, score: %d", c.ProviderIndex+1, c.contributorName(), c.Votes, c.Score)

	if c.Country != "" {
		fmt.Fprintf(&sb, ", %s", c.Country)
	}

	return sb.String()
}

func (c ScoredCandidate) contributorName() string {
	if c.ContributorID == "" {
		return "unknown"
	}

	return c.ContributorID.String()
}
