package pronunciation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecode tests the Decode function.
func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		expected []Candidate
	}{
		{
			name: "full provider response",
			raw: `{
				"attributes": {"total": 2},
				"items": [
					{
						"id": 7051,
						"word": "собака",
						"hits": 1932,
						"username": "Spinster",
						"sex": "f",
						"country": "Russia",
						"code": "ru",
						"pathmp3": "https://apifree.forvo.com/audio/1.mp3",
						"num_votes": 5,
						"num_positive_votes": 3
					},
					{
						"id": 7052,
						"hits": 12,
						"username": "anon",
						"pathmp3": "https://apifree.forvo.com/audio/2.mp3",
						"num_positive_votes": -1
					}
				]
			}`,
			expected: []Candidate{
				{
					ID:             7051,
					Hits:           1932,
					Votes:          3,
					ContributorID:  "Spinster",
					AudioReference: "https://apifree.forvo.com/audio/1.mp3",
					Country:        "Russia",
				},
				{
					ID:             7052,
					Hits:           12,
					Votes:          -1,
					ContributorID:  "anon",
					AudioReference: "https://apifree.forvo.com/audio/2.mp3",
					ProviderIndex:  1,
				},
			},
		},
		{
			name: "one malformed record among three is skipped",
			raw: `{"items": [
				{"username": "a", "pathmp3": "https://x/1.mp3", "num_positive_votes": 1},
				{"username": "b", "pathmp3": "https://x/2.mp3", "num_positive_votes": "many"},
				{"username": "c", "pathmp3": "https://x/3.mp3", "num_positive_votes": 2}
			]}`,
			expected: []Candidate{
				{ContributorID: "a", AudioReference: "https://x/1.mp3", Votes: 1},
				{ContributorID: "c", AudioReference: "https://x/3.mp3", Votes: 2, ProviderIndex: 2},
			},
		},
		{
			name: "records without required fields are skipped",
			raw: `{"items": [
				{"username": "no votes", "pathmp3": "https://x/1.mp3"},
				{"username": "null votes", "pathmp3": "https://x/2.mp3", "num_positive_votes": null},
				{"username": "fractional votes", "pathmp3": "https://x/3.mp3", "num_positive_votes": 1.5},
				{"username": "no audio", "num_positive_votes": 4},
				{"username": "blank audio", "pathmp3": "  ", "num_positive_votes": 4},
				{"username": "numeric audio", "pathmp3": 42, "num_positive_votes": 4},
				"not an object",
				null,
				{"username": "ok", "pathmp3": "https://x/ok.mp3", "num_positive_votes": 0}
			]}`,
			expected: []Candidate{
				{ContributorID: "ok", AudioReference: "https://x/ok.mp3", ProviderIndex: 8},
			},
		},
		{
			name: "malformed optional fields fall back to zero values",
			raw: `{"items": [
				{"id": "x", "hits": null, "username": 1640, "country": ["RU"],
				 "pathmp3": "https://x/1.mp3", "num_positive_votes": 2}
			]}`,
			expected: []Candidate{
				{ContributorID: "1640", AudioReference: "https://x/1.mp3", Votes: 2},
			},
		},
		{
			name:     "empty items array",
			raw:      `{"attributes": {"total": 0}, "items": []}`,
			expected: []Candidate{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			candidates, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, candidates)
		})
	}
}

// TestDecode_Errors tests that structurally invalid responses fail with ErrDecode.
func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		raw           string
		expectedError string
	}{
		{
			name: "empty body",
			raw:  "",
		},
		{
			name: "not JSON",
			raw:  "<html>Service Unavailable</html>",
		},
		{
			name:          "provider error message",
			raw:           `["Limit/day reached."]`,
			expectedError: `provider says "Limit/day reached."`,
		},
		{
			name:          "null body",
			raw:           "null",
			expectedError: "not a JSON object",
		},
		{
			name:          "missing items",
			raw:           `{"attributes": {"total": 0}}`,
			expectedError: "no items array",
		},
		{
			name:          "null items",
			raw:           `{"items": null}`,
			expectedError: "no items array",
		},
		{
			name:          "items is an object",
			raw:           `{"items": {"id": 1}}`,
			expectedError: "no items array",
		},
		{
			name: "truncated body",
			raw:  `{"items": [{"pathmp3": "https://x/1.mp3", "num_positive_votes": 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			candidates, err := Decode([]byte(tt.raw))
			require.ErrorIs(t, err, ErrDecode)
			assert.Nil(t, candidates)

			if tt.expectedError != "" {
				assert.Contains(t, err.Error(), tt.expectedError)
			}
		})
	}
}

// TestContributorID_UnmarshalJSON tests decoding contributor identifiers.
func TestContributorID_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		expected    ContributorID
		expectError bool
	}{
		{
			name:     "string",
			input:    `"Shady_arc"`,
			expected: "Shady_arc",
		},
		{
			name:     "number",
			input:    `12345`,
			expected: "12345",
		},
		{
			name:     "null",
			input:    `null`,
			expected: "",
		},
		{
			name:        "boolean",
			input:       `true`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var id ContributorID

			err := id.UnmarshalJSON([]byte(tt.input))
			if tt.expectError {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}
