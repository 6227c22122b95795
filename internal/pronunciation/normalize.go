package pronunciation

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// combiningAcute is the stress mark used in dictionaries and textbooks.
	combiningAcute = '\u0301'
	// combiningGrave marks secondary stress.
	combiningGrave = '\u0300'
)

// isStressMark reports whether r belongs to the stress-accent class.
// Other non-spacing marks (the breve of "й", the diaeresis of "ё") are letters, not stress.
func isStressMark(r rune) bool {
	return r == combiningAcute || r == combiningGrave
}

// Normalize removes stress marks from Cyrillic letters and returns the word in NFC form.
// Accents on other scripts are part of the spelling ("está", "perché") and are kept.
// A stress mark with no letter before it is removed as well.
// Case and whitespace are left untouched, and Normalize(Normalize(w)) == Normalize(w).
func Normalize(word string) string {
	if word == "" {
		return ""
	}

	return norm.NFC.String(stripStressMarks(norm.NFD.String(word)))
}

// HasStressMarks reports whether Normalize would remove at least one stress mark from the word.
func HasStressMarks(word string) bool {
	decomposed := norm.NFD.String(word)

	return len(stripStressMarks(decomposed)) != len(decomposed)
}

// stripStressMarks drops stress marks that follow a Cyrillic base letter in a decomposed string.
func stripStressMarks(decomposed string) string {
	var (
		sb          strings.Builder
		isDroppable = true
	)

	sb.Grow(len(decomposed))

	for _, r := range decomposed {
		switch {
		case !unicode.Is(unicode.Mn, r):
			isDroppable = unicode.Is(unicode.Cyrillic, r)
		case isStressMark(r) && isDroppable:
			continue
		}

		sb.WriteRune(r)
	}

	return sb.String()
}
