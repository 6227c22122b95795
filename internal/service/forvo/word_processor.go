package forvo

import (
	"context"
	"fmt"
	"strings"

	"github.com/oshokin/forvo-grabber/internal/constants"
	"github.com/oshokin/forvo-grabber/internal/logger"
	"github.com/oshokin/forvo-grabber/internal/utils"
)

// WordProcessor defines the interface for turning command line arguments into a list of words.
type WordProcessor interface {
	// ExtractWords expands text files into their lines and returns unique words in the order they were given.
	ExtractWords(ctx context.Context, args []string) ([]string, error)
}

// WordProcessorImpl implements the WordProcessor interface.
type WordProcessorImpl struct{}

// NewWordProcessor creates and returns a new instance of WordProcessorImpl.
func NewWordProcessor() WordProcessor {
	return new(WordProcessorImpl)
}

// ExtractWords expands text files into their lines and returns unique words in the order they were given.
// Arguments ending with ".txt" are read as word lists, one word per line.
func (wp *WordProcessorImpl) ExtractWords(ctx context.Context, args []string) ([]string, error) {
	var (
		processedSet       = make(map[string]struct{}, len(args))
		processedTextFiles = make(map[string]struct{})
		words              = make([]string, 0, len(args))
	)

	addWord := func(word string) {
		word = strings.TrimSpace(word)
		if word == "" {
			return
		}

		if _, ok := processedSet[word]; ok {
			return
		}

		processedSet[word] = struct{}{}

		words = append(words, word)
	}

	for _, arg := range args {
		if !isWordList(arg) {
			addWord(arg)

			continue
		}

		if _, exists := processedTextFiles[arg]; exists {
			continue
		}

		lines, err := utils.ReadUniqueLinesFromFile(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read word list '%s': %w", arg, err)
		}

		logger.Debugf(ctx, "Read %d word(s) from '%s'", len(lines), arg)

		for _, line := range lines {
			addWord(line)
		}

		processedTextFiles[arg] = struct{}{}
	}

	return words, nil
}

func isWordList(arg string) bool {
	return strings.HasSuffix(strings.ToLower(arg), constants.ExtensionText)
}
