package forvo

import (
	"bytes"
	"context"
	"html"
	"html/template"
	"strings"

	"github.com/oshokin/forvo-grabber/internal/config"
	"github.com/oshokin/forvo-grabber/internal/logger"
)

// Keys available to the filename template.
const (
	tagWord           = "word"
	tagNormalizedWord = "normalizedWord"
	tagLanguage       = "language"
	tagContributor    = "contributor"
	tagCountry        = "country"
	tagSourceURL      = "sourceURL"
)

// TemplateManager defines the interface for generating filenames of downloaded pronunciations.
type TemplateManager interface {
	// GetWordFilename generates a filename (without extension) for a word based on its tags.
	GetWordFilename(ctx context.Context, tags map[string]string) string
}

// TemplateManagerImpl implements the TemplateManager interface.
type TemplateManagerImpl struct {
	// wordFilenameTemplate is the template for word filenames, nil if it failed to parse.
	wordFilenameTemplate *template.Template
	// defaultWordFilenameTemplate is the fallback template for word filenames.
	defaultWordFilenameTemplate *template.Template
}

// NewTemplateManager creates and returns a new instance of TemplateManagerImpl.
// It falls back to the default template if the configured one fails to parse.
func NewTemplateManager(ctx context.Context, cfg *config.Config) TemplateManager {
	defaultWordFilenameTemplate := template.Must(
		template.New("defaultWordFilenameTemplate").Parse(config.DefaultFilenameTemplate))

	var wordFilenameTemplate *template.Template

	if cfg.FilenameTemplate != "" {
		parsed, err := template.New("wordFilenameTemplate").
			Option("missingkey=zero").
			Parse(cfg.FilenameTemplate)
		if err != nil {
			logger.Errorf(ctx, "Failed to parse filename template, using default: %v", err)
		} else {
			wordFilenameTemplate = parsed
		}
	}

	return &TemplateManagerImpl{
		wordFilenameTemplate:        wordFilenameTemplate,
		defaultWordFilenameTemplate: defaultWordFilenameTemplate,
	}
}

// GetWordFilename generates a filename (without extension) for a word based on its tags.
// An empty result of the configured template falls back to the default one.
func (s *TemplateManagerImpl) GetWordFilename(ctx context.Context, tags map[string]string) string {
	var buffer bytes.Buffer

	if s.wordFilenameTemplate != nil {
		err := s.wordFilenameTemplate.Execute(&buffer, tags)
		if err != nil {
			logger.Errorf(ctx, "Failed to execute filename template, using default: %v", err)
			buffer.Reset()
		}
	}

	if strings.TrimSpace(buffer.String()) == "" {
		buffer.Reset()

		_ = s.defaultWordFilenameTemplate.Execute(&buffer, tags) //nolint:errcheck // Default template is always valid.
	}

	// Unescape HTML entities in the generated filename.
	return strings.TrimSpace(html.UnescapeString(buffer.String()))
}
