package forvo

import (
	"context"
	"errors"
	"strings"

	"github.com/oshokin/id3v2/v2"

	"github.com/oshokin/forvo-grabber/internal/logger"
)

// TagProcessor defines the interface for writing metadata tags to audio files.
type TagProcessor interface {
	WriteTags(ctx context.Context, req *WriteTagsRequest) error
}

// WriteTagsRequest contains parameters for writing metadata to audio files.
type WriteTagsRequest struct {
	// FilePath is the path of the MP3 file.
	FilePath string
	// Tags contains metadata key-value pairs to write.
	Tags map[string]string
}

// TagProcessorImpl provides the default implementation of TagProcessor.
type TagProcessorImpl struct{}

// commentDescription is the description of the ID3 comment frame carrying the lookup details.
const commentDescription = "forvo"

// Static error definitions for better error handling.
var (
	// ErrEmptyFilePath indicates that the audio file path is empty.
	ErrEmptyFilePath = errors.New("file path cannot be empty")
)

// NewTagProcessor creates a new TagProcessor instance.
func NewTagProcessor() TagProcessor {
	return new(TagProcessorImpl)
}

// WriteTags writes ID3v2 metadata to the MP3 file.
func (tp *TagProcessorImpl) WriteTags(ctx context.Context, req *WriteTagsRequest) error {
	if req.FilePath == "" {
		return ErrEmptyFilePath
	}

	//nolint:exhaustruct // ParseFrames intentionally omitted when Parse=false (parsing disabled).
	tag, err := id3v2.Open(req.FilePath, id3v2.Options{Parse: false})
	if err != nil {
		return err
	}

	defer tag.Close()

	tp.addMP3Tags(ctx, tag, req)

	return tag.Save()
}

func (tp *TagProcessorImpl) addMP3Tags(ctx context.Context, tag *id3v2.Tag, req *WriteTagsRequest) {
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	tag.SetTitle(req.Tags[tagWord])
	tag.SetArtist(req.Tags[tagContributor])

	if language := req.Tags[tagLanguage]; language != "" {
		tag.AddTextFrame(tag.CommonID("Language"), tag.DefaultEncoding(), language)
	}

	comment := tp.buildComment(req.Tags)
	if comment == "" {
		return
	}

	logger.Debugf(ctx, "Writing comment to '%s': %s", req.FilePath, comment)

	tag.AddCommentFrame(id3v2.CommentFrame{
		Encoding:    id3v2.EncodingUTF8,
		Language:    id3v2.EnglishISO6392Code,
		Description: commentDescription,
		Text:        comment,
	})
}

// buildComment joins the lookup details that have no dedicated ID3 frame.
func (tp *TagProcessorImpl) buildComment(tags map[string]string) string {
	parts := make([]string, 0, 3) //nolint:mnd // Normalized word, country and source.

	if normalized := tags[tagNormalizedWord]; normalized != "" && normalized != tags[tagWord] {
		parts = append(parts, "normalized: "+normalized)
	}

	if country := tags[tagCountry]; country != "" {
		parts = append(parts, "country: "+country)
	}

	if source := tags[tagSourceURL]; source != "" {
		parts = append(parts, "source: "+source)
	}

	return strings.Join(parts, "; ")
}
