package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/docrev/pkg/domain/types"
	"github.com/secmon-lab/docrev/pkg/utils/logging"
)

// ContentKind discriminates the two normalized content forms
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentImage ContentKind = "image"
)

// ContentUnit is the normalized form of one attachment: either
// extracted text or a directly renderable image reference
type ContentUnit struct {
	Kind  ContentKind
	Value string
}

// File is an attachment as received from the UI
type File struct {
	Filename  string
	MediaType string
	URL       string
}

// MIME types recognized as PowerPoint presentations
const (
	mimePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimePPT  = "application/vnd.ms-powerpoint"
	mimePDF  = "application/pdf"
)

// Service converts an attached file into a normalized content unit
type Service interface {
	Extract(ctx context.Context, file File) (ContentUnit, error)
}

type service struct{}

// New creates the default extractor
func New() Service {
	return &service{}
}

// Extract applies the attachment rules in priority order. Images
// pass through by reference. Documents must arrive as base64 data
// URIs; a violation is a malformed attachment error. Parser
// failures never fail the call: the attachment degrades to a
// visible placeholder so the rest of the message survives.
func (s *service) Extract(ctx context.Context, file File) (ContentUnit, error) {
	if strings.HasPrefix(file.MediaType, "image/") {
		return ContentUnit{Kind: ContentImage, Value: file.URL}, nil
	}

	payload, err := decodeDataURI(file.URL)
	if err != nil {
		return ContentUnit{}, goerr.Wrap(err, "attachment is not a valid data URI",
			goerr.T(types.ErrTagMalformedAttachment),
			goerr.V("filename", file.Filename),
			goerr.V("mediaType", file.MediaType),
		)
	}

	switch file.MediaType {
	case mimePDF:
		text, err := extractPDFText(payload)
		if err != nil {
			logging.From(ctx).Error("failed to parse PDF attachment",
				"filename", file.Filename,
				"error", goerr.Wrap(err, "pdf extraction failed", goerr.T(types.ErrTagExtraction)).Error(),
			)
			return ContentUnit{
				Kind:  ContentText,
				Value: fmt.Sprintf("[Error: Could not parse PDF file %s]", file.Filename),
			}, nil
		}
		return ContentUnit{
			Kind:  ContentText,
			Value: fmt.Sprintf("[PDF: %s]\n\n%s", file.Filename, text),
		}, nil

	case mimePPTX, mimePPT:
		text, err := extractSlideText(ctx, payload)
		if err != nil {
			logging.From(ctx).Error("failed to parse PowerPoint attachment",
				"filename", file.Filename,
				"error", goerr.Wrap(err, "slide extraction failed", goerr.T(types.ErrTagExtraction)).Error(),
			)
			return ContentUnit{
				Kind:  ContentText,
				Value: fmt.Sprintf("[Error: Could not parse PowerPoint file %s]", file.Filename),
			}, nil
		}
		return ContentUnit{
			Kind:  ContentText,
			Value: fmt.Sprintf("[PowerPoint: %s]\n\n%s", file.Filename, text),
		}, nil
	}

	return ContentUnit{
		Kind:  ContentText,
		Value: fmt.Sprintf("[Unsupported file type: %s (%s)]", file.Filename, file.MediaType),
	}, nil
}

// decodeDataURI decodes a data:<mediaType>;base64,<payload> URI
func decodeDataURI(url string) ([]byte, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return nil, goerr.New("URL does not use the data scheme")
	}

	_, encoded, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return nil, goerr.New("data URI is not base64 encoded")
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid base64 payload")
	}

	return payload, nil
}
