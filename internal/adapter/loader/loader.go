package loader

import (
	"context"

	"quiz-rag/internal/domain"
	"quiz-rag/internal/logger"

	"go.uber.org/zap"
)

// SourceLoader dispatches to the PDF or transcript loader depending on which
// location the source carries.
type SourceLoader struct {
	pdf        domain.Loader
	transcript domain.Loader
}

// NewSourceLoader creates a new SourceLoader.
func NewSourceLoader(pdf, transcript domain.Loader) *SourceLoader {
	return &SourceLoader{pdf: pdf, transcript: transcript}
}

// Load validates the source and returns a document with at least some text.
func (l *SourceLoader) Load(ctx context.Context, src domain.Source) (*domain.Document, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	var next domain.Loader
	switch src.Type() {
	case domain.SourceTypePDF:
		next = l.pdf
	default:
		next = l.transcript
	}

	doc, err := next.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	if !doc.HasText() {
		return nil, domain.NewSourceUnavailableError("no extractable text in source", nil)
	}

	logger.Get().Debug("Source loaded",
		zap.String("type", string(doc.SourceType)),
		zap.String("title", doc.Title),
		zap.Int("segments", len(doc.Segments)),
	)
	return doc, nil
}

var _ domain.Loader = (*SourceLoader)(nil)
var _ domain.Loader = (*PDFLoader)(nil)
var _ domain.Loader = (*TranscriptLoader)(nil)
